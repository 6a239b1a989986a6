package asm

import (
	"fmt"
	"strings"
)

// ParseError is one diagnostic, anchored to the offending token.
type ParseError struct {
	Line   int
	Column int
	Msg    string
	Near   string
}

func (e *ParseError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s (near %q)", e.Line, e.Column, e.Msg, e.Near)
}

// MultiError collects every diagnostic of a parse. A non-empty MultiError
// means the parse failed; the program must not be run.
type MultiError struct {
	Errors []*ParseError
}

func (e *MultiError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d parse error(s):\n%s", len(e.Errors), strings.Join(msgs, "\n"))
}
