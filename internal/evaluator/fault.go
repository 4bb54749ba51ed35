package evaluator

import (
	"errors"
	"fmt"

	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/stdlib"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// Frame is one entry of a runtime stack trace: the function that was
// called and the span of the call expression.
type Frame struct {
	Function string
	Call     source.Span
}

// Fault is a runtime error raised while evaluating a program.
type Fault struct {
	Code    diagnostic.Code
	Message string
	Span    source.Span
	File    *source.File
	Trace   []Frame
	Err     error
}

func (f *Fault) Error() string {
	if f.File != nil {
		return fmt.Sprintf("%s:%s: %s", f.File.Name(), f.File.Position(f.Span.Start), f.Message)
	}
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Diagnostic converts the fault, attaching the call stack as related spans.
func (f *Fault) Diagnostic(diags *diagnostic.Collector) diagnostic.Diagnostic {
	d := diags.New(f.Code, f.Span, "%s", f.Message)
	for _, frame := range f.Trace {
		d.Related = append(d.Related, diags.Related(frame.Call, "in call to %s", frame.Function))
	}
	return d
}

// codeFor classifies an error returned by a built-in or a value operation.
func codeFor(err error) diagnostic.Code {
	var pathErr *value.PathError
	switch {
	case errors.As(err, &pathErr):
		if pathErr.Kind == value.PathMissing {
			return diagnostic.CodeMissingPath
		}
		return diagnostic.CodePathTypeMismatch
	case errors.Is(err, stdlib.ErrRaised):
		return diagnostic.CodeRaised
	case errors.Is(err, value.ErrDivisionByZero):
		return diagnostic.CodeDivisionByZero
	case errors.Is(err, value.ErrNotFinite):
		return diagnostic.CodeNumericOverflow
	case errors.Is(err, value.ErrTooLarge):
		return diagnostic.CodeLimitExceeded
	}
	return diagnostic.CodeTypeMismatch
}
