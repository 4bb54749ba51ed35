package exit

import (
	"fmt"
	"io"
	"os"
)

const (
	CodeSuccess = 0
	// CodeFailure reports script errors, runtime faults and I/O failures.
	CodeFailure = 1
	CodeUsage   = 2
)

// Result is how jpatch terminates: a message, where it goes and the process
// exit code.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

// Print writes the result message to the configured output destination.
func (r *Result) Print() {
	if r.Message == "" {
		return
	}
	fmt.Fprint(r.Output, r.Message)
}

func Success(message string) *Result {
	return &Result{
		Output:   os.Stdout,
		ExitCode: CodeSuccess,
		Message:  message,
	}
}

func Error(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeFailure,
		Message:  message,
	}
}

func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// Usage reports invalid arguments.
func Usage(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeUsage,
		Message:  message,
	}
}

// To redirects the message.
func (r *Result) To(w io.Writer) *Result {
	r.Output = w
	return r
}
