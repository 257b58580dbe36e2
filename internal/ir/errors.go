package ir

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Error codes for the optimizer, per spec.md §7. Adapted from the
// teacher's internal/errors numbering scheme (internal/errors/codes.go)
// to this system's four error kinds.
const (
	// ErrIRParse: the input document is not valid JSON, or does not match
	// the IR schema.
	ErrIRParse = "E0001"
	// ErrUnknownFunction: a --cfg-fun lookup matched zero or more than one
	// function.
	ErrUnknownFunction = "E0002"
	// ErrTraceParse: a trace-spec string failed to parse.
	ErrTraceParse = "E0003"
	// ErrDominatorCheck: the dominator self-check (`dom` mode) failed.
	ErrDominatorCheck = "E0004"
)

// OptimizerError is a structured error carrying one of the codes above, in
// the teacher's CompilerError shape (internal/errors/reporter.go) cut down
// to what a batch CLI over a single diagnostic stream needs: no source
// position, since spec.md §7 only requires "a single human-readable line".
type OptimizerError struct {
	Code    string
	Message string
}

func (e *OptimizerError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewOptimizerError builds an OptimizerError, formatting Message with fmt.
func NewOptimizerError(code, format string, args ...interface{}) *OptimizerError {
	return &OptimizerError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Report writes the single colorized diagnostic line spec.md §7 requires
// to standard error; the teacher's CLI colors errors red with a "❌"
// prefix (cmd/kanso-cli/main.go's reportParseError), which this mirrors.
func Report(err error) {
	red := color.New(color.FgRed)
	if oe, ok := err.(*OptimizerError); ok {
		red.Fprintf(os.Stderr, "❌ [%s] %s\n", oe.Code, oe.Message)
		return
	}
	red.Fprintf(os.Stderr, "❌ %s\n", err.Error())
}
