package expression

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is returned when the plain string does not follow the math or text grammar
	ErrSyntax = errors.New("syntax error")
	// ErrUnresolvedFunction is returned when a call names a function missing from the registry
	ErrUnresolvedFunction = errors.New("unresolved function")
	// ErrBothPathsFailed is returned when neither math nor text preprocessing succeeded
	ErrBothPathsFailed = errors.New("expression is neither a math nor a text expression")
	// ErrNotPreprocessed is returned when evaluating an expression that is not ready for that kind
	ErrNotPreprocessed = errors.New("expression not preprocessed")
)

// FunctionError reports a call whose function is missing from the registry
type FunctionError struct {
	Name string
	Text bool
}

func (e *FunctionError) Error() string {
	kind := "number"
	if e.Text {
		kind = "text"
	}
	return fmt.Sprintf("%s: %s function %q", ErrUnresolvedFunction, kind, e.Name)
}

func (e *FunctionError) Unwrap() error {
	return ErrUnresolvedFunction
}
