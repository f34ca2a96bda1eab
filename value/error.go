package value

import "fmt"

// ErrorKind enumerates the error categories a Value can carry, matching the
// error handling design: load-time failures abort a pipeline build, every
// other kind flows through the value lattice as a cell-level Error.
type ErrorKind string

const (
	KindSyntax     ErrorKind = "SyntaxError"
	KindSemantic   ErrorKind = "SemanticError"
	KindType       ErrorKind = "TypeError"
	KindArithmetic ErrorKind = "ArithmeticError"
	KindLookup     ErrorKind = "LookupError"
	KindTimeout    ErrorKind = "TimeoutError"
	KindInternal   ErrorKind = "InternalError"
)

// CellError is the payload of an Error Value: a kind and a human message.
// It implements the error interface so it can be returned from Go APIs that
// build pipelines and lookup sources as well as embedded in a Value.
type CellError struct {
	Kind    ErrorKind
	Message string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an Error Value of the given kind.
func NewError(kind ErrorKind, format string, args ...any) Value {
	return Value{kind: Error, err: &CellError{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// WrapError converts a Go error into an Error Value of the given kind,
// preserving a CellError's own kind if err already is one.
func WrapError(kind ErrorKind, err error) Value {
	if err == nil {
		return Null()
	}
	if ce, ok := err.(*CellError); ok {
		return Value{kind: Error, err: ce}
	}
	return Value{kind: Error, err: &CellError{Kind: kind, Message: err.Error()}}
}

// AsError returns the CellError payload and true if v is an Error Value.
func (v Value) AsError() (*CellError, bool) {
	if v.kind != Error {
		return nil, false
	}
	return v.err, true
}

// FirstError scans vs in order and returns the first Error Value found,
// implementing the "deterministic by input position" rule of the
// error-propagation law.
func FirstError(vs ...Value) (Value, bool) {
	for _, v := range vs {
		if v.kind == Error {
			return v, true
		}
	}
	return Value{}, false
}
