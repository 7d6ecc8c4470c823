// Package errs defines the error taxonomy shared by the boxxer packages.
//
// Every error produced by the core falls into one of four kinds:
//
//   - ParameterValue: an argument's value violates a documented precondition.
//   - ParameterShape: an argument has the wrong rank or element count.
//   - Logical: an internal invariant was violated (a bug, not bad input).
//   - Numerical: a numerically invalid filter configuration.
//
// All kinds are unrecoverable at the point raised; callers should treat a
// non-nil error as a full abort of the requested operation.
package errs

import "fmt"

// Kind classifies an error.
type Kind int

const (
	KindParameterValue Kind = iota
	KindParameterShape
	KindLogical
	KindNumerical
)

// String returns the canonical kind name.
func (k Kind) String() string {
	switch k {
	case KindParameterValue:
		return "ParameterValueError"
	case KindParameterShape:
		return "ParameterShapeError"
	case KindLogical:
		return "LogicalError"
	case KindNumerical:
		return "NumericalError"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a kind-tagged error. Use errors.Is against the Err* sentinels
// to test for a kind.
type Error struct {
	kind Kind
	msg  string
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string {
	if e.msg == "" {
		return e.kind.String()
	}
	return e.kind.String() + ": " + e.msg
}

// Is matches any *Error of the same kind, so the message-free sentinels
// below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// Sentinels for errors.Is kind checks.
var (
	ErrParameterValue = &Error{kind: KindParameterValue}
	ErrParameterShape = &Error{kind: KindParameterShape}
	ErrLogical        = &Error{kind: KindLogical}
	ErrNumerical      = &Error{kind: KindNumerical}
)

// ParameterValuef builds a ParameterValue error.
func ParameterValuef(format string, args ...any) error {
	return &Error{kind: KindParameterValue, msg: fmt.Sprintf(format, args...)}
}

// ParameterShapef builds a ParameterShape error.
func ParameterShapef(format string, args ...any) error {
	return &Error{kind: KindParameterShape, msg: fmt.Sprintf(format, args...)}
}

// Logicalf builds a Logical error.
func Logicalf(format string, args ...any) error {
	return &Error{kind: KindLogical, msg: fmt.Sprintf(format, args...)}
}

// Numericalf builds a Numerical error.
func Numericalf(format string, args ...any) error {
	return &Error{kind: KindNumerical, msg: fmt.Sprintf(format, args...)}
}
