// Package translation defines the errors raised while compiling a query pipeline.
package translation

import (
	"errors"
	"fmt"
)

// Error kinds. Every compilation failure wraps exactly one of these.
var (
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrUnsupportedMember   = errors.New("unsupported member")
	ErrUnsupportedConstant = errors.New("unsupported constant")
	ErrUnsupportedArgument = errors.New("unsupported argument")
)

// Error reports a failed translation along with the offending
// operator, member or argument name.
type Error struct {
	Kind   error
	Name   string
	Detail string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q", e.Kind, e.Name)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the error kind so callers can use errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// UnsupportedOperator builds an ErrUnsupportedOperator error.
func UnsupportedOperator(name string, detail ...string) error {
	return newError(ErrUnsupportedOperator, name, detail)
}

// UnsupportedMember builds an ErrUnsupportedMember error.
func UnsupportedMember(name string, detail ...string) error {
	return newError(ErrUnsupportedMember, name, detail)
}

// UnsupportedConstant builds an ErrUnsupportedConstant error.
func UnsupportedConstant(name string, detail ...string) error {
	return newError(ErrUnsupportedConstant, name, detail)
}

// UnsupportedArgument builds an ErrUnsupportedArgument error.
func UnsupportedArgument(name string, detail ...string) error {
	return newError(ErrUnsupportedArgument, name, detail)
}

func newError(kind error, name string, detail []string) error {
	e := &Error{Kind: kind, Name: name}
	if len(detail) > 0 {
		e.Detail = detail[0]
	}
	return e
}

// KindOf returns the kind of a translation error, or nil if err is not one.
func KindOf(err error) error {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind
	}
	return nil
}

// KindName returns a short, stable name for the kind of err, used as a
// label by logging and telemetry.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrUnsupportedOperator:
		return "unsupported_operator"
	case ErrUnsupportedMember:
		return "unsupported_member"
	case ErrUnsupportedConstant:
		return "unsupported_constant"
	case ErrUnsupportedArgument:
		return "unsupported_argument"
	default:
		if err == nil {
			return ""
		}
		return "other"
	}
}
