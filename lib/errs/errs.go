// Package errs holds the error taxonomy shared by every data source
// family. There are exactly two kinds: a publication or file that could
// not be located or downloaded, and content that was retrieved but
// failed a structural or arithmetic integrity check. Both are terminal
// for the call that raised them.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation failed"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Source  string
	Message string
	// Err is the underlying cause, if any (e.g. a transport error).
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %s", e.Source, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(source, format string, args ...any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Source:  source,
		Message: fmt.Sprintf(format, args...),
	}
}

func Validation(source, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Source:  source,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a cause to the error and returns it.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func IsNotFound(err error) bool {
	return isKind(err, KindNotFound)
}

func IsValidation(err error) bool {
	return isKind(err, KindValidation)
}

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
