package trading

import "fmt"

// ErrorKind classifies trading failures so the HTTP layer can map each one
// to a status code without inspecting messages.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindAuthorization ErrorKind = "authorization"
	KindConflict      ErrorKind = "conflict"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewAuthorizationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a trading error, or "" for other errors.
func KindOf(err error) ErrorKind {
	if te, ok := err.(*Error); ok {
		return te.Kind
	}
	return ""
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
