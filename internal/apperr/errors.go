package apperr

import "errors"

// Error kinds. Handlers map them onto transport status codes with errors.Is.
var (
	// ErrInvalid is returned when the input fails domain validation.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound indicates that the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller is not a participant or owner.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a uniqueness or state conflict (HTTP 409).
	ErrConflict = errors.New("conflict")
)

// Error is a classified failure carrying a stable machine code and a human message.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes the kind so errors.Is(err, ErrConflict) works.
func (e *Error) Unwrap() error { return e.Kind }

// Invalid builds an ErrInvalid-kinded error.
func Invalid(code, msg string) error { return &Error{Kind: ErrInvalid, Code: code, Message: msg} }

// NotFound builds an ErrNotFound-kinded error.
func NotFound(code, msg string) error { return &Error{Kind: ErrNotFound, Code: code, Message: msg} }

// Forbidden builds an ErrForbidden-kinded error.
func Forbidden(code, msg string) error { return &Error{Kind: ErrForbidden, Code: code, Message: msg} }

// Conflict builds an ErrConflict-kinded error.
func Conflict(code, msg string) error { return &Error{Kind: ErrConflict, Code: code, Message: msg} }

// CodeOf returns the machine code of err, or "" if err is not an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
