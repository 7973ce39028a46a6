package errorx

import "fmt"

// Error is the structured error surface of the backend. Code is stable across
// releases, Message is human readable, and Args keeps the positional arguments
// so the delivery layer can translate the error without re-parsing Message.
type Error struct {
	Code    Code
	Message string
	Args    []any
}

func New(code Code, format string, a ...any) Error {
	return Error{
		Code:    code,
		Message: fmt.Sprintf(format, a...),
		Args:    a,
	}
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}

	return e.Code == t.Code
}
