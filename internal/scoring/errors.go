package scoring

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes scoring errors.
type ErrorCode string

const (
	// ErrCodeInvalidInput indicates the caller supplied arguments the engine
	// cannot score, such as an odd-sized roster or an unknown mode.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error is a structured scoring error.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidInput reports whether err is, or wraps, an InvalidInput error.
func IsInvalidInput(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvalidInput
	}
	return false
}

func newInvalidInput(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrPointAfterCompletion is reported by Replay when a point follows the
// point that completed the match.
var ErrPointAfterCompletion = errors.New("point scored after match completion")
