package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrEventNotFound        = errors.New("attendance event not found")
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrEmployeeNotInCompany = errors.New("employee does not belong to the company")
	ErrDuplicateEvent       = errors.New("an identical punch already exists")
	ErrImmutableRecord      = errors.New("only adjustment events may be edited or deleted")
	ErrAlreadyInvalidated   = errors.New("event is already invalidated")
)

// ValidationError rejects malformed input before any storage is touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError anywhere in its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
