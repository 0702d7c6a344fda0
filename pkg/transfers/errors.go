package transfers

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category classifies workflow errors for the caller
type Category string

const (
	// CategoryValidation one or more fields are invalid. Workflow stays in draft
	CategoryValidation Category = "ValidationError"

	// CategoryInsufficientFunds the amount should be corrected
	CategoryInsufficientFunds Category = "InsufficientFunds"

	// CategoryAuthenticationFailed the code is wrong or expired
	CategoryAuthenticationFailed Category = "AuthenticationFailed"

	// CategorySystem is a fatal error, the workflow is failed
	CategorySystem Category = "SystemError"

	// CategoryTransient the operation may be retried
	CategoryTransient Category = "TransientError"

	// CategoryInvalidState the operation is not allowed in the current state
	CategoryInvalidState Category = "InvalidState"

	// CategoryNotFound unknown transfer
	CategoryNotFound Category = "NotFound"
)

// FieldError describes an invalid field
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error is returned by all workflow operations
type Error struct {
	Category     Category
	Message      string
	Fields       []FieldError
	AttemptsLeft int
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%v: %v", e.Category, e.Message)
	}
	fields := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("%v: %v (%v)", e.Category, e.Message, strings.Join(fields, "; "))
}

func newError(category Category, msg string, args ...interface{}) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(msg, args...)}
}

func invalidStateError(op string, state State) *Error {
	return newError(CategoryInvalidState, "Can not %v transfer in %v state", op, state)
}

// CategoryOf returns the category of a workflow error, SystemError for other errors
func CategoryOf(err error) Category {
	if wfErr, ok := errors.Cause(err).(*Error); ok {
		return wfErr.Category
	}
	return CategorySystem
}
