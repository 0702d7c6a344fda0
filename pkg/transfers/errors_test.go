package transfers

import (
	"testing"

	"github.com/bxcodec/faker/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		err := newError(CategoryInvalidState, "Can not %v", "verify")
		assert.EqualError(t, err, "InvalidState: Can not verify")
	})
	t.Run("message with fields", func(t *testing.T) {
		err := &Error{
			Category: CategoryValidation,
			Message:  "Transfer is invalid",
			Fields: []FieldError{
				{Field: "amount", Rule: "gt", Message: "must be greater than 0"},
				{Field: "memo", Rule: "max", Message: "must be at most 100 characters"},
			},
		}
		assert.EqualError(t, err,
			"ValidationError: Transfer is invalid (amount must be greater than 0; memo must be at most 100 characters)")
	})
	t.Run("category of", func(t *testing.T) {
		assert.Equal(t, CategoryNotFound, CategoryOf(newError(CategoryNotFound, "missing")))
		assert.Equal(t, CategoryTransient, CategoryOf(errors.Wrap(newError(CategoryTransient, "busy"), "wrapped")))
		assert.Equal(t, CategorySystem, CategoryOf(errors.New(faker.Sentence())))
	})
}
