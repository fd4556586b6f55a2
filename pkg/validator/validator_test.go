package validator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("passes", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("session_id", "sess_1"),
			validator.MaxLen("session_id", "sess_1", 10),
			validator.MaxItems("events", []int{1, 2}, 2),
		)
		assert.NoError(t, err)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("session_id", "   "),
			validator.MaxLen("title", "héllo", 4),
			validator.MaxItems("events", []int{1, 2, 3}, 2),
		)
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
		assert.ErrorIs(t, err, validator.ErrValidationFailed)

		ve := validator.ExtractValidationErrors(err)
		require.Len(t, ve, 3)
		assert.True(t, ve.Has("session_id"))
		assert.Equal(t, []string{"field is required"}, ve.Get("session_id"))
		assert.Equal(t, "validation.max_length", ve[1].TranslationKey)
		assert.Equal(t, []string{"must contain at most 2 items"}, ve.Get("events"))
		assert.Contains(t, err.Error(), "session_id: field is required")
	})

	t.Run("max len counts runes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validator.Apply(validator.MaxLen("t", "héllo", 5)))
	})

	t.Run("other errors are not validation errors", func(t *testing.T) {
		t.Parallel()
		assert.False(t, validator.IsValidationError(errors.New("x")))
		assert.Nil(t, validator.ExtractValidationErrors(nil))
	})
}
