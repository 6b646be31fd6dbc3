package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorsCollectsAllViolations(t *testing.T) {
	v := NewValidationErrors()
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.ErrOrNil())

	v.Add("date", "must not be in the past")
	v.Addf("timeslot", "unrecognized value %q", "09-12")

	require.True(t, v.HasErrors())
	require.Len(t, v.Violations, 2)

	err := v.ErrOrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "date: must not be in the past")
	assert.Contains(t, err.Error(), `timeslot: unrecognized value "09-12"`)
}

func TestSentinelWrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: assignment already owned", ErrConflict)

	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.False(t, errors.Is(wrapped, ErrInvalidInput))
}
