package assignmentController

import (
	"errors"
	"testing"

	. "fieldvisit/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestOwnershipTransitions(t *testing.T) {
	tests := []struct {
		state AssignmentState
		want  bool
	}{
		{StatePending, true},
		{StateAssigned, true},
		{StateRescheduled, true},
		{StateVisited, false},
		{StateCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, canTakeOwnership(tt.state))
		})
	}
}

func TestRescheduleTransitions(t *testing.T) {
	tests := []struct {
		state AssignmentState
		want  bool
	}{
		{StatePending, false},
		{StateAssigned, true},
		{StateRescheduled, true},
		{StateVisited, false},
		{StateCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, canReschedule(tt.state))
		})
	}
}

func TestDispositionTransitions(t *testing.T) {
	tests := []struct {
		state AssignmentState
		want  bool
	}{
		{StatePending, false},
		{StateAssigned, true},
		{StateRescheduled, true},
		{StateVisited, false},
		{StateCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, canRecordDisposition(tt.state))
		})
	}
}

func TestCancelTransitions(t *testing.T) {
	tests := []struct {
		state AssignmentState
		want  bool
	}{
		{StatePending, true},
		{StateAssigned, true},
		{StateRescheduled, true},
		{StateVisited, false},
		{StateCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, canCancel(tt.state))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.True(t, isUniqueViolation(errors.New(
		`duplicate key value violates unique constraint "idx_assignments_one_active_per_unit"`,
	)))
	assert.True(t, isUniqueViolation(errors.New(
		"ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)",
	)))
}
