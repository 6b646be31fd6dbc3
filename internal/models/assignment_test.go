package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAssignmentStateTerminal(t *testing.T) {
	tests := []struct {
		state    AssignmentState
		terminal bool
	}{
		{StatePending, false},
		{StateAssigned, false},
		{StateRescheduled, false},
		{StateVisited, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.state.Terminal())
		})
	}
}

func TestAssignmentIsActive(t *testing.T) {
	techID := uuid.New()

	tests := []struct {
		name       string
		state      AssignmentState
		technician *uuid.UUID
		active     bool
	}{
		{"owned pending", StatePending, &techID, true},
		{"owned assigned", StateAssigned, &techID, true},
		{"owned rescheduled", StateRescheduled, &techID, true},
		{"owned visited", StateVisited, &techID, false},
		{"owned cancelled", StateCancelled, &techID, false},
		{"unowned pending", StatePending, nil, false},
		{"unowned assigned", StateAssigned, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignment := Assignment{State: tt.state, TechnicianID: tt.technician}
			assert.Equal(t, tt.active, assignment.IsActive())
		})
	}
}

func TestTimeslotValid(t *testing.T) {
	assert.True(t, TimeslotMorning.Valid())
	assert.True(t, TimeslotAfternoon.Valid())
	assert.False(t, Timeslot("09-12").Valid())
	assert.False(t, Timeslot("").Valid())
}

func TestDispositionValid(t *testing.T) {
	valid := []Disposition{
		DispositionAuthorize, DispositionNoOneHome, DispositionRefuse,
		DispositionExternalIncident, DispositionMassIncident, DispositionReschedule,
	}
	for _, d := range valid {
		assert.True(t, d.Valid(), string(d))
	}
	assert.False(t, Disposition("maybe").Valid())
}

func TestDispositionHistoryAction(t *testing.T) {
	tests := []struct {
		disposition Disposition
		want        HistoryAction
	}{
		{DispositionAuthorize, HistoryClosed},
		{DispositionReschedule, HistoryRescheduled},
		{DispositionNoOneHome, HistoryClientState},
		{DispositionRefuse, HistoryClientState},
		{DispositionExternalIncident, HistoryClientState},
		{DispositionMassIncident, HistoryClientState},
	}

	for _, tt := range tests {
		t.Run(string(tt.disposition), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.disposition.HistoryAction())
		})
	}
}

func TestUserRole(t *testing.T) {
	assert.True(t, RoleAdmin.IsBackOffice())
	assert.True(t, RoleAuditor.IsBackOffice())
	assert.False(t, RoleTechnician.IsBackOffice())
	assert.False(t, UserRole("dispatcher").Valid())
}

func TestNewVisitAuditSnapshotsAssignmentFields(t *testing.T) {
	techID := uuid.New()
	assignment := &Assignment{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		Brand:         "vtr",
		Technology:    "ftth",
		CustomerRUT:   "12345678-9",
		UnitID:        "dep-402",
		TechnicianID:  &techID,
	}

	audit := NewVisitAudit(assignment)

	assert.Equal(t, assignment.ID, audit.AssignmentID)
	assert.Equal(t, "vtr", audit.Brand)
	assert.Equal(t, "ftth", audit.Technology)
	assert.Equal(t, "12345678-9", audit.CustomerRUT)
	assert.Equal(t, "dep-402", audit.UnitID)
	assert.Equal(t, &techID, audit.TechnicianID)

	// later assignment mutations must not leak into the snapshot
	assignment.Brand = "movistar"
	assert.Equal(t, "vtr", audit.Brand)
}
