package models

import (
	"github.com/google/uuid"
)

type HistoryAction string

const (
	HistoryCreated            HistoryAction = "created"
	HistoryAssignedTechnician HistoryAction = "assigned_technician"
	HistoryUnassigned         HistoryAction = "unassigned"
	HistoryClientState        HistoryAction = "client_state"
	HistoryRescheduled        HistoryAction = "rescheduled"
	HistoryClosed             HistoryAction = "closed"
	HistoryAuditCreated       HistoryAction = "audit_created"
	HistoryCancelled          HistoryAction = "cancelled"
)

// HistoryEntry is one append-only audit trail row. Entries are written in
// the same transaction as the state change they record and are never
// mutated afterwards. ActorID is nil for system-generated entries.
type HistoryEntry struct {
	BaseUUIDModel
	AssignmentID uuid.UUID     `gorm:"type:uuid;not null;index" json:"assignmentId"`
	Action       HistoryAction `gorm:"type:text;not null;index" json:"action"`
	Detail       string        `gorm:"type:text"                json:"detail"`
	ActorID      *uuid.UUID    `gorm:"type:uuid"                json:"actorId,omitempty"`
	Actor        *User         `gorm:"foreignKey:ActorID"       json:"actor,omitempty"`
}
