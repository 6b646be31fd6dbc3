package models

import (
	"time"

	"github.com/google/uuid"
)

// RescheduleRecord is an immutable snapshot of one reschedule event,
// capturing the prior date and timeslot before they were overwritten.
type RescheduleRecord struct {
	BaseUUIDModel
	AssignmentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"assignmentId"`
	PreviousDate *time.Time `gorm:"type:date"                json:"previousDate,omitempty"`
	PreviousSlot *Timeslot  `gorm:"type:text"                json:"previousSlot,omitempty"`
	NewDate      time.Time  `gorm:"type:date;not null"       json:"newDate"`
	NewSlot      Timeslot   `gorm:"type:text;not null"       json:"newSlot"`
	Reason       string     `gorm:"type:text"                json:"reason"`
	ActorID      *uuid.UUID `gorm:"type:uuid"                json:"actorId,omitempty"`
	Actor        *User      `gorm:"foreignKey:ActorID"       json:"actor,omitempty"`
}
