package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification is one best-effort outbound email triggered by a state
// transition. Transport failures land in ErrorDetail and never fail the
// triggering operation; rows without a recipient stay queued.
type Notification struct {
	BaseUUIDModel
	AssignmentID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"assignmentId"`
	RecipientEmail *string            `gorm:"type:text"                json:"recipientEmail,omitempty"`
	Subject        string             `gorm:"type:text;not null"       json:"subject"`
	Body           string             `gorm:"type:text"                json:"body"`
	Status         NotificationStatus `gorm:"type:text;not null;index;default:queued" json:"status"`
	ErrorDetail    *string            `gorm:"type:text"                json:"errorDetail,omitempty"`
	SentAt         *time.Time         `gorm:"type:timestamp"           json:"sentAt,omitempty"`
	Attempts       int                `gorm:"type:int;default:0"       json:"attempts"`
}
