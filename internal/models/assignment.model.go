package models

import (
	"time"

	"fieldvisit/internal/constants"

	"github.com/google/uuid"
)

type AssignmentState string

const (
	StatePending     AssignmentState = "pending"
	StateAssigned    AssignmentState = "assigned"
	StateVisited     AssignmentState = "visited"
	StateRescheduled AssignmentState = "rescheduled"
	StateCancelled   AssignmentState = "cancelled"
)

func (s AssignmentState) Valid() bool {
	switch s {
	case StatePending, StateAssigned, StateVisited, StateRescheduled, StateCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transitions are legal
func (s AssignmentState) Terminal() bool {
	return s == StateVisited || s == StateCancelled
}

// ActiveStates are the states in which an owned assignment counts toward
// the one-active-assignment-per-customer-unit uniqueness constraint
func ActiveStates() []AssignmentState {
	return []AssignmentState{StatePending, StateAssigned, StateRescheduled}
}

type Timeslot string

const (
	TimeslotMorning   Timeslot = "10-13"
	TimeslotAfternoon Timeslot = "15-18"
)

func (t Timeslot) Valid() bool {
	return t == TimeslotMorning || t == TimeslotAfternoon
}

// Disposition is the customer's recorded response at arrival
type Disposition string

const (
	DispositionAuthorize        Disposition = "authorize"
	DispositionNoOneHome        Disposition = "no_one_home"
	DispositionRefuse           Disposition = "refuse"
	DispositionExternalIncident Disposition = "external_incident"
	DispositionMassIncident     Disposition = "mass_incident"
	DispositionReschedule       Disposition = "reschedule"
)

func (d Disposition) Valid() bool {
	switch d {
	case DispositionAuthorize, DispositionNoOneHome, DispositionRefuse,
		DispositionExternalIncident, DispositionMassIncident, DispositionReschedule:
		return true
	}
	return false
}

// HistoryAction maps a disposition to the single lifecycle entry it
// leaves on the trail: authorize closes the visit, reschedule re-opens
// it, everything else records how the customer responded at the door.
func (d Disposition) HistoryAction() HistoryAction {
	switch d {
	case DispositionAuthorize:
		return HistoryClosed
	case DispositionReschedule:
		return HistoryRescheduled
	default:
		return HistoryClientState
	}
}

// Assignment is one address visit routed to a technician. Rows are never
// deleted, only state-transitioned; the partial unique index on
// (customer_rut, unit_id) over active owned rows is created in
// database.CreateIndexes.
type Assignment struct {
	BaseUUIDModel
	ScheduledDate    time.Time       `gorm:"type:date;not null;index"  json:"scheduledDate"`
	Brand            string          `gorm:"type:text;not null"        json:"brand"`
	Technology       string          `gorm:"type:text;not null"        json:"technology"`
	CustomerRUT      string          `gorm:"column:customer_rut;type:text;not null;index" json:"customerRut"`
	UnitID           string          `gorm:"type:text;not null"        json:"unitId"`
	Address          string          `gorm:"type:text;not null"        json:"address"`
	Comuna           string          `gorm:"type:text;not null;index"  json:"comuna"`
	Zone             constants.Zone  `gorm:"type:text;not null;index"  json:"zone"`
	SurveyOrigin     string          `gorm:"type:text;not null"        json:"surveyOrigin"`
	ExternalSurveyID *string         `gorm:"type:text"                 json:"externalSurveyId,omitempty"`
	TechnicianID     *uuid.UUID      `gorm:"type:uuid;index"           json:"technicianId,omitempty"`
	Technician       *User           `gorm:"foreignKey:TechnicianID"   json:"technician,omitempty"`
	State            AssignmentState `gorm:"type:text;not null;index;default:pending" json:"state"`
	RescheduledDate  *time.Time      `gorm:"type:date"                 json:"rescheduledDate,omitempty"`
	RescheduledSlot  *Timeslot       `gorm:"type:text"                 json:"rescheduledSlot,omitempty"`

	RescheduleRecords []RescheduleRecord `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"rescheduleRecords,omitempty"`
	HistoryEntries    []HistoryEntry     `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"historyEntries,omitempty"`
}

// IsActive reports whether the assignment is currently actionable and
// owned, which is the predicate of the uniqueness constraint
func (a *Assignment) IsActive() bool {
	if a.TechnicianID == nil {
		return false
	}
	for _, state := range ActiveStates() {
		if a.State == state {
			return true
		}
	}
	return false
}
