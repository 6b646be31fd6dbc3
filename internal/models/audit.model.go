package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TriState is a checklist answer: yes, no, or not applicable
type TriState string

const (
	AnswerYes TriState = "yes"
	AnswerNo  TriState = "no"
	AnswerNA  TriState = "na"
)

func (t TriState) Valid() bool {
	return t == AnswerYes || t == AnswerNo || t == AnswerNA
}

// ChecklistPhase groups the tri-state answers and the free-text comment
// for one phase of the visit
type ChecklistPhase struct {
	Answers map[string]TriState `json:"answers"`
	Comment string              `json:"comment,omitempty"`
}

// Checklist holds the full questionnaire grouped by visit phase
type Checklist struct {
	Scheduling    ChecklistPhase `json:"scheduling"`
	Arrival       ChecklistPhase `json:"arrival"`
	Install       ChecklistPhase `json:"install"`
	Configuration ChecklistPhase `json:"configuration"`
	Closeout      ChecklistPhase `json:"closeout"`
}

// ServiceType identifies a service reported as affected by a problem
type ServiceType string

const (
	ServiceInternet ServiceType = "internet"
	ServiceTV       ServiceType = "tv"
	ServicePhone    ServiceType = "phone"
	ServiceOther    ServiceType = "other"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceInternet, ServiceTV, ServicePhone, ServiceOther:
		return true
	}
	return false
}

type Resolution string

const (
	ResolutionOnSite Resolution = "resolved_onsite"
	ResolutionTicket Resolution = "ticket_raised"
)

func (r Resolution) Valid() bool {
	return r == ResolutionOnSite || r == ResolutionTicket
}

const (
	SubcategoryOther = "other"

	MaxAuditPhotos    = 3
	MaxPhotoSizeBytes = 10 * 1024 * 1024
)

// VisitAudit is the post-visit questionnaire. One record per completed
// visit; the most recent record for an assignment is authoritative for
// reporting. Immutable after creation except for photo backfill.
type VisitAudit struct {
	BaseUUIDModel
	AssignmentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"assignmentId"`
	Assignment   *Assignment `gorm:"foreignKey:AssignmentID"  json:"assignment,omitempty"`
	TechnicianID *uuid.UUID  `gorm:"type:uuid;index"          json:"technicianId,omitempty"`

	// Snapshot fields copied from the assignment once at creation so the
	// record stays accurate even if the assignment changes later
	Brand       string `gorm:"type:text;not null" json:"brand"`
	Technology  string `gorm:"type:text;not null" json:"technology"`
	CustomerRUT string `gorm:"column:customer_rut;type:text;not null" json:"customerRut"`
	UnitID      string `gorm:"type:text;not null" json:"unitId"`

	Disposition     Disposition `gorm:"type:text;not null;index" json:"disposition"`
	RescheduledDate *time.Time  `gorm:"type:date"                json:"rescheduledDate,omitempty"`
	RescheduledSlot *Timeslot   `gorm:"type:text"                json:"rescheduledSlot,omitempty"`

	Checklist datatypes.JSONType[Checklist] `gorm:"type:jsonb" json:"checklist"`

	AffectedServices   datatypes.JSONSlice[ServiceType] `gorm:"type:jsonb" json:"affectedServices"`
	InternetSubcat     *string                          `gorm:"type:text"  json:"internetSubcategory,omitempty"`
	InternetDetail     *string                          `gorm:"type:text"  json:"internetDetail,omitempty"`
	TVSubcat           *string                          `gorm:"column:tv_subcat;type:text" json:"tvSubcategory,omitempty"`
	TVDetail           *string                          `gorm:"column:tv_detail;type:text" json:"tvDetail,omitempty"`
	OtherServiceDetail *string                          `gorm:"type:text"  json:"otherServiceDetail,omitempty"`

	ScoreInstallation *int `gorm:"type:int" json:"scoreInstallation,omitempty"`
	ScoreTechnician   *int `gorm:"type:int" json:"scoreTechnician,omitempty"`
	ScoreOverall      *int `gorm:"type:int" json:"scoreOverall,omitempty"`

	Resolution Resolution `gorm:"type:text;not null" json:"resolution"`
	TicketType *string    `gorm:"type:text"          json:"ticketType,omitempty"`

	Malpractice     bool    `gorm:"type:bool;default:false" json:"malpractice"`
	CompanyDetail   *string `gorm:"type:text"               json:"companyDetail,omitempty"`
	InstallerDetail *string `gorm:"type:text"               json:"installerDetail,omitempty"`

	Photos datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"photos"`
}

// NewVisitAudit copies the assignment snapshot fields once at
// construction time; they are never lazily backfilled afterwards.
func NewVisitAudit(assignment *Assignment) *VisitAudit {
	return &VisitAudit{
		AssignmentID: assignment.ID,
		TechnicianID: assignment.TechnicianID,
		Brand:        assignment.Brand,
		Technology:   assignment.Technology,
		CustomerRUT:  assignment.CustomerRUT,
		UnitID:       assignment.UnitID,
	}
}

// SubmitAuditRequest is the questionnaire payload accepted by the audit
// submission endpoint. Photos arrive as multipart parts, not body fields.
type SubmitAuditRequest struct {
	Disposition     string  `json:"disposition"     validate:"required"`
	RescheduledDate *string `json:"rescheduledDate" validate:"omitempty"`
	RescheduledSlot *string `json:"rescheduledSlot" validate:"omitempty"`

	Checklist Checklist `json:"checklist"`

	AffectedServices   []string `json:"affectedServices"`
	InternetSubcat     *string  `json:"internetSubcategory"`
	InternetDetail     *string  `json:"internetDetail"`
	TVSubcat           *string  `json:"tvSubcategory"`
	TVDetail           *string  `json:"tvDetail"`
	OtherServiceDetail *string  `json:"otherServiceDetail"`

	ScoreInstallation *int `json:"scoreInstallation"`
	ScoreTechnician   *int `json:"scoreTechnician"`
	ScoreOverall      *int `json:"scoreOverall"`

	Resolution string  `json:"resolution" validate:"required"`
	TicketType *string `json:"ticketType"`

	Malpractice     bool    `json:"malpractice"`
	CompanyDetail   *string `json:"companyDetail"`
	InstallerDetail *string `json:"installerDetail"`
}
