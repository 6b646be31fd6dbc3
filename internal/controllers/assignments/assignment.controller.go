package assignmentController

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldvisit/internal/apperrors"
	"fieldvisit/internal/constants"
	"fieldvisit/internal/database"
	"fieldvisit/internal/events"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"
	"fieldvisit/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateAssignmentRequest struct {
	ScheduledDate    string  `json:"scheduledDate"    validate:"required"`
	Brand            string  `json:"brand"            validate:"required"`
	Technology       string  `json:"technology"       validate:"required"`
	CustomerRUT      string  `json:"customerRut"      validate:"required"`
	UnitID           string  `json:"unitId"           validate:"required"`
	Address          string  `json:"address"          validate:"required"`
	Comuna           string  `json:"comuna"           validate:"required"`
	SurveyOrigin     string  `json:"surveyOrigin"     validate:"required"`
	ExternalSurveyID *string `json:"externalSurveyId"`
}

type RescheduleRequest struct {
	NewDate string `json:"newDate" validate:"required"`
	NewSlot string `json:"newSlot" validate:"required"`
	Reason  string `json:"reason"`
}

type DispositionRequest struct {
	Disposition string `json:"disposition" validate:"required"`
	Detail      string `json:"detail"`
	// NewDate and NewSlot are required when the disposition is reschedule
	NewDate string `json:"newDate"`
	NewSlot string `json:"newSlot"`
}

// ClaimCheck is the dry-run answer for a claim attempt
type ClaimCheck struct {
	Can    bool   `json:"can"`
	Reason string `json:"reason,omitempty"`
}

// Dashboard is the technician landing view: their own work plus the
// open pool in one response
type Dashboard struct {
	Mine      *repositories.AssignmentPage `json:"mine"`
	Available *repositories.AssignmentPage `json:"available"`
}

// AssignmentDetail bundles the assignment with its full trail for the
// detail view
type AssignmentDetail struct {
	Assignment  *Assignment         `json:"assignment"`
	History     []*HistoryEntry     `json:"history"`
	Reschedules []*RescheduleRecord `json:"reschedules"`
}

type AssignmentControllerInterface interface {
	Create(ctx context.Context, req CreateAssignmentRequest, actor *User) (*Assignment, error)
	GetDetail(ctx context.Context, id uuid.UUID, viewer *User) (*AssignmentDetail, error)
	List(ctx context.Context, query repositories.AssignmentQuery, viewer *User) (*repositories.AssignmentPage, error)
	ListAvailable(ctx context.Context, query repositories.AssignmentQuery) (*repositories.AssignmentPage, error)
	ListMine(ctx context.Context, technician *User, query repositories.AssignmentQuery) (*repositories.AssignmentPage, error)
	GetDashboard(ctx context.Context, technician *User, query repositories.AssignmentQuery) (*Dashboard, error)
	// CheckClaim answers whether a claim would succeed without mutating
	// anything; Claim performs it.
	CheckClaim(ctx context.Context, id uuid.UUID, technician *User) (*ClaimCheck, error)
	Claim(ctx context.Context, id uuid.UUID, technician *User) (*Assignment, error)
	AssignTo(ctx context.Context, id, technicianID uuid.UUID, actor *User) (*Assignment, error)
	Unassign(ctx context.Context, id uuid.UUID, actor *User) (*Assignment, error)
	Reschedule(ctx context.Context, id uuid.UUID, req RescheduleRequest, actor *User) (*Assignment, error)
	RecordDisposition(ctx context.Context, id uuid.UUID, req DispositionRequest, actor *User) (*Assignment, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, actor *User) (*Assignment, error)
}

type AssignmentController struct {
	assignmentRepo repositories.AssignmentRepository
	historyRepo    repositories.HistoryRepository
	rescheduleRepo repositories.RescheduleRepository
	userRepo       repositories.UserRepository
	transaction    *services.TransactionService
	eventBus       *events.EventBus
	db             database.DB
	validate       *validator.Validate
	log            logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	db database.DB,
) AssignmentControllerInterface {
	return &AssignmentController{
		assignmentRepo: repos.Assignment,
		historyRepo:    repos.History,
		rescheduleRepo: repos.Reschedule,
		userRepo:       repos.User,
		transaction:    services.Transaction,
		eventBus:       eventBus,
		db:             db,
		validate:       validator.New(),
		log:            logger.New("assignmentController"),
	}
}

// canTakeOwnership reports whether a technician change is legal in the
// given state. Terminal assignments are frozen.
func canTakeOwnership(state AssignmentState) bool {
	return !state.Terminal()
}

// canReschedule requires an owned, in-flight assignment; already
// rescheduled visits may be rescheduled again and the latest wins
func canReschedule(state AssignmentState) bool {
	return state == StateAssigned || state == StateRescheduled
}

// canRecordDisposition requires an owned, in-flight visit. A pending
// assignment has no technician at the door, so no outcome to record.
func canRecordDisposition(state AssignmentState) bool {
	return state == StateAssigned || state == StateRescheduled
}

func canCancel(state AssignmentState) bool {
	return !state.Terminal()
}

func (c *AssignmentController) Create(
	ctx context.Context,
	req CreateAssignmentRequest,
	actor *User,
) (*Assignment, error) {
	log := c.log.Function("Create")

	if !actor.Role.IsBackOffice() {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only back-office roles create assignments")
	}

	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err.Error())
	}

	validation := apperrors.NewValidationErrors()

	scheduledDate, err := utils.ParseISODate(req.ScheduledDate)
	if err != nil {
		validation.Add("scheduledDate", "must be a valid YYYY-MM-DD date")
	}

	zone, found := constants.ZoneForComuna(req.Comuna)
	if !found {
		validation.Addf("comuna", "unknown comuna %q", req.Comuna)
	}

	if err := validation.ErrOrNil(); err != nil {
		return nil, err
	}

	assignment := &Assignment{
		ScheduledDate:    scheduledDate,
		Brand:            req.Brand,
		Technology:       req.Technology,
		CustomerRUT:      strings.TrimSpace(req.CustomerRUT),
		UnitID:           strings.TrimSpace(req.UnitID),
		Address:          req.Address,
		Comuna:           req.Comuna,
		Zone:             zone,
		SurveyOrigin:     req.SurveyOrigin,
		ExternalSurveyID: req.ExternalSurveyID,
		State:            StatePending,
	}

	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.assignmentRepo.Create(ctx, tx, assignment); err != nil {
			return err
		}

		return c.historyRepo.Append(ctx, tx, &HistoryEntry{
			AssignmentID: assignment.ID,
			Action:       HistoryCreated,
			Detail:       fmt.Sprintf("created from %s survey", assignment.SurveyOrigin),
			ActorID:      &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info("assignment created", "assignmentID", assignment.ID, "actorID", actor.ID)

	c.publishEvent(events.ASSIGNMENT_CREATED, assignment, &actor.ID, nil)

	return assignment, nil
}

func (c *AssignmentController) GetDetail(
	ctx context.Context,
	id uuid.UUID,
	viewer *User,
) (*AssignmentDetail, error) {
	log := c.log.Function("GetDetail")

	assignment, err := c.assignmentRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, log.ErrorWithType(apperrors.ErrNotFound, "assignment not found")
	}

	// Technicians see their own work and the open pool, nothing else
	if !viewer.Role.IsBackOffice() {
		owned := assignment.TechnicianID != nil && *assignment.TechnicianID == viewer.ID
		open := assignment.TechnicianID == nil && assignment.State == StatePending
		if !owned && !open {
			return nil, log.ErrorWithType(apperrors.ErrForbidden, "assignment belongs to another technician")
		}
	}

	history, err := c.historyRepo.ListForAssignment(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	reschedules, err := c.rescheduleRepo.ListForAssignment(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	return &AssignmentDetail{
		Assignment:  assignment,
		History:     history,
		Reschedules: reschedules,
	}, nil
}

func (c *AssignmentController) List(
	ctx context.Context,
	query repositories.AssignmentQuery,
	viewer *User,
) (*repositories.AssignmentPage, error) {
	log := c.log.Function("List")

	if !viewer.Role.IsBackOffice() {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "listing all assignments requires a back-office role")
	}

	return c.assignmentRepo.List(ctx, c.db.SQL, query)
}

func (c *AssignmentController) ListAvailable(
	ctx context.Context,
	query repositories.AssignmentQuery,
) (*repositories.AssignmentPage, error) {
	query.States = []AssignmentState{StatePending}
	query.Unowned = true
	query.TechnicianID = nil

	return c.assignmentRepo.List(ctx, c.db.SQL, query)
}

func (c *AssignmentController) ListMine(
	ctx context.Context,
	technician *User,
	query repositories.AssignmentQuery,
) (*repositories.AssignmentPage, error) {
	query.TechnicianID = &technician.ID
	query.Unowned = false

	return c.assignmentRepo.List(ctx, c.db.SQL, query)
}

func (c *AssignmentController) GetDashboard(
	ctx context.Context,
	technician *User,
	query repositories.AssignmentQuery,
) (*Dashboard, error) {
	log := c.log.Function("GetDashboard")

	if technician.Role != RoleTechnician {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "the dashboard is for technicians")
	}

	mine, err := c.ListMine(ctx, technician, query)
	if err != nil {
		return nil, err
	}

	available, err := c.ListAvailable(ctx, query)
	if err != nil {
		return nil, err
	}

	return &Dashboard{Mine: mine, Available: available}, nil
}

// claimPreconditions runs the checks shared by the dry-run and the real
// claim. The real claim re-verifies them inside the UPDATE.
func (c *AssignmentController) claimPreconditions(
	ctx context.Context,
	id uuid.UUID,
	technician *User,
) (*Assignment, error) {
	log := c.log.Function("claimPreconditions")

	if technician.Role != RoleTechnician {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only technicians claim assignments")
	}
	if !technician.IsActive {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "inactive technicians cannot claim assignments")
	}

	assignment, err := c.assignmentRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, log.ErrorWithType(apperrors.ErrNotFound, "assignment not found")
	}

	if assignment.State != StatePending || assignment.TechnicianID != nil {
		return nil, log.ErrorWithType(apperrors.ErrConflict, "assignment is no longer available")
	}

	return assignment, nil
}

func (c *AssignmentController) CheckClaim(
	ctx context.Context,
	id uuid.UUID,
	technician *User,
) (*ClaimCheck, error) {
	_, err := c.claimPreconditions(ctx, id, technician)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return &ClaimCheck{Can: false, Reason: err.Error()}, nil
	}

	return &ClaimCheck{Can: true}, nil
}

func (c *AssignmentController) Claim(
	ctx context.Context,
	id uuid.UUID,
	technician *User,
) (*Assignment, error) {
	log := c.log.Function("Claim")

	assignment, err := c.claimPreconditions(ctx, id, technician)
	if err != nil {
		return nil, err
	}

	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		claimed, err := c.assignmentRepo.ClaimPending(ctx, tx, id, technician.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: technician already holds an active visit for this unit", apperrors.ErrConflict)
			}
			return err
		}
		if !claimed {
			// Someone else won between the read above and this update
			return fmt.Errorf("%w: assignment was claimed by another technician", apperrors.ErrConflict)
		}

		return c.historyRepo.Append(ctx, tx, &HistoryEntry{
			AssignmentID: id,
			Action:       HistoryAssignedTechnician,
			Detail:       fmt.Sprintf("claimed by %s", technician.Name),
			ActorID:      &technician.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	assignment, err = c.assignmentRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	log.Info("assignment claimed", "assignmentID", id, "technicianID", technician.ID)

	c.publishEvent(events.ASSIGNMENT_ASSIGNED, assignment, &technician.ID, &technician.Email)

	return assignment, nil
}

func (c *AssignmentController) AssignTo(
	ctx context.Context,
	id, technicianID uuid.UUID,
	actor *User,
) (*Assignment, error) {
	log := c.log.Function("AssignTo")

	if !actor.Role.IsBackOffice() {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only back-office roles assign technicians")
	}

	technician, err := c.userRepo.GetByID(ctx, technicianID)
	if err != nil {
		return nil, log.ErrorWithType(apperrors.ErrNotFound, "technician not found")
	}
	if technician.Role != RoleTechnician || !technician.IsActive {
		return nil, log.ErrorWithType(apperrors.ErrInvalidInput, "assignee must be an active technician")
	}

	var assignment *Assignment
	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		assignment, err = c.assignmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%w: assignment not found", apperrors.ErrNotFound)
		}

		if !canTakeOwnership(assignment.State) {
			return fmt.Errorf("%w: assignment is %s", apperrors.ErrConflict, assignment.State)
		}

		previous := assignment.TechnicianID
		assignment.TechnicianID = &technician.ID
		assignment.Technician = technician
		if assignment.State == StatePending {
			assignment.State = StateAssigned
		}

		if err := c.assignmentRepo.Save(ctx, tx, assignment); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: an active visit already exists for this customer unit", apperrors.ErrConflict)
			}
			return err
		}

		detail := fmt.Sprintf("assigned to %s", technician.Name)
		if previous != nil && *previous != technician.ID {
			detail = fmt.Sprintf("reassigned to %s", technician.Name)
		}

		return c.historyRepo.Append(ctx, tx, &HistoryEntry{
			AssignmentID: id,
			Action:       HistoryAssignedTechnician,
			Detail:       detail,
			ActorID:      &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info("technician assigned", "assignmentID", id, "technicianID", technician.ID, "actorID", actor.ID)

	c.publishEvent(events.ASSIGNMENT_ASSIGNED, assignment, &actor.ID, &technician.Email)

	return assignment, nil
}

func (c *AssignmentController) Unassign(
	ctx context.Context,
	id uuid.UUID,
	actor *User,
) (*Assignment, error) {
	log := c.log.Function("Unassign")

	if !actor.Role.IsBackOffice() {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only back-office roles unassign technicians")
	}

	var assignment *Assignment
	var previousEmail *string

	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		assignment, err = c.assignmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%w: assignment not found", apperrors.ErrNotFound)
		}

		if assignment.TechnicianID == nil {
			return fmt.Errorf("%w: assignment has no technician", apperrors.ErrConflict)
		}
		if assignment.State.Terminal() {
			return fmt.Errorf("%w: assignment is %s", apperrors.ErrConflict, assignment.State)
		}

		if assignment.Technician != nil {
			email := assignment.Technician.Email
			previousEmail = &email
		}

		assignment.TechnicianID = nil
		assignment.Technician = nil
		assignment.State = StatePending

		if err := c.assignmentRepo.Save(ctx, tx, assignment); err != nil {
			return err
		}

		return c.historyRepo.Append(ctx, tx, &HistoryEntry{
			AssignmentID: id,
			Action:       HistoryUnassigned,
			Detail:       "returned to the open pool",
			ActorID:      &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info("assignment unassigned", "assignmentID", id, "actorID", actor.ID)

	c.publishEvent(events.ASSIGNMENT_UNASSIGNED, assignment, &actor.ID, previousEmail)

	return assignment, nil
}

func (c *AssignmentController) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	req RescheduleRequest,
	actor *User,
) (*Assignment, error) {
	log := c.log.Function("Reschedule")

	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err.Error())
	}

	validation := apperrors.NewValidationErrors()

	newDate, err := utils.ParseISODate(req.NewDate)
	if err != nil {
		validation.Add("newDate", "must be a valid YYYY-MM-DD date")
	} else if utils.IsPastDate(newDate, time.Now()) {
		validation.Add("newDate", "must not be in the past")
	}

	newSlot := Timeslot(req.NewSlot)
	if !newSlot.Valid() {
		validation.Addf("newSlot", "must be one of %s or %s", TimeslotMorning, TimeslotAfternoon)
	}

	if err := validation.ErrOrNil(); err != nil {
		return nil, err
	}

	var assignment *Assignment
	var technicianEmail *string

	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		assignment, err = c.assignmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%w: assignment not found", apperrors.ErrNotFound)
		}

		if !actor.Role.IsBackOffice() {
			if assignment.TechnicianID == nil || *assignment.TechnicianID != actor.ID {
				return fmt.Errorf("%w: assignment belongs to another technician", apperrors.ErrForbidden)
			}
		}

		if !canReschedule(assignment.State) {
			return fmt.Errorf("%w: cannot reschedule a %s assignment", apperrors.ErrConflict, assignment.State)
		}

		if assignment.Technician != nil {
			email := assignment.Technician.Email
			technicianEmail = &email
		}

		// Snapshot the schedule being replaced before overwriting it
		previousDate := assignment.ScheduledDate
		if assignment.RescheduledDate != nil {
			previousDate = *assignment.RescheduledDate
		}

		record := &RescheduleRecord{
			AssignmentID: id,
			PreviousDate: &previousDate,
			PreviousSlot: assignment.RescheduledSlot,
			NewDate:      newDate,
			NewSlot:      newSlot,
			Reason:       req.Reason,
			ActorID:      &actor.ID,
		}
		if err := c.rescheduleRepo.Create(ctx, tx, record); err != nil {
			return err
		}

		assignment.RescheduledDate = &newDate
		assignment.RescheduledSlot = &newSlot
		assignment.State = StateRescheduled

		if err := c.assignmentRepo.Save(ctx, tx, assignment); err != nil {
			return err
		}

		return c.historyRepo.Append(ctx, tx, &HistoryEntry{
			AssignmentID: id,
			Action:       HistoryRescheduled,
			Detail:       fmt.Sprintf("rescheduled to %s, block %s", utils.FormatISODate(newDate), newSlot),
			ActorID:      &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info("assignment rescheduled", "assignmentID", id, "newDate", req.NewDate, "newSlot", req.NewSlot)

	c.publishEvent(events.ASSIGNMENT_RESCHEDULED, assignment, &actor.ID, technicianEmail)

	return assignment, nil
}

// RecordDisposition applies a visit outcome straight from the field: a
// reschedule re-opens the visit on a new date, every other disposition
// closes it as visited. An authorize outcome is expected to be followed
// by an audit submission.
func (c *AssignmentController) RecordDisposition(
	ctx context.Context,
	id uuid.UUID,
	req DispositionRequest,
	actor *User,
) (*Assignment, error) {
	log := c.log.Function("RecordDisposition")

	disposition := Disposition(req.Disposition)
	if !disposition.Valid() {
		return nil, fmt.Errorf("%w: unknown disposition %q", apperrors.ErrInvalidInput, req.Disposition)
	}

	var newDate time.Time
	var newSlot Timeslot
	if disposition == DispositionReschedule {
		validation := apperrors.NewValidationErrors()

		var err error
		if req.NewDate == "" {
			validation.Add("newDate", "required when disposition is reschedule")
		} else if newDate, err = utils.ParseISODate(req.NewDate); err != nil {
			validation.Add("newDate", "must be a valid YYYY-MM-DD date")
		} else if utils.IsPastDate(newDate, time.Now()) {
			validation.Add("newDate", "must not be in the past")
		}

		if newSlot = Timeslot(req.NewSlot); !newSlot.Valid() {
			validation.Addf("newSlot", "must be one of %s or %s", TimeslotMorning, TimeslotAfternoon)
		}

		if err := validation.ErrOrNil(); err != nil {
			return nil, err
		}
	}

	var assignment *Assignment
	var technicianEmail *string

	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		assignment, err = c.assignmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%w: assignment not found", apperrors.ErrNotFound)
		}

		if !actor.Role.IsBackOffice() {
			if assignment.TechnicianID == nil || *assignment.TechnicianID != actor.ID {
				return fmt.Errorf("%w: assignment belongs to another technician", apperrors.ErrForbidden)
			}
		}

		if !canRecordDisposition(assignment.State) {
			return fmt.Errorf("%w: assignment is %s", apperrors.ErrConflict, assignment.State)
		}

		if assignment.Technician != nil {
			email := assignment.Technician.Email
			technicianEmail = &email
		}

		detail := string(disposition)
		if req.Detail != "" {
			detail = fmt.Sprintf("%s: %s", disposition, req.Detail)
		}

		// One lifecycle entry per outcome, chosen by the disposition
		lifecycle := &HistoryEntry{
			AssignmentID: id,
			Action:       disposition.HistoryAction(),
			Detail:       detail,
			ActorID:      &actor.ID,
		}

		if disposition == DispositionReschedule {
			previousDate := assignment.ScheduledDate
			if assignment.RescheduledDate != nil {
				previousDate = *assignment.RescheduledDate
			}

			record := &RescheduleRecord{
				AssignmentID: id,
				PreviousDate: &previousDate,
				PreviousSlot: assignment.RescheduledSlot,
				NewDate:      newDate,
				NewSlot:      newSlot,
				Reason:       req.Detail,
				ActorID:      &actor.ID,
			}
			if err := c.rescheduleRepo.Create(ctx, tx, record); err != nil {
				return err
			}

			assignment.RescheduledDate = &newDate
			assignment.RescheduledSlot = &newSlot
			assignment.State = StateRescheduled

			lifecycle.Detail = fmt.Sprintf("rescheduled to %s, block %s", utils.FormatISODate(newDate), newSlot)
		} else {
			assignment.State = StateVisited
			if lifecycle.Action == HistoryClosed {
				lifecycle.Detail = "closed with disposition " + detail
			}
		}

		if err := c.assignmentRepo.Save(ctx, tx, assignment); err != nil {
			return err
		}

		return c.historyRepo.Append(ctx, tx, lifecycle)
	})
	if err != nil {
		return nil, err
	}

	log.Info("disposition recorded", "assignmentID", id, "disposition", disposition)

	eventType := events.ASSIGNMENT_VISITED
	if disposition == DispositionReschedule {
		eventType = events.ASSIGNMENT_RESCHEDULED
	}
	c.publishEvent(eventType, assignment, &actor.ID, technicianEmail)

	return assignment, nil
}

func (c *AssignmentController) Cancel(
	ctx context.Context,
	id uuid.UUID,
	reason string,
	actor *User,
) (*Assignment, error) {
	log := c.log.Function("Cancel")

	if !actor.Role.IsBackOffice() {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only back-office roles cancel assignments")
	}

	var assignment *Assignment
	var technicianEmail *string

	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		assignment, err = c.assignmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%w: assignment not found", apperrors.ErrNotFound)
		}

		if !canCancel(assignment.State) {
			return fmt.Errorf("%w: assignment is %s", apperrors.ErrConflict, assignment.State)
		}

		if assignment.Technician != nil {
			email := assignment.Technician.Email
			technicianEmail = &email
		}

		assignment.State = StateCancelled

		if err := c.assignmentRepo.Save(ctx, tx, assignment); err != nil {
			return err
		}

		detail := "cancelled"
		if reason != "" {
			detail = fmt.Sprintf("cancelled: %s", reason)
		}

		return c.historyRepo.Append(ctx, tx, &HistoryEntry{
			AssignmentID: id,
			Action:       HistoryCancelled,
			Detail:       detail,
			ActorID:      &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info("assignment cancelled", "assignmentID", id, "actorID", actor.ID)

	c.publishEvent(events.ASSIGNMENT_CANCELLED, assignment, &actor.ID, technicianEmail)

	return assignment, nil
}

// publishEvent fires after the owning transaction has committed; a
// publish failure is logged and swallowed so lifecycle operations never
// fail on the event path
func (c *AssignmentController) publishEvent(
	eventType events.EventType,
	assignment *Assignment,
	actorID *uuid.UUID,
	technicianEmail *string,
) {
	log := c.log.Function("publishEvent")

	effectiveDate := assignment.ScheduledDate
	if assignment.RescheduledDate != nil {
		effectiveDate = *assignment.RescheduledDate
	}

	data := map[string]any{
		"address":       assignment.Address,
		"comuna":        assignment.Comuna,
		"state":         string(assignment.State),
		"scheduledDate": utils.FormatISODate(effectiveDate),
	}
	if assignment.RescheduledSlot != nil {
		data["timeslot"] = string(*assignment.RescheduledSlot)
	}
	if technicianEmail != nil {
		data["technicianEmail"] = *technicianEmail
	}

	assignmentID := assignment.ID
	err := c.eventBus.Publish(events.ASSIGNMENT_CHANNEL, events.Event{
		Type:         eventType,
		AssignmentID: &assignmentID,
		ActorID:      actorID,
		Data:         data,
	})
	if err != nil {
		log.Warn("failed to publish assignment event", "assignmentID", assignment.ID, "eventType", eventType, "error", err)
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "SQLSTATE 23505")
}
