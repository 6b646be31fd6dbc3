package auditController

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fieldvisit/config"
	"fieldvisit/internal/apperrors"
	"fieldvisit/internal/database"
	"fieldvisit/internal/events"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"
	"fieldvisit/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PhotoUpload is one multipart photo handed down from the HTTP layer.
// Save writes the part to the given path; the controller decides where.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Save        func(path string) error
}

type AuditControllerInterface interface {
	// Submit records the post-visit questionnaire and applies its lifecycle
	// effect: a reschedule disposition re-opens the visit on a new date,
	// anything else closes it as visited. Photos sent on the same request
	// are validated with the questionnaire and stored with the audit.
	Submit(ctx context.Context, assignmentID uuid.UUID, req SubmitAuditRequest, uploads []PhotoUpload, actor *User) (*VisitAudit, error)
	Get(ctx context.Context, auditID uuid.UUID) (*VisitAudit, error)
	GetLatestForAssignment(ctx context.Context, assignmentID uuid.UUID) (*VisitAudit, error)
	AttachPhotos(ctx context.Context, auditID uuid.UUID, uploads []PhotoUpload, actor *User) (*VisitAudit, error)
}

type AuditController struct {
	auditRepo      repositories.AuditRepository
	assignmentRepo repositories.AssignmentRepository
	rescheduleRepo repositories.RescheduleRepository
	historyRepo    repositories.HistoryRepository
	transaction    *services.TransactionService
	eventBus       *events.EventBus
	db             database.DB
	config         config.Config
	log            logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) AuditControllerInterface {
	return &AuditController{
		auditRepo:      repos.Audit,
		assignmentRepo: repos.Assignment,
		rescheduleRepo: repos.Reschedule,
		historyRepo:    repos.History,
		transaction:    services.Transaction,
		eventBus:       eventBus,
		db:             db,
		config:         config,
		log:            logger.New("auditController"),
	}
}

// auditOutcome carries the parsed cross-field values out of validation
type auditOutcome struct {
	disposition     Disposition
	resolution      Resolution
	services        []ServiceType
	rescheduledDate *time.Time
	rescheduledSlot *Timeslot
}

// validateAuditRequest checks every cross-field rule of the questionnaire
// and collects all violations rather than stopping at the first. Photos
// riding along are validated here too so a bad file rejects the whole
// submission before anything is written.
func validateAuditRequest(req SubmitAuditRequest, uploads []PhotoUpload, now time.Time) (*auditOutcome, error) {
	validation := apperrors.NewValidationErrors()
	outcome := &auditOutcome{}

	outcome.disposition = Disposition(req.Disposition)
	if !outcome.disposition.Valid() {
		validation.Addf("disposition", "unknown disposition %q", req.Disposition)
	}

	if outcome.disposition == DispositionReschedule {
		if req.RescheduledDate == nil || *req.RescheduledDate == "" {
			validation.Add("rescheduledDate", "required when disposition is reschedule")
		} else if date, err := utils.ParseISODate(*req.RescheduledDate); err != nil {
			validation.Add("rescheduledDate", "must be a valid YYYY-MM-DD date")
		} else if utils.IsPastDate(date, now) {
			validation.Add("rescheduledDate", "must not be in the past")
		} else {
			outcome.rescheduledDate = &date
		}

		if req.RescheduledSlot == nil || *req.RescheduledSlot == "" {
			validation.Add("rescheduledSlot", "required when disposition is reschedule")
		} else if slot := Timeslot(*req.RescheduledSlot); !slot.Valid() {
			validation.Addf("rescheduledSlot", "must be one of %s or %s", TimeslotMorning, TimeslotAfternoon)
		} else {
			outcome.rescheduledSlot = &slot
		}
	}

	phases := map[string]ChecklistPhase{
		"scheduling":    req.Checklist.Scheduling,
		"arrival":       req.Checklist.Arrival,
		"install":       req.Checklist.Install,
		"configuration": req.Checklist.Configuration,
		"closeout":      req.Checklist.Closeout,
	}
	for phaseName, phase := range phases {
		for question, answer := range phase.Answers {
			if !answer.Valid() {
				validation.Addf(
					"checklist."+phaseName,
					"question %q has invalid answer %q", question, answer,
				)
			}
		}
	}

	affected := make(map[ServiceType]bool)
	for _, raw := range req.AffectedServices {
		service := ServiceType(raw)
		if !service.Valid() {
			validation.Addf("affectedServices", "unknown service %q", raw)
			continue
		}
		if !affected[service] {
			affected[service] = true
			outcome.services = append(outcome.services, service)
		}
	}

	if affected[ServiceInternet] {
		if isBlank(req.InternetSubcat) {
			validation.Add("internetSubcategory", "required when internet is affected")
		} else if *req.InternetSubcat == SubcategoryOther && isBlank(req.InternetDetail) {
			validation.Add("internetDetail", "required when internet subcategory is other")
		}
	}
	if affected[ServiceTV] {
		if isBlank(req.TVSubcat) {
			validation.Add("tvSubcategory", "required when tv is affected")
		} else if *req.TVSubcat == SubcategoryOther && isBlank(req.TVDetail) {
			validation.Add("tvDetail", "required when tv subcategory is other")
		}
	}
	if affected[ServiceOther] && isBlank(req.OtherServiceDetail) {
		validation.Add("otherServiceDetail", "required when another service is affected")
	}

	scores := map[string]*int{
		"scoreInstallation": req.ScoreInstallation,
		"scoreTechnician":   req.ScoreTechnician,
		"scoreOverall":      req.ScoreOverall,
	}
	for field, score := range scores {
		if score != nil && (*score < 0 || *score > 10) {
			validation.Addf(field, "must be between 0 and 10, got %d", *score)
		}
	}

	outcome.resolution = Resolution(req.Resolution)
	if !outcome.resolution.Valid() {
		validation.Addf("resolution", "unknown resolution %q", req.Resolution)
	}
	if outcome.resolution == ResolutionTicket && isBlank(req.TicketType) {
		validation.Add("ticketType", "required when a ticket was raised")
	}

	if req.Malpractice && isBlank(req.CompanyDetail) && isBlank(req.InstallerDetail) {
		validation.Add("malpractice", "company or installer detail required when malpractice is reported")
	}

	checkPhotoUploads(0, uploads, validation)

	if err := validation.ErrOrNil(); err != nil {
		return nil, err
	}
	return outcome, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func (c *AuditController) Submit(
	ctx context.Context,
	assignmentID uuid.UUID,
	req SubmitAuditRequest,
	uploads []PhotoUpload,
	actor *User,
) (*VisitAudit, error) {
	log := c.log.Function("Submit")

	outcome, err := validateAuditRequest(req, uploads, time.Now())
	if err != nil {
		return nil, err
	}

	var audit *VisitAudit
	var assignment *Assignment
	var technicianEmail *string

	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		assignment, err = c.assignmentRepo.GetByID(ctx, tx, assignmentID)
		if err != nil {
			return fmt.Errorf("%w: assignment not found", apperrors.ErrNotFound)
		}

		if !actor.Role.IsBackOffice() {
			if assignment.TechnicianID == nil || *assignment.TechnicianID != actor.ID {
				return fmt.Errorf("%w: assignment belongs to another technician", apperrors.ErrForbidden)
			}
		}

		// A visited assignment still takes its audit; the disposition
		// endpoint may have closed it moments earlier. Cancelled never does.
		if assignment.State == StateCancelled {
			return fmt.Errorf("%w: assignment is cancelled", apperrors.ErrConflict)
		}
		if assignment.TechnicianID == nil {
			return fmt.Errorf("%w: assignment has no technician", apperrors.ErrConflict)
		}

		if assignment.Technician != nil {
			email := assignment.Technician.Email
			technicianEmail = &email
		}

		audit = NewVisitAudit(assignment)
		audit.Disposition = outcome.disposition
		audit.RescheduledDate = outcome.rescheduledDate
		audit.RescheduledSlot = outcome.rescheduledSlot
		audit.Checklist = datatypes.NewJSONType(req.Checklist)
		audit.AffectedServices = datatypes.NewJSONSlice(outcome.services)
		audit.InternetSubcat = req.InternetSubcat
		audit.InternetDetail = req.InternetDetail
		audit.TVSubcat = req.TVSubcat
		audit.TVDetail = req.TVDetail
		audit.OtherServiceDetail = req.OtherServiceDetail
		audit.ScoreInstallation = req.ScoreInstallation
		audit.ScoreTechnician = req.ScoreTechnician
		audit.ScoreOverall = req.ScoreOverall
		audit.Resolution = outcome.resolution
		audit.TicketType = req.TicketType
		audit.Malpractice = req.Malpractice
		audit.CompanyDetail = req.CompanyDetail
		audit.InstallerDetail = req.InstallerDetail

		if err := c.auditRepo.Create(ctx, tx, audit); err != nil {
			return err
		}

		if err := c.historyRepo.Append(ctx, tx, &HistoryEntry{
			AssignmentID: assignmentID,
			Action:       HistoryAuditCreated,
			Detail:       fmt.Sprintf("audit %s recorded", audit.ID),
			ActorID:      &actor.ID,
		}); err != nil {
			return err
		}

		// One lifecycle entry per audit, chosen by the disposition
		lifecycle := &HistoryEntry{
			AssignmentID: assignmentID,
			Action:       outcome.disposition.HistoryAction(),
			Detail:       string(outcome.disposition),
			ActorID:      &actor.ID,
		}

		if outcome.disposition == DispositionReschedule {
			previousDate := assignment.ScheduledDate
			if assignment.RescheduledDate != nil {
				previousDate = *assignment.RescheduledDate
			}

			record := &RescheduleRecord{
				AssignmentID: assignmentID,
				PreviousDate: &previousDate,
				PreviousSlot: assignment.RescheduledSlot,
				NewDate:      *outcome.rescheduledDate,
				NewSlot:      *outcome.rescheduledSlot,
				Reason:       "customer requested reschedule during visit",
				ActorID:      &actor.ID,
			}
			if err := c.rescheduleRepo.Create(ctx, tx, record); err != nil {
				return err
			}

			assignment.RescheduledDate = outcome.rescheduledDate
			assignment.RescheduledSlot = outcome.rescheduledSlot
			assignment.State = StateRescheduled

			lifecycle.Detail = fmt.Sprintf(
				"rescheduled to %s, block %s",
				utils.FormatISODate(*outcome.rescheduledDate),
				*outcome.rescheduledSlot,
			)
		} else {
			assignment.State = StateVisited
			if lifecycle.Action == HistoryClosed {
				lifecycle.Detail = fmt.Sprintf("closed with disposition %s", outcome.disposition)
			}
		}

		if err := c.assignmentRepo.Save(ctx, tx, assignment); err != nil {
			return err
		}

		if err := c.historyRepo.Append(ctx, tx, lifecycle); err != nil {
			return err
		}

		if len(uploads) == 0 {
			return nil
		}

		// Files go to disk last so an aborted transaction has as little as
		// possible to clean up
		photos, err := c.savePhotos(audit.ID, nil, uploads)
		if err != nil {
			return log.Err("failed to store photo", err, "auditID", audit.ID)
		}
		if err := c.auditRepo.UpdatePhotos(ctx, tx, audit.ID, photos); err != nil {
			removeFiles(photos)
			return err
		}
		audit.Photos = datatypes.NewJSONSlice(photos)

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("audit submitted", "auditID", audit.ID, "assignmentID", assignmentID, "disposition", outcome.disposition)

	c.publishAuditEvents(assignment, audit, actor, technicianEmail)

	return audit, nil
}

func (c *AuditController) Get(ctx context.Context, auditID uuid.UUID) (*VisitAudit, error) {
	log := c.log.Function("Get")

	audit, err := c.auditRepo.GetByID(ctx, c.db.SQL, auditID)
	if err != nil {
		return nil, log.ErrorWithType(apperrors.ErrNotFound, "audit not found")
	}

	return audit, nil
}

func (c *AuditController) GetLatestForAssignment(
	ctx context.Context,
	assignmentID uuid.UUID,
) (*VisitAudit, error) {
	log := c.log.Function("GetLatestForAssignment")

	audit, err := c.auditRepo.GetLatestForAssignment(ctx, c.db.SQL, assignmentID)
	if err != nil {
		return nil, log.ErrorWithType(apperrors.ErrNotFound, "no audit recorded for assignment")
	}

	return audit, nil
}

func (c *AuditController) AttachPhotos(
	ctx context.Context,
	auditID uuid.UUID,
	uploads []PhotoUpload,
	actor *User,
) (*VisitAudit, error) {
	log := c.log.Function("AttachPhotos")

	audit, err := c.auditRepo.GetByID(ctx, c.db.SQL, auditID)
	if err != nil {
		return nil, log.ErrorWithType(apperrors.ErrNotFound, "audit not found")
	}

	if !actor.Role.IsBackOffice() {
		if audit.TechnicianID == nil || *audit.TechnicianID != actor.ID {
			return nil, log.ErrorWithType(apperrors.ErrForbidden, "audit belongs to another technician")
		}
	}

	if err := validatePhotoBatch(len(audit.Photos), uploads); err != nil {
		return nil, err
	}

	photos, err := c.savePhotos(auditID, []string(audit.Photos), uploads)
	if err != nil {
		return nil, log.Err("failed to store photo", err, "auditID", auditID)
	}

	if err := c.auditRepo.UpdatePhotos(ctx, c.db.SQL, auditID, photos); err != nil {
		removeFiles(photos[len(audit.Photos):])
		return nil, err
	}

	audit.Photos = datatypes.NewJSONSlice(photos)
	log.Info("photos attached", "auditID", auditID, "count", len(uploads), "total", len(photos))

	return audit, nil
}

// validatePhotoBatch guards the standalone backfill endpoint, which
// requires at least one file. Submissions may carry zero.
func validatePhotoBatch(existing int, uploads []PhotoUpload) error {
	validation := apperrors.NewValidationErrors()

	if len(uploads) == 0 {
		validation.Add("photos", "at least one photo is required")
	}
	checkPhotoUploads(existing, uploads, validation)

	return validation.ErrOrNil()
}

func checkPhotoUploads(existing int, uploads []PhotoUpload, validation *apperrors.ValidationErrors) {
	if existing+len(uploads) > MaxAuditPhotos {
		validation.Addf("photos", "at most %d photos per audit, %d already stored", MaxAuditPhotos, existing)
	}
	for i, upload := range uploads {
		slot := existing + i + 1
		if !strings.HasPrefix(upload.ContentType, "image/") {
			validation.Addf("photos", "photo %d (%s) is not an image", slot, upload.Filename)
		}
		if upload.Size > MaxPhotoSizeBytes {
			validation.Addf("photos", "photo %d (%s) exceeds the %dMB limit", slot, upload.Filename, MaxPhotoSizeBytes/(1024*1024))
		}
	}
}

// savePhotos writes uploads under the audit's directory and returns the
// combined photo path list. When a write fails, files already written by
// this call are removed so nothing orphaned stays on disk.
func (c *AuditController) savePhotos(
	auditID uuid.UUID,
	existing []string,
	uploads []PhotoUpload,
) ([]string, error) {
	photos := append([]string(nil), existing...)
	var written []string

	for i, upload := range uploads {
		name := fmt.Sprintf("%d_%s", len(existing)+i, sanitizeFilename(upload.Filename))
		path := filepath.Join(c.config.UploadDir, auditID.String(), name)

		if err := upload.Save(path); err != nil {
			removeFiles(written)
			return nil, fmt.Errorf("saving %s: %w", upload.Filename, err)
		}
		written = append(written, path)
		photos = append(photos, path)
	}

	return photos, nil
}

func removeFiles(paths []string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}

func (c *AuditController) publishAuditEvents(
	assignment *Assignment,
	audit *VisitAudit,
	actor *User,
	technicianEmail *string,
) {
	log := c.log.Function("publishAuditEvents")

	assignmentID := assignment.ID
	auditEvent := events.Event{
		Type:         events.AUDIT_CREATED,
		AssignmentID: &assignmentID,
		ActorID:      &actor.ID,
		Data: map[string]any{
			"auditId":     audit.ID.String(),
			"disposition": string(audit.Disposition),
			"address":     assignment.Address,
		},
	}
	if err := c.eventBus.Publish(events.ASSIGNMENT_CHANNEL, auditEvent); err != nil {
		log.Warn("failed to publish audit event", "auditID", audit.ID, "error", err)
	}

	lifecycleType := events.ASSIGNMENT_VISITED
	data := map[string]any{
		"address": assignment.Address,
		"state":   string(assignment.State),
	}
	if audit.Disposition == DispositionReschedule {
		lifecycleType = events.ASSIGNMENT_RESCHEDULED
		if audit.RescheduledDate != nil {
			data["scheduledDate"] = utils.FormatISODate(*audit.RescheduledDate)
		}
		if audit.RescheduledSlot != nil {
			data["timeslot"] = string(*audit.RescheduledSlot)
		}
	}
	if technicianEmail != nil {
		data["technicianEmail"] = *technicianEmail
	}

	lifecycleEvent := events.Event{
		Type:         lifecycleType,
		AssignmentID: &assignmentID,
		ActorID:      &actor.ID,
		Data:         data,
	}
	if err := c.eventBus.Publish(events.ASSIGNMENT_CHANNEL, lifecycleEvent); err != nil {
		log.Warn("failed to publish lifecycle event", "assignmentID", assignment.ID, "error", err)
	}
}
