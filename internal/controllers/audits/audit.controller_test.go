package auditController

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fieldvisit/config"
	"fieldvisit/internal/apperrors"
	. "fieldvisit/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func validRequest() SubmitAuditRequest {
	return SubmitAuditRequest{
		Disposition: string(DispositionAuthorize),
		Resolution:  string(ResolutionOnSite),
		Checklist: Checklist{
			Arrival: ChecklistPhase{
				Answers: map[string]TriState{"identified_on_arrival": AnswerYes},
			},
		},
	}
}

func violatedFields(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)

	var validation *apperrors.ValidationErrors
	require.True(t, errors.As(err, &validation))

	fields := make([]string, 0, len(validation.Violations))
	for _, violation := range validation.Violations {
		fields = append(fields, violation.Field)
	}
	return fields
}

func TestValidateAuditRequestAccepts(t *testing.T) {
	outcome, err := validateAuditRequest(validRequest(), nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, DispositionAuthorize, outcome.disposition)
	assert.Equal(t, ResolutionOnSite, outcome.resolution)
	assert.Nil(t, outcome.rescheduledDate)
}

func TestValidateAuditRequestUnknownEnums(t *testing.T) {
	req := validRequest()
	req.Disposition = "maybe_later"
	req.Resolution = "shrugged"

	fields := violatedFields(t, mustErr(validateAuditRequest(req, nil, testNow)))
	assert.Contains(t, fields, "disposition")
	assert.Contains(t, fields, "resolution")
}

func TestValidateAuditRequestRescheduleRules(t *testing.T) {
	req := validRequest()
	req.Disposition = string(DispositionReschedule)

	fields := violatedFields(t, mustErr(validateAuditRequest(req, nil, testNow)))
	assert.Contains(t, fields, "rescheduledDate")
	assert.Contains(t, fields, "rescheduledSlot")

	req.RescheduledDate = strPtr("2026-03-10")
	req.RescheduledSlot = strPtr("09-12")
	fields = violatedFields(t, mustErr(validateAuditRequest(req, nil, testNow)))
	assert.Contains(t, fields, "rescheduledDate")
	assert.Contains(t, fields, "rescheduledSlot")

	req.RescheduledDate = strPtr("2026-03-20")
	req.RescheduledSlot = strPtr(string(TimeslotMorning))
	outcome, err := validateAuditRequest(req, nil, testNow)
	require.NoError(t, err)
	require.NotNil(t, outcome.rescheduledDate)
	assert.Equal(t, TimeslotMorning, *outcome.rescheduledSlot)
}

func TestValidateAuditRequestServiceSubcategories(t *testing.T) {
	req := validRequest()
	req.AffectedServices = []string{"internet", "tv", "other"}

	fields := violatedFields(t, mustErr(validateAuditRequest(req, nil, testNow)))
	assert.Contains(t, fields, "internetSubcategory")
	assert.Contains(t, fields, "tvSubcategory")
	assert.Contains(t, fields, "otherServiceDetail")

	req.InternetSubcat = strPtr(SubcategoryOther)
	req.TVSubcat = strPtr("no_signal")
	req.OtherServiceDetail = strPtr("landline dead after install")
	fields = violatedFields(t, mustErr(validateAuditRequest(req, nil, testNow)))
	assert.Contains(t, fields, "internetDetail")
	assert.NotContains(t, fields, "tvSubcategory")

	req.InternetDetail = strPtr("intermittent drops on wifi")
	outcome, err := validateAuditRequest(req, nil, testNow)
	require.NoError(t, err)
	assert.Len(t, outcome.services, 3)
}

func TestValidateAuditRequestDeduplicatesServices(t *testing.T) {
	req := validRequest()
	req.AffectedServices = []string{"phone", "phone"}

	outcome, err := validateAuditRequest(req, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, []ServiceType{ServicePhone}, outcome.services)
}

func TestValidateAuditRequestScoreBounds(t *testing.T) {
	req := validRequest()
	req.ScoreOverall = intPtr(11)
	req.ScoreTechnician = intPtr(-1)
	req.ScoreInstallation = intPtr(10)

	fields := violatedFields(t, mustErr(validateAuditRequest(req, nil, testNow)))
	assert.Contains(t, fields, "scoreOverall")
	assert.Contains(t, fields, "scoreTechnician")
	assert.NotContains(t, fields, "scoreInstallation")
}

func TestValidateAuditRequestTicketAndMalpractice(t *testing.T) {
	req := validRequest()
	req.Resolution = string(ResolutionTicket)
	req.Malpractice = true

	fields := violatedFields(t, mustErr(validateAuditRequest(req, nil, testNow)))
	assert.Contains(t, fields, "ticketType")
	assert.Contains(t, fields, "malpractice")

	req.TicketType = strPtr("network_fault")
	req.InstallerDetail = strPtr("drilled through a shared wall")
	_, err := validateAuditRequest(req, nil, testNow)
	assert.NoError(t, err)
}

func TestValidateAuditRequestChecklistAnswers(t *testing.T) {
	req := validRequest()
	req.Checklist.Install = ChecklistPhase{
		Answers: map[string]TriState{"cable_routed_cleanly": "sometimes"},
	}

	fields := violatedFields(t, mustErr(validateAuditRequest(req, nil, testNow)))
	assert.Contains(t, fields, "checklist.install")
}

func TestValidateAuditRequestRejectsBadPhotos(t *testing.T) {
	req := validRequest()
	uploads := []PhotoUpload{
		{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1024},
		{Filename: "b.pdf", ContentType: "application/pdf", Size: 1024},
	}

	// One bad file sinks the whole submission, nothing is written
	fields := violatedFields(t, mustErr(validateAuditRequest(req, uploads, testNow)))
	assert.Contains(t, fields, "photos")

	// Zero photos on submit is fine; backfill comes later
	_, err := validateAuditRequest(req, nil, testNow)
	assert.NoError(t, err)
}

func TestSavePhotosCleanupOnFailure(t *testing.T) {
	controller := &AuditController{config: config.Config{UploadDir: t.TempDir()}}
	auditID := uuid.New()

	var firstPath string
	writeOK := func(path string) error {
		firstPath = path
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, []byte("jpeg bytes"), 0o644)
	}
	writeFail := func(path string) error {
		return errors.New("disk full")
	}

	uploads := []PhotoUpload{
		{Filename: "a.jpg", ContentType: "image/jpeg", Size: 10, Save: writeOK},
		{Filename: "b.jpg", ContentType: "image/jpeg", Size: 10, Save: writeFail},
	}

	_, err := controller.savePhotos(auditID, nil, uploads)
	require.Error(t, err)

	// The file written before the failure must be gone
	require.NotEmpty(t, firstPath)
	_, statErr := os.Stat(firstPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSavePhotosAppendsToExisting(t *testing.T) {
	controller := &AuditController{config: config.Config{UploadDir: t.TempDir()}}
	auditID := uuid.New()

	write := func(path string) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, []byte("jpeg bytes"), 0o644)
	}

	existing := []string{"uploads/old/0_first.jpg"}
	uploads := []PhotoUpload{
		{Filename: "second.jpg", ContentType: "image/jpeg", Size: 10, Save: write},
	}

	photos, err := controller.savePhotos(auditID, existing, uploads)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, existing[0], photos[0])
	assert.Contains(t, photos[1], "1_second.jpg")
}

func TestValidatePhotoBatch(t *testing.T) {
	small := PhotoUpload{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1024}
	huge := PhotoUpload{Filename: "b.jpg", ContentType: "image/jpeg", Size: MaxPhotoSizeBytes + 1}
	pdf := PhotoUpload{Filename: "c.pdf", ContentType: "application/pdf", Size: 1024}

	assert.Error(t, validatePhotoBatch(0, nil))
	assert.NoError(t, validatePhotoBatch(0, []PhotoUpload{small, small, small}))
	assert.Error(t, validatePhotoBatch(1, []PhotoUpload{small, small, small}))
	assert.Error(t, validatePhotoBatch(0, []PhotoUpload{huge}))
	assert.Error(t, validatePhotoBatch(0, []PhotoUpload{pdf}))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo-1.jpg", sanitizeFilename("photo-1.jpg"))
	assert.Equal(t, "foto_living.png", sanitizeFilename("../../foto living.png"))
}

func mustErr(_ *auditOutcome, err error) error { return err }
