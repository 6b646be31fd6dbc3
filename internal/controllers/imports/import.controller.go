package importController

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"fieldvisit/internal/apperrors"
	"fieldvisit/internal/constants"
	"fieldvisit/internal/events"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"
	"fieldvisit/internal/utils"

	"gorm.io/gorm"
)

// importColumns are the required CSV header names, matched
// case-insensitively. external_survey_id is the only optional column.
var importColumns = []string{
	"scheduled_date",
	"brand",
	"technology",
	"customer_rut",
	"unit_id",
	"address",
	"comuna",
	"survey_origin",
}

const optionalColumnExternalID = "external_survey_id"

type RowError struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ImportResult reports either a fully committed batch or the complete
// list of row errors; partial imports never happen
type ImportResult struct {
	Imported  int        `json:"imported"`
	RowErrors []RowError `json:"rowErrors,omitempty"`
}

type ImportControllerInterface interface {
	// ImportCSV loads a survey export. The whole file commits or none of
	// it does; row numbers in errors are 1-based over data rows.
	ImportCSV(ctx context.Context, reader io.Reader, actor *User) (*ImportResult, error)
}

type ImportController struct {
	assignmentRepo repositories.AssignmentRepository
	historyRepo    repositories.HistoryRepository
	transaction    *services.TransactionService
	eventBus       *events.EventBus
	log            logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
) ImportControllerInterface {
	return &ImportController{
		assignmentRepo: repos.Assignment,
		historyRepo:    repos.History,
		transaction:    services.Transaction,
		eventBus:       eventBus,
		log:            logger.New("importController"),
	}
}

func (c *ImportController) ImportCSV(
	ctx context.Context,
	reader io.Reader,
	actor *User,
) (*ImportResult, error) {
	log := c.log.Function("ImportCSV")

	if !actor.Role.IsBackOffice() {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only back-office roles import surveys")
	}

	buffered := bufio.NewReader(reader)

	csvReader := csv.NewReader(buffered)
	csvReader.Comma = detectDelimiter(buffered)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: file is empty or not a CSV", apperrors.ErrInvalidInput)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var assignments []*Assignment
	var rowErrors []RowError
	seen := make(map[string]int)
	now := time.Now()

	row := 0
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: row, Field: "", Reason: "malformed CSV row"})
			continue
		}

		assignment, errs := parseRow(columns, record, row, now)
		if len(errs) > 0 {
			rowErrors = append(rowErrors, errs...)
			continue
		}

		key := strings.ToLower(assignment.CustomerRUT + "|" + assignment.UnitID)
		if firstRow, dup := seen[key]; dup {
			rowErrors = append(rowErrors, RowError{
				Row:    row,
				Field:  "customer_rut",
				Reason: fmt.Sprintf("duplicates row %d for the same customer unit", firstRow),
			})
			continue
		}
		seen[key] = row

		assignments = append(assignments, assignment)
	}

	if len(rowErrors) > 0 {
		log.Info("import rejected", "rows", row, "errors", len(rowErrors))
		return &ImportResult{RowErrors: rowErrors}, nil
	}

	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: file contains no data rows", apperrors.ErrInvalidInput)
	}

	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.assignmentRepo.CreateBatch(ctx, tx, assignments); err != nil {
			return err
		}

		for _, assignment := range assignments {
			entry := &HistoryEntry{
				AssignmentID: assignment.ID,
				Action:       HistoryCreated,
				Detail:       fmt.Sprintf("imported from %s survey", assignment.SurveyOrigin),
				ActorID:      &actor.ID,
			}
			if err := c.historyRepo.Append(ctx, tx, entry); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("import committed", "count", len(assignments), "actorID", actor.ID)

	for _, assignment := range assignments {
		assignmentID := assignment.ID
		publishErr := c.eventBus.Publish(events.ASSIGNMENT_CHANNEL, events.Event{
			Type:         events.ASSIGNMENT_CREATED,
			AssignmentID: &assignmentID,
			ActorID:      &actor.ID,
			Data: map[string]any{
				"address":       assignment.Address,
				"comuna":        assignment.Comuna,
				"state":         string(assignment.State),
				"scheduledDate": utils.FormatISODate(assignment.ScheduledDate),
			},
		})
		if publishErr != nil {
			log.Warn("failed to publish import event", "assignmentID", assignment.ID, "error", publishErr)
		}
	}

	return &ImportResult{Imported: len(assignments)}, nil
}

// detectDelimiter peeks at the header line and picks semicolon when it
// outnumbers commas; survey exports come in both flavors
func detectDelimiter(buffered *bufio.Reader) rune {
	peeked, _ := buffered.Peek(4096)
	line := string(peeked)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

// resolveColumns maps required header names to their positions
func resolveColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, required := range importColumns {
		if _, found := columns[required]; !found {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"%w: missing required columns: %s",
			apperrors.ErrInvalidInput,
			strings.Join(missing, ", "),
		)
	}

	return columns, nil
}

func parseRow(columns map[string]int, record []string, row int, now time.Time) (*Assignment, []RowError) {
	field := func(name string) string {
		index, found := columns[name]
		if !found || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}

	var errs []RowError
	addErr := func(name, reason string) {
		errs = append(errs, RowError{Row: row, Field: name, Reason: reason})
	}

	for _, required := range importColumns {
		if field(required) == "" {
			addErr(required, "required")
		}
	}

	scheduledDate, dateErr := utils.ParseISODate(field("scheduled_date"))
	if field("scheduled_date") != "" {
		if dateErr != nil {
			addErr("scheduled_date", "must be a valid YYYY-MM-DD date")
		} else if utils.IsPastDate(scheduledDate, now) {
			addErr("scheduled_date", "must not be in the past")
		}
	}

	zone, zoneFound := constants.ZoneForComuna(field("comuna"))
	if field("comuna") != "" && !zoneFound {
		addErr("comuna", fmt.Sprintf("unknown comuna %q", field("comuna")))
	}

	if len(errs) > 0 {
		return nil, errs
	}

	assignment := &Assignment{
		ScheduledDate: scheduledDate,
		Brand:         field("brand"),
		Technology:    field("technology"),
		CustomerRUT:   field("customer_rut"),
		UnitID:        field("unit_id"),
		Address:       field("address"),
		Comuna:        field("comuna"),
		Zone:          zone,
		SurveyOrigin:  field("survey_origin"),
		State:         StatePending,
	}

	if externalID := field(optionalColumnExternalID); externalID != "" {
		assignment.ExternalSurveyID = &externalID
	}

	return assignment, nil
}
