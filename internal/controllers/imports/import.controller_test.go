package importController

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"fieldvisit/internal/apperrors"
	"fieldvisit/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

var fullHeader = []string{
	"scheduled_date", "brand", "technology", "customer_rut",
	"unit_id", "address", "comuna", "survey_origin", "external_survey_id",
}

func TestResolveColumns(t *testing.T) {
	columns, err := resolveColumns(fullHeader)
	require.NoError(t, err)
	assert.Equal(t, 0, columns["scheduled_date"])
	assert.Equal(t, 8, columns["external_survey_id"])
}

func TestResolveColumnsCaseInsensitive(t *testing.T) {
	columns, err := resolveColumns([]string{
		"Scheduled_Date", "BRAND", "technology", "Customer_RUT",
		"unit_id", "address", "Comuna", "survey_origin",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, columns["brand"])
}

func TestResolveColumnsMissing(t *testing.T) {
	_, err := resolveColumns([]string{"scheduled_date", "brand"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "customer_rut")
}

func TestParseRowValid(t *testing.T) {
	columns, err := resolveColumns(fullHeader)
	require.NoError(t, err)

	record := []string{
		"2026-04-01", "VTR", "fiber", "12.345.678-5",
		"depto 1203", "Av. Providencia 1234", "Providencia", "post_install", "SRV-9911",
	}

	assignment, errs := parseRow(columns, record, 1, testNow)
	require.Empty(t, errs)
	assert.Equal(t, "12.345.678-5", assignment.CustomerRUT)
	assert.Equal(t, constants.Zone("oriente"), assignment.Zone)
	require.NotNil(t, assignment.ExternalSurveyID)
	assert.Equal(t, "SRV-9911", *assignment.ExternalSurveyID)
}

func TestParseRowCollectsAllErrors(t *testing.T) {
	columns, err := resolveColumns(fullHeader)
	require.NoError(t, err)

	record := []string{
		"01/04/2026", "VTR", "fiber", "12.345.678-5",
		"depto 1203", "", "Atlantis", "post_install", "",
	}

	_, errs := parseRow(columns, record, 7, testNow)
	require.NotEmpty(t, errs)

	fields := make([]string, 0, len(errs))
	for _, rowErr := range errs {
		assert.Equal(t, 7, rowErr.Row)
		fields = append(fields, rowErr.Field)
	}
	assert.Contains(t, fields, "scheduled_date")
	assert.Contains(t, fields, "address")
	assert.Contains(t, fields, "comuna")
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  rune
	}{
		{"comma separated", "scheduled_date,brand,comuna\n2026-04-01,VTR,Maipu\n", ','},
		{"semicolon separated", "scheduled_date;brand;comuna\n2026-04-01;VTR;Maipu\n", ';'},
		{"semicolons only in data", "scheduled_date,brand,address\n2026-04-01,VTR,Calle Uno; depto 2\n", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectDelimiter(bufio.NewReader(strings.NewReader(tt.input)))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRowOptionalExternalID(t *testing.T) {
	columns, err := resolveColumns(fullHeader)
	require.NoError(t, err)

	record := []string{
		"2026-04-01", "VTR", "fiber", "12.345.678-5",
		"casa", "Calle Uno 10", "Maipu", "door_to_door", "",
	}

	assignment, errs := parseRow(columns, record, 2, testNow)
	require.Empty(t, errs)
	assert.Nil(t, assignment.ExternalSurveyID)
}

func TestParseRowPastDateRejected(t *testing.T) {
	columns, err := resolveColumns(fullHeader)
	require.NoError(t, err)

	record := []string{
		"2019-01-01", "VTR", "fiber", "12.345.678-5",
		"casa", "Calle Uno 10", "Maipu", "door_to_door", "",
	}

	_, errs := parseRow(columns, record, 3, testNow)
	require.Len(t, errs, 1)
	assert.Equal(t, "scheduled_date", errs[0].Field)
	assert.Contains(t, errs[0].Reason, "past")

	// Today's visits still import
	record[0] = testNow.Format("2006-01-02")
	assignment, errs := parseRow(columns, record, 3, testNow)
	require.Empty(t, errs)
	assert.Equal(t, testNow.Format("2006-01-02"), assignment.ScheduledDate.Format("2006-01-02"))
}
