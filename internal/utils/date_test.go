package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISODate(t *testing.T) {
	date, err := ParseISODate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2026, date.Year())
	assert.Equal(t, time.March, date.Month())
	assert.Equal(t, 15, date.Day())

	_, err = ParseISODate("15/03/2026")
	assert.Error(t, err)

	_, err = ParseISODate("2026-13-01")
	assert.Error(t, err)

	_, err = ParseISODate("")
	assert.Error(t, err)
}

func TestFormatISODateRoundTrip(t *testing.T) {
	date, err := ParseISODate("2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02", FormatISODate(date))
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"yesterday", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), true},
		{"today", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"today later hour", time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC), false},
		{"tomorrow", time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), false},
		{"last year", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPastDate(tt.date, now))
		})
	}
}
