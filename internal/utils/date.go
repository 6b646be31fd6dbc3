package utils

import (
	"fmt"
	"time"
)

// ISODateFormat is the wire format for visit dates. Dates carry no time
// component; timeslots are tracked separately.
const ISODateFormat = "2006-01-02"

func ParseISODate(value string) (time.Time, error) {
	date, err := time.Parse(ISODateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return date, nil
}

func FormatISODate(date time.Time) string {
	return date.Format(ISODateFormat)
}

// IsPastDate compares calendar days in UTC; today is not past
func IsPastDate(date, now time.Time) bool {
	truncate := func(t time.Time) time.Time {
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return truncate(date).Before(truncate(now))
}
