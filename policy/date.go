package policy

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/now"
)

// Date is a calendar date without a time component. The zero value is not a
// usable date; use NewDate or ParseDate.
type Date struct {
	t time.Time
}

// NewDate returns a date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date. Callers that need a stable
// reference date for a whole batch should call this exactly once.
func Today() Date {
	return dateOf(time.Now())
}

func dateOf(t time.Time) Date {
	d := now.With(t.UTC()).BeginningOfDay()
	return Date{t: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a policy start date. Empty input yields a nil date, which
// means "no date set". Parsing is tolerant of the usual date shapes found in
// resource policy rows (ISO dates, dates with a time part, etc).
func ParseDate(s string) (*Date, error) {
	if s == "" {
		return nil, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	d := dateOf(t)
	return &d, nil
}

// After reports whether d is chronologically after o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether two dates denote the same calendar day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) String() string { return d.t.Format("2006-01-02") }
