// Package date provides the day-granularity calendar date the backfill
// core operates on.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// ISO is the canonical wire layout for dates (RFC 3339 full-date).
const ISO = "2006-01-02"

// Date is a calendar day with no time-of-day component. The zero value is
// not a valid date and reports IsZero.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the date for the given year, month, and day. Out-of-range
// values are normalised the same way time.Date normalises them.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime truncates t to its calendar day in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar day in local time.
func Today() Date {
	return FromTime(time.Now())
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return d.AddDays(1)
}

// AddDays returns d shifted by n days; n may be negative.
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Compare orders dates chronologically: -1 when d precedes o, 0 when equal,
// +1 when d follows o.
func (d Date) Compare(o Date) int {
	return d.Time().Compare(o.Time())
}

// Before reports whether d precedes o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d follows o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Equal reports whether d and o name the same calendar day.
func (d Date) Equal(o Date) bool { return d == o }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d == Date{} }

// Valid reports whether d names a real calendar day with a four-digit year.
// time.Date normalisation (e.g. Feb 30 becoming Mar 1) is treated as invalid.
func (d Date) Valid() bool {
	if d.Year < 1000 || d.Year > 9999 {
		return false
	}
	return FromTime(d.Time()) == d
}

// String formats d in the canonical ISO layout.
func (d Date) String() string {
	return d.Time().Format(ISO)
}

// Parse parses an ISO-formatted date, requiring the canonical zero-padded
// layout, a real calendar day and a four-digit year. time.Parse alone is
// too lenient here: it accepts unpadded fields like "2024-3-10".
func Parse(s string) (Date, error) {
	t, err := time.Parse(ISO, s)
	if err != nil {
		return Date{}, fmt.Errorf("date: parse %q: %w", s, err)
	}
	d := FromTime(t)
	if !d.Valid() || d.String() != s {
		return Date{}, fmt.Errorf("date: %q is not a valid ISO date", s)
	}
	return d, nil
}

// MarshalJSON encodes d as a quoted ISO date; the zero value encodes as "".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a quoted ISO date or the empty string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
