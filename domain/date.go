package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of every calendar date exchanged by the service.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day or location.
// The zero value means "no date".
type Date struct {
	t     time.Time
	valid bool
}

// MinDate and MaxDate bound the dates the service can represent on the wire.
var (
	MinDate = NewDate(1, time.January, 1)
	MaxDate = NewDate(9999, time.December, 31)
)

// NewDate builds a date, normalizing out-of-range days the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

// DateOf truncates a timestamp to the calendar day it falls on in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return DateOf(t), nil
}

// IsZero reports the absent date. 0001-01-01 is a valid date, not a zero one.
func (d Date) IsZero() bool {
	return !d.valid
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) Year() int {
	return d.t.Year()
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

func (d Date) Equal(other Date) bool {
	return d.valid == other.valid && d.t.Equal(other.t)
}

// AddDays shifts the date by n days.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return DateOf(d.t.AddDate(0, 0, n))
}

// AddYears shifts the date by n years. February 29 lands on February 28
// when the target year is not a leap year, instead of rolling into March.
func (d Date) AddYears(n int) Date {
	if d.IsZero() {
		return d
	}
	y, m, day := d.t.Date()
	target := y + n
	if last := daysIn(m, target); day > last {
		day = last
	}
	return NewDate(target, m, day)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
