// Package task holds the task record and its status enum.
package task

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// Status is the completion state of a task. Only Active and Done exist.
type Status int

const (
	Active Status = iota
	Done
)

func (s Status) String() string {
	if s == Done {
		return "Done"
	}
	return "Active"
}

// Symbol returns the glyph shown in the status column of the task table.
func (s Status) Symbol() string {
	if s == Done {
		return "✓"
	}
	return "○"
}

// ASCIISymbol is the --ascii rendering of Symbol.
func (s Status) ASCIISymbol() string {
	if s == Done {
		return "x"
	}
	return "-"
}

func (s Status) IsValid() bool {
	return s == Active || s == Done
}

// ParseStatus decodes a persisted status token. Anything other than "Done"
// decodes to Active.
func ParseStatus(s string) Status {
	if s == "Done" {
		return Done
	}
	return Active
}

// Date is a calendar day with no time-of-day component.
type Date struct {
	t time.Time
}

// DateOf truncates t to its calendar day in t's own location, returned as UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	return DateOf(timeNow())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// Task is one GTD item. ID is nil until the task has been saved.
type Task struct {
	ID          *uint64
	Description string
	Created     time.Time
	Scheduled   Date
	Deadline    *Date
	Status      Status
	Project     *int64
	Context     *int64
}

// New returns an unsaved, active task created now and scheduled for today.
func New() *Task {
	now := timeNow().Truncate(time.Second)
	return &Task{
		Created:   now,
		Scheduled: DateOf(now),
		Status:    Active,
	}
}

// IDValue returns the task ID, or 0 for an unsaved task.
func (t *Task) IDValue() uint64 {
	if !t.Saved() {
		return 0
	}
	return *t.ID
}

func (t *Task) Saved() bool {
	return t.ID != nil
}

// Complete moves the task to Done. There is no way back.
func (t *Task) Complete() {
	t.Status = Done
}
