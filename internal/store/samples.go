package store

import (
	"time"

	"github.com/bttglc/grillo/internal/task"
)

type sample struct {
	description string
	scheduled   int
	deadline    *int
	status      task.Status
	context     *int64
}

// sampleRows returns the five demo tasks written into a new database.
func sampleRows(now time.Time) []taskRow {
	nextWeek := 7
	// context ids: 1=work, 2=personal, 3=computer
	work, personal, computer := int64(1), int64(2), int64(3)
	samples := []sample{
		{description: "Review project proposal", scheduled: 0, status: task.Active, context: &work},
		{description: "Buy groceries", scheduled: 0, status: task.Active, context: &personal},
		{description: "Fix bug in parser", scheduled: -1, status: task.Done, context: &computer},
		{description: "Team meeting", scheduled: 1, deadline: &nextWeek, status: task.Active, context: &work},
		{description: "Read research paper", scheduled: 1, status: task.Active},
	}

	now = now.UTC().Truncate(time.Second)
	today := task.DateOf(now)
	rows := make([]taskRow, 0, len(samples))
	for _, s := range samples {
		t := task.Task{
			Description: s.description,
			Created:     now,
			Scheduled:   today.AddDays(s.scheduled),
			Status:      s.status,
			Context:     s.context,
		}
		if s.deadline != nil {
			d := today.AddDays(*s.deadline)
			t.Deadline = &d
		}
		rows = append(rows, toRow(&t))
	}
	return rows
}
