// Package store persists tasks in a single sqlite table through gorm.
package store

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bttglc/grillo/internal/task"
)

const tableName = "tasks"

// rowColumns reads the date columns back as the text that was stored. The
// sqlite driver would otherwise turn DATE and DATETIME values into time.Time
// and map unparseable text to the zero time.
const rowColumns = "id, description, CAST(created AS TEXT) AS created, " +
	"CAST(scheduled AS TEXT) AS scheduled, CAST(deadline AS TEXT) AS deadline, " +
	"status, context, project"

// taskRow is the on-disk shape of a task. The declared column types match
// databases written by earlier grillo releases; id is a plain rowid alias.
type taskRow struct {
	ID          uint64        `gorm:"column:id;primaryKey;type:INTEGER"`
	Description string        `gorm:"column:description;type:TEXT;not null"`
	Created     timestampText `gorm:"column:created;type:DATETIME;not null"`
	Scheduled   dateText      `gorm:"column:scheduled;type:DATE;not null"`
	Deadline    dateText      `gorm:"column:deadline;type:DATE"`
	Status      string        `gorm:"column:status;type:TEXT;not null"`
	Context     *int64        `gorm:"column:context;type:INTEGER"`
	Project     *int64        `gorm:"column:project;type:INTEGER"`
}

func (taskRow) TableName() string {
	return tableName
}

// Store owns the only connection to the task database for the life of the process.
type Store struct {
	db     *gorm.DB
	path   string
	log    *log.Logger
	now    func() time.Time
	seed   bool
	seeded bool
}

type Option func(*Store)

// WithLogger routes storage and SQL logging through l.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSeed controls whether a freshly created database gets the sample tasks.
func WithSeed(seed bool) Option {
	return func(s *Store) { s.seed = seed }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens or creates the database at path. When the tasks table does not
// exist yet it is created and, unless disabled, filled with sample tasks.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, wrap(OpOpen, errors.New("database path is empty"))
	}
	s := &Store{
		path: path,
		log:  log.New(io.Discard),
		now:  func() time.Time { return time.Now().UTC() },
		seed: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 s.gormLogger(),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, wrap(OpOpen, fmt.Errorf("failed to open %s: %w", path, err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, wrap(OpOpen, err)
	}
	sqlDB.SetMaxOpenConns(1)
	s.db = db

	if err := s.bootstrap(); err != nil {
		_ = sqlDB.Close()
		return nil, wrap(OpOpen, err)
	}
	return s, nil
}

func (s *Store) gormLogger() logger.Interface {
	level := logger.Silent
	if s.log.GetLevel() <= log.DebugLevel {
		level = logger.Info
	}
	return logger.New(s.log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// bootstrap creates the schema on first use. Presence of the tasks table is
// the only marker; there is no schema version.
func (s *Store) bootstrap() error {
	if s.db.Migrator().HasTable(tableName) {
		return nil
	}
	s.log.Info("creating task table", "path", s.path)
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Migrator().CreateTable(&taskRow{}); err != nil {
			return fmt.Errorf("failed to create %s table: %w", tableName, err)
		}
		if !s.seed {
			return nil
		}
		rows := sampleRows(s.now())
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert sample tasks: %w", err)
		}
		s.seeded = true
		s.log.Info("seeded sample tasks", "count", len(rows))
		return nil
	})
}

// Seeded reports whether this Open created the schema and inserted samples.
func (s *Store) Seeded() bool {
	return s.seeded
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save inserts t when it has no ID (and assigns one), otherwise updates the
// mutable columns of the existing row. created, id and project are never rewritten.
func (s *Store) Save(t *task.Task) error {
	if t == nil {
		return wrap(OpWrite, errors.New("nil task"))
	}
	if !t.Status.IsValid() {
		return wrap(OpWrite, fmt.Errorf("invalid status %d", t.Status))
	}
	if !t.Saved() {
		row := toRow(t)
		if err := s.db.Create(&row).Error; err != nil {
			return wrap(OpWrite, fmt.Errorf("failed to insert task: %w", err))
		}
		id := row.ID
		t.ID = &id
		s.log.Debug("inserted task", "id", id)
		return nil
	}

	row := toRow(t)
	err := s.db.Model(&taskRow{}).Where("id = ?", *t.ID).Updates(map[string]any{
		"description": row.Description,
		"scheduled":   row.Scheduled,
		"deadline":    row.Deadline,
		"status":      row.Status,
		"context":     row.Context,
	}).Error
	if err != nil {
		return wrap(OpWrite, fmt.Errorf("failed to update task %d: %w", *t.ID, err))
	}
	s.log.Debug("updated task", "id", *t.ID)
	return nil
}

// ListAll returns every task ordered by scheduled date, then id.
func (s *Store) ListAll() ([]task.Task, error) {
	var rows []taskRow
	if err := s.db.Select(rowColumns).Order("scheduled ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, wrap(OpRead, fmt.Errorf("failed to query tasks: %w", err))
	}
	out := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		t, err := fromRow(r)
		if err != nil {
			return nil, wrap(OpRead, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Complete marks the task with the given id as done. An id that matches no
// row is not an error.
func (s *Store) Complete(id uint64) error {
	res := s.db.Model(&taskRow{}).Where("id = ?", id).Update("status", task.Done.String())
	if res.Error != nil {
		return wrap(OpWrite, fmt.Errorf("failed to complete task %d: %w", id, res.Error))
	}
	s.log.Debug("completed task", "id", id, "rows", res.RowsAffected)
	return nil
}

// Delete removes the task with the given id. An id that matches no row is not an error.
func (s *Store) Delete(id uint64) error {
	res := s.db.Where("id = ?", id).Delete(&taskRow{})
	if res.Error != nil {
		return wrap(OpWrite, fmt.Errorf("failed to delete task %d: %w", id, res.Error))
	}
	s.log.Debug("deleted task", "id", id, "rows", res.RowsAffected)
	return nil
}

func toRow(t *task.Task) taskRow {
	row := taskRow{
		ID:          t.IDValue(),
		Description: t.Description,
		Created:     timestampText(t.Created.UTC().Format(task.TimestampLayout)),
		Scheduled:   dateText(t.Scheduled.String()),
		Status:      t.Status.String(),
		Context:     t.Context,
		Project:     t.Project,
	}
	if t.Deadline != nil {
		row.Deadline = dateText(t.Deadline.String())
	}
	return row
}

func fromRow(r taskRow) (task.Task, error) {
	created, err := time.ParseInLocation(task.TimestampLayout, string(r.Created), time.UTC)
	if err != nil {
		return task.Task{}, fmt.Errorf("task %d: invalid created %q: %w", r.ID, r.Created, err)
	}
	scheduled, err := task.ParseDate(string(r.Scheduled))
	if err != nil {
		return task.Task{}, fmt.Errorf("task %d: invalid scheduled: %w", r.ID, err)
	}
	var deadline *task.Date
	if strings.TrimSpace(string(r.Deadline)) != "" {
		d, err := task.ParseDate(string(r.Deadline))
		if err != nil {
			return task.Task{}, fmt.Errorf("task %d: invalid deadline: %w", r.ID, err)
		}
		deadline = &d
	}
	id := r.ID
	return task.Task{
		ID:          &id,
		Description: r.Description,
		Created:     created,
		Scheduled:   scheduled,
		Deadline:    deadline,
		Status:      task.ParseStatus(r.Status),
		Context:     r.Context,
		Project:     r.Project,
	}, nil
}
