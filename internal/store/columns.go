package store

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/bttglc/grillo/internal/task"
)

// Date columns are read as text (see rowColumns), but the sqlite driver hands
// DATE and DATETIME values over as time.Time when they are selected directly.
// These column types accept both and always hold the canonical text form.

// dateText is a "YYYY-MM-DD" column. The empty value is written as NULL.
type dateText string

func (d *dateText) Scan(src any) error {
	s, err := scanText(src, task.DateLayout)
	*d = dateText(s)
	return err
}

func (d dateText) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

// timestampText is a "YYYY-MM-DD HH:MM:SS" UTC column.
type timestampText string

func (ts *timestampText) Scan(src any) error {
	s, err := scanText(src, task.TimestampLayout)
	*ts = timestampText(s)
	return err
}

func (ts timestampText) Value() (driver.Value, error) {
	return string(ts), nil
}

func scanText(src any, layout string) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		if v.IsZero() {
			return "", errors.New("column holds an unparseable date")
		}
		return v.UTC().Format(layout), nil
	default:
		return "", fmt.Errorf("unsupported column value of type %T", src)
	}
}
