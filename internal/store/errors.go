package store

import "errors"

// Op names the kind of storage operation that failed.
type Op string

const (
	OpOpen  Op = "open"
	OpWrite Op = "write"
	OpRead  Op = "read"
)

var (
	ErrOpen  = errors.New("storage open failed")
	ErrWrite = errors.New("storage write failed")
	ErrRead  = errors.New("storage read failed")
)

// Error wraps a driver or decoding failure with the operation that hit it.
// It satisfies errors.Is against the matching sentinel (ErrOpen, ErrWrite, ErrRead).
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "storage error"
	}
	if e.Err == nil {
		return "storage " + string(e.Op)
	}
	return "storage " + string(e.Op) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch e.Op {
	case OpOpen:
		return target == ErrOpen
	case OpWrite:
		return target == ErrWrite
	case OpRead:
		return target == ErrRead
	default:
		return false
	}
}

func wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
