package threadpool

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// TaskMetaError exposes correlation metadata for a task failure.
type TaskMetaError interface {
	error
	Unwrap() error
	TaskID() uuid.UUID
	TaskIndex() uint64
}

// TaskFailure is the error delivered through a Future when its task returned an
// error or panicked. The original error is available via errors.Unwrap.
type TaskFailure struct {
	err   error
	id    uuid.UUID
	index uint64
}

func newTaskFailure(err error, id uuid.UUID, index uint64) error {
	if err == nil {
		return nil
	}
	return &TaskFailure{err: err, id: id, index: index}
}

func (e *TaskFailure) Error() string { return e.err.Error() }
func (e *TaskFailure) Unwrap() error { return e.err }

// TaskID returns the identifier of the failed task.
func (e *TaskFailure) TaskID() uuid.UUID { return e.id }

// TaskIndex returns the submission index of the failed task.
func (e *TaskFailure) TaskIndex() uint64 { return e.index }

func (e *TaskFailure) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "task(index=%d,id=%s): %+v", e.index, e.id, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractTaskID returns the task ID from err if present.
func ExtractTaskID(err error) (uuid.UUID, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.TaskID(), true
	}
	return uuid.Nil, false
}

// ExtractTaskIndex returns the task submission index from err if present.
func ExtractTaskIndex(err error) (uint64, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.TaskIndex(), true
	}
	return 0, false
}
