package assessment

import (
	"fmt"
	"time"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

// Status is the lifecycle state of one check execution.
type Status string

const (
	StatusConstructed Status = "constructed"
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Execution tracks a single check instance through
// constructed → running → completed | failed. It is never reused.
type Execution struct {
	name       string
	title      string
	status     Status
	startedAt  time.Time
	finishedAt time.Time
	rows       int
	err        error
	section    checker.Section
}

// NewExecution creates an execution in the constructed state.
func NewExecution(d checker.Descriptor) *Execution {
	return &Execution{name: d.Name, title: d.Title, status: StatusConstructed}
}

// Start marks the execution as running
func (e *Execution) Start() error {
	if e.status != StatusConstructed {
		return e.invalid(StatusRunning)
	}
	e.status = StatusRunning
	e.startedAt = time.Now()
	return nil
}

// Complete records the formatted section of a successful run
func (e *Execution) Complete(rows int, section checker.Section) error {
	if e.status != StatusRunning {
		return e.invalid(StatusCompleted)
	}
	e.status = StatusCompleted
	e.finishedAt = time.Now()
	e.rows = rows
	e.section = section
	return nil
}

// Fail records why the check did not complete. A check that could not be
// constructed fails without ever running.
func (e *Execution) Fail(err error) error {
	if e.status == StatusCompleted || e.status == StatusFailed {
		return e.invalid(StatusFailed)
	}
	e.status = StatusFailed
	e.finishedAt = time.Now()
	e.err = err
	e.section = checker.FailedSection(e.title, err)
	return nil
}

func (e *Execution) invalid(to Status) error {
	return fmt.Errorf("%w: %s cannot move from %s to %s", apperrors.ErrInvalidTransition, e.name, e.status, to)
}

// Getters

func (e *Execution) Name() string             { return e.name }
func (e *Execution) Title() string            { return e.title }
func (e *Execution) Status() Status           { return e.status }
func (e *Execution) Err() error               { return e.err }
func (e *Execution) Rows() int                { return e.rows }
func (e *Execution) Section() checker.Section { return e.section }

// Duration is the wall time between Start and the final transition.
func (e *Execution) Duration() time.Duration {
	if e.startedAt.IsZero() || e.finishedAt.IsZero() {
		return 0
	}
	return e.finishedAt.Sub(e.startedAt)
}

// Finished reports whether the execution reached a terminal state.
func (e *Execution) Finished() bool {
	return e.status == StatusCompleted || e.status == StatusFailed
}
