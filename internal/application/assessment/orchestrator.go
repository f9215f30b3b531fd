package assessment

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
	"github.com/khanhnv2901/hapi-cli/internal/openapi"
	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

// SelectAll expands to every registered check in registry order.
const SelectAll = "all"

// UnknownCheckError is returned when a selected name is not registered.
type UnknownCheckError struct {
	Name      string
	Available []string
}

func (e *UnknownCheckError) Error() string {
	return fmt.Sprintf("unknown check %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownCheckError) Is(target error) bool {
	return target == apperrors.ErrUnknownCheck
}

// RunContext is the per-invocation configuration. It is built once while
// parsing arguments and not modified afterwards.
type RunContext struct {
	Target             string
	InsecureSkipVerify bool
	Proxy              string
	Headers            map[string]string
	Cookies            map[string]string
	Format             string
	Selection          []string
	// Configs holds the decoded configuration of each selected check.
	// Checks without an entry run with their declared defaults.
	Configs map[string]checker.Config
	Seed    uint64
}

// Progress receives check lifecycle notifications.
type Progress interface {
	CheckStarted(name, title string)
	CheckFinished(exec *Execution)
}

// Outcome is the ordered result of an assessment.
type Outcome struct {
	Executions []*Execution
	StartedAt  time.Time
	FinishedAt time.Time
}

// Sections returns the formatted section of every finished execution, in
// selection order.
func (o *Outcome) Sections() []checker.Section {
	out := make([]checker.Section, 0, len(o.Executions))
	for _, exec := range o.Executions {
		if exec.Finished() {
			out = append(out, exec.Section())
		}
	}
	return out
}

// Failed returns the executions that did not complete.
func (o *Outcome) Failed() []*Execution {
	var out []*Execution
	for _, exec := range o.Executions {
		if exec.Status() == StatusFailed {
			out = append(out, exec)
		}
	}
	return out
}

// Orchestrator resolves a check selection and runs the checks in order.
type Orchestrator struct {
	registry *checker.Registry
	logger   *zap.SugaredLogger
	progress Progress
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger handed to the orchestrator and every check.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress registers a lifecycle observer.
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) { o.progress = p }
}

// NewOrchestrator creates a new orchestrator over registry.
func NewOrchestrator(registry *checker.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Resolve expands and validates a selection. Names are de-duplicated keeping
// first occurrence; "all" expands to the full registry in name order.
func (o *Orchestrator) Resolve(selection []string) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	for _, raw := range selection {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if name == SelectAll {
			for _, n := range o.registry.Names() {
				add(n)
			}
			continue
		}
		if _, ok := o.registry.Lookup(name); !ok {
			return nil, &UnknownCheckError{Name: name, Available: o.registry.Names()}
		}
		add(name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no checks selected", apperrors.ErrUnknownCheck)
	}
	return names, nil
}

// Execute runs every selected check sequentially against sender and index.
// A failing check is recorded and the next one still runs. Cancellation
// stops before the next request and returns ErrInterrupted together with the
// executions finished so far.
func (o *Orchestrator) Execute(ctx context.Context, run RunContext, sender checker.Sender, index *openapi.Index) (*Outcome, error) {
	names, err := o.Resolve(run.Selection)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{StartedAt: time.Now()}
	defer func() { outcome.FinishedAt = time.Now() }()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return outcome, interrupted(err)
		}

		d, _ := o.registry.Lookup(name)
		exec := NewExecution(d)
		outcome.Executions = append(outcome.Executions, exec)
		if o.progress != nil {
			o.progress.CheckStarted(d.Name, d.Title)
		}

		env := checker.Env{
			Sender: sender,
			Index:  index,
			Rand:   CheckRand(run.Seed, name),
			Logger: o.logger.With("check", name),
		}
		if err := o.runOne(ctx, d, exec, env, run.Configs[name]); err != nil {
			return outcome, err
		}
		if o.progress != nil {
			o.progress.CheckFinished(exec)
		}
	}
	return outcome, nil
}

func (o *Orchestrator) runOne(ctx context.Context, d checker.Descriptor, exec *Execution, env checker.Env, cfg checker.Config) error {
	chk, err := d.Instantiate(env, cfg)
	if err != nil {
		o.logger.Warnw("check could not be constructed", "check", d.Name, "error", err)
		return exec.Fail(err)
	}

	if err := exec.Start(); err != nil {
		return err
	}
	result, section, err := runCheck(ctx, chk)
	if err != nil {
		var p *panicError
		panicked := errors.As(err, &p)
		if ctx.Err() != nil && !panicked {
			_ = exec.Fail(interrupted(ctx.Err()))
			return interrupted(ctx.Err())
		}
		if panicked {
			o.logger.Errorw("check panicked", "check", d.Name, "panic", p.value, "stack", string(p.stack))
		} else {
			o.logger.Warnw("check failed", "check", d.Name, "error", err)
		}
		return exec.Fail(err)
	}

	if err := exec.Complete(len(result), section); err != nil {
		return err
	}
	o.logger.Infow("check completed", "check", d.Name, "rows", len(result), "duration", exec.Duration())
	return nil
}

// panicError carries a panic raised inside a check.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("check panicked: %v", e.value) }

// runCheck runs and formats one check, turning a panic into an error so the
// remaining checks still get their turn.
func runCheck(ctx context.Context, chk checker.Check) (result checker.Result, section checker.Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	result, err = chk.Run(ctx)
	if err != nil {
		return nil, checker.Section{}, err
	}
	return result, chk.Format(result), nil
}

func interrupted(cause error) error {
	return fmt.Errorf("%w: %w", apperrors.ErrInterrupted, cause)
}

// CheckRand returns the random source of one check: seeded from the run
// seed and the check name, so a check's choices do not depend on which
// other checks were selected.
func CheckRand(seed uint64, name string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}
