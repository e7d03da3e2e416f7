// Package pipetask defines the execution contract of a single pipeline task:
// the lifecycle wrapper every task variant runs through, the records it
// consumes and produces, and the registry variants are looked up in.
package pipetask

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

const (
	// DefaultLoggingLevel applies when no level is given to New.
	DefaultLoggingLevel = 5
	// ConsoleGate is the lowest level at which log lines reach the sink.
	ConsoleGate = 2
)

// Pipeline is the orchestrator handle passed through to variants untouched.
type Pipeline any

// Variant is the domain logic of a task.
type Variant interface {
	// Execute performs the work. Any returned error or panic is contained by
	// the Task wrapper.
	Execute(ctx context.Context, pipeline Pipeline, input Input) ([]Output, error)
	// Kill asks an in-flight Execute to stop and reports whether it did.
	Kill() bool
}

// Initializer is implemented by variants needing setup before Execute.
type Initializer interface {
	Init(ctx context.Context)
}

// Finalizer is implemented by variants needing teardown after Execute.
type Finalizer interface {
	Done(ctx context.Context)
}

// Option configures a Task at construction.
type Option func(*Task)

// WithLoggingLevel sets the verbosity that gates sink output for this task.
func WithLoggingLevel(level int) Option {
	return func(t *Task) { t.level = level }
}

func WithSink(s Sink) Option {
	return func(t *Task) {
		if s != nil {
			t.sink = s
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Task) {
		if now != nil {
			t.now = now
		}
	}
}

// WithParallel advertises whether the task may run next to its siblings.
func WithParallel(parallel bool) Option {
	return func(t *Task) { t.parallel = parallel }
}

// Task drives one Variant through init, guarded execute and done. A Task is
// good for a single Run; build a new one to retry.
type Task struct {
	typeName    string
	variantName string
	variant     Variant
	parallel    bool
	level       int
	sink        Sink
	now         func() time.Time

	mu        sync.Mutex
	input     Input
	outputs   []Output
	status    bool
	errText   string
	logs      []string
	state     State
	outcome   Outcome
	startTime time.Time
	endTime   time.Time
}

func New(typeName, variantName string, variant Variant, opts ...Option) *Task {
	t := &Task{
		typeName:    typeName,
		variantName: variantName,
		variant:     variant,
		level:       DefaultLoggingLevel,
		sink:        StdoutSink,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run executes the variant and returns its outputs. It never panics and never
// fails: a nil result together with Status() == false means the variant
// failed, which is also recorded in Logs and Err.
func (t *Task) Run(ctx context.Context, pipeline Pipeline, input Input) []Output {
	t.mu.Lock()
	t.input = input
	t.mu.Unlock()

	t.init(ctx)
	outcome := t.guard(ctx, pipeline, input)
	t.settle(outcome)
	t.done(ctx)

	return t.Outputs()
}

func (t *Task) init(ctx context.Context) {
	t.mu.Lock()
	t.state = StateInitializing
	t.startTime = t.now()
	t.mu.Unlock()

	if hook, ok := t.variant.(Initializer); ok {
		t.runHook(ctx, "initializing", func() { hook.Init(ctx) })
	}
}

func (t *Task) done(ctx context.Context) {
	if hook, ok := t.variant.(Finalizer); ok {
		t.runHook(ctx, "finalizing", func() { hook.Done(ctx) })
	}

	t.mu.Lock()
	t.endTime = t.now()
	t.state = StateFinalized
	t.mu.Unlock()
}

// guard turns whatever Execute does into an Outcome.
func (t *Task) guard(ctx context.Context, pipeline Pipeline, input Input) (outcome Outcome) {
	t.mu.Lock()
	t.state = StateExecuting
	t.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			outcome = Failure(fmt.Sprint(r))
			t.surface(ctx, "task %s/%s panicked: %v\n%s", t.typeName, t.variantName, r, debug.Stack())
		}
	}()

	outputs, err := t.variant.Execute(ctx, pipeline, input)
	if err != nil {
		t.surface(ctx, "task %s/%s failed: %+v", t.typeName, t.variantName, err)
		return Failure(err.Error())
	}
	return Success(outputs)
}

func (t *Task) settle(outcome Outcome) {
	t.mu.Lock()
	t.outcome = outcome
	if outcome.IsFailure() {
		t.outputs = nil
		t.status = false
		t.errText = outcome.Message()
		t.state = StateFailed
	} else {
		t.outputs = outcome.Outputs()
		t.status = outcome.Status()
		if t.status {
			t.state = StateSucceeded
		} else {
			t.state = StateFailed
		}
	}
	t.mu.Unlock()

	if outcome.IsFailure() {
		t.OnLog("Error while executing task.", outcome.Message())
	}
}

func (t *Task) runHook(ctx context.Context, phase string, hook func()) {
	defer func() {
		if r := recover(); r != nil {
			t.OnLog(fmt.Sprintf("Error while %s task.", phase), fmt.Sprint(r))
			t.surface(ctx, "task %s/%s hook panicked while %s: %v", t.typeName, t.variantName, phase, r)
		}
	}()
	hook()
}

// surface reports failure details to the service log when verbosity allows.
func (t *Task) surface(ctx context.Context, format string, args ...any) {
	if t.level >= ConsoleGate {
		hlog.CtxErrorf(ctx, format, args...)
	}
}

// OnLog appends a formatted line to the task's logs and, when the verbosity
// gate is open, writes it to the sink as well.
func (t *Task) OnLog(args ...any) {
	line := FormatLogLine(t.now(), args...)
	t.mu.Lock()
	t.logs = append(t.logs, line)
	t.mu.Unlock()

	if t.level >= ConsoleGate {
		t.sink.WriteLine(line)
	}
}

// Kill forwards a stop request to the variant.
func (t *Task) Kill() bool {
	killed := t.variant.Kill()
	t.OnLog("Kill requested.", killed)
	return killed
}

func (t *Task) TaskTypeName() string    { return t.typeName }
func (t *Task) TaskVariantName() string { return t.variantName }
func (t *Task) IsParallel() bool        { return t.parallel }
func (t *Task) LoggingLevel() int       { return t.level }

func (t *Task) Input() Input {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input
}

// Outputs is nil when the variant failed outright, and may be empty when it
// succeeded without producing anything.
func (t *Task) Outputs() []Output {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outputs
}

func (t *Task) Status() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Err is the failure message of the last run, empty unless the variant failed.
func (t *Task) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errText
}

// SetErr lets a variant owner attach its own error description.
func (t *Task) SetErr(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errText = text
}

func (t *Task) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Logs returns a copy of the accumulated log lines.
func (t *Task) Logs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.logs))
	copy(out, t.logs)
	return out
}

func (t *Task) StartTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime
}

func (t *Task) EndTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endTime
}

// Duration is zero until the task has been finalized.
func (t *Task) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.endTime.IsZero() {
		return 0
	}
	return t.endTime.Sub(t.startTime)
}
