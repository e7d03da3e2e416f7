// Package worker turns run requests into lifecycle-wrapped task executions
// and carries them over Kafka.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"

	"pipetask-service/internal/catalog"
	"pipetask-service/internal/pipetask"
	"pipetask-service/pkg/validation"
)

var (
	ErrVariantDisabled = errors.New("task variant is disabled")
	ErrRunNotFound     = errors.New("no run in flight with that id")
)

// TemplateSource supplies catalog overrides for registered variants.
type TemplateSource interface {
	Template(taskType, variantName string) (catalog.VariantTemplate, bool)
}

// Runner builds a fresh Task per request, runs it and reports the result.
// It tracks in-flight runs so they can be killed by id.
type Runner struct {
	Registry     *pipetask.Registry
	Templates    TemplateSource
	LoggingLevel int
	Sink         pipetask.Sink
	Pipeline     pipetask.Pipeline

	mu       sync.Mutex
	inflight map[string]*pipetask.Task
}

func NewRunner(registry *pipetask.Registry, templates TemplateSource, loggingLevel int) *Runner {
	return &Runner{
		Registry:     registry,
		Templates:    templates,
		LoggingLevel: loggingLevel,
		Sink:         pipetask.StdoutSink,
		inflight:     make(map[string]*pipetask.Task),
	}
}

// Run never returns an error: requests that cannot be started come back as
// REJECTED reports.
func (r *Runner) Run(ctx context.Context, req TaskRunRequest) TaskRunReport {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	task, err := r.prepare(req)
	if err != nil {
		hlog.CtxWarnf(ctx, "Runner: rejected run %s for %s: %v", req.RunID, pipetask.Key(req.TaskType, req.VariantName), err)
		return TaskRunReport{
			RunID:       req.RunID,
			TaskType:    req.TaskType,
			VariantName: req.VariantName,
			Outcome:     OutcomeRejected,
			Error:       err.Error(),
			Logs:        []string{},
		}
	}

	if !r.track(req.RunID, task) {
		return TaskRunReport{
			RunID:       req.RunID,
			TaskType:    req.TaskType,
			VariantName: req.VariantName,
			Outcome:     OutcomeRejected,
			Error:       fmt.Sprintf("run %s is already in flight", req.RunID),
			Logs:        []string{},
		}
	}
	defer r.untrack(req.RunID)

	hlog.CtxInfof(ctx, "Runner: starting run %s (%s)", req.RunID, pipetask.Key(req.TaskType, req.VariantName))
	task.Run(ctx, r.Pipeline, req.Input)

	report := ReportFor(req.RunID, task)
	hlog.CtxInfof(ctx, "Runner: run %s finished with outcome %s in %dms", req.RunID, report.Outcome, report.DurationMs)
	return report
}

func (r *Runner) prepare(req TaskRunRequest) (*pipetask.Task, error) {
	descriptor, err := r.Registry.Lookup(req.TaskType, req.VariantName)
	if err != nil {
		return nil, err
	}

	schema := descriptor.ParamSchema
	parallel := descriptor.Parallel
	if r.Templates != nil {
		if tmpl, ok := r.Templates.Template(req.TaskType, req.VariantName); ok {
			if tmpl.Disabled {
				return nil, fmt.Errorf("%w: %s", ErrVariantDisabled, tmpl.Key())
			}
			if tmpl.ParamSchema != "" {
				schema = tmpl.ParamSchema
			}
			parallel = tmpl.Parallel
		}
	}

	if err := validation.ValidateParams(schema, req.Input.Params); err != nil {
		return nil, fmt.Errorf("params validation failed: %w", err)
	}

	return r.Registry.NewTask(req.TaskType, req.VariantName,
		pipetask.WithParallel(parallel),
		pipetask.WithLoggingLevel(r.LoggingLevel),
		pipetask.WithSink(r.Sink),
	)
}

func (r *Runner) track(runID string, task *pipetask.Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight == nil {
		r.inflight = make(map[string]*pipetask.Task)
	}
	if _, exists := r.inflight[runID]; exists {
		return false
	}
	r.inflight[runID] = task
	return true
}

func (r *Runner) untrack(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, runID)
}

// Kill forwards a stop request to an in-flight run.
func (r *Runner) Kill(runID string) (bool, error) {
	r.mu.Lock()
	task, ok := r.inflight[runID]
	r.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return task.Kill(), nil
}

// InFlight lists the ids of runs currently executing.
func (r *Runner) InFlight() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.inflight))
	for id := range r.inflight {
		ids = append(ids, id)
	}
	return ids
}

// ReportFor snapshots a finished task.
func ReportFor(runID string, task *pipetask.Task) TaskRunReport {
	outcome := OutcomeCompleted
	if !task.Status() {
		outcome = OutcomeFailed
	}
	report := TaskRunReport{
		RunID:       runID,
		TaskType:    task.TaskTypeName(),
		VariantName: task.TaskVariantName(),
		Outcome:     outcome,
		Status:      task.Status(),
		Parallel:    task.IsParallel(),
		Outputs:     task.Outputs(),
		Error:       task.Err(),
		Logs:        task.Logs(),
		DurationMs:  task.Duration().Milliseconds(),
	}
	if start := task.StartTime(); !start.IsZero() {
		report.StartTime = start.UnixMilli()
	}
	if end := task.EndTime(); !end.IsZero() {
		report.EndTime = end.UnixMilli()
	}
	return report
}
