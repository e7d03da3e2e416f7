package variants

import (
	"context"
	"errors"
	"sync"
	"time"

	"pipetask-service/internal/pipetask"
)

var errEchoKilled = errors.New("echo task killed")

// EchoVariant returns its params as a single successful output, optionally
// after a delay that Kill can cut short. The zero value is ready to use.
type EchoVariant struct {
	Delay time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	started bool
	running bool
	killed  bool
}

func NewEchoVariant(delay time.Duration) *EchoVariant {
	return &EchoVariant{Delay: delay}
}

func (e *EchoVariant) Execute(ctx context.Context, pipeline pipetask.Pipeline, input pipetask.Input) ([]pipetask.Output, error) {
	e.mu.Lock()
	if e.killed {
		e.mu.Unlock()
		return nil, errEchoKilled
	}
	e.started = true
	var stop chan struct{}
	if e.Delay > 0 {
		stop = make(chan struct{})
		e.stop = stop
		e.running = true
	}
	e.mu.Unlock()

	if stop != nil {
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()

		timer := time.NewTimer(e.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-stop:
			return nil, errEchoKilled
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fields := make(map[string]any, len(input.Params))
	for k, v := range input.Params {
		fields[k] = v
	}
	return []pipetask.Output{pipetask.NewOutput(true, fields)}, nil
}

// Kill interrupts an in-flight delay, or latches so a later Execute refuses
// to start. It returns false once Execute has finished or was already killed.
func (e *EchoVariant) Kill() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.killed:
		return false
	case e.running:
		close(e.stop)
		e.killed = true
		return true
	case !e.started:
		e.killed = true
		return true
	default:
		return false
	}
}

var _ pipetask.Variant = (*EchoVariant)(nil)
