package variants

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"pipetask-service/internal/pipetask"
)

const defaultPythonTimeout = 30 * time.Second

// PythonVariant runs the script in params.code with a Python interpreter and
// returns its stdout as one output.
type PythonVariant struct {
	Interpreter string
	Timeout     time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	running bool
	killed  bool
}

func NewPythonVariant() *PythonVariant {
	return &PythonVariant{Interpreter: "python3", Timeout: defaultPythonTimeout}
}

func (p *PythonVariant) Execute(ctx context.Context, pipeline pipetask.Pipeline, input pipetask.Input) ([]pipetask.Output, error) {
	code, _ := input.StringParam("code")
	if code == "" {
		return nil, errors.New("python code in params.code is empty")
	}

	timeout := p.Timeout
	if secs, ok := input.Params["timeout_seconds"].(float64); ok && secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}

	tempDir, err := os.MkdirTemp("", "pipetask_python_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	scriptPath := filepath.Join(tempDir, "script.py")
	if err := os.WriteFile(scriptPath, []byte(code), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write python script to temp file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, p.Interpreter, scriptPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.mu.Lock()
	if p.killed {
		p.mu.Unlock()
		return nil, errors.New("python task killed before start")
	}
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("failed to start python interpreter %q: %w", p.Interpreter, err)
	}
	p.cmd = cmd
	p.running = true
	p.mu.Unlock()

	err = cmd.Wait()

	p.mu.Lock()
	p.running = false
	killed := p.killed
	p.mu.Unlock()

	switch {
	case killed:
		return nil, fmt.Errorf("python script killed. Stderr: %s", stderr.String())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("python script execution timed out after %s. Stderr: %s", timeout, stderr.String())
	case err != nil:
		return nil, fmt.Errorf("python script execution failed: %w. Stderr: %s", err, stderr.String())
	}

	if stderr.Len() > 0 {
		hlog.CtxWarnf(ctx, "PythonVariant: script wrote to stderr:\n%s", stderr.String())
	}

	return []pipetask.Output{pipetask.NewOutput(true, map[string]any{
		"stdout": stdout.String(),
		"stderr": stderr.String(),
	})}, nil
}

// Kill terminates the interpreter process. Before the process starts it
// marks the variant so Execute refuses to start it.
func (p *PythonVariant) Kill() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.killed {
		return false
	}
	if !p.running {
		if p.cmd != nil {
			return false
		}
		p.killed = true
		return true
	}
	if err := p.cmd.Process.Kill(); err != nil {
		return false
	}
	p.killed = true
	return true
}

var _ pipetask.Variant = (*PythonVariant)(nil)
