package pipetask

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink receives task log lines once the verbosity gate lets them through.
type Sink interface {
	WriteLine(line string)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(line string)

func (f SinkFunc) WriteLine(line string) { f(line) }

// WriterSink writes one line per call to an io.Writer. Safe for concurrent use
// so several tasks can share it.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
}

// StdoutSink is the default process-wide sink.
var StdoutSink Sink = NewWriterSink(os.Stdout)
