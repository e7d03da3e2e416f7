package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/segmentio/kafka-go"

	"pipetask-service/internal/config"
)

// MessageReader is the part of *kafka.Reader the worker uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// MessageWriter is the part of *kafka.Writer the worker uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Worker consumes TaskRunRequest messages, runs each one in its own goroutine
// and publishes a TaskRunReport keyed by run id. At most MaxConcurrent runs
// execute at once; reading pauses while all slots are taken.
type Worker struct {
	Reader MessageReader
	Writer MessageWriter
	Runner *Runner

	MaxConcurrent int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RetryDelay   time.Duration

	wg sync.WaitGroup
}

func NewWorker(reader MessageReader, writer MessageWriter, runner *Runner) *Worker {
	return &Worker{
		Reader:        reader,
		Writer:        writer,
		Runner:        runner,
		MaxConcurrent: config.DefaultMaxConcurrentRuns,
		ReadTimeout:   time.Second,
		WriteTimeout:  10 * time.Second,
		RetryDelay:    time.Second,
	}
}

// NewKafkaReader builds the request consumer from cfg.
func NewKafkaReader(cfg config.Config) *kafka.Reader {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.TaskTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	hlog.Infof("Task Worker Kafka consumer configured for brokers: %v, topic: %s, groupID: %s", cfg.KafkaBrokers, cfg.TaskTopic, cfg.GroupID)
	return reader
}

// NewKafkaWriter builds the report producer from cfg.
func NewKafkaWriter(cfg config.Config) *kafka.Writer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.ResultTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	hlog.Infof("Task Worker Kafka producer configured for results topic: %s", cfg.ResultTopic)
	return writer
}

// Serve reads until ctx is cancelled or the reader is closed, then waits for
// in-flight runs to publish their reports.
func (w *Worker) Serve(ctx context.Context) error {
	defer w.wg.Wait()
	limit := w.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	slots := make(chan struct{}, limit)
	hlog.Infof("Task Worker listening for messages (max %d concurrent runs)...", limit)
	for {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			hlog.Info("Task Worker: Context cancelled. Exiting message loop.")
			return nil
		}

		if ctx.Err() != nil {
			hlog.Info("Task Worker: Context cancelled. Exiting message loop.")
			return nil
		}

		readCtx, cancel := context.WithTimeout(ctx, w.ReadTimeout)
		msg, err := w.Reader.ReadMessage(readCtx)
		cancel()
		if err != nil {
			<-slots
		}

		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded):
			continue
		case errors.Is(err, context.Canceled):
			continue
		case errors.Is(err, io.EOF):
			hlog.Info("Task Worker: Kafka reader closed (EOF). Exiting.")
			return nil
		default:
			hlog.Errorf("Task Worker: Kafka read error: %v. Retrying...", err)
			select {
			case <-ctx.Done():
			case <-time.After(w.RetryDelay):
			}
			continue
		}

		hlog.Infof("Task Worker: Received message: Topic %s, Partition %d, Offset %d", msg.Topic, msg.Partition, msg.Offset)
		contentType := ContentTypeOf(msg.Headers)
		var req TaskRunRequest
		if err := Decode(msg.Value, contentType, &req); err != nil {
			hlog.Errorf("Task Worker: Unmarshal error for run request: %v. Value: %s", err, string(msg.Value))
			<-slots
			continue
		}
		if req.RunID == "" && len(msg.Key) > 0 {
			req.RunID = string(msg.Key)
		}

		w.wg.Add(1)
		go func(req TaskRunRequest) {
			defer w.wg.Done()
			defer func() { <-slots }()
			report := w.Runner.Run(ctx, req)
			w.publish(report, contentType)
		}(req)
	}
}

// publish uses its own deadline so reports still go out during shutdown.
func (w *Worker) publish(report TaskRunReport, contentType string) {
	payload, err := Encode(report, contentType)
	if err != nil {
		hlog.Errorf("Task Worker: Error marshalling report for run %s: %v", report.RunID, err)
		return
	}
	msg := kafka.Message{
		Key:     []byte(report.RunID),
		Value:   payload,
		Headers: []kafka.Header{contentTypeHeader(contentType)},
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), w.WriteTimeout)
	defer cancel()
	if err := w.Writer.WriteMessages(writeCtx, msg); err != nil {
		hlog.Errorf("Task Worker: Error sending report for run %s to Kafka: %v", report.RunID, err)
		return
	}
	hlog.Infof("Task Worker: Sent report for run %s (%s)", report.RunID, report.Outcome)
}

// Close releases the reader and writer.
func (w *Worker) Close() error {
	return errors.Join(w.Reader.Close(), w.Writer.Close())
}
