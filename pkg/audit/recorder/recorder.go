package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/audit"
)

// Config contains configuration for the audit recorder.
type Config struct {
	// Enabled enables audit recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage, and
	// the longest Record will wait for buffer space before dropping.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes audit records for extraction sessions. Records are
// written asynchronously so a slow audit store never blocks a live
// session.
type Recorder struct {
	storage    audit.Storage
	config     *Config
	recordChan chan *audit.Record
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
}

// NewRecorder creates an audit recorder backed by the given storage.
func NewRecorder(storage audit.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *audit.Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record completes and enqueues one session record. It fills in the ID,
// RecordedAt, and DurationMs fields and returns without waiting for the
// storage write.
func (r *Recorder) Record(ctx context.Context, record *audit.Record) error {
	if !r.config.Enabled {
		return nil
	}

	now := time.Now()
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.RecordedAt = now
	if record.DurationMs == 0 && !record.StartedAt.IsZero() {
		record.DurationMs = now.Sub(record.StartedAt).Milliseconds()
	}

	select {
	case r.recordChan <- record:
		r.logger.Debug("audit record enqueued",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"outcome", record.Outcome,
		)
		return nil
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("audit record channel full, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return audit.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
		)
		return audit.NewRecorderError(record.ID, context.Canceled)
	}
}

// Close gracefully shuts down the recorder, draining the async channel
// and waiting for pending writes to complete.
func (r *Recorder) Close() error {
	r.logger.Info("shutting down audit recorder")

	close(r.done)
	r.wg.Wait()

	r.logger.Info("audit recorder shut down complete")
	return nil
}

// worker drains the record channel and writes records to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			r.logger.Info("draining audit channel before shutdown",
				"pending_count", len(r.recordChan),
			)
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					r.logger.Info("audit channel drained")
					return
				}
			}
		}
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	r.logger.Info("session audited",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"identity", record.Identity,
		"outcome", record.Outcome,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
