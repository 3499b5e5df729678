package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/config"
)

// Record is one journal entry for a completed chat completion request.
type Record struct {
	// ID is a UUID assigned when the record is enqueued.
	ID string `json:"id"`

	// RequestID is the gateway request ID, matching the request logs.
	RequestID string `json:"request_id"`

	// CreatedAt is when the request finished.
	CreatedAt time.Time `json:"created_at"`

	// Model is the model name the client asked for.
	Model string `json:"model"`

	// BackendModel is the backend model the request resolved to.
	BackendModel string `json:"backend_model"`

	// ConversationID is the upstream conversation, empty when creation failed.
	ConversationID string `json:"conversation_id"`

	// Mode is ModeStream or ModeAggregate, empty when the request was
	// rejected before a mode was chosen.
	Mode string `json:"mode"`

	// Status is one of the Status* values.
	Status string `json:"status"`

	// ErrorType classifies the failure, empty on success.
	ErrorType string `json:"error_type"`

	// DurationMS is the total request duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// QuestionChars is the rune count of the flattened question.
	QuestionChars int `json:"question_chars"`

	// AnswerChars is the rune count of the emitted answer text.
	AnswerChars int `json:"answer_chars"`
}

// Mode values for Record.Mode.
const (
	// ModeStream marks a server-sent-events response.
	ModeStream = "stream"

	// ModeAggregate marks a single JSON response.
	ModeAggregate = "aggregate"
)

// Status values for Record.Status.
const (
	// StatusSuccess means the full answer was delivered.
	StatusSuccess = "success"

	// StatusError means the exchange failed; ErrorType says where.
	StatusError = "error"

	// StatusRejected means the request never reached the upstream.
	StatusRejected = "rejected"
)

// Storage is the persistence interface for journal records.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists one record.
	Store(ctx context.Context, record *Record) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes records created before cutoff and returns how
	// many were removed. Used by retention pruning.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

// Metrics receives journal outcome counts. The telemetry collector
// satisfies it; a no-op is used when no collector is wired.
type Metrics interface {
	RecordJournalOutcome(outcome string)
}

// Outcome values reported to Metrics.
const (
	// OutcomeWritten means the record reached storage.
	OutcomeWritten = "written"
	// OutcomeDropped means the async queue was full and the record was
	// discarded without blocking the request.
	OutcomeDropped = "dropped"
	// OutcomeFailed means storage rejected the write.
	OutcomeFailed = "failed"
)

type nopMetrics struct{}

func (nopMetrics) RecordJournalOutcome(string) {}

// Recorder writes journal records asynchronously so request handling
// never blocks on persistence. Records are queued on a buffered channel
// and drained by a single background worker; when the queue is full the
// record is dropped and counted.
type Recorder struct {
	storage    Storage
	config     config.JournalConfig
	metrics    Metrics
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// NewRecorder creates a recorder draining into the given storage backend.
// A nil metrics sink disables outcome counting.
func NewRecorder(storage Storage, cfg config.JournalConfig, metrics Metrics) *Recorder {
	if metrics == nil {
		metrics = nopMetrics{}
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		metrics:    metrics,
		recordChan: make(chan *Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("journal recorder started",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// Record enqueues a record for writing and returns immediately. A zero
// ID or CreatedAt is filled in. When the queue is full the record is
// dropped rather than blocking the caller.
func (r *Recorder) Record(record *Record) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	select {
	case r.recordChan <- record:
	default:
		r.metrics.RecordJournalOutcome(OutcomeDropped)
		r.logger.Warn("journal queue full, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"queue_capacity", r.config.AsyncBuffer,
		)
	}
}

// Close shuts the recorder down, draining queued records before
// returning.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}

// worker drains the record channel and writes to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			// Drain remaining records before exit.
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					r.logger.Info("journal recorder stopped")
					return
				}
			}
		}
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.metrics.RecordJournalOutcome(OutcomeFailed)
		r.logger.Error("failed to store journal record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	r.metrics.RecordJournalOutcome(OutcomeWritten)

	duration := time.Since(start)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow journal write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}

	r.logger.Debug("journal record written",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"status", record.Status,
	)
}
