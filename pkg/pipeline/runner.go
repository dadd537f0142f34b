package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/recorder"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/compactor"
	"mercator-hq/ganymede/pkg/extraction"
	"mercator-hq/ganymede/pkg/quota"
	"mercator-hq/ganymede/pkg/upstream"
)

// Runner executes extraction sessions: quota admission, transcript
// compaction, prompt assembly, the upstream stream, and decoding into
// typed events, with an audit record at the end of every run. One
// Runner serves concurrent sessions; each Run call builds its own
// decoder and stream.
type Runner struct {
	config   Config
	quota    *quota.Guard
	catalog  *catalog.Manager
	upstream *upstream.Client
	recorder *recorder.Recorder
	metrics  *Metrics
	logger   *slog.Logger
}

// NewRunner creates a runner from shared components.
func NewRunner(config Config, deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		config:   config.withDefaults(),
		quota:    deps.Quota,
		catalog:  deps.Catalog,
		upstream: deps.Upstream,
		recorder: deps.Recorder,
		metrics:  deps.Metrics,
		logger:   logger.With("component", "pipeline"),
	}
}

// sessionStats carries what the audit record and metrics need across a
// session. Run fills the input fields before the worker starts; the
// worker owns the rest until it exits, and the finalizer reads them
// after the errgroup wait.
type sessionStats struct {
	model          string
	sourceChars    int
	compactedChars int
	wasCompacted   bool
	transcriptHash string

	sections int
	title    string

	// cause is the terminal transport failure, if any.
	cause error
}

// Run admits, prepares, and starts one extraction session. The returned
// session is already streaming; callers consume Events until it closes.
//
// Pre-flight failures return a typed error and no session: a
// ValidationError for a malformed request, a quota.QuotaExceededError
// when the identity is out of tokens, a compactor.InputTooLargeError
// when the transcript cannot be reduced to budget, and an upstream
// error when the stream cannot be opened. Failures after the quota
// check are still charged to the identity. A runner without a guard
// admits every request.
func (r *Runner) Run(ctx context.Context, req *Request) (*Session, error) {
	startedAt := time.Now()

	if err := req.validate(); err != nil {
		return nil, err
	}

	if r.quota != nil {
		decision := r.quota.Check(ctx, req.Identity)
		if !decision.Allowed {
			err := quota.NewQuotaExceededError(req.Identity, decision)
			r.logger.InfoContext(ctx, "Session rejected by quota",
				"identity", req.Identity,
				"request_id", req.RequestID,
				"retry_after", decision.ResetHint,
			)
			r.recordOutcome(req, startedAt, audit.OutcomeRejected, err.Error(), &sessionStats{})
			return nil, err
		}
	}

	source := req.joinedText()
	if r.metrics != nil {
		r.metrics.RecordInput(len(source))
	}

	cat := r.catalog.Current()
	result, err := compactor.New(cat.Tables()).CompactToBudget(source, r.config.TargetChars, r.config.PreserveTimestamps)
	if err != nil {
		var tooLarge *compactor.InputTooLargeError
		if errors.As(err, &tooLarge) {
			r.logger.WarnContext(ctx, "Transcript exceeds budget after compaction",
				"identity", req.Identity,
				"request_id", req.RequestID,
				"original_chars", tooLarge.OriginalChars,
				"cleaned_chars", tooLarge.CleanedChars,
				"target_chars", tooLarge.TargetChars,
			)
			r.recordOutcome(req, startedAt, audit.OutcomeTooLarge, err.Error(), &sessionStats{
				sourceChars:    tooLarge.OriginalChars,
				compactedChars: tooLarge.CleanedChars,
				wasCompacted:   true,
				transcriptHash: recorder.HashTranscript(source),
			})
		}
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = r.upstream.Model()
	}
	stats := &sessionStats{
		model:          model,
		sourceChars:    result.OriginalChars,
		compactedChars: result.FinalChars,
		wasCompacted:   result.WasProcessed,
		transcriptHash: recorder.HashTranscript(source),
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	stream, err := r.upstream.Stream(sessionCtx, &upstream.ExtractionRequest{
		System: upstream.BuildSystemPrompt(cat),
		Input:  upstream.BuildInput(result.Content, req.Context),
		Model:  req.Model,
	})
	if err != nil {
		cancel()
		r.logger.ErrorContext(ctx, "Failed to open upstream stream",
			"identity", req.Identity,
			"request_id", req.RequestID,
			"error", err,
		)
		r.recordOutcome(req, startedAt, audit.OutcomeError, err.Error(), stats)
		return nil, err
	}

	s := newSession(cancel, r.config.EventBuffer)
	dec := extraction.NewDecoder(extraction.DecoderConfig{
		Catalog:               cat,
		TotalExpectedSections: cat.SectionCount(),
		FirstItemID:           req.firstItemID(),
	})

	if r.metrics != nil {
		r.metrics.SessionStarted()
	}
	r.logger.InfoContext(ctx, "Extraction session started",
		"identity", req.Identity,
		"request_id", req.RequestID,
		"transport", req.Transport,
		"model", stats.model,
		"source_chars", stats.sourceChars,
		"compacted_chars", stats.compactedChars,
		"was_compacted", stats.wasCompacted,
	)

	g, workerCtx := errgroup.WithContext(sessionCtx)
	g.Go(func() error {
		defer stream.Close()
		return r.readLoop(workerCtx, stream, dec, s, stats)
	})

	go r.finalize(req, startedAt, s, stats, g)

	return s, nil
}

// readLoop pumps upstream deltas through the decoder, forwarding the
// decoded events to the session. A clean end of stream finishes the
// decoder and a transport failure aborts it; both count as a normal
// worker exit. Only cancellation surfaces as an error.
func (r *Runner) readLoop(ctx context.Context, stream *upstream.Stream, dec *extraction.Decoder, s *Session, stats *sessionStats) error {
	defer func() { stats.sections = dec.SectionsSeen() }()

	for {
		delta, err := stream.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				events, ferr := dec.Finish()
				if ferr != nil {
					return nil
				}
				captureTitle(stats, events)
				s.deliver(ctx, events)
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				stats.cause = err
				events := dec.Abort(err.Error())
				s.deliver(ctx, events)
				return nil
			}
		}

		events, ferr := dec.Feed(delta)
		if ferr != nil {
			return ferr
		}
		captureTitle(stats, events)
		if s.deliver(ctx, events) {
			return nil
		}
	}
}

// finalize waits for the session worker, derives the outcome, closes
// the session, and enqueues the audit record.
func (r *Runner) finalize(req *Request, startedAt time.Time, s *Session, stats *sessionStats, g *errgroup.Group) {
	defer s.cancel()

	loopErr := g.Wait()

	outcome := audit.OutcomeComplete
	var cause error
	switch {
	case loopErr == nil && stats.cause == nil:
	case loopErr == nil:
		outcome = audit.OutcomeError
		cause = stats.cause
	case errors.Is(loopErr, context.Canceled) || errors.Is(loopErr, context.DeadlineExceeded):
		outcome = audit.OutcomeCanceled
		cause = loopErr
	default:
		outcome = audit.OutcomeError
		cause = loopErr
	}

	detail := ""
	if cause != nil {
		detail = cause.Error()
	}

	if r.metrics != nil {
		r.metrics.SessionEnded()
	}

	r.logger.Info("Extraction session finished",
		"identity", req.Identity,
		"request_id", req.RequestID,
		"outcome", outcome,
		"sections", stats.sections,
		"title", stats.title,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)

	r.recordOutcome(req, startedAt, outcome, detail, stats)

	// Err must be readable and the audit record enqueued by the time the
	// channel close releases the consumer.
	s.setErr(cause)
	close(s.events)
}

// recordOutcome counts the run's outcome and enqueues its audit record.
// Every Run path lands here exactly once. Recording is best effort; a
// saturated recorder drops the record without affecting the session
// outcome.
func (r *Runner) recordOutcome(req *Request, startedAt time.Time, outcome, detail string, stats *sessionStats) {
	if r.metrics != nil {
		r.metrics.RecordSession(outcome, req.Transport, time.Since(startedAt), stats.sections)
	}
	if r.recorder == nil {
		return
	}

	record := &audit.Record{
		RequestID:      req.RequestID,
		Identity:       req.Identity,
		Transport:      req.Transport,
		Model:          stats.model,
		SourceChars:    stats.sourceChars,
		CompactedChars: stats.compactedChars,
		WasCompacted:   stats.wasCompacted,
		TranscriptHash: stats.transcriptHash,
		SectionCount:   stats.sections,
		Title:          stats.title,
		Outcome:        outcome,
		ErrorDetail:    detail,
		StartedAt:      startedAt,
	}

	// The request context is often already done here; enqueueing must
	// still go through.
	if err := r.recorder.Record(context.Background(), record); err != nil {
		r.logger.Warn("Failed to enqueue audit record",
			"request_id", req.RequestID,
			"error", err,
		)
	}
}

// captureTitle remembers the suggested title from a terminal complete
// event.
func captureTitle(stats *sessionStats, events []extraction.Event) {
	for _, event := range events {
		if complete, ok := event.(extraction.CompleteEvent); ok {
			stats.title = complete.Title
		}
	}
}
