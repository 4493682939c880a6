package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/juriscorrect/juriscorrect-api/internal/middleware"
	"github.com/juriscorrect/juriscorrect-api/internal/observability"
)

const dispatchQueueGroup = "juriscorrect-corrections"

// CorrectionDispatcher decouples submission intake from correction
// generation. Dispatch never blocks the caller and never surfaces errors;
// delivery problems are logged and the status poller simply keeps reporting
// none until a retry lands. At-least-once delivery is fine because Generate
// is idempotent.
type CorrectionDispatcher interface {
	Dispatch(ctx context.Context, submissionID string)
	Start(ctx context.Context)
}

type correctionJob struct {
	SubmissionID  string    `json:"submission_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

type correctionDispatcher struct {
	generator CorrectionService
	nats      *nats.Conn
	subject   string
	budget    time.Duration
	logger    zerolog.Logger
}

// NewCorrectionDispatcher constructs a dispatcher. When natsConn is nil the
// job runs on an in-process goroutine instead of the queue.
func NewCorrectionDispatcher(generator CorrectionService, natsConn *nats.Conn, subject string, budget time.Duration, logger zerolog.Logger) CorrectionDispatcher {
	if subject == "" {
		subject = "juriscorrect.corrections.requested"
	}
	if budget <= 0 {
		budget = 45 * time.Second
	}

	return &correctionDispatcher{
		generator: generator,
		nats:      natsConn,
		subject:   subject,
		budget:    budget,
		logger:    logger.With().Str("component", "correction_dispatcher").Logger(),
	}
}

func (d *correctionDispatcher) Dispatch(ctx context.Context, submissionID string) {
	job := correctionJob{
		SubmissionID:  submissionID,
		CorrelationID: middleware.CorrelationIDFromContext(ctx),
		RequestedAt:   time.Now().UTC(),
	}

	if d.nats != nil {
		payload, err := json.Marshal(job)
		if err != nil {
			d.logger.Error().Err(err).Str("submission_id", submissionID).Msg("failed to encode correction job")
			return
		}
		if err := d.nats.Publish(d.subject, payload); err != nil {
			d.logger.Error().Err(err).Str("submission_id", submissionID).Msg("failed to publish correction job")
			observability.DispatchFailures().Inc()
			return
		}
		observability.DispatchedJobs().WithLabelValues("nats").Inc()
		return
	}

	// No queue configured: run detached so the intake response is never
	// blocked on the producer call.
	observability.DispatchedJobs().WithLabelValues("inprocess").Inc()
	go d.run(job)
}

// Start subscribes the queue worker group. A no-op without NATS.
func (d *correctionDispatcher) Start(ctx context.Context) {
	if d.nats == nil {
		return
	}

	sub, err := d.nats.QueueSubscribe(d.subject, dispatchQueueGroup, func(msg *nats.Msg) {
		var job correctionJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			d.logger.Warn().Err(err).Msg("invalid correction job payload")
			return
		}
		d.run(job)
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to subscribe to correction job subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			d.logger.Warn().Err(err).Msg("failed to drain correction job subscription")
		}
	}()
}

func (d *correctionDispatcher) run(job correctionJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.budget)
	defer cancel()
	ctx = middleware.ContextWithCorrelation(ctx, job.CorrelationID)

	if _, err := d.generator.Generate(ctx, job.SubmissionID); err != nil {
		d.logger.Error().
			Err(err).
			Str("submission_id", job.SubmissionID).
			Str("correlation_id", job.CorrelationID).
			Msg("dispatched correction generation failed")
	}
}
