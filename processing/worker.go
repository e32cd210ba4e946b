package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"flume/internal/messaging/consumer"
	"flume/internal/models"
	"flume/storage/store"
)

// Worker drives one consumer: it receives deliveries, transforms them and
// persists the result with an idempotent overwrite. Every delivery ends in
// exactly one of three outcomes; a crash anywhere before the acknowledgement
// simply means the channel redelivers and the whole sequence reruns, which
// is safe because the write is a full overwrite keyed by (tenant_id, log_id).
type Worker struct {
	logger     *logrus.Entry
	store      store.Store
	consumer   consumer.Consumer
	delay      Delay
	retryDelay time.Duration
}

// New creates a Worker bound to one consumer.
func New(logger *logrus.Entry, s store.Store, c consumer.Consumer, d Delay, retryDelay time.Duration) *Worker {
	if d == nil {
		d = PerCharDelay{PerChar: 50 * time.Millisecond}
	}
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &Worker{
		logger:     logger,
		store:      s,
		consumer:   c,
		delay:      d,
		retryDelay: retryDelay,
	}
}

// Run consumes deliveries until the context is cancelled. A delivery is
// worked to completion before the next one is fetched: on a retryable
// failure the same delivery is re-processed in place after retryDelay, so
// the channel only ever sees terminal acknowledgements and offset commits
// stay monotone. With a Kafka consumer group, committing a later offset
// would move the watermark past an unacknowledged earlier record and lose
// it; holding the fetch position here is what preserves at-least-once.
// Shutdown mid-retry leaves the delivery unacknowledged and it is
// redelivered on restart.
func (w *Worker) Run(ctx context.Context) {
	for {
		d, ack, err := w.consumer.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.WithError(err).Error("consumer error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}

		outcome := w.Process(ctx, d.Value)
		for outcome == OutcomeRetry {
			select {
			case <-ctx.Done():
				ack(false)
				return
			case <-time.After(w.retryDelay):
			}
			outcome = w.Process(ctx, d.Value)
		}
		ack(outcome.Remove())
	}
}

// Process runs the per-delivery state machine and reports the verdict.
// Malformed payloads are discarded: they cannot self-correct and must not
// loop forever. Storage failures report Retry; the caller (the Run loop, or
// a push-delivering channel) re-attempts the same delivery. There is no
// bounded retry count here.
func (w *Worker) Process(ctx context.Context, payload []byte) Outcome {
	start := time.Now()

	var rec models.CanonicalRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		w.logger.WithError(err).Warn("discarding unparseable delivery")
		deliveriesTotal.WithLabelValues(OutcomeDiscard.String()).Inc()
		return OutcomeDiscard
	}
	if rec.TenantID == "" || rec.LogID == "" {
		w.logger.WithFields(logrus.Fields{
			"tenant_id": rec.TenantID,
			"log_id":    rec.LogID,
		}).Warn("discarding delivery without a storage key")
		deliveriesTotal.WithLabelValues(OutcomeDiscard.String()).Inc()
		return OutcomeDiscard
	}

	charCount := utf8.RuneCountInString(rec.Text)
	w.logger.WithFields(logrus.Fields{
		"tenant_id":  rec.TenantID,
		"log_id":     rec.LogID,
		"char_count": charCount,
	}).Info("processing record")

	processingTime := w.delay.Simulate(rec.Text)
	modified := Redact(rec.Text)

	doc := &models.ProcessedDocument{
		Source:         rec.Source,
		OriginalText:   rec.Text,
		ModifiedData:   modified,
		ProcessedAt:    time.Now().UTC().Format(time.RFC3339Nano),
		ReceivedAt:     rec.ReceivedAt,
		ProcessingTime: processingTime,
		CharCount:      charCount,
	}

	if err := w.store.PutProcessed(ctx, rec.TenantID, rec.LogID, doc); err != nil {
		w.logger.WithFields(logrus.Fields{
			"tenant_id": rec.TenantID,
			"log_id":    rec.LogID,
		}).WithError(err).Error("store write failed, leaving delivery for retry")
		deliveriesTotal.WithLabelValues(OutcomeRetry.String()).Inc()
		return OutcomeRetry
	}

	w.logger.WithFields(logrus.Fields{
		"tenant_id": rec.TenantID,
		"log_id":    rec.LogID,
		"elapsed":   time.Since(start),
	}).Info("record persisted")
	deliveriesTotal.WithLabelValues(OutcomeAck.String()).Inc()
	processingSeconds.Observe(time.Since(start).Seconds())
	return OutcomeAck
}
