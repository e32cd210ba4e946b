package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"flume/internal/messaging/producer"
)

// IngestResult is returned to the client once the record is durably on the
// delivery channel. The intake path never waits for the processing worker.
type IngestResult struct {
	MessageID string
	TenantID  string
	LogID     string
}

// Service holds the intake business logic: normalize, enqueue, reply.
type Service struct {
	producer producer.Producer
	logger   *logrus.Entry

	// newID and now are injection points so tests can pin identifiers and
	// timestamps. The identifier is minted here, before the publish call,
	// never inside a retry loop.
	newID func() string
	now   func() time.Time
}

// NewService creates a Service around a delivery-channel producer.
func NewService(p producer.Producer, logger *logrus.Entry) *Service {
	return &Service{
		producer: p,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Ingest validates and normalizes one submission and enqueues it. On a
// publish failure nothing was durably queued, so the caller can safely
// resubmit the whole request.
func (s *Service) Ingest(ctx context.Context, in *IngestInput) (*IngestResult, error) {
	rec, err := Normalize(in, s.now(), s.newID)
	if err != nil {
		return nil, err
	}

	messageID, err := s.producer.Publish(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"message_id": messageID,
		"tenant_id":  rec.TenantID,
		"log_id":     rec.LogID,
	}).Info("record accepted and enqueued")

	return &IngestResult{
		MessageID: messageID,
		TenantID:  rec.TenantID,
		LogID:     rec.LogID,
	}, nil
}
