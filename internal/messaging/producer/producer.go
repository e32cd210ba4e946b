package producer

import (
	"context"

	"flume/internal/models"
)

// Producer is the write side of the delivery channel. The channel is durable
// and at-least-once: a record accepted by Publish will be delivered to the
// worker until acknowledged.
type Producer interface {
	// Publish enqueues a single canonical record and returns the message
	// identifier assigned to this enqueue attempt. It blocks until the
	// channel has durably accepted the record or the context is done.
	Publish(ctx context.Context, rec *models.CanonicalRecord) (messageID string, err error)

	// Close flushes and closes the producer connection.
	Close() error
}
