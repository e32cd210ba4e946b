package consumer

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// MockConsumer is an in-process delivery channel used by tests and mock
// mode. It re-queues unacknowledged deliveries, which makes the worker's
// retry path observable without a broker.
type MockConsumer struct {
	logger   *logrus.Entry
	messages chan *Delivery

	closeOnce sync.Once
}

// NewMockConsumer creates a MockConsumer with the given buffer capacity.
func NewMockConsumer(logger *logrus.Entry, capacity int) *MockConsumer {
	if capacity <= 0 {
		capacity = 16
	}
	return &MockConsumer{
		logger:   logger,
		messages: make(chan *Delivery, capacity),
	}
}

// Enqueue places a raw delivery on the mock channel.
func (m *MockConsumer) Enqueue(d *Delivery) {
	m.messages <- d
}

// Consume reads the next delivery from the channel.
func (m *MockConsumer) Consume(ctx context.Context) (*Delivery, func(commit bool), error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case d := <-m.messages:
		if d == nil {
			return nil, nil, errors.New("message channel closed")
		}

		ack := func(commit bool) {
			if commit {
				return
			}
			// Redelivery: put the message back for the next Consume.
			select {
			case m.messages <- d:
				m.logger.WithField("message_id", d.MessageID).Info("mock consumer re-queued delivery")
			default:
				m.logger.WithField("message_id", d.MessageID).Warn("mock consumer dropped delivery, channel full")
			}
		}
		return d, ack, nil
	}
}

// Close closes the message channel.
func (m *MockConsumer) Close() error {
	m.closeOnce.Do(func() { close(m.messages) })
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
