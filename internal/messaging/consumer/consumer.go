package consumer

import "context"

// Delivery is one pushed message from the channel, undecoded. Parsing the
// payload belongs to the worker: a payload the worker cannot decode must be
// removed from the channel, not redelivered forever, and only the worker can
// make that call.
type Delivery struct {
	// MessageID identifies the enqueue attempt, when the channel carries one.
	MessageID string
	// Value is the raw payload bytes of the delivered message.
	Value []byte
}

// Consumer is the read side of the delivery channel.
type Consumer interface {
	// Consume blocks until a delivery arrives or the context is cancelled.
	// It returns the delivery and an acknowledgement callback.
	// ack(true) removes the message from the channel (acknowledged or
	// deliberately discarded); ack(false) leaves it for redelivery after
	// the channel's acknowledgement deadline or a consumer restart.
	//
	// Offset-based channels commit a watermark: acknowledging a later
	// delivery implies every earlier one on the same partition. Callers
	// must therefore finish or nack a delivery before acknowledging a
	// later one.
	Consume(ctx context.Context) (d *Delivery, ack func(commit bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
