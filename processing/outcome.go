package worker

// Outcome is the worker's verdict on one delivery. The channel adapters map
// it onto their own mechanics: offset commits for the pull consumer, HTTP
// status classes for the push endpoint.
type Outcome int

const (
	// OutcomeAck means the document was persisted; remove the message.
	OutcomeAck Outcome = iota
	// OutcomeDiscard means the payload can never be processed (malformed or
	// missing its storage key); remove the message so it does not loop.
	OutcomeDiscard
	// OutcomeRetry means a transient failure (storage unavailable); leave
	// the message for redelivery after the acknowledgement deadline.
	OutcomeRetry
)

// String names the outcome for logs and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ack"
	case OutcomeDiscard:
		return "discard"
	case OutcomeRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Remove reports whether the message should be removed from the channel.
// Both an acknowledged and a discarded delivery must not come back.
func (o Outcome) Remove() bool {
	return o != OutcomeRetry
}
