package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flume/internal/messaging/consumer"
	"flume/internal/models"
	"flume/storage/store"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func recordPayload(t *testing.T, rec *models.CanonicalRecord) []byte {
	t.Helper()
	payload, err := json.Marshal(rec)
	require.NoError(t, err)
	return payload
}

func TestProcessDiscardsMalformedPayload(t *testing.T) {
	s := store.NewMemoryStore()
	w := New(testLogger(), s, nil, NoDelay{}, time.Millisecond)

	outcome := w.Process(context.Background(), []byte("not json at all"))

	assert.Equal(t, OutcomeDiscard, outcome)
	assert.Equal(t, 0, s.CountTenant("acme"))
}

func TestProcessDiscardsRecordWithoutStorageKey(t *testing.T) {
	s := store.NewMemoryStore()
	w := New(testLogger(), s, nil, NoDelay{}, time.Millisecond)

	tests := []struct {
		name string
		rec  *models.CanonicalRecord
	}{
		{"missing tenant", &models.CanonicalRecord{LogID: "l1", Text: "x"}},
		{"missing log id", &models.CanonicalRecord{TenantID: "acme", Text: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := w.Process(context.Background(), recordPayload(t, tt.rec))
			assert.Equal(t, OutcomeDiscard, outcome)
		})
	}
}

func TestProcessRetriesOnStorageFailure(t *testing.T) {
	s := store.NewMemoryStore()
	s.FailPuts = errors.New("storage unavailable")
	w := New(testLogger(), s, nil, NoDelay{}, time.Millisecond)

	rec := &models.CanonicalRecord{TenantID: "acme", LogID: "l1", Text: "hello", Source: models.SourceStructured}
	outcome := w.Process(context.Background(), recordPayload(t, rec))

	assert.Equal(t, OutcomeRetry, outcome)

	// The same delivery succeeds once storage recovers.
	s.FailPuts = nil
	outcome = w.Process(context.Background(), recordPayload(t, rec))
	assert.Equal(t, OutcomeAck, outcome)
}

func TestProcessPersistsTransformedDocument(t *testing.T) {
	s := store.NewMemoryStore()
	w := New(testLogger(), s, nil, NoDelay{}, time.Millisecond)

	text := "Call 555-0199 now"
	rec := &models.CanonicalRecord{
		TenantID:   "acme",
		LogID:      "t1",
		Text:       text,
		Source:     models.SourceStructured,
		ReceivedAt: "2026-01-02T03:04:05.000000006Z",
	}

	outcome := w.Process(context.Background(), recordPayload(t, rec))
	require.Equal(t, OutcomeAck, outcome)

	doc, err := s.GetProcessed(context.Background(), "acme", "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceStructured, doc.Source)
	assert.Equal(t, text, doc.OriginalText)
	assert.Equal(t, "Call [REDACTED] now", doc.ModifiedData)
	assert.Equal(t, rec.ReceivedAt, doc.ReceivedAt)
	assert.Equal(t, len(text), doc.CharCount)
	assert.NotEmpty(t, doc.ProcessedAt)
}

func TestProcessRedeliveryOverwritesInsteadOfDuplicating(t *testing.T) {
	s := store.NewMemoryStore()
	w := New(testLogger(), s, nil, NoDelay{}, time.Millisecond)

	rec := &models.CanonicalRecord{TenantID: "acme", LogID: "t1", Text: "hi 555-0199", Source: models.SourceText}
	payload := recordPayload(t, rec)

	require.Equal(t, OutcomeAck, w.Process(context.Background(), payload))
	first, err := s.GetProcessed(context.Background(), "acme", "t1")
	require.NoError(t, err)

	require.Equal(t, OutcomeAck, w.Process(context.Background(), payload))
	second, err := s.GetProcessed(context.Background(), "acme", "t1")
	require.NoError(t, err)

	assert.Equal(t, 1, s.CountTenant("acme"), "redelivery must not create a second document")
	assert.Equal(t, first.ModifiedData, second.ModifiedData)
	assert.Equal(t, first.OriginalText, second.OriginalText)
}

func TestProcessTenantIsolation(t *testing.T) {
	s := store.NewMemoryStore()
	w := New(testLogger(), s, nil, NoDelay{}, time.Millisecond)

	// Identical log_id under two tenants: two independent documents.
	a := &models.CanonicalRecord{TenantID: "acme", LogID: "shared", Text: "from acme", Source: models.SourceStructured}
	b := &models.CanonicalRecord{TenantID: "globex", LogID: "shared", Text: "from globex", Source: models.SourceStructured}

	require.Equal(t, OutcomeAck, w.Process(context.Background(), recordPayload(t, a)))
	require.Equal(t, OutcomeAck, w.Process(context.Background(), recordPayload(t, b)))

	assert.Equal(t, 1, s.CountTenant("acme"))
	assert.Equal(t, 1, s.CountTenant("globex"))

	docA, err := s.GetProcessed(context.Background(), "acme", "shared")
	require.NoError(t, err)
	docB, err := s.GetProcessed(context.Background(), "globex", "shared")
	require.NoError(t, err)
	assert.Equal(t, "from acme", docA.OriginalText)
	assert.Equal(t, "from globex", docB.OriginalText)
}

func TestProcessCountsCharactersNotBytes(t *testing.T) {
	s := store.NewMemoryStore()
	w := New(testLogger(), s, nil, NoDelay{}, time.Millisecond)

	// 11 characters, 13 bytes.
	text := "héllo wörld"
	rec := &models.CanonicalRecord{TenantID: "acme", LogID: "u1", Text: text, Source: models.SourceText}

	require.Equal(t, OutcomeAck, w.Process(context.Background(), recordPayload(t, rec)))

	doc, err := s.GetProcessed(context.Background(), "acme", "u1")
	require.NoError(t, err)
	assert.Equal(t, 11, doc.CharCount)
}

// flakyStore fails the first N puts, then delegates to the wrapped store.
type flakyStore struct {
	*store.MemoryStore
	mu        sync.Mutex
	failsLeft int
}

func (f *flakyStore) PutProcessed(ctx context.Context, tenantID, logID string, doc *models.ProcessedDocument) error {
	f.mu.Lock()
	if f.failsLeft > 0 {
		f.failsLeft--
		f.mu.Unlock()
		return errors.New("transient storage failure")
	}
	f.mu.Unlock()
	return f.MemoryStore.PutProcessed(ctx, tenantID, logID, doc)
}

func TestRunRedeliversUntilStorageRecovers(t *testing.T) {
	s := &flakyStore{MemoryStore: store.NewMemoryStore(), failsLeft: 2}
	mc := consumer.NewMockConsumer(testLogger(), 4)
	w := New(testLogger(), s, mc, NoDelay{}, time.Millisecond)

	rec := &models.CanonicalRecord{TenantID: "acme", LogID: "t1", Text: "retry me", Source: models.SourceStructured}
	mc.Enqueue(&consumer.Delivery{MessageID: "m1", Value: recordPayload(t, rec)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		_, err := s.GetProcessed(context.Background(), "acme", "t1")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond, "record must be persisted after storage recovers")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}

	assert.Equal(t, 1, s.CountTenant("acme"))
}

// watermarkConsumer hands each delivery out exactly once and records offset
// commits as a high-water mark, mirroring the consumer-group semantics of the
// Kafka adapter: a negative acknowledgement does not requeue in-session, and
// committing a later offset implies every earlier one.
type watermarkConsumer struct {
	mu         sync.Mutex
	deliveries []*consumer.Delivery
	next       int
	committed  int
	nacked     int
}

func (c *watermarkConsumer) Consume(ctx context.Context) (*consumer.Delivery, func(commit bool), error) {
	c.mu.Lock()
	if c.next >= len(c.deliveries) {
		c.mu.Unlock()
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	offset := c.next
	d := c.deliveries[offset]
	c.next++
	c.mu.Unlock()

	ack := func(commit bool) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !commit {
			c.nacked++
			return
		}
		if offset+1 > c.committed {
			c.committed = offset + 1
		}
	}
	return d, ack, nil
}

func (c *watermarkConsumer) Close() error { return nil }

var _ consumer.Consumer = (*watermarkConsumer)(nil)

func TestRunRetriesInPlaceWithoutSkippingDeliveries(t *testing.T) {
	s := &flakyStore{MemoryStore: store.NewMemoryStore(), failsLeft: 3}

	recA := &models.CanonicalRecord{TenantID: "acme", LogID: "a", Text: "first", Source: models.SourceStructured}
	recB := &models.CanonicalRecord{TenantID: "acme", LogID: "b", Text: "second", Source: models.SourceStructured}
	c := &watermarkConsumer{deliveries: []*consumer.Delivery{
		{MessageID: "m-a", Value: recordPayload(t, recA)},
		{MessageID: "m-b", Value: recordPayload(t, recB)},
	}}
	w := New(testLogger(), s, c, NoDelay{}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// The failing first record must be worked to completion before the
	// second is acknowledged; otherwise committing the second offset would
	// move the watermark past the first and lose it.
	require.Eventually(t, func() bool {
		_, errA := s.GetProcessed(context.Background(), "acme", "a")
		_, errB := s.GetProcessed(context.Background(), "acme", "b")
		return errA == nil && errB == nil
	}, 2*time.Second, 5*time.Millisecond, "both records must be persisted despite transient failures")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 2, c.committed, "both offsets must be committed")
	assert.Zero(t, c.nacked, "transient failures must not surface as negative acknowledgements")
}

func TestRunShutdownLeavesFailingDeliveryUncommitted(t *testing.T) {
	s := store.NewMemoryStore()
	s.FailPuts = errors.New("storage down")

	rec := &models.CanonicalRecord{TenantID: "acme", LogID: "a", Text: "stuck", Source: models.SourceStructured}
	c := &watermarkConsumer{deliveries: []*consumer.Delivery{
		{MessageID: "m-a", Value: recordPayload(t, rec)},
	}}
	w := New(testLogger(), s, c, NoDelay{}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.next == 1
	}, 2*time.Second, 5*time.Millisecond, "delivery must be fetched")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Zero(t, c.committed, "a still-failing delivery must stay uncommitted so restart redelivers it")
	assert.Equal(t, 1, c.nacked)
}
