package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "flume/ingestion/service/core"
	"flume/internal/messaging/consumer"
	"flume/internal/models"
	"flume/storage/store"
)

// channelProducer feeds an in-process mock consumer, wiring intake and
// worker together without a broker.
type channelProducer struct {
	mc *consumer.MockConsumer
	n  int
}

func (p *channelProducer) Publish(ctx context.Context, rec *models.CanonicalRecord) (string, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	p.n++
	id := "m-" + rec.LogID
	p.mc.Enqueue(&consumer.Delivery{MessageID: id, Value: value})
	return id, nil
}

func (p *channelProducer) Close() error { return nil }

func TestPipelineEndToEnd(t *testing.T) {
	mc := consumer.NewMockConsumer(testLogger(), 4)
	cp := &channelProducer{mc: mc}
	svc := core.NewService(cp, testLogger())

	s := store.NewMemoryStore()
	delay := PerCharDelay{PerChar: time.Millisecond}
	w := New(testLogger(), s, mc, delay, time.Millisecond)

	text := "Call 555-0199 now"
	result, err := svc.Ingest(context.Background(), &core.IngestInput{
		TenantID: "acme",
		LogID:    "t1",
		Text:     text,
		Source:   models.SourceStructured,
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", result.LogID)
	assert.Equal(t, 1, cp.n, "exactly one enqueue per accepted request")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		_, err := s.GetProcessed(context.Background(), "acme", "t1")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	doc, err := s.GetProcessed(context.Background(), "acme", "t1")
	require.NoError(t, err)
	assert.Equal(t, text, doc.OriginalText)
	assert.Equal(t, "Call [REDACTED] now", doc.ModifiedData)
	assert.Equal(t, len(text), doc.CharCount)
	assert.InDelta(t, float64(len(text))*0.001, doc.ProcessingTime, 0.0001,
		"processing time reflects the per-character transform cost")
	assert.Equal(t, models.SourceStructured, doc.Source)
	assert.NotEmpty(t, doc.ReceivedAt)
	assert.NotEmpty(t, doc.ProcessedAt)
}
