package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flume/internal/models"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	newID := func() string { return "generated-id" }

	t.Run("missing tenant fails validation", func(t *testing.T) {
		_, err := Normalize(&IngestInput{Text: "x", Source: models.SourceStructured}, now, newID)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "tenant_id", verr.Field)
	})

	t.Run("supplied log id is kept", func(t *testing.T) {
		rec, err := Normalize(&IngestInput{TenantID: "acme", LogID: "t1", Text: "x", Source: models.SourceStructured}, now, newID)
		require.NoError(t, err)
		assert.Equal(t, "t1", rec.LogID)
	})

	t.Run("missing log id is generated", func(t *testing.T) {
		rec, err := Normalize(&IngestInput{TenantID: "acme", Text: "x", Source: models.SourceText}, now, newID)
		require.NoError(t, err)
		assert.Equal(t, "generated-id", rec.LogID)
	})

	t.Run("deterministic given generator and clock", func(t *testing.T) {
		in := &IngestInput{TenantID: "acme", Text: "hello", Source: models.SourceText}
		a, err := Normalize(in, now, newID)
		require.NoError(t, err)
		b, err := Normalize(in, now, newID)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("record carries intake timestamp and source", func(t *testing.T) {
		rec, err := Normalize(&IngestInput{TenantID: "acme", LogID: "t1", Text: "", Source: models.SourceStructured}, now, newID)
		require.NoError(t, err)
		assert.Equal(t, now.Format(time.RFC3339Nano), rec.ReceivedAt)
		assert.Equal(t, models.SourceStructured, rec.Source)
		assert.Empty(t, rec.Text, "empty text is valid")
	})
}

func TestParseTextPayload(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields map[string]string
		wantText   string
	}{
		{
			name:       "plain free text",
			body:       "just some log line",
			wantFields: map[string]string{},
			wantText:   "just some log line",
		},
		{
			name:       "embedded key value lines",
			body:       "tenant_id: acme\nlog_id: t9\ndata: Call 555-0199",
			wantFields: map[string]string{"tenant_id": "acme", "log_id": "t9", "data": "Call 555-0199"},
			wantText:   "Call 555-0199",
		},
		{
			name:       "data line wins over raw body",
			body:       "data: only this\nsome trailing noise",
			wantFields: map[string]string{"data": "only this"},
			wantText:   "only this",
		},
		{
			name:       "first occurrence wins",
			body:       "tenant_id: acme\ntenant_id: globex",
			wantFields: map[string]string{"tenant_id": "acme"},
			wantText:   "tenant_id: acme\ntenant_id: globex",
		},
		{
			name:       "unknown keys ignored",
			body:       "severity: high\nmessage: ok",
			wantFields: map[string]string{},
			wantText:   "severity: high\nmessage: ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, text := ParseTextPayload(tt.body)
			assert.Equal(t, tt.wantFields, fields)
			assert.Equal(t, tt.wantText, text)
		})
	}
}
