package core

import (
	"fmt"
	"strings"
	"time"

	"flume/internal/models"
)

// ValidationError reports a missing or empty required field at intake.
// It never causes an enqueue; the caller must fix the request and resubmit.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing %s", e.Field)
}

// IngestInput is the format-agnostic input to normalization, already
// stripped of transport details by the HTTP layer.
type IngestInput struct {
	TenantID string
	LogID    string
	Text     string
	Source   string
}

// Normalize converts an intake request into the canonical in-flight record.
// It is pure: given the same input, clock and identifier generator it always
// produces the same record. newID runs only when the caller supplied no
// log_id, and only once per record; the resulting identifier rides the
// channel unchanged through every redelivery.
func Normalize(in *IngestInput, now time.Time, newID func() string) (*models.CanonicalRecord, error) {
	if in.TenantID == "" {
		return nil, &ValidationError{Field: "tenant_id"}
	}

	logID := in.LogID
	if logID == "" {
		logID = newID()
	}

	return &models.CanonicalRecord{
		TenantID:   in.TenantID,
		LogID:      logID,
		Text:       in.Text,
		Source:     in.Source,
		ReceivedAt: now.UTC().Format(time.RFC3339Nano),
	}, nil
}

// ParseTextPayload extracts embedded "tenant_id:", "log_id:" and "data:"
// key/value lines from a free-text body. When a data: line is present its
// value becomes the text; otherwise the whole body is the text. The first
// occurrence of each key wins.
func ParseTextPayload(body string) (fields map[string]string, text string) {
	fields = make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		switch key {
		case "tenant_id", "log_id", "data":
			if _, seen := fields[key]; !seen {
				fields[key] = strings.TrimSpace(value)
			}
		}
	}

	text = body
	if data, ok := fields["data"]; ok {
		text = data
	}
	return fields, text
}
