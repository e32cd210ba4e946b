package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	core "flume/ingestion/service/core"
	"flume/internal/models"
)

// IngestHandler encapsulates the HTTP intake endpoint. It accepts two body
// shapes: a structured JSON payload, and free text with the tenant supplied
// via the X-Tenant-ID header or embedded key:value lines.
type IngestHandler struct {
	svc          *core.Service
	logger       *logrus.Entry
	maxBodyBytes int64
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(s *core.Service, logger *logrus.Entry, maxBodyBytes int64) *IngestHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 << 20 // 10MB
	}
	return &IngestHandler{svc: s, logger: logger, maxBodyBytes: maxBodyBytes}
}

// Ingest handles POST /ingest requests.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondDetail(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer r.Body.Close()

	contentType := strings.ToLower(r.Header.Get("Content-Type"))

	var input *core.IngestInput
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var payload struct {
			TenantID string `json:"tenant_id"`
			LogID    string `json:"log_id"`
			Data     string `json:"data"`
			Text     string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			h.respondDetail(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}
		text := payload.Data
		if text == "" {
			text = payload.Text
		}
		input = &core.IngestInput{
			TenantID: payload.TenantID,
			LogID:    payload.LogID,
			Text:     text,
			Source:   models.SourceStructured,
		}

	case strings.HasPrefix(contentType, "text/plain"):
		body, err := io.ReadAll(r.Body)
		if err != nil {
			h.respondDetail(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		fields, text := core.ParseTextPayload(string(body))

		tenantID := fields["tenant_id"]
		if tenantID == "" {
			tenantID = r.Header.Get("X-Tenant-ID")
		}
		input = &core.IngestInput{
			TenantID: tenantID,
			LogID:    fields["log_id"],
			Text:     text,
			Source:   models.SourceText,
		}

	default:
		h.respondDetail(w, "unsupported content type: "+contentType, http.StatusUnsupportedMediaType)
		return
	}

	result, err := h.svc.Ingest(r.Context(), input)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			requestsTotal.WithLabelValues("rejected").Inc()
			h.respondDetail(w, verr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.WithError(err).Error("failed to enqueue record")
		requestsTotal.WithLabelValues("failed").Inc()
		h.respondDetail(w, "failed to enqueue record", http.StatusInternalServerError)
		return
	}

	requestsTotal.WithLabelValues("accepted").Inc()
	h.respondJSON(w, map[string]string{
		"status":     "accepted",
		"message_id": result.MessageID,
		"tenant_id":  result.TenantID,
		"log_id":     result.LogID,
	}, http.StatusAccepted)
}

// HealthCheck handles GET /health requests.
func (h *IngestHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondDetail(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	h.respondJSON(w, map[string]string{
		"status":    "healthy",
		"service":   "ingestion",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}, http.StatusOK)
}

func (h *IngestHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("failed to encode JSON response")
	}
}

func (h *IngestHandler) respondDetail(w http.ResponseWriter, detail string, statusCode int) {
	h.respondJSON(w, map[string]string{"detail": detail}, statusCode)
}
