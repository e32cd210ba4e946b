package push

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	worker "flume/processing"
)

// envelope is the push delivery wrapper: the channel wraps the canonical
// record bytes in a base64-encoded message object.
type envelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// Handler receives pushed deliveries and answers with the status class the
// channel interprets: success removes the message, a client error discards
// it, a server error schedules redelivery.
type Handler struct {
	worker *worker.Worker
	logger *logrus.Entry
}

// NewHandler creates a push delivery handler around a worker.
func NewHandler(w *worker.Worker, logger *logrus.Entry) *Handler {
	return &Handler{worker: w, logger: logger}
}

// Deliver handles POST /process requests from the push channel.
func (h *Handler) Deliver(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondJSON(w, map[string]string{"detail": "Method Not Allowed"}, http.StatusMethodNotAllowed)
		return
	}

	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.respondJSON(w, map[string]string{"detail": "invalid delivery envelope"}, http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if env.Message.Data == "" {
		h.respondJSON(w, map[string]string{"detail": "no data in delivery envelope"}, http.StatusBadRequest)
		return
	}

	payload, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		h.respondJSON(w, map[string]string{"detail": "delivery data is not valid base64"}, http.StatusBadRequest)
		return
	}

	outcome := h.worker.Process(r.Context(), payload)
	switch outcome {
	case worker.OutcomeAck:
		h.respondJSON(w, map[string]string{"status": "processed"}, http.StatusOK)
	case worker.OutcomeDiscard:
		// Client-error class: the channel must not redeliver this message.
		h.respondJSON(w, map[string]string{"detail": "unprocessable delivery discarded"}, http.StatusBadRequest)
	default:
		// Server-error class: the channel redelivers after its deadline.
		h.respondJSON(w, map[string]string{"detail": "processing failed, delivery will be retried"}, http.StatusInternalServerError)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("failed to encode JSON response")
	}
}
