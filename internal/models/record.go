package models

// Ingestion source formats.
const (
	SourceStructured = "structured_upload"
	SourceText       = "text_upload"
)

// CanonicalRecord is the normalized, format-agnostic representation of one
// log submission. It is the unit placed on the delivery channel and exists
// only while in flight; it is never persisted by this system.
//
// TenantID and LogID together form the storage key and must stay stable
// across redeliveries of the same logical record.
type CanonicalRecord struct {
	TenantID   string `json:"tenant_id"`
	LogID      string `json:"log_id"`
	Text       string `json:"text"`
	Source     string `json:"source"`
	ReceivedAt string `json:"received_at"` // RFC3339Nano, set once at intake
}

// ProcessedDocument is the durable, transformed record written into the
// tenant store. Rewriting the same document is a full overwrite of every
// field, so repeated deliveries never accumulate state.
type ProcessedDocument struct {
	Source         string  `json:"source"`
	OriginalText   string  `json:"original_text"`
	ModifiedData   string  `json:"modified_data"`
	ProcessedAt    string  `json:"processed_at"` // RFC3339Nano, write time
	ReceivedAt     string  `json:"received_at"`  // copied from the record
	ProcessingTime float64 `json:"processing_time"` // seconds spent transforming
	CharCount      int     `json:"char_count"`
}
