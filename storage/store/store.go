package store

import (
	"context"
	"errors"

	"flume/internal/models"
)

// ErrNotFound is returned when no processed document exists under the
// requested tenant and log identifiers.
var ErrNotFound = errors.New("processed document not found")

// Store is the tenant-partitioned document store. Every operation is scoped
// to a single (tenantID, logID) pair; the two-level key is the isolation
// mechanism and no operation spans tenants.
type Store interface {
	// PutProcessed writes the document under (tenantID, logID) as a full
	// overwrite of any prior document at that key. Repeating the write with
	// the same inputs leaves the store in the same final state, which is
	// what makes at-least-once redelivery safe.
	PutProcessed(ctx context.Context, tenantID, logID string, doc *models.ProcessedDocument) error

	// GetProcessed reads the document stored under (tenantID, logID).
	// Returns ErrNotFound when no document exists at that key.
	GetProcessed(ctx context.Context, tenantID, logID string) (*models.ProcessedDocument, error)

	// Close releases the backend connections.
	Close()
}
