package store

import (
	"context"
	"sync"

	"flume/internal/models"
)

// MemoryStore is an in-process Store used by tests and mock mode. Documents
// live in a nested map keyed first by tenant, mirroring the hierarchical
// layout of the real backends.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]map[string]models.ProcessedDocument

	// FailPuts makes every PutProcessed fail while set; tests use it to
	// drive the worker's retry path.
	FailPuts error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]map[string]models.ProcessedDocument)}
}

// PutProcessed stores a copy of the document, replacing any prior one.
func (s *MemoryStore) PutProcessed(ctx context.Context, tenantID, logID string, doc *models.ProcessedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPuts != nil {
		return s.FailPuts
	}

	logs, ok := s.tenants[tenantID]
	if !ok {
		logs = make(map[string]models.ProcessedDocument)
		s.tenants[tenantID] = logs
	}
	logs[logID] = *doc
	return nil
}

// GetProcessed returns the stored document or ErrNotFound.
func (s *MemoryStore) GetProcessed(ctx context.Context, tenantID, logID string) (*models.ProcessedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.tenants[tenantID][logID]
	if !ok {
		return nil, ErrNotFound
	}
	out := doc
	return &out, nil
}

// CountTenant reports how many documents a single tenant holds.
func (s *MemoryStore) CountTenant(tenantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants[tenantID])
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

var _ Store = (*MemoryStore)(nil)
