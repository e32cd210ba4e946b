package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"

	"flume/internal/models"
)

// PostgresStore implements Store on a pgx connection pool. The composite
// primary key (tenant_id, log_id) plus an ON CONFLICT full-row update gives
// the idempotent, last-write-wins upsert the worker depends on.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logrus.Entry
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS processed_logs (
	tenant_id       TEXT NOT NULL,
	log_id          TEXT NOT NULL,
	source          TEXT NOT NULL,
	original_text   TEXT NOT NULL,
	modified_data   TEXT NOT NULL,
	processed_at    TEXT NOT NULL,
	received_at     TEXT NOT NULL,
	processing_time DOUBLE PRECISION NOT NULL,
	char_count      INTEGER NOT NULL,
	PRIMARY KEY (tenant_id, log_id)
)`

// NewPostgresStore connects to PostgreSQL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, minConns, maxConns int, logger *logrus.Entry) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	poolCfg.MinConns = int32(minConns)
	poolCfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure processed_logs table: %w", err)
	}

	logger.Info("Postgres tenant store initialized")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// PutProcessed upserts the document, replacing every column on conflict.
func (s *PostgresStore) PutProcessed(ctx context.Context, tenantID, logID string, doc *models.ProcessedDocument) error {
	const q = `
		INSERT INTO processed_logs
			(tenant_id, log_id, source, original_text, modified_data, processed_at, received_at, processing_time, char_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, log_id) DO UPDATE SET
			source          = EXCLUDED.source,
			original_text   = EXCLUDED.original_text,
			modified_data   = EXCLUDED.modified_data,
			processed_at    = EXCLUDED.processed_at,
			received_at     = EXCLUDED.received_at,
			processing_time = EXCLUDED.processing_time,
			char_count      = EXCLUDED.char_count
	`
	_, err := s.pool.Exec(ctx, q,
		tenantID,
		logID,
		doc.Source,
		doc.OriginalText,
		doc.ModifiedData,
		doc.ProcessedAt,
		doc.ReceivedAt,
		doc.ProcessingTime,
		doc.CharCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert processed document: %w", err)
	}
	return nil
}

// GetProcessed fetches one document by its two-level key.
func (s *PostgresStore) GetProcessed(ctx context.Context, tenantID, logID string) (*models.ProcessedDocument, error) {
	const q = `
		SELECT source, original_text, modified_data, processed_at, received_at, processing_time, char_count
		FROM processed_logs
		WHERE tenant_id = $1 AND log_id = $2
	`
	var doc models.ProcessedDocument
	err := s.pool.QueryRow(ctx, q, tenantID, logID).Scan(
		&doc.Source,
		&doc.OriginalText,
		&doc.ModifiedData,
		&doc.ProcessedAt,
		&doc.ReceivedAt,
		&doc.ProcessingTime,
		&doc.CharCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read processed document: %w", err)
	}
	return &doc, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)
