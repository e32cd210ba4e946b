package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"flume/config"
	"flume/internal/models"
)

// ObjectStore implements Store on an S3-compatible object store. Each
// document is one JSON object at tenants/{tenant_id}/processed_logs/{log_id},
// so the key space itself partitions tenants and an object PUT is already a
// full overwrite.
type ObjectStore struct {
	client *minio.Client
	bucket string
	logger *logrus.Entry
}

// NewObjectStore creates an object-store-backed tenant store and ensures the
// bucket exists.
func NewObjectStore(cfg config.ObjectStoreConfig, logger *logrus.Entry) (*ObjectStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	logger.WithField("bucket", cfg.Bucket).Info("object tenant store initialized")
	return &ObjectStore{client: cli, bucket: cfg.Bucket, logger: logger}, nil
}

func objectKey(tenantID, logID string) string {
	return fmt.Sprintf("tenants/%s/processed_logs/%s.json", tenantID, logID)
}

// PutProcessed uploads the document JSON, overwriting any prior object.
func (s *ObjectStore) PutProcessed(ctx context.Context, tenantID, logID string, doc *models.ProcessedDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize processed document: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectKey(tenantID, logID),
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to put processed document: %w", err)
	}
	return nil
}

// GetProcessed downloads and decodes one document.
func (s *ObjectStore) GetProcessed(ctx context.Context, tenantID, logID string) (*models.ProcessedDocument, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(tenantID, logID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get processed document: %w", err)
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read processed document: %w", err)
	}

	var doc models.ProcessedDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode processed document: %w", err)
	}
	return &doc, nil
}

// Close is a no-op; the minio client holds no persistent connections.
func (s *ObjectStore) Close() {}

var _ Store = (*ObjectStore)(nil)
