package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// S3Archive implements Archive using Amazon S3 or S3-compatible services
// TODO: Implement using aws-sdk-go-v2
type S3Archive struct {
	bucket   string
	region   string
	endpoint string
	// client *s3.Client // Uncomment when implementing
}

// NewS3Archive creates a new S3 archive instance
// TODO: Initialize S3 client using aws-sdk-go-v2
func NewS3Archive(cfg *Config) (*S3Archive, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.S3Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	return &S3Archive{
		bucket:   cfg.S3Bucket,
		region:   cfg.S3Region,
		endpoint: cfg.S3Endpoint,
	}, nil
}

// Archive stores a statement file in S3 and returns its metadata
func (s *S3Archive) Archive(ctx context.Context, userID, batchID uuid.UUID, filename string, r io.Reader) (*ArchivedStatement, error) {
	// TODO: PutObject under key userID/fileID/filename
	return nil, fmt.Errorf("S3 archive not implemented - please set STORAGE_TYPE=local or implement S3Archive")
}

// Open retrieves an archived statement from S3 by its ID
func (s *S3Archive) Open(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, *ArchivedStatement, error) {
	// TODO: GetObject
	return nil, nil, fmt.Errorf("S3 archive not implemented")
}

// Delete removes an archived statement from S3 by its ID
func (s *S3Archive) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	// TODO: DeleteObject
	return fmt.Errorf("S3 archive not implemented")
}

// List returns all archived statements for a user from S3
func (s *S3Archive) List(ctx context.Context, userID uuid.UUID) ([]*ArchivedStatement, error) {
	// TODO: ListObjectsV2 with prefix userID/
	return nil, fmt.Errorf("S3 archive not implemented")
}

// GetInfo returns metadata without downloading
func (s *S3Archive) GetInfo(ctx context.Context, userID, fileID uuid.UUID) (*ArchivedStatement, error) {
	// TODO: HeadObject
	return nil, fmt.Errorf("S3 archive not implemented")
}
