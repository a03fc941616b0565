// Package storage archives the raw statement files behind imports so a
// batch can be audited or re-imported later.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// ArchivedStatement contains metadata about an archived statement file.
type ArchivedStatement struct {
	ID         uuid.UUID `json:"id"`
	BatchID    uuid.UUID `json:"batch_id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	SHA256     string    `json:"sha256"`
	Path       string    `json:"path"` // Internal storage path
	ArchivedAt time.Time `json:"archived_at"`
}

// Archive defines the interface for statement file retention.
type Archive interface {
	// Archive stores a statement file and returns its metadata.
	Archive(ctx context.Context, userID, batchID uuid.UUID, filename string, r io.Reader) (*ArchivedStatement, error)

	// Open retrieves an archived statement by its ID.
	Open(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, *ArchivedStatement, error)

	// Delete removes an archived statement by its ID.
	Delete(ctx context.Context, userID, fileID uuid.UUID) error

	// List returns all archived statements for a user.
	List(ctx context.Context, userID uuid.UUID) ([]*ArchivedStatement, error)

	// GetInfo returns metadata without opening the file.
	GetInfo(ctx context.Context, userID, fileID uuid.UUID) (*ArchivedStatement, error)
}

// ArchiveType identifies the storage backend
type ArchiveType string

const (
	ArchiveTypeLocal ArchiveType = "local"
	ArchiveTypeS3    ArchiveType = "s3"
)

// Config holds storage configuration
type Config struct {
	Type ArchiveType

	// Local storage config
	LocalPath string

	// S3 storage config (prepared for future use)
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
}

// New creates a new Archive implementation based on configuration
func New(cfg *Config) (Archive, error) {
	switch cfg.Type {
	case ArchiveTypeS3:
		return NewS3Archive(cfg)
	case ArchiveTypeLocal:
		fallthrough
	default:
		return NewLocalArchive(cfg.LocalPath)
	}
}
