package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalArchive implements Archive using the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a new local filesystem archive
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	// Ensure base path exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &LocalArchive{basePath: basePath}, nil
}

// Archive stores a statement file and returns its metadata
func (s *LocalArchive) Archive(ctx context.Context, userID, batchID uuid.UUID, filename string, r io.Reader) (*ArchivedStatement, error) {
	fileID := uuid.New()

	// Create user directory
	userDir := filepath.Join(s.basePath, userID.String())
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	// Sanitize filename and add UUID prefix for uniqueness
	safeFilename := sanitizeFilename(filename)
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], safeFilename)
	filePath := filepath.Join(userDir, storedFilename)

	// Create file
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// Copy content, hashing as we go for the audit record
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &ArchivedStatement{
		ID:         fileID,
		BatchID:    batchID,
		Name:       filename,
		Size:       size,
		SHA256:     hex.EncodeToString(hasher.Sum(nil)),
		Path:       storedFilename,
		ArchivedAt: time.Now(),
	}

	// Save metadata
	if err := s.saveMetadata(userID, fileID, info); err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, err
	}

	return info, nil
}

// Open retrieves an archived statement by its ID
func (s *LocalArchive) Open(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, *ArchivedStatement, error) {
	info, err := s.GetInfo(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	filePath := filepath.Join(s.basePath, userID.String(), info.Path)
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes an archived statement by its ID
func (s *LocalArchive) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, userID, fileID)
	if err != nil {
		return err
	}

	filePath := filepath.Join(s.basePath, userID.String(), info.Path)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Delete metadata
	metaPath := filepath.Join(s.basePath, userID.String(), ".meta", fileID.String()+".json")
	os.Remove(metaPath)

	return nil
}

// List returns all archived statements for a user
func (s *LocalArchive) List(ctx context.Context, userID uuid.UUID) ([]*ArchivedStatement, error) {
	metaDir := filepath.Join(s.basePath, userID.String(), ".meta")
	if _, err := os.Stat(metaDir); os.IsNotExist(err) {
		return []*ArchivedStatement{}, nil
	}

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*ArchivedStatement, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		fileID := strings.TrimSuffix(entry.Name(), ".json")
		id, err := uuid.Parse(fileID)
		if err != nil {
			continue
		}

		info, err := s.GetInfo(ctx, userID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	return files, nil
}

// GetInfo returns metadata without opening the file
func (s *LocalArchive) GetInfo(ctx context.Context, userID, fileID uuid.UUID) (*ArchivedStatement, error) {
	metaPath := filepath.Join(s.basePath, userID.String(), ".meta", fileID.String()+".json")

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archived statement not found: %s", fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info ArchivedStatement
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

// saveMetadata saves statement metadata to a JSON sidecar
func (s *LocalArchive) saveMetadata(userID, fileID uuid.UUID, info *ArchivedStatement) error {
	metaDir := filepath.Join(s.basePath, userID.String(), ".meta")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	metaPath := filepath.Join(metaDir, fileID.String()+".json")
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	// Replace path separators and other dangerous characters
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
