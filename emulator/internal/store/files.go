package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/billed/emulator/internal/models"
)

// NewFileKey returns a fresh storage key for an upload.
func NewFileKey() string {
	return uuid.NewString()
}

// CreateFile records an uploaded file under f.Key.
func (s *Store) CreateFile(f models.StoredFile) (*models.StoredFile, error) {
	if f.Key == "" {
		f.Key = NewFileKey()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	if err := s.Put(BucketFiles, f.Key, f); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	return &f, nil
}

// GetFile retrieves file metadata by key.
func (s *Store) GetFile(key string) (*models.StoredFile, error) {
	var f models.StoredFile
	if err := s.Get(BucketFiles, key, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
