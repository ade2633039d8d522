package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
)

// MemoryStorage keeps schematics in process memory for tests and local runs.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

type blob struct {
	data     []byte
	mimeType string
	etag     string
}

// NewMemoryStorage constructs an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string]blob)}
}

// Put copies data so later caller mutations do not leak into the store.
func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, mimeType string) (survey.StoredObject, error) {
	if key == "" {
		return survey.StoredObject{}, fmt.Errorf("empty object key")
	}
	sum := md5.Sum(data)
	etag := hex.EncodeToString(sum[:])
	s.mu.Lock()
	s.blobs[key] = blob{data: bytes.Clone(data), mimeType: mimeType, etag: etag}
	s.mu.Unlock()
	return survey.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     etag,
	}, nil
}

func (s *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Len reports how many objects are held.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ survey.ObjectStorage = (*MemoryStorage)(nil)
