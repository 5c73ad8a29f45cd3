package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps objects in a map. It backs tests and local development
// where no MinIO endpoint is available.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ BlobStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Store(ctx context.Context, r io.Reader, size int64, contentType string) (StoredObject, error) {
	digest := newDigestReader(r)

	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, digest); err != nil {
		return StoredObject{}, err
	}

	ref := uuid.New().String()

	m.mu.Lock()
	m.objects[ref] = buf.Bytes()
	m.mu.Unlock()

	return StoredObject{Ref: ref, ContentHash: digest.Sum(), Size: digest.BytesRead()}, nil
}

func (m *MemoryStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.objects[ref]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrRefNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	delete(m.objects, ref)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored objects, used by tests to assert
// best-effort cleanup actually happened.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
