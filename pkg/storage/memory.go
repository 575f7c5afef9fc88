package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps objects in process memory. Used for development and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseUrl string
}

func NewMemoryStorage(baseUrl string) *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject), baseUrl: baseUrl}
}

func (m *MemoryStorage) Upload(_ context.Context, path string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = memoryObject{data: bytes.Clone(data), contentType: contentType}
	return joinUrl(m.baseUrl, path), nil
}

func (m *MemoryStorage) Download(_ context.Context, path string) (io.ReadCloser, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (m *MemoryStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *MemoryStorage) PathOf(url string) (string, bool) {
	return trimBase(m.baseUrl, url)
}

// Has reports whether an object is stored at path.
func (m *MemoryStorage) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok
}
