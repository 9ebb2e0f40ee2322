package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryStore keeps objects in process memory. It backs the "memory"
// storage driver for local runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	bucket  string
	base    string
	objects map[string]memObject

	// FailRemove makes Remove return an error, for exercising soft-fail paths.
	FailRemove bool
}

type memObject struct {
	data        []byte
	contentType string
}

var _ BlobStore = (*MemoryStore)(nil)

func NewMemoryStore(baseURL, bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		base:    baseURL,
		objects: make(map[string]memObject),
	}
}

func (s *MemoryStore) Bucket() string { return s.bucket }

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("read object: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; ok {
		return fmt.Errorf("put %s: %w", key, ErrObjectExists)
	}
	s.objects[key] = memObject{data: buf.Bytes(), contentType: contentType}
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRemove {
		return fmt.Errorf("remove object %s: storage unavailable", key)
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.base, s.bucket, key)
}

func (s *MemoryStore) KeyFromURL(url string) (string, bool) {
	return keyFromURL(url, fmt.Sprintf("%s/%s/", s.base, s.bucket), s.bucket)
}

// Keys lists stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *MemoryStore) BucketExists(ctx context.Context) (bool, error) {
	return true, nil
}
