package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps binaries in process. It serves STORE_DRIVER=memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	opts    Options
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), opts: opts}
}

func (s *MemoryStore) Upload(ctx context.Context, path string, content []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[path] = slices.Clone(content)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) WebPath(path string) string {
	return publicURL(s.opts, path)
}

func (s *MemoryStore) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[path]
	return ok
}
