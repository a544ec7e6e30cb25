package speechstore

import (
	"context"
	"sync"

	"github.com/kowalskibot/assistant/internal/domain/speech"
)

type storedClip struct {
	data        []byte
	contentType string
}

// MemoryStore keeps audio clips in memory. Useful for tests and local dev.
type MemoryStore struct {
	mu    sync.RWMutex
	clips map[string]storedClip
}

// NewMemoryStore constructs the store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clips: make(map[string]storedClip)}
}

// Get implements speech.BlobStore.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clip, ok := s.clips[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), clip.data...), true, nil
}

// Put implements speech.BlobStore.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips[key] = storedClip{
		data:        append([]byte(nil), data...),
		contentType: contentType,
	}
	return nil
}

var _ speech.BlobStore = (*MemoryStore)(nil)
