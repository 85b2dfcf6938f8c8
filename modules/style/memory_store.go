package style

import (
	"context"
	"sync"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
)

// MemoryStore - 인메모리 Store 구현 (테스트 및 로컬 개발용)
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]model.StyleLibraryEntry
}

// NewMemoryStore - MemoryStore 생성
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]model.StyleLibraryEntry),
	}
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Insert(ctx context.Context, entry *model.StyleLibraryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.StyleID] = *entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, styleID string) (*model.StyleLibraryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[styleID]
	if !ok {
		return nil, &errs.NotFoundError{Kind: "style", ID: styleID}
	}
	copied := entry
	return &copied, nil
}

func (s *MemoryStore) UpdateReference(ctx context.Context, styleID string, referencePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[styleID]
	if !ok {
		return &errs.NotFoundError{Kind: "style", ID: styleID}
	}
	entry.ReferenceImagePath = &referencePath
	s.entries[styleID] = entry
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, styleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[styleID]; !ok {
		return &errs.NotFoundError{Kind: "style", ID: styleID}
	}
	delete(s.entries, styleID)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]model.StyleLibraryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.StyleLibraryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	return out, nil
}
