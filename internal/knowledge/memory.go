package knowledge

import (
	"context"
	"sync"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []types.KnowledgeBaseEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append records the entry in memory.
func (s *MemoryStore) Append(_ context.Context, entry types.KnowledgeBaseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// QueryBySignature returns all entries for a signature, oldest first.
func (s *MemoryStore) QueryBySignature(_ context.Context, signature string) ([]types.KnowledgeBaseEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.KnowledgeBaseEntry
	for _, entry := range s.entries {
		if entry.IssueSignature == signature {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
