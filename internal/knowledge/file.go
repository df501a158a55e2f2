package knowledge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// FileStore is the default knowledge base: one JSON document per line in an
// append-only file, loaded fully into memory at open and flushed after each
// new entry.
type FileStore struct {
	path string

	mu          sync.RWMutex
	file        *os.File
	entries     []types.KnowledgeBaseEntry
	bySignature map[string][]int // signature -> indexes into entries
}

// OpenFileStore opens (creating if needed) the store at path and loads every
// existing entry. Unparsable lines are skipped with a warning rather than
// poisoning the whole store.
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create knowledge base directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base %s: %w", path, err)
	}

	store := &FileStore{
		path:        path,
		file:        file,
		bySignature: make(map[string][]int),
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry types.KnowledgeBaseEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			fmt.Printf("[KNOWLEDGE] Warning: skipping malformed entry at %s:%d: %v\n", path, lineNo, err)
			continue
		}
		store.add(entry)
	}
	if err := scanner.Err(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}

	return store, nil
}

// add indexes an entry in memory. Caller holds the lock (or is still
// single-threaded during load).
func (s *FileStore) add(entry types.KnowledgeBaseEntry) {
	s.entries = append(s.entries, entry)
	s.bySignature[entry.IssueSignature] = append(s.bySignature[entry.IssueSignature], len(s.entries)-1)
}

// Append writes the entry to the file and indexes it. The file is opened in
// append mode, so concurrent appends through this process serialize here.
func (s *FileStore) Append(ctx context.Context, entry types.KnowledgeBaseEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge entry: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("failed to append knowledge entry: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to flush knowledge base: %w", err)
	}

	s.add(entry)
	return nil
}

// QueryBySignature returns all entries for a signature, oldest first.
func (s *FileStore) QueryBySignature(ctx context.Context, signature string) ([]types.KnowledgeBaseEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	indexes := s.bySignature[signature]
	out := make([]types.KnowledgeBaseEntry, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Len returns the number of loaded entries.
func (s *FileStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close closes the underlying file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
