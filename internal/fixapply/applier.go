// Package fixapply applies single-line fix candidates to source files under
// a strict trial state machine: backup, apply, verify, then commit or revert.
package fixapply

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

const (
	// fuzzyWindow is how many lines around the recorded line number are
	// searched when the exact line no longer matches.
	fuzzyWindow = 3
	// fuzzySimilarityMin is the minimum content similarity for a fuzzy match.
	fuzzySimilarityMin = 0.8
)

// Applier applies fix candidates with whole-file backups. Edits to the same
// file are serialized through per-file locks: the lock taken by Apply is held
// until the record is retired via Commit or Revert, so at most one record per
// file is ever in Applied or Verifying state.
type Applier struct {
	// SourceRoot is the root the candidate file paths are relative to.
	SourceRoot string
	// BackupDir receives whole-file backups for the duration of a trial.
	BackupDir string
	// KeepBackups retains backups of committed fixes instead of deleting them.
	KeepBackups bool
	Verbose     bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewApplier creates an applier writing backups under backupDir.
func NewApplier(sourceRoot, backupDir string) *Applier {
	return &Applier{
		SourceRoot: sourceRoot,
		BackupDir:  backupDir,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (a *Applier) lockFor(relPath string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locks == nil {
		a.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := a.locks[relPath]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[relPath] = lock
	}
	return lock
}

// Apply backs up the target file and writes the candidate's replacement line.
// A candidate whose recorded content no longer matches the file (exactly, or
// fuzzily within a small window) retires immediately as ApplyFailed without
// touching the file. An error is returned only for I/O failures; the file
// lock is released on every path that does not leave the record Applied.
func (a *Applier) Apply(candidate types.FixCandidate) (*types.FixApplicationRecord, error) {
	record := &types.FixApplicationRecord{Candidate: candidate}

	lock := a.lockFor(candidate.FilePath)
	lock.Lock()
	applied := false
	defer func() {
		if !applied {
			lock.Unlock()
		}
	}()

	absPath := filepath.Join(a.SourceRoot, candidate.FilePath)
	original, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &ApplyError{FilePath: candidate.FilePath, Message: "cannot read target", Cause: err}
	}

	lines := strings.Split(string(original), "\n")
	lineIdx, ok := matchLine(lines, candidate.LineNumber, candidate.CurrentContent)
	if !ok {
		record.Status = types.StatusApplyFailed
		record.FailReason = fmt.Sprintf("stale snapshot: line %d no longer matches recorded content", candidate.LineNumber)
		if a.Verbose {
			fmt.Printf("[APPLY] %s:%d stale, skipping\n", candidate.FilePath, candidate.LineNumber)
		}
		return record, nil
	}

	backupPath, err := a.backup(candidate.FilePath, original)
	if err != nil {
		return nil, err
	}
	record.BackupPath = backupPath

	lines[lineIdx] = candidate.SuggestedContent
	if err := writeFileAtomic(absPath, []byte(strings.Join(lines, "\n"))); err != nil {
		return nil, &ApplyError{FilePath: candidate.FilePath, Message: "cannot write fix", Cause: err}
	}

	record.Status = types.StatusApplied
	applied = true
	if a.Verbose {
		fmt.Printf("[APPLY] %s:%d applied (backup %s)\n", candidate.FilePath, lineIdx+1, backupPath)
	}
	return record, nil
}

// Revert restores the backed-up file content byte for byte and retires the
// record, releasing the file lock.
func (a *Applier) Revert(record *types.FixApplicationRecord) error {
	defer a.lockFor(record.Candidate.FilePath).Unlock()

	original, err := os.ReadFile(record.BackupPath)
	if err != nil {
		return &ApplyError{FilePath: record.Candidate.FilePath, Message: "cannot read backup", Cause: err}
	}

	absPath := filepath.Join(a.SourceRoot, record.Candidate.FilePath)
	if err := writeFileAtomic(absPath, original); err != nil {
		return &ApplyError{FilePath: record.Candidate.FilePath, Message: "cannot restore backup", Cause: err}
	}

	record.Status = types.StatusReverted
	if !a.KeepBackups {
		_ = os.Remove(record.BackupPath)
		record.BackupPath = ""
	}
	if a.Verbose {
		fmt.Printf("[APPLY] %s reverted\n", record.Candidate.FilePath)
	}
	return nil
}

// Commit retires a verified record, keeping the applied content and releasing
// the file lock.
func (a *Applier) Commit(record *types.FixApplicationRecord) error {
	defer a.lockFor(record.Candidate.FilePath).Unlock()

	record.Status = types.StatusCommitted
	if !a.KeepBackups && record.BackupPath != "" {
		_ = os.Remove(record.BackupPath)
		record.BackupPath = ""
	}
	if a.Verbose {
		fmt.Printf("[APPLY] %s committed\n", record.Candidate.FilePath)
	}
	return nil
}

// backup copies the original file content into the backup directory.
func (a *Applier) backup(relPath string, content []byte) (string, error) {
	if err := os.MkdirAll(a.BackupDir, 0o755); err != nil {
		return "", &ApplyError{FilePath: relPath, Message: "cannot create backup directory", Cause: err}
	}

	name := fmt.Sprintf("%s.%s.bak", strings.NewReplacer("/", "_", "\\", "_").Replace(relPath), uuid.NewString()[:8])
	backupPath := filepath.Join(a.BackupDir, name)
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", &ApplyError{FilePath: relPath, Message: "cannot write backup", Cause: err}
	}
	return backupPath, nil
}

// matchLine locates the line to replace: exact match at the recorded 1-based
// line number, else the most similar line within the fuzzy window.
func matchLine(lines []string, lineNumber int, content string) (int, bool) {
	idx := lineNumber - 1
	if idx >= 0 && idx < len(lines) && lines[idx] == content {
		return idx, true
	}

	bestIdx, bestScore := -1, 0.0
	for offset := -fuzzyWindow; offset <= fuzzyWindow; offset++ {
		i := idx + offset
		if i < 0 || i >= len(lines) {
			continue
		}
		score := similarity(strings.TrimSpace(lines[i]), strings.TrimSpace(content))
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestScore >= fuzzySimilarityMin {
		return bestIdx, true
	}
	return -1, false
}

// similarity is a normalized edit-distance ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(a, b))/float64(longest)
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// writeFileAtomic writes content via a temp file and rename so the target is
// never observed half-written.
func writeFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fix-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
