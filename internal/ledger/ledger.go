// Package ledger tracks which documents have completed ingestion, making
// re-runs idempotent. The persisted form is a JSON array of document
// identifiers so existing uploaded_files.json files keep working.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Ledger is a durable set of ingested document identifiers. Safe for
// concurrent use.
type Ledger struct {
	mu       sync.Mutex
	path     string
	ingested map[string]struct{}
}

// Open loads the ledger at path, starting empty if the file does not exist.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path:     path,
		ingested: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, id := range ids {
		l.ingested[id] = struct{}{}
	}

	return l, nil
}

// IsIngested reports whether the document has already been fully ingested.
func (l *Ledger) IsIngested(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ingested[id]
	return ok
}

// MarkIngested records the document as ingested and persists the set.
// Marking an already-ingested document is a no-op.
func (l *Ledger) MarkIngested(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ingested[id]; ok {
		return nil
	}
	l.ingested[id] = struct{}{}

	if err := l.persist(); err != nil {
		// Roll back so a retry re-attempts the persist.
		delete(l.ingested, id)
		return err
	}
	return nil
}

// Len returns the number of ingested documents.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ingested)
}

// persist writes the whole set to a temp file and renames it into place so
// a crash mid-write never leaves a truncated ledger. Caller holds the lock.
func (l *Ledger) persist() error {
	ids := make([]string, 0, len(l.ingested))
	for id := range l.ingested {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close ledger temp file: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
