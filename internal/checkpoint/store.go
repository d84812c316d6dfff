// Package checkpoint persists the invoice log: every accounting line ever
// written to a feed file, keyed by its composite line identifier, together
// with a paid flag flipped once the finance system reports payment. The log
// is what lets a later confirmation run know which lines a payment belongs
// to and which lines were already reported.
//
// On disk the store is JSON lines: each line is one object mapping keys to
// entries. Historical files may hold one line per run; Load merges them all
// with last-write-wins, and Save always rewrites the file as a single
// snapshot line. The store is not safe for concurrent writers.
package checkpoint

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ucdlib/apfeed/internal/feed"
)

// Entry is the last-known state of one accounting line.
type Entry struct {
	Record feed.Record `json:"record"`
	Paid   bool        `json:"paid"`
}

// Store is the in-memory view of the invoice log for one run.
type Store struct {
	path    string
	entries map[string]Entry
	log     *slog.Logger
}

// Load reads the invoice log at path. A missing file yields an empty store.
// Duplicate keys across lines are resolved last-write-wins.
func Load(path string, log *slog.Logger) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[string]Entry),
		log:     log,
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var batch map[string]Entry
		if err := json.Unmarshal(line, &batch); err != nil {
			return nil, fmt.Errorf("checkpoint: %s line %d: %w", path, lineNo, err)
		}
		for k, v := range batch {
			s.entries[k] = v
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	return s, nil
}

// Len returns the number of distinct line entries.
func (s *Store) Len() int { return len(s.entries) }

// Get returns the entry for a composite line key.
func (s *Store) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Merge folds freshly extracted records into the store. A re-extracted key
// overwrites the stored record but carries the prior paid flag forward:
// payment is a downstream fact and re-exporting a line does not unpay it.
// Collisions are logged, never fatal.
func (s *Store) Merge(records []feed.Record) {
	for _, rec := range records {
		key := rec.Key()
		entry := Entry{Record: rec}
		if prior, ok := s.entries[key]; ok {
			entry.Paid = prior.Paid
			if s.log != nil {
				s.log.Warn("duplicate checkpoint key, overwriting", "key", key, "paid", prior.Paid)
			}
		}
		s.entries[key] = entry
	}
}

// MarkPaid flips the paid flag for a key. Returns false if the key is not
// in the store.
func (s *Store) MarkPaid(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.Paid = true
	s.entries[key] = e
	return true
}

// Keys returns all composite keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnpaidByInvoice groups the composite keys of unpaid entries by trimmed
// invoice number. Used by the confirmation run to find the lines a finance
// payment settles.
func (s *Store) UnpaidByInvoice() map[string][]string {
	out := make(map[string][]string)
	for _, k := range s.Keys() {
		e := s.entries[k]
		if e.Paid {
			continue
		}
		inv := e.Record.InvoiceNumber()
		out[inv] = append(out[inv], k)
	}
	return out
}

// Save writes the full current mapping as a single snapshot, replacing the
// prior file contents. The write goes to a temp file in the same directory
// and is renamed into place so a failed save never leaves a torn log.
func (s *Store) Save() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".invoice-log-*")
	if err != nil {
		return fmt.Errorf("checkpoint: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}
