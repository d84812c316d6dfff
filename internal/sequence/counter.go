// Package sequence persists the document sequence counter that assigns
// ORG_DOC_NBR values. The counter is process-wide state loaded at run start;
// every allocation is written through to disk so an interrupted run can
// never hand out the same number twice. Concurrent runs are not supported,
// matching the rest of the batch pipeline.
package sequence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Counter allocates monotonically increasing document sequence numbers.
type Counter struct {
	path string
	last int64
}

type state struct {
	Last int64 `json:"org_doc_nbr"`
}

// Load opens the counter state file, creating a zero counter if the file
// does not exist yet.
func Load(path string) (*Counter, error) {
	c := &Counter{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sequence: read %s: %w", path, err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("sequence: parse %s: %w", path, err)
	}
	c.last = st.Last
	return c, nil
}

// Last returns the most recently allocated value, zero if none.
func (c *Counter) Last() int64 { return c.last }

// Next allocates the next sequence number and persists it before returning.
// The write-through means a crash after Next can skip a number but never
// reuse one.
func (c *Counter) Next() (int64, error) {
	next := c.last + 1
	if err := c.write(next); err != nil {
		return 0, err
	}
	c.last = next
	return next, nil
}

func (c *Counter) write(v int64) error {
	data, err := json.Marshal(state{Last: v})
	if err != nil {
		return fmt.Errorf("sequence: marshal: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sequence: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".sequence-*")
	if err != nil {
		return fmt.Errorf("sequence: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("sequence: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sequence: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("sequence: rename: %w", err)
	}
	return nil
}
