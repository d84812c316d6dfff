// Package transfer moves files between the pipeline's exchange directories:
// exported invoice XML arrives in an inbox, finished feed files go to an
// outbox watched by the financial system, and processed input is archived.
// The interfaces keep the pipelines independent of where those directories
// actually live.
package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Fetcher lists the input files a run should process.
type Fetcher interface {
	Fetch(ctx context.Context) ([]string, error)
}

// Uploader delivers a finished file to its destination.
type Uploader interface {
	Upload(ctx context.Context, path string) error
}

// DirFetcher reads input files from a local directory.
type DirFetcher struct {
	dir     string
	pattern string
	since   time.Time
	log     *slog.Logger
}

// NewDirFetcher watches dir for files matching the glob pattern, ignoring
// anything last modified at or before since. A zero since accepts
// everything.
func NewDirFetcher(dir, pattern string, since time.Time, log *slog.Logger) *DirFetcher {
	if log == nil {
		log = slog.Default()
	}
	return &DirFetcher{dir: dir, pattern: pattern, since: since, log: log}
}

// Fetch returns matching file paths sorted by name, so runs process input
// in a stable order.
func (f *DirFetcher) Fetch(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("transfer: read inbox %s: %w", f.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := filepath.Match(f.pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("transfer: bad pattern %q: %w", f.pattern, err)
		}
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("transfer: stat %s: %w", entry.Name(), err)
		}
		if !f.since.IsZero() && !info.ModTime().After(f.since) {
			f.log.Debug("skipping already-seen file", "file", entry.Name())
			continue
		}
		paths = append(paths, filepath.Join(f.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// DirUploader copies finished files into a local directory.
type DirUploader struct {
	dir string
}

func NewDirUploader(dir string) *DirUploader {
	return &DirUploader{dir: dir}
}

// Upload copies path into the destination directory under its own name.
// The copy lands under a temporary name first so a watcher never sees a
// partial file.
func (u *DirUploader) Upload(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("transfer: open %s: %w", path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(u.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("transfer: upload to %s: %w", u.dir, err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("transfer: upload %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("transfer: upload %s: %w", path, err)
	}
	dst := filepath.Join(u.dir, filepath.Base(path))
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("transfer: upload %s: %w", path, err)
	}
	return nil
}

// Archive moves a processed file into dir, keeping its name.
func Archive(path, dir string) error {
	dst := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("transfer: archive %s: %w", path, err)
	}
	return nil
}
