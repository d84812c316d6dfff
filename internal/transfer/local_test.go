package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDirFetcherPatternAndOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export-02.xml", "<b/>")
	writeFile(t, dir, "export-01.xml", "<a/>")
	writeFile(t, dir, "notes.txt", "ignore me")
	if err := os.Mkdir(filepath.Join(dir, "sub.xml"), 0o755); err != nil {
		t.Fatal(err)
	}

	f := NewDirFetcher(dir, "*.xml", time.Time{}, nil)
	got, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{
		filepath.Join(dir, "export-01.xml"),
		filepath.Join(dir, "export-02.xml"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDirFetcherSinceFilter(t *testing.T) {
	dir := t.TempDir()
	old := writeFile(t, dir, "old.xml", "<a/>")
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "new.xml", "<b/>")

	f := NewDirFetcher(dir, "*.xml", time.Now().Add(-time.Hour), nil)
	got, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "new.xml" {
		t.Fatalf("got %v, want only new.xml", got)
	}
}

func TestDirFetcherMissingDir(t *testing.T) {
	f := NewDirFetcher(filepath.Join(t.TempDir(), "missing"), "*.xml", time.Time{}, nil)
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing inbox")
	}
}

func TestDirUploaderCopies(t *testing.T) {
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := writeFile(t, srcDir, "apfeed.LG.20161208143000", "record data")

	u := NewDirUploader(dstDir)
	if err := u.Upload(context.Background(), src); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// Source stays in place, copy lands under the same name.
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source removed: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dstDir, "apfeed.LG.20161208143000"))
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if string(got) != "record data" {
		t.Errorf("uploaded body = %q", got)
	}
	// No leftover temp files.
	entries, err := os.ReadDir(dstDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("destination has %d entries, want 1", len(entries))
	}
}

func TestArchiveMoves(t *testing.T) {
	srcDir, archDir := t.TempDir(), t.TempDir()
	src := writeFile(t, srcDir, "export-01.xml", "<a/>")

	if err := Archive(src, archDir); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still present after archive")
	}
	if _, err := os.Stat(filepath.Join(archDir, "export-01.xml")); err != nil {
		t.Errorf("archived file missing: %v", err)
	}
}
