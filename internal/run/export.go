// Package run wires the pipeline stages into the two top-level operations:
// exporting invoice XML to a feed file, and confirming payments back to the
// library system.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ucdlib/apfeed/internal/checkpoint"
	"github.com/ucdlib/apfeed/internal/feed"
	"github.com/ucdlib/apfeed/internal/invoice"
	"github.com/ucdlib/apfeed/internal/logging"
	"github.com/ucdlib/apfeed/internal/sequence"
	"github.com/ucdlib/apfeed/internal/transfer"
)

// ExportPipeline turns exported invoice XML into one feed file per run.
type ExportPipeline struct {
	Codec   *feed.Codec
	Profile invoice.Profile

	// FeedID is the two-character feed identifier in the batch file name.
	FeedID string

	Fetcher  transfer.Fetcher
	Uploader transfer.Uploader

	// FeedDir is where the finished feed file is staged before upload.
	FeedDir string

	// ArchiveDir receives processed input files.
	ArchiveDir string

	// StatePath is the invoice log; CounterPath the document sequence
	// counter.
	StatePath   string
	CounterPath string

	// Now stands in for time.Now in tests.
	Now func() time.Time

	Log *slog.Logger
}

// ExportSummary reports what one export run did.
type ExportSummary struct {
	RunID    string
	Inputs   []string
	Records  int
	Skipped  int
	FeedFile string // empty when nothing was exported
}

// Run processes every pending input file as one batch. Any input that fails
// to parse aborts the run before anything is written, so a bad export never
// produces a partial feed file.
func (p *ExportPipeline) Run(ctx context.Context) (*ExportSummary, error) {
	log := p.Log
	var runID string
	if log == nil {
		log, runID = logging.WithRun("export")
	}
	summary := &ExportSummary{RunID: runID}

	inputs, err := p.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	summary.Inputs = inputs
	if len(inputs) == 0 {
		log.Info("no input files, nothing to export")
		return summary, nil
	}

	docs := make([]*invoice.Document, 0, len(inputs))
	for _, path := range inputs {
		doc, err := invoice.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("run: parse %s: %w", filepath.Base(path), err)
		}
		docs = append(docs, doc)
	}

	counter, err := sequence.Load(p.CounterPath)
	if err != nil {
		return nil, err
	}

	// Collision with an earlier batch in the same second: advance the
	// timestamp until the file name is free, since the batch ID is the
	// only thing distinguishing two runs.
	now := p.now()
	feedPath := filepath.Join(p.FeedDir, feedFileName(p.FeedID, feed.BatchIDFor(now)))
	for i := 0; i < 60; i++ {
		if _, err := os.Stat(feedPath); os.IsNotExist(err) {
			break
		}
		now = now.Add(time.Second)
		feedPath = filepath.Join(p.FeedDir, feedFileName(p.FeedID, feed.BatchIDFor(now)))
	}

	extractor := invoice.NewExtractor(p.Profile, counter, now, log)
	var records []feed.Record
	for _, doc := range docs {
		recs, err := extractor.Extract(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	summary.Records = len(records)
	summary.Skipped = extractor.Skipped

	if len(records) == 0 {
		log.Info("no feed records produced", "inputs", len(inputs), "skipped", extractor.Skipped)
		return summary, p.archive(inputs, log)
	}

	if err := p.writeFeedFile(feedPath, extractor.BatchID(), records); err != nil {
		return nil, err
	}
	summary.FeedFile = feedPath

	state, err := checkpoint.Load(p.StatePath, log)
	if err != nil {
		return nil, err
	}
	state.Merge(records)
	if err := state.Save(); err != nil {
		return nil, err
	}

	if err := p.Uploader.Upload(ctx, feedPath); err != nil {
		return nil, err
	}
	if err := p.archive(inputs, log); err != nil {
		return nil, err
	}

	log.Info("export finished",
		"inputs", len(inputs),
		"records", len(records),
		"skipped", extractor.Skipped,
		"feed_file", filepath.Base(feedPath))
	return summary, nil
}

func (p *ExportPipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *ExportPipeline) archive(inputs []string, log *slog.Logger) error {
	for _, path := range inputs {
		if err := transfer.Archive(path, p.ArchiveDir); err != nil {
			return err
		}
		log.Debug("archived input", "file", filepath.Base(path))
	}
	return nil
}

// writeFeedFile lays the batch down atomically: header line, one line per
// record, trailer line with the record count.
func (p *ExportPipeline) writeFeedFile(path, batchID string, records []feed.Record) error {
	var b strings.Builder
	b.WriteString(feed.HeaderLine(p.FeedID, p.Profile.FeedName, batchID))
	b.WriteByte('\n')
	for _, rec := range records {
		line, err := p.Codec.Encode(rec)
		if err != nil {
			return fmt.Errorf("run: encode %s: %w", rec.Key(), err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(feed.TrailerLine(p.Profile.FeedName, len(records)))
	b.WriteByte('\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".feed-*")
	if err != nil {
		return fmt.Errorf("run: write feed file: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("run: write feed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("run: write feed file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("run: write feed file: %w", err)
	}
	return nil
}

// feedFileName names a batch file the way the financial system expects:
// apfeed.<feed id>.<batch timestamp>.
func feedFileName(feedID, batchID string) string {
	return "apfeed." + feedID + "." + batchID
}
