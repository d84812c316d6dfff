package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ucdlib/apfeed/internal/feed"
	"github.com/ucdlib/apfeed/internal/invoice"
	"github.com/ucdlib/apfeed/internal/logging"
	"github.com/ucdlib/apfeed/internal/run"
	"github.com/ucdlib/apfeed/internal/transfer"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert pending invoice XML into a feed file",
	Long: `Export reads every invoice XML file waiting in the inbox, converts it
to fixed-width feed records, writes one batch feed file, uploads it to
the outbox, and archives the processed input. Exported invoice lines are
recorded in the invoice log so later confirmation runs can track them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, runID := logging.WithRun("export")

		p := &run.ExportPipeline{
			Codec: feed.MustCodec(),
			Profile: invoice.Profile{
				FeedName:     cfg.Feed.Name,
				ChartCode:    cfg.Feed.ChartCode,
				ObjectCode:   cfg.Feed.ObjectCode,
				ShipState:    cfg.Feed.ShipState,
				ShipZip:      cfg.Feed.ShipZip,
				PaymentGroup: cfg.Feed.PaymentGroup,
				Strict:       cfg.Feed.Strict,
			},
			FeedID:      cfg.Feed.ID,
			Fetcher:     transfer.NewDirFetcher(cfg.Paths.Inbox, "*.xml", time.Time{}, log),
			Uploader:    transfer.NewDirUploader(cfg.Paths.Outbox),
			FeedDir:     cfg.FeedDir(),
			ArchiveDir:  cfg.Paths.Archive,
			StatePath:   filepath.Join(cfg.Paths.State, "invoices.log"),
			CounterPath: filepath.Join(cfg.Paths.State, "sequence.json"),
			Log:         log,
		}

		summary, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		if summary.FeedFile == "" {
			fmt.Printf("run %s: nothing to export (%d inputs, %d skipped)\n",
				runID, len(summary.Inputs), summary.Skipped)
			return nil
		}
		fmt.Printf("run %s: %d records from %d inputs -> %s (%d skipped)\n",
			runID, summary.Records, len(summary.Inputs),
			filepath.Base(summary.FeedFile), summary.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
