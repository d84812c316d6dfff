package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/ucdlib/apfeed/internal/finance"
	"github.com/ucdlib/apfeed/internal/ils"
	"github.com/ucdlib/apfeed/internal/logging"
	"github.com/ucdlib/apfeed/internal/run"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Report disbursed invoices back to the library system",
	Long: `Confirm lists the invoices the library system is still waiting to see
paid, looks up the matching disbursements in the financial reporting
database, and writes a payment confirmation XML file for every invoice
that has been paid. Confirmed lines are marked paid in the invoice log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.ILS.BaseURL == "" {
			return errors.New("ILS_BASE_URL must be set for confirmation runs")
		}
		if cfg.Finance.URL == "" {
			return errors.New("FINANCE_DATABASE_URL must be set for confirmation runs")
		}

		log, runID := logging.WithRun("confirm")
		ctx := cmd.Context()

		poolConfig, err := pgxpool.ParseConfig(cfg.Finance.URL)
		if err != nil {
			return fmt.Errorf("parse finance database URL: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.Finance.MaxConns)
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("connect to finance database: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping finance database: %w", err)
		}

		p := &run.ConfirmPipeline{
			Invoices: ils.NewClient(ils.Options{
				BaseURL:     cfg.ILS.BaseURL,
				APIKey:      cfg.ILS.APIKey,
				Query:       cfg.ILS.Query,
				PageSize:    cfg.ILS.PageSize,
				MaxParallel: cfg.ILS.MaxParallel,
				Timeout:     cfg.ILS.Timeout,
				Logger:      log,
			}),
			Payments:  finance.NewDBSource(pool),
			StatePath: filepath.Join(cfg.Paths.State, "invoices.log"),
			OutDir:    cfg.ConfirmationDir(),
			Log:       log,
		}

		summary, err := p.Run(ctx)
		if err != nil {
			return err
		}

		if summary.File == "" {
			fmt.Printf("run %s: no invoices to confirm (%d waiting, %d unpaid lines)\n",
				runID, summary.Waiting, summary.Unpaid)
			return nil
		}
		fmt.Printf("run %s: confirmed %d of %d waiting invoices -> %s\n",
			runID, summary.Confirmed, summary.Waiting, filepath.Base(summary.File))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(confirmCmd)
}
