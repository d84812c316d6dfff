package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ucdlib/apfeed/internal/config"
	"github.com/ucdlib/apfeed/internal/logging"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "apfeed",
	Short: "Library invoice feed for the campus financial system",
	Long: `apfeed moves library acquisition invoices into the campus financial
system and reports payments back.

The export command converts invoice XML exported by the library system
into a fixed-width batch feed file. The confirm command matches earlier
exports against the financial system's disbursements and writes a
payment confirmation file for the library system.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version and inspect work directly on their arguments and need
		// no environment
		switch cmd.Name() {
		case "version", "inspect":
			return nil
		}

		// Load .env file if it exists (Overload overwrites existing env vars)
		if err := godotenv.Overload(); err == nil {
			slog.Info("loaded .env file (overwriting existing env vars)")
		}

		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c

		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		slog.Debug("configuration loaded", "config", cfg.String())
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
