package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathiasdan123/billalloc/internal/db"
	"github.com/mathiasdan123/billalloc/internal/exitcode"
	"github.com/mathiasdan123/billalloc/internal/feeschedule"
	"github.com/mathiasdan123/billalloc/internal/logging"
	"github.com/mathiasdan123/billalloc/internal/normalize"
	"github.com/mathiasdan123/billalloc/internal/rates"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage payer reimbursement rates",
}

var ratesIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a payer fee-schedule Parquet file",
	RunE:  runRatesIngest,
}

var ratesShowCmd = &cobra.Command{
	Use:   "show <payer>",
	Short: "Show ranked rates on file for a payer",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatesShow,
}

func init() {
	f := ratesIngestCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to fee-schedule Parquet file (required)")
	f.BoolVar(&cfg.Force, "force", false, "Re-ingest even if file SHA already exists")
	_ = ratesIngestCmd.MarkFlagRequired("file")

	ratesCmd.AddCommand(ratesIngestCmd)
	ratesCmd.AddCommand(ratesShowCmd)
	rootCmd.AddCommand(ratesCmd)
}

func runRatesIngest(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateFile(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := feeschedule.Ingest(ctx, pool, log, cfg.FilePath, cfg.Force)
	if err != nil {
		if pe, ok := err.(*feeschedule.PipelineError); ok {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("ingest failed")
			if pe.Phase == "preflight" {
				os.Exit(exitcode.ValidationError)
			}
			os.Exit(exitcode.IngestError)
		}
		log.Error().Err(err).Msg("ingest failed")
		os.Exit(exitcode.IngestError)
	}

	if summary.AlreadyLoaded {
		fmt.Println("File already ingested, nothing to do (use --force to re-ingest)")
		return nil
	}
	fmt.Printf("Ingest complete: %d rows staged, %d rates upserted, %d rejected (%.1fs)\n",
		summary.RowsStaged, summary.RowsUpserted, summary.RowsRejected, summary.DurationTotal.Seconds())
	return nil
}

func runRatesShow(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	payer := normalize.Payer(args[0])
	repo := rates.NewPG(pool)
	ranked, err := repo.RankedRatesFor(ctx, payer)
	if err != nil {
		log.Error().Err(err).Msg("ranked rates failed")
		os.Exit(exitcode.DBConnError)
	}

	summary := rates.Summarize(payer, ranked)
	fmt.Println(rates.SummaryText(summary))
	for _, r := range ranked {
		fmt.Printf("  %-8s %s\n", r.Code, normalize.FormatCents(r.InNetworkCents))
	}
	return nil
}
