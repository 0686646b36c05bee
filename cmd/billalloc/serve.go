package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathiasdan123/billalloc/internal/advisor"
	"github.com/mathiasdan123/billalloc/internal/catalog"
	"github.com/mathiasdan123/billalloc/internal/db"
	"github.com/mathiasdan123/billalloc/internal/exitcode"
	"github.com/mathiasdan123/billalloc/internal/httpapi"
	"github.com/mathiasdan123/billalloc/internal/logging"
	"github.com/mathiasdan123/billalloc/internal/rates"
	"github.com/mathiasdan123/billalloc/internal/recommend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the allocation engine over HTTP",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.ListenAddr, "listen", ":8080", "Listen address")
	f.StringVar(&cfg.CatalogFile, "catalog-extensions", "", "YAML file extending the intervention equivalency catalog")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	if cfg.CatalogFile != "" {
		if err := catalog.LoadExtensions(cfg.CatalogFile); err != nil {
			log.Error().Err(err).Msg("catalog extensions failed to load")
			os.Exit(exitcode.ValidationError)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	repo := rates.NewPG(pool)

	var adv advisor.Advisor
	if cfg.AdvisorEnabled() {
		adv = advisor.NewHTTP(cfg.AdvisorURL, cfg.AdvisorAPIKey, cfg.AdvisorModel, cfg.AdvisorTimeout, log)
		log.Info().Str("endpoint", cfg.AdvisorURL).Msg("advisor enabled")
	} else {
		log.Info().Msg("no advisor configured, running deterministic allocation only")
	}

	svc := recommend.NewService(repo, adv, cfg.AdvisorTimeout, log)
	srv := httpapi.New(svc, repo, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		errCh <- srv.Start(cfg.ListenAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		os.Exit(exitcode.AllocationError)
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown incomplete")
		}
	}
	return nil
}
