package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathiasdan123/billalloc/internal/advisor"
	"github.com/mathiasdan123/billalloc/internal/catalog"
	"github.com/mathiasdan123/billalloc/internal/db"
	"github.com/mathiasdan123/billalloc/internal/exitcode"
	"github.com/mathiasdan123/billalloc/internal/logging"
	"github.com/mathiasdan123/billalloc/internal/rates"
	"github.com/mathiasdan123/billalloc/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Compute a billing recommendation for one session file",
	RunE:  runRecommend,
}

func init() {
	f := recommendCmd.Flags()
	f.StringVar(&cfg.SessionFile, "session", "", "YAML file with session facts, codes, and preferences (required)")
	f.StringVar(&cfg.RatesFile, "rates-file", "", "YAML rates file to use instead of a database")
	f.StringVar(&cfg.CatalogFile, "catalog-extensions", "", "YAML file extending the intervention equivalency catalog")
	_ = recommendCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateRecommend(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	if cfg.CatalogFile != "" {
		if err := catalog.LoadExtensions(cfg.CatalogFile); err != nil {
			log.Error().Err(err).Msg("catalog extensions failed to load")
			os.Exit(exitcode.ValidationError)
		}
	}

	in, err := recommend.LoadInput(cfg.SessionFile)
	if err != nil {
		log.Error().Err(err).Msg("session file invalid")
		os.Exit(exitcode.ValidationError)
	}

	var src rates.Source
	if cfg.RatesFile != "" {
		mem, err := rates.LoadMemoryFromFile(cfg.RatesFile)
		if err != nil {
			log.Error().Err(err).Msg("rates file invalid")
			os.Exit(exitcode.ValidationError)
		}
		src = mem
	} else {
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		src = rates.NewPG(pool)
	}

	var adv advisor.Advisor
	if cfg.AdvisorEnabled() {
		adv = advisor.NewHTTP(cfg.AdvisorURL, cfg.AdvisorAPIKey, cfg.AdvisorModel, cfg.AdvisorTimeout, log)
	}

	svc := recommend.NewService(src, adv, cfg.AdvisorTimeout, log)
	rec, err := svc.Recommend(ctx, *in)
	if err != nil {
		if errors.Is(err, recommend.ErrEmptyCatalog) {
			log.Error().Err(err).Msg("cannot allocate: empty code catalog")
			os.Exit(exitcode.ValidationError)
		}
		log.Error().Err(err).Msg("allocation failed")
		os.Exit(exitcode.AllocationError)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("encode recommendation")
		os.Exit(exitcode.AllocationError)
	}
	fmt.Println(string(out))
	return nil
}
