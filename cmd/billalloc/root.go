package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathiasdan123/billalloc/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "billalloc",
	Short: "Reimbursement-aware billing-code allocation engine",
	Long:  "Selects procedure codes and billable units for documented therapy sessions, subject to payer rules, maximizing expected reimbursement without compromising clinical defensibility.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.AdvisorURL, "advisor-url", os.Getenv("ADVISOR_URL"), "Clinical-judgment advisor endpoint (or set ADVISOR_URL; empty disables)")
	pf.StringVar(&cfg.AdvisorAPIKey, "advisor-api-key", os.Getenv("ADVISOR_API_KEY"), "Advisor API key (or set ADVISOR_API_KEY)")
	pf.StringVar(&cfg.AdvisorModel, "advisor-model", "gpt-4o-mini", "Advisor model name")
	pf.DurationVar(&cfg.AdvisorTimeout, "advisor-timeout", 20*time.Second, "Advisor call timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
