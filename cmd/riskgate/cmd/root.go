package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "riskgate",
	Short: "Phase-gated risk and setup-validation engine",
	Long: `Riskgate decides, for each candidate trading signal, whether it may be
acted upon, under which operating phase, and at what size.

It enforces layered safety invariants over AI-produced setup candidates:
  - Static setup quality filters (confidence, reward:risk)
  - Trading-session and news-blackout gating
  - Daily/weekly loss limits and trade-count caps
  - Phase-appropriate position sizing (observation through full live)
  - Milestone-gated, operator-authorized phase advancement

All risk state is durably journaled so limits survive process restarts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "riskgate.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}
