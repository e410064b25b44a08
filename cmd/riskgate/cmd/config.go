package cmd

import (
	"fmt"

	"github.com/rustyeddy/riskgate/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage riskgate configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  riskgate config init --output riskgate.yaml
  riskgate config validate --file riskgate.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default limits and thresholds.

Example:
  riskgate config init --output riskgate.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check that a configuration file is valid. Malformed limits or
thresholds are fatal: the engine refuses to start with them.

Example:
  riskgate config validate --file riskgate.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "riskgate.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Created default configuration: %s\n", configInitOutput)
	fmt.Println("Edit the auth tokens before first use, then run:")
	fmt.Printf("  riskgate status --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Account: %s ($%.2f %s)\n", cfg.Account.ID, cfg.Account.Equity, cfg.Account.Currency)
	fmt.Printf("  Session: %s %s-%s\n", cfg.Session.Timezone, cfg.Session.Open, cfg.Session.Close)
	fmt.Printf("  Limits: daily %.1f%%, weekly %.1f%%, %d/%d trades\n",
		100*cfg.Limits.DailyLossFrac, 100*cfg.Limits.WeeklyLossFrac,
		cfg.Limits.MaxTradesPerDay, cfg.Limits.MaxTradesPerWeek)
	return nil
}
