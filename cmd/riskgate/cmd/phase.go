package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/riskgate/phase"
	"github.com/spf13/cobra"
)

var phaseCmd = &cobra.Command{
	Use:   "phase",
	Short: "Inspect or change the operating phase",
	Long: `The operating phase controls position sizing:
  observation, paper_trading (size zero), micro_live (fixed small size),
  full_live (risk-based sizing).

Advancement is strictly forward, one step at a time, and requires both
full milestone eligibility and the operator advance token. Downgrading
is a separately authorized administrative override.`,
}

var phaseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current phase and advancement eligibility",
	RunE:  runPhaseStatus,
}

var phaseAdvanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Advance to the next phase (requires authorization)",
	RunE:  runPhaseAdvance,
}

var phaseDowngradeCmd = &cobra.Command{
	Use:   "downgrade",
	Short: "Force an earlier phase (separately authorized override)",
	RunE:  runPhaseDowngrade,
}

var (
	phaseToken   string
	downgradeTo  string
	downgradeWhy string
)

func init() {
	rootCmd.AddCommand(phaseCmd)
	phaseCmd.AddCommand(phaseStatusCmd)
	phaseCmd.AddCommand(phaseAdvanceCmd)
	phaseCmd.AddCommand(phaseDowngradeCmd)

	phaseAdvanceCmd.Flags().StringVar(&phaseToken, "token", "", "operator advance token (required)")
	phaseAdvanceCmd.MarkFlagRequired("token")

	phaseDowngradeCmd.Flags().StringVar(&phaseToken, "token", "", "operator downgrade token (required)")
	phaseDowngradeCmd.Flags().StringVar(&downgradeTo, "to", "", "target phase (required)")
	phaseDowngradeCmd.Flags().StringVar(&downgradeWhy, "reason", "", "reason for the downgrade (required)")
	phaseDowngradeCmd.MarkFlagRequired("token")
	phaseDowngradeCmd.MarkFlagRequired("to")
	phaseDowngradeCmd.MarkFlagRequired("reason")
}

func runPhaseStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()
	eng, cleanup, err := buildEngine(now)
	if err != nil {
		return err
	}
	defer cleanup()

	report := eng.phases.EvaluateAdvancement(now, eng.ledger.Window(now))

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runPhaseAdvance(cmd *cobra.Command, args []string) error {
	now := time.Now()
	eng, cleanup, err := buildEngine(now)
	if err != nil {
		return err
	}
	defer cleanup()

	next, err := eng.phases.Advance(phaseToken, now, eng.ledger.Window(now))
	if err != nil {
		return fmt.Errorf("advance failed: %w", err)
	}

	fmt.Printf("Advanced to %s\n", next)
	return nil
}

func runPhaseDowngrade(cmd *cobra.Command, args []string) error {
	now := time.Now()

	target, err := phase.Parse(downgradeTo)
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(now)
	if err != nil {
		return err
	}
	defer cleanup()

	current, err := eng.phases.Downgrade(phaseToken, target, downgradeWhy, now)
	if err != nil {
		return fmt.Errorf("downgrade failed: %w", err)
	}

	fmt.Printf("Downgraded to %s\n", current)
	return nil
}
