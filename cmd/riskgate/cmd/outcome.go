package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/riskgate/ledger"
	"github.com/spf13/cobra"
)

var outcomeCmd = &cobra.Command{
	Use:   "outcome",
	Short: "Record a realized trade outcome in the risk ledger",
	Long: `Record the realized result of one admitted trade. P&L is given as a
fraction of account equity (e.g. -0.012 for a 1.2% loss). Duplicate
correlation ids are rejected; the ledger is append-only and idempotent.

Example:
  riskgate outcome --id 01J8... --pnl-frac -0.012 --r-multiple -1.0`,
	RunE: runOutcome,
}

var (
	outcomeID       string
	outcomePnLFrac  float64
	outcomeRMult    float64
	outcomeClosedAt string
)

func init() {
	rootCmd.AddCommand(outcomeCmd)
	outcomeCmd.Flags().StringVar(&outcomeID, "id", "", "correlation id of the admitted candidate (required)")
	outcomeCmd.Flags().Float64Var(&outcomePnLFrac, "pnl-frac", 0, "realized P&L as a fraction of equity")
	outcomeCmd.Flags().Float64Var(&outcomeRMult, "r-multiple", 0, "realized R-multiple")
	outcomeCmd.Flags().StringVar(&outcomeClosedAt, "closed-at", "", "close time, RFC3339 (default now)")
	outcomeCmd.MarkFlagRequired("id")
}

func runOutcome(cmd *cobra.Command, args []string) error {
	now := time.Now()
	closedAt := now
	if outcomeClosedAt != "" {
		var err error
		closedAt, err = time.Parse(time.RFC3339, outcomeClosedAt)
		if err != nil {
			return fmt.Errorf("parse --closed-at: %w", err)
		}
	}

	eng, cleanup, err := buildEngine(now)
	if err != nil {
		return err
	}
	defer cleanup()

	o := ledger.TradeOutcome{
		CorrelationID: outcomeID,
		PnLFrac:       outcomePnLFrac,
		RMultiple:     outcomeRMult,
		ClosedAt:      closedAt,
	}

	err = eng.gate.RecordOutcome(o, now)
	switch {
	case errors.Is(err, ledger.ErrDuplicateOutcome):
		return fmt.Errorf("outcome %s already recorded (ledger unchanged)", outcomeID)
	case errors.Is(err, ledger.ErrMalformedOutcome):
		return fmt.Errorf("malformed outcome: %w", err)
	case err != nil:
		return err
	}

	sum := eng.ledger.Summary(now)
	fmt.Printf("Recorded outcome %s: daily %.2f%%, weekly %.2f%%, trades %d/%d today\n",
		outcomeID, 100*sum.DailyPnLFrac, 100*sum.WeeklyPnLFrac,
		sum.TradesToday, eng.cfg.Limits.MaxTradesPerDay)
	return nil
}
