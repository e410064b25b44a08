package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rustyeddy/riskgate/gate"
	"github.com/rustyeddy/riskgate/pkg/id"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a setup candidate through the risk gate",
	Long: `Read a setup candidate (JSON) and run it through the full admission
pipeline: quality filters, session/blackout gating, loss limits, trade
caps, and phase-appropriate sizing. Prints the decision as JSON.

The candidate is read from --file, or stdin when --file is "-".

Example:
  riskgate evaluate --file candidate.json`,
	RunE: runEvaluate,
}

var (
	evaluateFile string
	evaluateAt   string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVarP(&evaluateFile, "file", "f", "-", "candidate JSON file (- for stdin)")
	evaluateCmd.Flags().StringVar(&evaluateAt, "at", "", "evaluation time, RFC3339 (default now)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	now := time.Now()
	if evaluateAt != "" {
		var err error
		now, err = time.Parse(time.RFC3339, evaluateAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	}

	var data []byte
	var err error
	if evaluateFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(evaluateFile)
	}
	if err != nil {
		return fmt.Errorf("read candidate: %w", err)
	}

	var c gate.SetupCandidate
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse candidate: %w", err)
	}
	if c.CorrelationID == "" {
		c.CorrelationID = id.New()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = now
	}

	eng, cleanup, err := buildEngine(now)
	if err != nil {
		return err
	}
	defer cleanup()

	decision := eng.gate.Evaluate(c, now)

	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
