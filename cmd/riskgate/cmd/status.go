package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current risk state and limit usage",
	Long: `Print the phase, today's and this week's realized P&L, trade counts,
and how much of each loss limit is used. This mirrors exactly what the
gate would enforce on the next candidate.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()
	eng, cleanup, err := buildEngine(now)
	if err != nil {
		return err
	}
	defer cleanup()

	st := eng.gate.Status(now)

	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
