package ledger

import (
	"math"
	"time"
)

// TradeOutcome is the realized result of one admitted trade, reported
// exactly once by the execution collaborator. P&L is expressed as a
// fraction of account equity so limit checks need no equity figure.
type TradeOutcome struct {
	CorrelationID string    `json:"correlation_id"`
	PnLFrac       float64   `json:"pnl_frac"`
	RMultiple     float64   `json:"r_multiple"`
	ClosedAt      time.Time `json:"closed_at"`
}

// Malformed reports whether the outcome fails basic sanity: missing id,
// NaN/Inf numerics, or a zero close time. A malformed outcome indicates
// an upstream collaborator defect and is never recorded.
func (o TradeOutcome) Malformed() bool {
	if o.CorrelationID == "" || o.ClosedAt.IsZero() {
		return true
	}
	if math.IsNaN(o.PnLFrac) || math.IsInf(o.PnLFrac, 0) {
		return true
	}
	if math.IsNaN(o.RMultiple) || math.IsInf(o.RMultiple, 0) {
		return true
	}
	return false
}
