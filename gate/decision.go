package gate

import "github.com/rustyeddy/riskgate/phase"

// ReasonCode identifies one check that fired during evaluation. Codes
// are accumulated in check order, so a rejection carries every reason
// that applied at the stage where evaluation stopped.
type ReasonCode string

const (
	ReasonMalformedInput    ReasonCode = "MALFORMED_INPUT"
	ReasonLowConfidence     ReasonCode = "LOW_CONFIDENCE"
	ReasonLowRewardRisk     ReasonCode = "LOW_REWARD_RISK"
	ReasonExcludedSetupType ReasonCode = "EXCLUDED_SETUP_TYPE"
	ReasonMarketClosed      ReasonCode = "MARKET_CLOSED"
	ReasonNewsBlackout      ReasonCode = "NEWS_BLACKOUT"
	ReasonDailyLossLimit    ReasonCode = "DAILY_LOSS_LIMIT"
	ReasonWeeklyLossLimit   ReasonCode = "WEEKLY_LOSS_LIMIT"
	ReasonDailyTradeCap     ReasonCode = "DAILY_TRADE_CAP"
	ReasonWeeklyTradeCap    ReasonCode = "WEEKLY_TRADE_CAP"
	ReasonInvalidStop       ReasonCode = "INVALID_STOP"
	ReasonZeroSize          ReasonCode = "ZERO_SIZE"
)

// Decision is the admit/reject result for one candidate. Rejections are
// values, never errors: the engine always returns a decision for
// expected business conditions.
type Decision struct {
	Admitted bool         `json:"admitted"`
	Size     int          `json:"size"`
	Phase    phase.Phase  `json:"phase"`
	Reasons  []ReasonCode `json:"reasons,omitempty"`
}

func (d *Decision) reject(codes ...ReasonCode) Decision {
	d.Admitted = false
	d.Size = 0
	d.Reasons = append(d.Reasons, codes...)
	return *d
}
