package gate

import (
	"math"
	"time"
)

// Direction of a proposed trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// SetupCandidate is a proposed trading opportunity produced by the
// external analysis collaborator. The engine treats it as immutable and
// partially trusted: every numeric field is sanity-checked before any
// business rule runs.
type SetupCandidate struct {
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
	Direction     Direction `json:"direction"`
	Confidence    float64   `json:"confidence"`    // 0..1
	RewardRisk    float64   `json:"reward_risk"`   // e.g. 2.0
	StopDistance  float64   `json:"stop_distance"` // points
	SetupType     string    `json:"setup_type"`    // free-form tag
}

// Malformed reports whether the candidate fails basic sanity. Malformed
// candidates indicate an upstream collaborator defect: they are rejected
// with a distinguished reason instead of reaching any business check.
func (c SetupCandidate) Malformed() bool {
	if c.CorrelationID == "" || c.Timestamp.IsZero() {
		return true
	}
	if c.Direction != Long && c.Direction != Short {
		return true
	}
	if math.IsNaN(c.Confidence) || c.Confidence < 0 || c.Confidence > 1 {
		return true
	}
	if math.IsNaN(c.RewardRisk) || math.IsInf(c.RewardRisk, 0) || c.RewardRisk < 0 {
		return true
	}
	if math.IsNaN(c.StopDistance) || math.IsInf(c.StopDistance, 0) || c.StopDistance < 0 {
		return true
	}
	return false
}
