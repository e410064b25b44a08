package gate

import (
	"math"

	"github.com/rustyeddy/riskgate/config"
	"github.com/rustyeddy/riskgate/phase"
)

// ContractSize maps (phase, equity, stop distance) to a trade size in
// contracts. Deterministic and pure:
//
//   - Observation and PaperTrading always size zero; the gate still runs
//     for paper-tracking, but no capital is ever at risk.
//   - MicroLive uses the fixed configured size regardless of stop
//     distance (capped-risk exploratory sizing).
//   - FullLive risks equity*RiskFraction against the stop, floored to
//     whole contracts and clamped to the hard cap.
//
// The returned reason is empty on success, InvalidStop for an unusable
// stop distance, or ZeroSize when the formula floors to nothing.
func ContractSize(p phase.Phase, equity, stopDistance float64, cfg config.SizingConfig) (int, ReasonCode) {
	switch p {
	case phase.Observation, phase.PaperTrading:
		return 0, ""
	case phase.MicroLive:
		return cfg.MicroSize, ""
	}

	if stopDistance <= 0 || math.IsNaN(stopDistance) || math.IsInf(stopDistance, 0) {
		return 0, ReasonInvalidStop
	}

	riskAmount := equity * cfg.RiskFraction
	size := int(math.Floor(riskAmount / (stopDistance * cfg.ContractRiskPerUnit)))
	if size <= 0 {
		return 0, ReasonZeroSize
	}
	if size > cfg.MaxContracts {
		size = cfg.MaxContracts
	}
	return size, ""
}
