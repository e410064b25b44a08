// Package gate is the admission engine: it decides, for each candidate
// setup, whether it may be acted on, under which operating phase, and at
// what size. Checks run in a fixed order so reason codes are
// deterministic, and every business rejection is a returned value rather
// than an error.
package gate

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/riskgate/blackout"
	"github.com/rustyeddy/riskgate/config"
	"github.com/rustyeddy/riskgate/ledger"
	"github.com/rustyeddy/riskgate/phase"
	"github.com/rustyeddy/riskgate/session"
)

// Gate orchestrates the session oracle, blackout calculator, risk
// ledger, position sizer, and phase controller into one admit/reject
// decision per candidate. Calls are expected to be serialized per
// account; the ledger and controller enforce their own critical
// sections underneath.
type Gate struct {
	cfg       *config.Config
	cal       *session.Calendar
	blackouts *blackout.Calculator
	ledger    *ledger.Ledger
	phases    *phase.Controller
}

// New assembles a Gate from already-validated collaborators.
func New(cfg *config.Config, cal *session.Calendar, bc *blackout.Calculator, led *ledger.Ledger, pc *phase.Controller) *Gate {
	return &Gate{cfg: cfg, cal: cal, blackouts: bc, ledger: led, phases: pc}
}

// Evaluate runs the full admission pipeline for one candidate at time
// now. Order matters and is observable through the reason codes:
//
//  1. static quality filters (a failed setup never reaches limit checks)
//  2. session window and news blackout
//  3. ledger rollover, then daily/weekly loss limits and trade caps
//  4. position sizing for the current phase
func (g *Gate) Evaluate(c SetupCandidate, now time.Time) Decision {
	current, _ := g.phases.Current()
	d := Decision{Phase: current}

	// Quality filters first: malformed or low-grade setups short-circuit
	// before any state is consulted.
	if reasons := Validate(c, g.cfg.Validation); len(reasons) > 0 {
		if reasons[0] == ReasonMalformedInput {
			log.Warn().
				Str("correlation_id", c.CorrelationID).
				Msg("malformed candidate from analysis collaborator")
		}
		return g.audit(c, d.reject(reasons...))
	}

	// Session and blackout gating on the evaluation clock, not the
	// candidate's own timestamp.
	if open, why := g.cal.IsOpen(now); !open {
		log.Debug().Str("why", why).Msg("session closed")
		d.reject(ReasonMarketClosed)
	}
	if blocked, w := g.blackouts.Blocked(now); blocked {
		log.Debug().Str("event", w.Title).Msg("news blackout active")
		d.reject(ReasonNewsBlackout)
	}
	if len(d.Reasons) > 0 {
		return g.audit(c, d)
	}

	// Rollover happens inside Summary, so a candidate arriving after a
	// boundary crossing sees fresh aggregates.
	sum := g.ledger.Summary(now)

	if sum.DailyPnLFrac <= -g.cfg.Limits.DailyLossFrac {
		d.reject(ReasonDailyLossLimit)
	}
	if sum.WeeklyPnLFrac <= -g.cfg.Limits.WeeklyLossFrac {
		d.reject(ReasonWeeklyLossLimit)
	}
	if sum.TradesToday >= g.cfg.Limits.MaxTradesPerDay {
		d.reject(ReasonDailyTradeCap)
	}
	if sum.TradesThisWeek >= g.cfg.Limits.MaxTradesPerWeek {
		d.reject(ReasonWeeklyTradeCap)
	}
	if len(d.Reasons) > 0 {
		return g.audit(c, d)
	}

	size, reason := ContractSize(current, g.cfg.Account.Equity, c.StopDistance, g.cfg.Sizing)
	if reason != "" {
		return g.audit(c, d.reject(reason))
	}

	// Observation and PaperTrading admit at size zero: the decision
	// flows onward for tracking, never for execution.
	d.Admitted = true
	d.Size = size
	return g.audit(c, d)
}

func (g *Gate) audit(c SetupCandidate, d Decision) Decision {
	ev := log.Info().
		Str("correlation_id", c.CorrelationID).
		Str("setup_type", c.SetupType).
		Str("phase", d.Phase.String()).
		Bool("admitted", d.Admitted).
		Int("size", d.Size)
	if len(d.Reasons) > 0 {
		codes := make([]string, len(d.Reasons))
		for i, r := range d.Reasons {
			codes[i] = string(r)
		}
		ev = ev.Strs("reasons", codes)
	}
	ev.Msg("gate decision")
	return d
}

// RecordOutcome feeds a realized trade result back into the risk ledger,
// rolling the ledger over first if now crossed a boundary.
func (g *Gate) RecordOutcome(o ledger.TradeOutcome, now time.Time) error {
	g.ledger.Rollover(now)
	return g.ledger.Record(o)
}

// Status reports current limit usage for the operator, mirroring what
// the gate would enforce on the next candidate.
type Status struct {
	Phase              string         `json:"phase"`
	PhaseEnteredAt     time.Time      `json:"phase_entered_at"`
	Ledger             ledger.Summary `json:"ledger"`
	DailyLimitUsedPct  float64        `json:"daily_limit_used_pct"`
	WeeklyLimitUsedPct float64        `json:"weekly_limit_used_pct"`
	CanTrade           bool           `json:"can_trade"`
}

// Status summarizes limit usage at time now.
func (g *Gate) Status(now time.Time) Status {
	current, enteredAt := g.phases.Current()
	sum := g.ledger.Summary(now)

	st := Status{
		Phase:          current.String(),
		PhaseEnteredAt: enteredAt,
		Ledger:         sum,
	}
	if sum.DailyPnLFrac < 0 {
		st.DailyLimitUsedPct = 100 * -sum.DailyPnLFrac / g.cfg.Limits.DailyLossFrac
	}
	if sum.WeeklyPnLFrac < 0 {
		st.WeeklyLimitUsedPct = 100 * -sum.WeeklyPnLFrac / g.cfg.Limits.WeeklyLossFrac
	}
	st.CanTrade = sum.DailyPnLFrac > -g.cfg.Limits.DailyLossFrac &&
		sum.WeeklyPnLFrac > -g.cfg.Limits.WeeklyLossFrac &&
		sum.TradesToday < g.cfg.Limits.MaxTradesPerDay &&
		sum.TradesThisWeek < g.cfg.Limits.MaxTradesPerWeek
	return st
}
