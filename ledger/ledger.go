// Package ledger is the durable, append-only record of realized trade
// risk and the source of truth for limit enforcement. Every mutation is
// written through to SQLite before in-memory state changes, so a crash
// immediately after a reported outcome can neither lose it nor
// double-count it on replay: recovery re-derives all aggregates from the
// outcome log.
package ledger

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/riskgate/session"
)

var (
	// ErrDuplicateOutcome is returned when an outcome with a previously
	// seen correlation id is reported. The ledger is left unchanged.
	ErrDuplicateOutcome = errors.New("duplicate outcome: correlation id already recorded")

	// ErrMalformedOutcome is returned for outcomes failing basic sanity
	// checks. It signals an upstream collaborator defect.
	ErrMalformedOutcome = errors.New("malformed outcome")
)

// Summary is a point-in-time view of the ledger's aggregates. P&L values
// are fractions of account equity.
type Summary struct {
	DayKey         string  `json:"day_key"`
	WeekKey        string  `json:"week_key"`
	DailyPnLFrac   float64 `json:"daily_pnl_frac"`
	WeeklyPnLFrac  float64 `json:"weekly_pnl_frac"`
	TradesToday    int     `json:"trades_today"`
	TradesThisWeek int     `json:"trades_this_week"`
	WindowSize     int     `json:"window_size"`
}

// Ledger tracks realized risk per account. Single-writer discipline: all
// methods serialize on one mutex, matching the one-sequential-stream
// model of a single financial account.
type Ledger struct {
	mu       sync.Mutex
	store    *store
	cal      *session.Calendar
	lookback time.Duration

	dayKey     string
	weekKey    string
	dailyPnL   float64
	weeklyPnL  float64
	tradesDay  int
	tradesWeek int

	window []TradeOutcome
	seen   map[string]bool
}

// Open loads (or creates) the ledger at path and replays the persisted
// outcome log to rebuild aggregates as of now. lookbackWeeks bounds the
// rolling outcome window kept for milestone evaluation.
func Open(path string, cal *session.Calendar, lookbackWeeks int, now time.Time) (*Ledger, error) {
	st, err := openStore(path)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		store:    st,
		cal:      cal,
		lookback: time.Duration(lookbackWeeks) * 7 * 24 * time.Hour,
		dayKey:   cal.DayKey(now),
		weekKey:  cal.WeekKey(now),
		seen:     make(map[string]bool),
	}

	outcomes, err := st.loadOutcomesSince(now.Add(-l.lookback))
	if err != nil {
		st.close()
		return nil, err
	}

	for _, o := range outcomes {
		l.seen[o.CorrelationID] = true
		l.window = append(l.window, o)
		l.applyLocked(o)
	}

	log.Info().
		Str("day", l.dayKey).
		Str("week", l.weekKey).
		Int("replayed", len(outcomes)).
		Float64("daily_pnl_frac", l.dailyPnL).
		Msg("risk ledger opened")

	return l, nil
}

// Record durably appends one trade outcome and updates the aggregates.
// A second report for the same correlation id returns
// ErrDuplicateOutcome and leaves the ledger untouched. If the durable
// write fails, no in-memory state changes either.
func (l *Ledger) Record(o TradeOutcome) error {
	if o.Malformed() {
		log.Warn().Str("correlation_id", o.CorrelationID).Msg("rejected malformed outcome")
		return ErrMalformedOutcome
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen[o.CorrelationID] {
		log.Warn().Str("correlation_id", o.CorrelationID).Msg("rejected duplicate outcome")
		return ErrDuplicateOutcome
	}

	// Write-through first; memory mutates only on success.
	if err := l.store.insertOutcome(o); err != nil {
		return err
	}

	l.seen[o.CorrelationID] = true
	l.window = append(l.window, o)
	l.applyLocked(o)

	log.Info().
		Str("correlation_id", o.CorrelationID).
		Float64("pnl_frac", o.PnLFrac).
		Float64("r_multiple", o.RMultiple).
		Float64("daily_pnl_frac", l.dailyPnL).
		Float64("weekly_pnl_frac", l.weeklyPnL).
		Msg("outcome recorded")

	return nil
}

// applyLocked folds one outcome into the aggregates. Only outcomes whose
// close time falls in the current session day/week count toward the
// corresponding aggregate, so accumulation is order-independent.
func (l *Ledger) applyLocked(o TradeOutcome) {
	if l.cal.DayKey(o.ClosedAt) == l.dayKey {
		l.dailyPnL += o.PnLFrac
		l.tradesDay++
	}
	if l.cal.WeekKey(o.ClosedAt) == l.weekKey {
		l.weeklyPnL += o.PnLFrac
		l.tradesWeek++
	}
}

// Rollover advances the daily/weekly aggregates when now has crossed a
// session day or week boundary, and ages the rolling window past the
// lookback. Aggregates roll exactly at boundaries defined by the session
// calendar, never mid-session.
func (l *Ledger) Rollover(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked(now)
}

func (l *Ledger) rolloverLocked(now time.Time) {
	day, week := l.cal.DayKey(now), l.cal.WeekKey(now)
	crossed := day != l.dayKey || week != l.weekKey

	if day != l.dayKey {
		log.Info().Str("from", l.dayKey).Str("to", day).Msg("daily rollover")
		l.dayKey = day
	}
	if week != l.weekKey {
		log.Info().Str("from", l.weekKey).Str("to", week).Msg("weekly rollover")
		l.weekKey = week
	}

	cutoff := now.Add(-l.lookback)
	kept := l.window[:0]
	for _, o := range l.window {
		if !o.ClosedAt.Before(cutoff) {
			kept = append(kept, o)
		}
	}
	l.window = kept

	// Recompute from the retained window rather than zeroing, so an
	// outcome whose close time lands in the new period but was recorded
	// before the boundary crossing is counted from the first summary on.
	if crossed {
		l.dailyPnL, l.weeklyPnL = 0, 0
		l.tradesDay, l.tradesWeek = 0, 0
		for _, o := range l.window {
			l.applyLocked(o)
		}
	}
}

// Summary rolls over if needed and returns the current aggregates.
func (l *Ledger) Summary(now time.Time) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked(now)

	return Summary{
		DayKey:         l.dayKey,
		WeekKey:        l.weekKey,
		DailyPnLFrac:   l.dailyPnL,
		WeeklyPnLFrac:  l.weeklyPnL,
		TradesToday:    l.tradesDay,
		TradesThisWeek: l.tradesWeek,
		WindowSize:     len(l.window),
	}
}

// Window returns the rolling outcome window as of now, ordered by close
// time, for milestone evaluation.
func (l *Ledger) Window(now time.Time) []TradeOutcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked(now)

	out := make([]TradeOutcome, len(l.window))
	copy(out, l.window)
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.Before(out[j].ClosedAt) })
	return out
}

// SavePhaseState persists the current operating phase for the phase
// controller. Part of the same durable store so phase and risk state
// recover together.
func (l *Ledger) SavePhaseState(phase string, enteredAt time.Time) error {
	return l.store.savePhaseState(phase, enteredAt)
}

// LoadPhaseState returns the persisted operating phase, if any.
func (l *Ledger) LoadPhaseState() (string, time.Time, bool, error) {
	return l.store.loadPhaseState()
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	return l.store.close()
}
