package phase

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/riskgate/config"
	"github.com/rustyeddy/riskgate/ledger"
)

var (
	// ErrNotEligible is returned when advancement criteria are unmet.
	ErrNotEligible = errors.New("not eligible for advancement")

	// ErrUnauthorized is returned for a missing or wrong operator token.
	ErrUnauthorized = errors.New("unauthorized phase transition")

	// ErrTerminalPhase is returned when advancing from FullLive.
	ErrTerminalPhase = errors.New("already at terminal phase")

	// ErrInvalidDowngrade is returned when a downgrade target is not an
	// earlier phase.
	ErrInvalidDowngrade = errors.New("downgrade target must be an earlier phase")
)

// Store persists the current phase. The ledger's SQLite store implements
// it, so phase and risk state recover from the same file.
type Store interface {
	SavePhaseState(phase string, enteredAt time.Time) error
	LoadPhaseState() (string, time.Time, bool, error)
}

// WindowStats summarizes the ledger's rolling window for milestone
// evaluation.
type WindowStats struct {
	Sample          int     `json:"sample"`
	WinRate         float64 `json:"win_rate"`
	MaxDrawdownFrac float64 `json:"max_drawdown_frac"`
	AvgRMultiple    float64 `json:"avg_r_multiple"`
	ElapsedDays     int     `json:"elapsed_days"`
}

// Report is the auditable result of one advancement evaluation.
type Report struct {
	Phase    Phase       `json:"phase"`
	Eligible bool        `json:"eligible"`
	Unmet    []string    `json:"unmet,omitempty"`
	Stats    WindowStats `json:"stats"`
}

// Controller owns the operating phase for one account.
type Controller struct {
	mu             sync.Mutex
	store          Store
	criteria       config.MilestonesConfig
	advanceToken   string
	downgradeToken string

	current   Phase
	enteredAt time.Time
}

// NewController loads the persisted phase, or starts at Observation on
// first boot.
func NewController(store Store, criteria config.MilestonesConfig, auth config.AuthConfig, now time.Time) (*Controller, error) {
	c := &Controller{
		store:          store,
		criteria:       criteria,
		advanceToken:   auth.AdvanceToken,
		downgradeToken: auth.DowngradeToken,
	}

	name, enteredAt, ok, err := store.LoadPhaseState()
	if err != nil {
		return nil, err
	}
	if !ok {
		c.current = Observation
		c.enteredAt = now
		if err := store.SavePhaseState(c.current.String(), c.enteredAt); err != nil {
			return nil, err
		}
		log.Info().Str("phase", c.current.String()).Msg("phase state initialized")
		return c, nil
	}

	c.current, err = Parse(name)
	if err != nil {
		return nil, fmt.Errorf("persisted phase: %w", err)
	}
	c.enteredAt = enteredAt
	return c, nil
}

// Current returns the operating phase and when it was entered.
func (c *Controller) Current() (Phase, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.enteredAt
}

// EvaluateAdvancement checks the current phase's milestone criteria
// against the ledger window. It never changes state; it only reports
// which criteria are unmet.
func (c *Controller) EvaluateAdvancement(now time.Time, window []ledger.TradeOutcome) Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluateLocked(now, window)
}

func (c *Controller) evaluateLocked(now time.Time, window []ledger.TradeOutcome) Report {
	rep := Report{Phase: c.current}

	crit, ok := c.criteriaFor(c.current)
	if !ok {
		rep.Unmet = []string{"already at terminal phase"}
		return rep
	}

	cutoff := now.Add(-time.Duration(crit.LookbackWeeks) * 7 * 24 * time.Hour)
	rep.Stats = computeStats(window, cutoff, c.enteredAt, now)

	if rep.Stats.Sample < crit.MinSampleSize {
		rep.Unmet = append(rep.Unmet,
			fmt.Sprintf("sample size %d below minimum %d", rep.Stats.Sample, crit.MinSampleSize))
	}
	// Quality criteria are only meaningful once a sample exists, but they
	// are still reported so the operator sees the full picture.
	if rep.Stats.WinRate < crit.MinWinRate {
		rep.Unmet = append(rep.Unmet,
			fmt.Sprintf("win rate %.2f below minimum %.2f", rep.Stats.WinRate, crit.MinWinRate))
	}
	if rep.Stats.MaxDrawdownFrac > crit.MaxDrawdownFrac {
		rep.Unmet = append(rep.Unmet,
			fmt.Sprintf("max drawdown %.2f%% exceeds %.2f%%",
				100*rep.Stats.MaxDrawdownFrac, 100*crit.MaxDrawdownFrac))
	}
	if rep.Stats.AvgRMultiple < crit.MinAvgRMultiple {
		rep.Unmet = append(rep.Unmet,
			fmt.Sprintf("average R %.2f below minimum %.2f", rep.Stats.AvgRMultiple, crit.MinAvgRMultiple))
	}
	if rep.Stats.ElapsedDays < crit.MinElapsedDays {
		rep.Unmet = append(rep.Unmet,
			fmt.Sprintf("elapsed %d days below minimum %d", rep.Stats.ElapsedDays, crit.MinElapsedDays))
	}

	rep.Eligible = len(rep.Unmet) == 0
	return rep
}

func (c *Controller) criteriaFor(p Phase) (config.MilestoneConfig, bool) {
	switch p {
	case Observation:
		return c.criteria.Observation, true
	case PaperTrading:
		return c.criteria.PaperTrading, true
	case MicroLive:
		return c.criteria.MicroLive, true
	default:
		return config.MilestoneConfig{}, false
	}
}

func computeStats(window []ledger.TradeOutcome, cutoff, enteredAt, now time.Time) WindowStats {
	var stats WindowStats

	var wins int
	var sumR float64
	var cum, peak, maxDD float64
	for _, o := range window {
		if o.ClosedAt.Before(cutoff) {
			continue
		}
		stats.Sample++
		if o.PnLFrac > 0 {
			wins++
		}
		sumR += o.RMultiple

		cum += o.PnLFrac
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}

	if stats.Sample > 0 {
		stats.WinRate = float64(wins) / float64(stats.Sample)
		stats.AvgRMultiple = sumR / float64(stats.Sample)
	}
	stats.MaxDrawdownFrac = maxDD
	stats.ElapsedDays = int(now.Sub(enteredAt).Hours() / 24)
	return stats
}

// Advance moves to the next phase. It requires a valid operator token
// and full milestone eligibility; there is no skipping and no automatic
// path to this call.
func (c *Controller) Advance(token string, now time.Time, window []ledger.TradeOutcome) (Phase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if subtle.ConstantTimeCompare([]byte(token), []byte(c.advanceToken)) != 1 {
		log.Warn().Str("phase", c.current.String()).Msg("advance rejected: bad token")
		return c.current, ErrUnauthorized
	}

	next, ok := c.current.Next()
	if !ok {
		return c.current, ErrTerminalPhase
	}

	rep := c.evaluateLocked(now, window)
	if !rep.Eligible {
		log.Info().
			Str("phase", c.current.String()).
			Strs("unmet", rep.Unmet).
			Msg("advance rejected: criteria unmet")
		return c.current, fmt.Errorf("%w: %d criteria unmet", ErrNotEligible, len(rep.Unmet))
	}

	if err := c.store.SavePhaseState(next.String(), now); err != nil {
		return c.current, err
	}

	log.Info().
		Str("from", c.current.String()).
		Str("to", next.String()).
		Msg("phase advanced")

	c.current = next
	c.enteredAt = now
	return c.current, nil
}

// Downgrade is the administrative override for forcing an earlier phase,
// e.g. on sustained drawdown. It is separately authorized and bypasses
// milestone evaluation entirely.
func (c *Controller) Downgrade(token string, to Phase, reason string, now time.Time) (Phase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if subtle.ConstantTimeCompare([]byte(token), []byte(c.downgradeToken)) != 1 {
		log.Warn().Str("phase", c.current.String()).Msg("downgrade rejected: bad token")
		return c.current, ErrUnauthorized
	}

	if to >= c.current {
		return c.current, ErrInvalidDowngrade
	}

	if err := c.store.SavePhaseState(to.String(), now); err != nil {
		return c.current, err
	}

	log.Warn().
		Str("from", c.current.String()).
		Str("to", to.String()).
		Str("reason", reason).
		Msg("phase downgraded")

	c.current = to
	c.enteredAt = now
	return c.current, nil
}
