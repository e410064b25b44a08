package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration. Every limit and threshold
// the gate enforces lives here; malformed values are a startup error, not
// something the engine tolerates at evaluation time.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Session    SessionConfig    `json:"session" yaml:"session"`
	Blackout   BlackoutConfig   `json:"blackout" yaml:"blackout"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Limits     LimitsConfig     `json:"limits" yaml:"limits"`
	Sizing     SizingConfig     `json:"sizing" yaml:"sizing"`
	Milestones MilestonesConfig `json:"milestones" yaml:"milestones"`
	Ledger     LedgerConfig     `json:"ledger" yaml:"ledger"`
	Auth       AuthConfig       `json:"auth" yaml:"auth"`
}

// AccountConfig identifies the account and the equity figure used for
// live position sizing.
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Equity   float64 `json:"equity" yaml:"equity"`
}

// SessionConfig defines the trading window in the exchange timezone and
// the holiday calendar (dates formatted YYYY-MM-DD).
type SessionConfig struct {
	Timezone string   `json:"timezone" yaml:"timezone"`
	Open     string   `json:"open" yaml:"open"`   // "09:30"
	Close    string   `json:"close" yaml:"close"` // "16:00"
	Holidays []string `json:"holidays,omitempty" yaml:"holidays,omitempty"`
}

// Location resolves the session timezone.
func (s SessionConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// EventConfig is one scheduled economic calendar event.
type EventConfig struct {
	Time   string `json:"time" yaml:"time"` // RFC3339
	Title  string `json:"title" yaml:"title"`
	Impact string `json:"impact,omitempty" yaml:"impact,omitempty"` // high, medium, low
}

// BlackoutConfig holds the pre/post event buffers and the scheduled
// events to suppress trading around.
type BlackoutConfig struct {
	PreBuffer  string        `json:"pre_buffer" yaml:"pre_buffer"`   // e.g. "15m"
	PostBuffer string        `json:"post_buffer" yaml:"post_buffer"` // e.g. "30m"
	Events     []EventConfig `json:"events,omitempty" yaml:"events,omitempty"`
}

// Buffers parses the pre/post buffer durations.
func (b BlackoutConfig) Buffers() (pre, post time.Duration, err error) {
	if pre, err = time.ParseDuration(b.PreBuffer); err != nil {
		return 0, 0, fmt.Errorf("blackout.pre_buffer: %w", err)
	}
	if post, err = time.ParseDuration(b.PostBuffer); err != nil {
		return 0, 0, fmt.Errorf("blackout.post_buffer: %w", err)
	}
	return pre, post, nil
}

// ValidationConfig holds the static setup quality filters.
type ValidationConfig struct {
	MinConfidence      float64  `json:"min_confidence" yaml:"min_confidence"`
	MinRewardRisk      float64  `json:"min_reward_risk" yaml:"min_reward_risk"`
	ExcludedSetupTypes []string `json:"excluded_setup_types,omitempty" yaml:"excluded_setup_types,omitempty"`
}

// LimitsConfig holds the loss-limit circuit breakers (as fractions of
// equity) and the trade-count caps.
type LimitsConfig struct {
	DailyLossFrac    float64 `json:"daily_loss_frac" yaml:"daily_loss_frac"`   // 0.03
	WeeklyLossFrac   float64 `json:"weekly_loss_frac" yaml:"weekly_loss_frac"` // 0.06
	MaxTradesPerDay  int     `json:"max_trades_per_day" yaml:"max_trades_per_day"`
	MaxTradesPerWeek int     `json:"max_trades_per_week" yaml:"max_trades_per_week"`
}

// SizingConfig holds the per-phase position sizing rules.
type SizingConfig struct {
	RiskFraction        float64 `json:"risk_fraction" yaml:"risk_fraction"`                   // 0.01
	ContractRiskPerUnit float64 `json:"contract_risk_per_unit" yaml:"contract_risk_per_unit"` // $/point per contract
	MicroSize           int     `json:"micro_size" yaml:"micro_size"`                         // fixed MicroLive size
	MaxContracts        int     `json:"max_contracts" yaml:"max_contracts"`                   // hard cap, FullLive
}

// MilestoneConfig is the advancement criteria for leaving one phase.
type MilestoneConfig struct {
	MinSampleSize   int     `json:"min_sample_size" yaml:"min_sample_size"`
	MinWinRate      float64 `json:"min_win_rate" yaml:"min_win_rate"`             // 0.55
	MaxDrawdownFrac float64 `json:"max_drawdown_frac" yaml:"max_drawdown_frac"`   // 0.10
	MinAvgRMultiple float64 `json:"min_avg_r_multiple" yaml:"min_avg_r_multiple"` // 1.0
	MinElapsedDays  int     `json:"min_elapsed_days" yaml:"min_elapsed_days"`
	LookbackWeeks   int     `json:"lookback_weeks" yaml:"lookback_weeks"`
}

// MilestonesConfig maps each non-terminal phase to its exit criteria.
type MilestonesConfig struct {
	Observation  MilestoneConfig `json:"observation" yaml:"observation"`
	PaperTrading MilestoneConfig `json:"paper_trading" yaml:"paper_trading"`
	MicroLive    MilestoneConfig `json:"micro_live" yaml:"micro_live"`
}

// MaxLookbackWeeks returns the longest milestone lookback, which bounds
// the ledger's rolling outcome window.
func (m MilestonesConfig) MaxLookbackWeeks() int {
	max := m.Observation.LookbackWeeks
	if m.PaperTrading.LookbackWeeks > max {
		max = m.PaperTrading.LookbackWeeks
	}
	if m.MicroLive.LookbackWeeks > max {
		max = m.MicroLive.LookbackWeeks
	}
	return max
}

// LedgerConfig holds durable-state parameters.
type LedgerConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// AuthConfig holds the operator tokens gating phase transitions.
type AuthConfig struct {
	AdvanceToken   string `json:"advance_token" yaml:"advance_token"`
	DowngradeToken string `json:"downgrade_token" yaml:"downgrade_token"`
}

// LoadFromFile loads configuration from a file (YAML first, JSON fallback).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks every limit and threshold. Any failure here is fatal at
// startup: the engine refuses to run with malformed risk parameters.
func (c *Config) Validate() error {
	if c.Account.Equity <= 0 {
		return fmt.Errorf("account.equity must be positive")
	}

	if _, err := c.Session.Location(); err != nil {
		return fmt.Errorf("session.timezone: %w", err)
	}
	open, err := time.Parse("15:04", c.Session.Open)
	if err != nil {
		return fmt.Errorf("session.open must be HH:MM: %w", err)
	}
	closeT, err := time.Parse("15:04", c.Session.Close)
	if err != nil {
		return fmt.Errorf("session.close must be HH:MM: %w", err)
	}
	if !open.Before(closeT) {
		return fmt.Errorf("session.open %s must precede session.close %s", c.Session.Open, c.Session.Close)
	}
	for _, h := range c.Session.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("session.holidays entry %q must be YYYY-MM-DD", h)
		}
	}

	pre, post, err := c.Blackout.Buffers()
	if err != nil {
		return err
	}
	if pre < 0 || post < 0 {
		return fmt.Errorf("blackout buffers must be non-negative")
	}
	for _, e := range c.Blackout.Events {
		if _, err := time.Parse(time.RFC3339, e.Time); err != nil {
			return fmt.Errorf("blackout event %q time must be RFC3339: %w", e.Title, err)
		}
	}

	if c.Validation.MinConfidence < 0 || c.Validation.MinConfidence > 1 {
		return fmt.Errorf("validation.min_confidence must be between 0 and 1")
	}
	if c.Validation.MinRewardRisk < 0 {
		return fmt.Errorf("validation.min_reward_risk must be non-negative")
	}

	if c.Limits.DailyLossFrac <= 0 || c.Limits.DailyLossFrac >= 1 {
		return fmt.Errorf("limits.daily_loss_frac must be between 0 and 1")
	}
	if c.Limits.WeeklyLossFrac <= 0 || c.Limits.WeeklyLossFrac >= 1 {
		return fmt.Errorf("limits.weekly_loss_frac must be between 0 and 1")
	}
	if c.Limits.WeeklyLossFrac < c.Limits.DailyLossFrac {
		return fmt.Errorf("limits.weekly_loss_frac must not be below limits.daily_loss_frac")
	}
	if c.Limits.MaxTradesPerDay <= 0 || c.Limits.MaxTradesPerWeek <= 0 {
		return fmt.Errorf("trade-count caps must be positive")
	}

	if c.Sizing.RiskFraction <= 0 || c.Sizing.RiskFraction > 0.05 {
		return fmt.Errorf("sizing.risk_fraction must be between 0 and 0.05")
	}
	if c.Sizing.ContractRiskPerUnit <= 0 {
		return fmt.Errorf("sizing.contract_risk_per_unit must be positive")
	}
	if c.Sizing.MicroSize <= 0 {
		return fmt.Errorf("sizing.micro_size must be positive")
	}
	if c.Sizing.MaxContracts <= 0 {
		return fmt.Errorf("sizing.max_contracts must be positive")
	}

	for name, m := range map[string]MilestoneConfig{
		"observation":   c.Milestones.Observation,
		"paper_trading": c.Milestones.PaperTrading,
		"micro_live":    c.Milestones.MicroLive,
	} {
		if m.MinSampleSize <= 0 {
			return fmt.Errorf("milestones.%s.min_sample_size must be positive", name)
		}
		if m.MinWinRate < 0 || m.MinWinRate > 1 {
			return fmt.Errorf("milestones.%s.min_win_rate must be between 0 and 1", name)
		}
		if m.MaxDrawdownFrac <= 0 || m.MaxDrawdownFrac >= 1 {
			return fmt.Errorf("milestones.%s.max_drawdown_frac must be between 0 and 1", name)
		}
		if m.MinElapsedDays < 0 {
			return fmt.Errorf("milestones.%s.min_elapsed_days must be non-negative", name)
		}
		if m.LookbackWeeks <= 0 {
			return fmt.Errorf("milestones.%s.lookback_weeks must be positive", name)
		}
	}

	if c.Ledger.DBPath == "" {
		return fmt.Errorf("ledger.db_path is required")
	}
	if c.Auth.AdvanceToken == "" {
		return fmt.Errorf("auth.advance_token is required")
	}
	if c.Auth.DowngradeToken == "" {
		return fmt.Errorf("auth.downgrade_token is required")
	}
	if c.Auth.AdvanceToken == c.Auth.DowngradeToken {
		return fmt.Errorf("auth.advance_token and auth.downgrade_token must differ")
	}

	return nil
}

// Default returns a configuration with sensible defaults for a small
// NAS100 account trading the New York cash session.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "ACCT-001",
			Currency: "USD",
			Equity:   10000,
		},
		Session: SessionConfig{
			Timezone: "America/New_York",
			Open:     "09:30",
			Close:    "16:00",
			Holidays: []string{
				"2026-01-01", // New Year's Day
				"2026-01-19", // MLK Day
				"2026-02-16", // Presidents Day
				"2026-04-10", // Good Friday
				"2026-05-25", // Memorial Day
				"2026-06-19", // Juneteenth
				"2026-07-03", // Independence Day (observed)
				"2026-09-07", // Labor Day
				"2026-11-26", // Thanksgiving
				"2026-12-25", // Christmas
			},
		},
		Blackout: BlackoutConfig{
			PreBuffer:  "15m",
			PostBuffer: "30m",
		},
		Validation: ValidationConfig{
			MinConfidence: 0.65,
			MinRewardRisk: 1.5,
		},
		Limits: LimitsConfig{
			DailyLossFrac:    0.03,
			WeeklyLossFrac:   0.06,
			MaxTradesPerDay:  3,
			MaxTradesPerWeek: 12,
		},
		Sizing: SizingConfig{
			RiskFraction:        0.01,
			ContractRiskPerUnit: 2.0,
			MicroSize:           2,
			MaxContracts:        10,
		},
		Milestones: MilestonesConfig{
			Observation: MilestoneConfig{
				MinSampleSize:   20,
				MinWinRate:      0.50,
				MaxDrawdownFrac: 0.10,
				MinAvgRMultiple: 0.5,
				MinElapsedDays:  14,
				LookbackWeeks:   4,
			},
			PaperTrading: MilestoneConfig{
				MinSampleSize:   30,
				MinWinRate:      0.55,
				MaxDrawdownFrac: 0.08,
				MinAvgRMultiple: 0.8,
				MinElapsedDays:  28,
				LookbackWeeks:   8,
			},
			MicroLive: MilestoneConfig{
				MinSampleSize:   40,
				MinWinRate:      0.55,
				MaxDrawdownFrac: 0.06,
				MinAvgRMultiple: 1.0,
				MinElapsedDays:  56,
				LookbackWeeks:   12,
			},
		},
		Ledger: LedgerConfig{
			DBPath: "./riskgate.db",
		},
		Auth: AuthConfig{
			AdvanceToken:   "change-me-advance",
			DowngradeToken: "change-me-downgrade",
		},
	}
}
