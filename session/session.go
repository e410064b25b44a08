// Package session answers one question for the rest of the engine: is
// this timestamp inside the trading session, and which session day and
// week does it belong to.
//
// Boundary definition: a session day is the calendar date in the
// configured exchange timezone, keyed "2006-01-02". A session week is
// the ISO-8601 week of that same local date, keyed "2006-W02". The
// ledger's rollover correctness depends on these two keys and nothing
// else, so they live here and nowhere else.
package session

import (
	"fmt"
	"time"

	"github.com/rustyeddy/riskgate/config"
)

// Calendar is the clock/session oracle for one exchange.
type Calendar struct {
	loc      *time.Location
	open     int // minutes after midnight, exchange-local
	close    int
	holidays map[string]bool
}

// NewCalendar builds a Calendar from validated session configuration.
func NewCalendar(cfg config.SessionConfig) (*Calendar, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("session timezone: %w", err)
	}

	open, err := parseMinutes(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("session open: %w", err)
	}
	closeM, err := parseMinutes(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("session close: %w", err)
	}
	if open >= closeM {
		return nil, fmt.Errorf("session open %s must precede close %s", cfg.Open, cfg.Close)
	}

	holidays := make(map[string]bool, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h, err)
		}
		holidays[h] = true
	}

	return &Calendar{loc: loc, open: open, close: closeM, holidays: holidays}, nil
}

func parseMinutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// IsOpen reports whether t falls inside the trading session. The reason
// is empty when open, otherwise a short human-readable explanation.
func (c *Calendar) IsOpen(t time.Time) (bool, string) {
	local := t.In(c.loc)

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, "weekend (market closed)"
	}

	day := local.Format("2006-01-02")
	if c.holidays[day] {
		return false, fmt.Sprintf("market holiday (%s)", day)
	}

	mins := local.Hour()*60 + local.Minute()
	if mins < c.open {
		return false, "before session open"
	}
	if mins >= c.close {
		return false, "after session close"
	}

	return true, ""
}

// DayKey returns the session-day key for t (exchange-local calendar date).
func (c *Calendar) DayKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// WeekKey returns the session-week key for t (ISO week of the
// exchange-local date).
func (c *Calendar) WeekKey(t time.Time) string {
	year, week := t.In(c.loc).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Location returns the exchange timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}
