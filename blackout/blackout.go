// Package blackout suppresses trading around scheduled high-impact news
// events. Each event expands to the window [time-pre, time+post];
// overlapping windows are merged so a timestamp inside several events is
// blocked once, not counted per event.
package blackout

import (
	"sort"
	"strings"
	"time"
)

// Keywords that mark an economic calendar entry as high impact even when
// the feed does not classify it.
var highImpactKeywords = []string{
	"FOMC",
	"Federal Reserve",
	"Non-Farm Payrolls",
	"NFP",
	"CPI",
	"Inflation",
	"GDP",
	"Fed Chair",
	"Interest Rate",
	"Unemployment",
	"Retail Sales",
	"ISM Manufacturing",
	"ISM Services",
}

// Event is one scheduled economic calendar entry.
type Event struct {
	Time   time.Time
	Title  string
	Impact string // "high", "medium", "low" or empty
}

// HighImpact reports whether the event warrants a blackout, by the
// feed's own classification or by title keyword.
func (e Event) HighImpact() bool {
	switch strings.ToLower(e.Impact) {
	case "high":
		return true
	case "medium", "low":
		return false
	}
	title := strings.ToLower(e.Title)
	for _, kw := range highImpactKeywords {
		if strings.Contains(title, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Window is a half-open interval [Start, End) during which trading is
// suppressed.
type Window struct {
	Start time.Time
	End   time.Time
	Title string
}

// Calculator reports whether a timestamp falls inside any blackout
// window. Immutable once built.
type Calculator struct {
	windows []Window
}

// NewCalculator expands high-impact events by the pre/post buffers and
// merges overlapping windows into a union.
func NewCalculator(events []Event, pre, post time.Duration) *Calculator {
	raw := make([]Window, 0, len(events))
	for _, e := range events {
		if !e.HighImpact() {
			continue
		}
		raw = append(raw, Window{
			Start: e.Time.Add(-pre),
			End:   e.Time.Add(post),
			Title: e.Title,
		})
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].Start.Before(raw[j].Start) })

	var merged []Window
	for _, w := range raw {
		n := len(merged)
		if n > 0 && !w.Start.After(merged[n-1].End) {
			if w.End.After(merged[n-1].End) {
				merged[n-1].End = w.End
			}
			merged[n-1].Title = merged[n-1].Title + "; " + w.Title
			continue
		}
		merged = append(merged, w)
	}

	return &Calculator{windows: merged}
}

// Blocked reports whether t falls inside a blackout window, and which.
func (c *Calculator) Blocked(t time.Time) (bool, Window) {
	for _, w := range c.windows {
		if !t.Before(w.Start) && t.Before(w.End) {
			return true, w
		}
	}
	return false, Window{}
}

// Windows returns the merged blackout windows in chronological order.
func (c *Calculator) Windows() []Window {
	out := make([]Window, len(c.windows))
	copy(out, c.windows)
	return out
}
