package blackout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 3, hour, min, 0, 0, time.UTC)
}

func TestBlockedAroundEvent(t *testing.T) {
	t.Parallel()

	// Event at 10:00 with 15m/15m buffers gives the window [09:45, 10:15).
	calc := NewCalculator(
		[]Event{{Time: at(10, 0), Title: "CPI", Impact: "high"}},
		15*time.Minute, 15*time.Minute,
	)

	blocked, w := calc.Blocked(at(9, 50))
	assert.True(t, blocked)
	assert.Equal(t, "CPI", w.Title)

	blocked, _ = calc.Blocked(at(9, 44))
	assert.False(t, blocked)

	blocked, _ = calc.Blocked(at(10, 15))
	assert.False(t, blocked)
}

func TestOverlappingWindowsMergeToUnion(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(
		[]Event{
			{Time: at(10, 0), Title: "CPI", Impact: "high"},
			{Time: at(10, 20), Title: "Fed Chair Speech", Impact: "high"},
		},
		15*time.Minute, 30*time.Minute,
	)

	windows := calc.Windows()
	assert.Len(t, windows, 1)
	assert.True(t, windows[0].Start.Equal(at(9, 45)))
	assert.True(t, windows[0].End.Equal(at(10, 50)))

	// Inside the overlap of both raw windows: blocked once, not per event.
	blocked, _ := calc.Blocked(at(10, 10))
	assert.True(t, blocked)
}

func TestDisjointWindowsStaySeparate(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(
		[]Event{
			{Time: at(9, 0), Title: "GDP", Impact: "high"},
			{Time: at(14, 0), Title: "FOMC", Impact: "high"},
		},
		15*time.Minute, 30*time.Minute,
	)

	assert.Len(t, calc.Windows(), 2)

	blocked, _ := calc.Blocked(at(11, 0))
	assert.False(t, blocked)
}

func TestLowImpactEventsIgnored(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(
		[]Event{{Time: at(10, 0), Title: "Housing Starts", Impact: "low"}},
		15*time.Minute, 30*time.Minute,
	)

	blocked, _ := calc.Blocked(at(10, 0))
	assert.False(t, blocked)
	assert.Empty(t, calc.Windows())
}

func TestHighImpactByKeyword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  bool
	}{
		{"Non-Farm Payrolls", true},
		{"FOMC Statement", true},
		{"CPI m/m", true},
		{"Building Permits", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			e := Event{Time: at(10, 0), Title: tt.title}
			assert.Equal(t, tt.want, e.HighImpact())
		})
	}
}
