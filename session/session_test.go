package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/riskgate/config"
)

func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()

	cal, err := NewCalendar(config.SessionConfig{
		Timezone: "America/New_York",
		Open:     "09:30",
		Close:    "16:00",
		Holidays: []string{"2026-07-03"},
	})
	require.NoError(t, err)
	return cal
}

func nyTime(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return ts
}

func TestIsOpen(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)

	tests := []struct {
		name string
		when string
		open bool
	}{
		{"mid session", "2026-03-03 10:00", true},
		{"at open", "2026-03-03 09:30", true},
		{"before open", "2026-03-03 09:29", false},
		{"at close", "2026-03-03 16:00", false},
		{"after close", "2026-03-03 16:01", false},
		{"saturday", "2026-03-07 10:00", false},
		{"sunday", "2026-03-08 10:00", false},
		{"holiday", "2026-07-03 10:00", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			open, reason := cal.IsOpen(nyTime(t, tt.when))
			assert.Equal(t, tt.open, open)
			if !tt.open {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestIsOpenConvertsTimezone(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)

	// 15:00 UTC on 2026-03-03 is 10:00 in New York (EST).
	utc := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	open, _ := cal.IsOpen(utc)
	assert.True(t, open)
}

func TestDayKey(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)

	// 02:00 UTC is still the previous session day in New York.
	utc := time.Date(2026, 3, 4, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-03", cal.DayKey(utc))
	assert.Equal(t, "2026-03-03", cal.DayKey(nyTime(t, "2026-03-03 21:00")))
}

func TestWeekKey(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)

	// Friday and the following Monday fall in different ISO weeks.
	assert.Equal(t, "2026-W10", cal.WeekKey(nyTime(t, "2026-03-06 10:00")))
	assert.Equal(t, "2026-W11", cal.WeekKey(nyTime(t, "2026-03-09 10:00")))
}

func TestNewCalendarRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := NewCalendar(config.SessionConfig{Timezone: "Nowhere/Town", Open: "09:30", Close: "16:00"})
	assert.Error(t, err)

	_, err = NewCalendar(config.SessionConfig{Timezone: "UTC", Open: "16:00", Close: "09:30"})
	assert.Error(t, err)

	_, err = NewCalendar(config.SessionConfig{
		Timezone: "UTC", Open: "09:30", Close: "16:00", Holidays: []string{"03/07/2026"},
	})
	assert.Error(t, err)
}
