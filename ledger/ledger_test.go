package ledger

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/riskgate/config"
	"github.com/rustyeddy/riskgate/session"
)

func newTestCalendar(t *testing.T) *session.Calendar {
	t.Helper()
	cal, err := session.NewCalendar(config.SessionConfig{
		Timezone: "America/New_York",
		Open:     "09:30",
		Close:    "16:00",
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

func newTestLedger(t *testing.T, now time.Time) (*Ledger, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path, newTestCalendar(t), 12, now)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	return l, path
}

func outcome(id string, pnl float64, closedAt time.Time) TradeOutcome {
	return TradeOutcome{CorrelationID: id, PnLFrac: pnl, RMultiple: pnl * 100, ClosedAt: closedAt}
}

func TestRecordUpdatesAggregates(t *testing.T) {
	t.Parallel()

	now := nyTime(t, "2026-03-03 10:00")
	l, _ := newTestLedger(t, now)

	require.NoError(t, l.Record(outcome("T1", -0.012, now)))
	require.NoError(t, l.Record(outcome("T2", 0.020, now.Add(30*time.Minute))))

	sum := l.Summary(now.Add(time.Hour))
	assert.InDelta(t, 0.008, sum.DailyPnLFrac, 1e-9)
	assert.InDelta(t, 0.008, sum.WeeklyPnLFrac, 1e-9)
	assert.Equal(t, 2, sum.TradesToday)
	assert.Equal(t, 2, sum.TradesThisWeek)
}

func TestDuplicateOutcomeRejectedAndLedgerUnchanged(t *testing.T) {
	t.Parallel()

	now := nyTime(t, "2026-03-03 10:00")
	l, _ := newTestLedger(t, now)

	require.NoError(t, l.Record(outcome("T1", -0.012, now)))
	before := l.Summary(now)

	err := l.Record(outcome("T1", -0.050, now.Add(time.Minute)))
	assert.ErrorIs(t, err, ErrDuplicateOutcome)

	after := l.Summary(now)
	assert.Equal(t, before, after)
}

func TestDailyAggregateIsOrderIndependent(t *testing.T) {
	t.Parallel()

	now := nyTime(t, "2026-03-03 10:00")
	pnls := []float64{-0.012, 0.020, -0.005, 0.011}

	la, _ := newTestLedger(t, now)
	lb, _ := newTestLedger(t, now)

	for i, p := range pnls {
		require.NoError(t, la.Record(outcome(string(rune('A'+i)), p, now.Add(time.Duration(i)*time.Minute))))
	}
	for i := len(pnls) - 1; i >= 0; i-- {
		require.NoError(t, lb.Record(outcome(string(rune('A'+i)), pnls[i], now.Add(time.Duration(i)*time.Minute))))
	}

	assert.InDelta(t, la.Summary(now).DailyPnLFrac, lb.Summary(now).DailyPnLFrac, 1e-12)
}

func TestMalformedOutcomeRejected(t *testing.T) {
	t.Parallel()

	now := nyTime(t, "2026-03-03 10:00")
	l, _ := newTestLedger(t, now)

	tests := []struct {
		name string
		o    TradeOutcome
	}{
		{"missing id", TradeOutcome{PnLFrac: 0.01, ClosedAt: now}},
		{"nan pnl", TradeOutcome{CorrelationID: "X", PnLFrac: math.NaN(), ClosedAt: now}},
		{"inf r", TradeOutcome{CorrelationID: "X", RMultiple: math.Inf(1), ClosedAt: now}},
		{"zero time", TradeOutcome{CorrelationID: "X", PnLFrac: 0.01}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, l.Record(tt.o), ErrMalformedOutcome)
		})
	}

	assert.Equal(t, 0, l.Summary(now).TradesToday)
}

func TestDailyRolloverResetsAggregates(t *testing.T) {
	t.Parallel()

	tuesday := nyTime(t, "2026-03-03 10:00")
	wednesday := nyTime(t, "2026-03-04 10:00")
	l, _ := newTestLedger(t, tuesday)

	require.NoError(t, l.Record(outcome("T1", -0.02, tuesday)))

	sum := l.Summary(wednesday)
	assert.Zero(t, sum.DailyPnLFrac)
	assert.Zero(t, sum.TradesToday)
	// Same ISO week: weekly aggregate carries over.
	assert.InDelta(t, -0.02, sum.WeeklyPnLFrac, 1e-9)
	assert.Equal(t, 1, sum.TradesThisWeek)
}

func TestWeeklyRolloverResetsAggregates(t *testing.T) {
	t.Parallel()

	friday := nyTime(t, "2026-03-06 10:00")
	monday := nyTime(t, "2026-03-09 10:00")
	l, _ := newTestLedger(t, friday)

	require.NoError(t, l.Record(outcome("T1", -0.02, friday)))

	sum := l.Summary(monday)
	assert.Zero(t, sum.WeeklyPnLFrac)
	assert.Zero(t, sum.TradesThisWeek)
}

func TestRolloverCountsEarlyRecordedOutcomes(t *testing.T) {
	t.Parallel()

	tuesday := nyTime(t, "2026-03-03 10:00")
	wednesday := nyTime(t, "2026-03-04 10:00")
	l, _ := newTestLedger(t, tuesday)

	// The execution collaborator reports a close time in the next session
	// day before the ledger has seen that day.
	require.NoError(t, l.Record(outcome("T1", -0.02, wednesday.Add(-15*time.Minute))))

	sum := l.Summary(tuesday.Add(time.Hour))
	assert.Zero(t, sum.DailyPnLFrac)
	assert.Zero(t, sum.TradesToday)

	// After the boundary the outcome belongs to the new day's aggregate
	// without a restart replay.
	sum = l.Summary(wednesday)
	assert.InDelta(t, -0.02, sum.DailyPnLFrac, 1e-9)
	assert.Equal(t, 1, sum.TradesToday)
}

func TestWeeklyRolloverCountsEarlyRecordedOutcomes(t *testing.T) {
	t.Parallel()

	friday := nyTime(t, "2026-03-06 10:00")
	monday := nyTime(t, "2026-03-09 10:00")
	l, _ := newTestLedger(t, friday)

	require.NoError(t, l.Record(outcome("T1", -0.02, monday)))

	sum := l.Summary(friday.Add(time.Hour))
	assert.Zero(t, sum.WeeklyPnLFrac)
	assert.Zero(t, sum.TradesThisWeek)

	sum = l.Summary(monday.Add(time.Hour))
	assert.InDelta(t, -0.02, sum.WeeklyPnLFrac, 1e-9)
	assert.Equal(t, 1, sum.TradesThisWeek)
}

func TestReopenReplaysLogAndKeepsIdempotence(t *testing.T) {
	t.Parallel()

	now := nyTime(t, "2026-03-03 10:00")

	path := filepath.Join(t.TempDir(), "ledger.db")
	cal := newTestCalendar(t)

	l, err := Open(path, cal, 12, now)
	require.NoError(t, err)
	require.NoError(t, l.Record(outcome("T1", -0.012, now)))
	require.NoError(t, l.Record(outcome("T2", -0.012, now.Add(time.Minute))))
	require.NoError(t, l.Close())

	// Simulated restart: aggregates come back from the log alone.
	l2, err := Open(path, cal, 12, now.Add(time.Hour))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l2.Close() })

	sum := l2.Summary(now.Add(time.Hour))
	assert.InDelta(t, -0.024, sum.DailyPnLFrac, 1e-9)
	assert.Equal(t, 2, sum.TradesToday)

	// A replayed id is still a duplicate after restart.
	assert.ErrorIs(t, l2.Record(outcome("T1", -0.012, now.Add(2*time.Hour))), ErrDuplicateOutcome)
}

func TestWindowOrderedAndBounded(t *testing.T) {
	t.Parallel()

	now := nyTime(t, "2026-03-03 10:00")
	l, _ := newTestLedger(t, now)

	// Recorded out of order; Window returns close-time order.
	require.NoError(t, l.Record(outcome("T2", 0.01, now.Add(10*time.Minute))))
	require.NoError(t, l.Record(outcome("T1", -0.01, now)))

	w := l.Window(now.Add(time.Hour))
	require.Len(t, w, 2)
	assert.Equal(t, "T1", w[0].CorrelationID)
	assert.Equal(t, "T2", w[1].CorrelationID)

	// Far beyond the 12-week lookback the window has aged out.
	w = l.Window(now.Add(13 * 7 * 24 * time.Hour))
	assert.Empty(t, w)
}

func TestPhaseStateRoundTrip(t *testing.T) {
	t.Parallel()

	now := nyTime(t, "2026-03-03 10:00")
	l, _ := newTestLedger(t, now)

	_, _, ok, err := l.LoadPhaseState()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.SavePhaseState("paper_trading", now))

	name, enteredAt, ok, err := l.LoadPhaseState()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "paper_trading", name)
	assert.True(t, enteredAt.Equal(now))
}
