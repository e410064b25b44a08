package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/riskgate/blackout"
	"github.com/rustyeddy/riskgate/config"
	"github.com/rustyeddy/riskgate/gate"
	"github.com/rustyeddy/riskgate/ledger"
	"github.com/rustyeddy/riskgate/phase"
	"github.com/rustyeddy/riskgate/session"
)

// engine bundles the assembled collaborators for one CLI invocation.
type engine struct {
	cfg    *config.Config
	gate   *gate.Gate
	ledger *ledger.Ledger
	phases *phase.Controller
}

// buildEngine loads configuration and wires the full gate. The returned
// cleanup closes the ledger.
func buildEngine(now time.Time) (*engine, func(), error) {
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	cal, err := session.NewCalendar(cfg.Session)
	if err != nil {
		return nil, nil, err
	}

	pre, post, err := cfg.Blackout.Buffers()
	if err != nil {
		return nil, nil, err
	}
	events := make([]blackout.Event, 0, len(cfg.Blackout.Events))
	for _, e := range cfg.Blackout.Events {
		t, err := time.Parse(time.RFC3339, e.Time)
		if err != nil {
			return nil, nil, fmt.Errorf("blackout event %q: %w", e.Title, err)
		}
		events = append(events, blackout.Event{Time: t, Title: e.Title, Impact: e.Impact})
	}
	bc := blackout.NewCalculator(events, pre, post)

	led, err := ledger.Open(cfg.Ledger.DBPath, cal, cfg.Milestones.MaxLookbackWeeks(), now)
	if err != nil {
		return nil, nil, err
	}

	pc, err := phase.NewController(led, cfg.Milestones, cfg.Auth, now)
	if err != nil {
		led.Close()
		return nil, nil, err
	}

	e := &engine{
		cfg:    cfg,
		gate:   gate.New(cfg, cal, bc, led, pc),
		ledger: led,
		phases: pc,
	}
	return e, func() { _ = led.Close() }, nil
}
