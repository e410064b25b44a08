// Package phase implements the four-stage operating lifecycle:
// Observation -> PaperTrading -> MicroLive -> FullLive. Advancement is
// strictly forward, one step at a time, and never automatic: eligibility
// is evaluated against the risk ledger's history, and the transition
// itself requires explicit operator authorization.
package phase

import "fmt"

// Phase is the current operating stage. Ordered; higher means more
// capital at risk.
type Phase int

const (
	Observation Phase = iota
	PaperTrading
	MicroLive
	FullLive
)

var phaseNames = map[Phase]string{
	Observation:  "observation",
	PaperTrading: "paper_trading",
	MicroLive:    "micro_live",
	FullLive:     "full_live",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText renders the phase name in JSON reports.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Parse converts a persisted phase name back to a Phase.
func Parse(s string) (Phase, error) {
	for p, name := range phaseNames {
		if name == s {
			return p, nil
		}
	}
	return Observation, fmt.Errorf("unknown phase %q", s)
}

// Live reports whether real capital is at risk in this phase.
func (p Phase) Live() bool {
	return p == MicroLive || p == FullLive
}

// Next returns the following phase, or false at the terminal phase.
func (p Phase) Next() (Phase, bool) {
	if p >= FullLive {
		return p, false
	}
	return p + 1, true
}
