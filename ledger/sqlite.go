package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// store is the thin SQLite layer under the Ledger. All writes go through
// here synchronously; the Ledger never mutates in-memory state until the
// corresponding write has returned.
type store struct {
	db *sql.DB
}

func openStore(path string) (*store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	return &store{db: db}, nil
}

func (s *store) insertOutcome(o TradeOutcome) error {
	_, err := s.db.Exec(`
		INSERT INTO outcomes
		(correlation_id, pnl_frac, r_multiple, closed_at)
		VALUES (?, ?, ?, ?)`,
		o.CorrelationID, o.PnLFrac, o.RMultiple, o.ClosedAt.UTC(),
	)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateOutcome
		}
		return fmt.Errorf("persist outcome %s: %w", o.CorrelationID, err)
	}
	return nil
}

// loadOutcomesSince returns outcomes with closed_at >= cutoff, ordered by
// persisted sequence so replay is deterministic.
func (s *store) loadOutcomesSince(cutoff time.Time) ([]TradeOutcome, error) {
	rows, err := s.db.Query(`
		SELECT correlation_id, pnl_frac, r_multiple, closed_at
		FROM outcomes
		WHERE closed_at >= ?
		ORDER BY seq ASC`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}
	defer rows.Close()

	var out []TradeOutcome
	for rows.Next() {
		var o TradeOutcome
		if err := rows.Scan(&o.CorrelationID, &o.PnLFrac, &o.RMultiple, &o.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}
	return out, nil
}

func (s *store) savePhaseState(phase string, enteredAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO phase_state (id, phase, entered_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET phase=excluded.phase, entered_at=excluded.entered_at`,
		phase, enteredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("persist phase state: %w", err)
	}
	return nil
}

func (s *store) loadPhaseState() (phase string, enteredAt time.Time, ok bool, err error) {
	row := s.db.QueryRow(`SELECT phase, entered_at FROM phase_state WHERE id = 1`)
	err = row.Scan(&phase, &enteredAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("load phase state: %w", err)
	}
	return phase, enteredAt, true, nil
}

func (s *store) close() error {
	return s.db.Close()
}
