package ledger

// Schema for the durable risk ledger. The outcomes table is append-only:
// seq gives every persisted outcome a monotonically increasing position
// for deterministic replay, and the UNIQUE correlation id is the durable
// backstop for idempotence. Aggregates and period keys are never stored;
// both are recomputed from close times against the session calendar.
const Schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	correlation_id TEXT NOT NULL UNIQUE,
	pnl_frac REAL NOT NULL,
	r_multiple REAL NOT NULL,
	closed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcomes_closed_at ON outcomes(closed_at);

CREATE TABLE IF NOT EXISTS phase_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	phase TEXT NOT NULL,
	entered_at DATETIME NOT NULL
);
`
