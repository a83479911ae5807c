// Package ledger implements the durable, append-only step and variable
// store that powers post-hoc "time-travel" history queries. It is
// backed by a pure-Go SQLite (modernc.org/sqlite) so the bridge stays a
// single static binary.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	ended_at TEXT,
	total_steps INTEGER NOT NULL DEFAULT 0,
	breakpoints_hit INTEGER NOT NULL DEFAULT 0,
	exceptions_thrown INTEGER NOT NULL DEFAULT 0,
	summary_md TEXT
);

CREATE TABLE IF NOT EXISTS steps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	step_number INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	file TEXT NOT NULL,
	line INTEGER NOT NULL,
	function TEXT,
	reason TEXT NOT NULL,
	UNIQUE(session_id, step_number)
);

CREATE TABLE IF NOT EXISTS variables (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	step_number INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	file TEXT NOT NULL,
	line INTEGER NOT NULL,
	name TEXT NOT NULL,
	value_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_variables_history
	ON variables(session_id, name, step_number DESC);
`

// Step is a single recorded execution stop.
type Step struct {
	SessionID  string
	StepNumber int
	Timestamp  time.Time
	File       string
	Line       int
	Function   string
	Reason     string
}

// VariableSnapshot is a single recorded variable observation.
type VariableSnapshot struct {
	SessionID  string
	StepNumber int
	Timestamp  time.Time
	File       string
	Line       int
	Name       string
	Value      interface{}
}

// Header mirrors the `sessions` row.
type Header struct {
	ID               string
	StartedAt        time.Time
	EndedAt          *time.Time
	TotalSteps       int
	BreakpointsHit   int
	ExceptionsThrown int
	SummaryMD        string
}

// Ledger is a single-writer, occasional-reader persistent store. A
// mutex serializes writes since the runtime is the sole writer and the
// goal is crash consistency, not write throughput.
type Ledger struct {
	db      *sql.DB
	dataDir string
	mu      sync.Mutex

	insertStep *sql.Stmt
	insertVar  *sql.Stmt
}

// Open creates (or reuses) the sqlite database at <dataDir>/sessions.db in
// WAL journal mode for crash-tolerant concurrent access, and prepares the
// hot-path statements once.
func Open(dataDir string) (*Ledger, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ledger: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sessions.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}

	insertStep, err := db.Prepare(`
		INSERT INTO steps (session_id, step_number, timestamp, file, line, function, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, step_number) DO UPDATE SET
			timestamp=excluded.timestamp, file=excluded.file, line=excluded.line,
			function=excluded.function, reason=excluded.reason
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: prepare insertStep: %w", err)
	}

	insertVar, err := db.Prepare(`
		INSERT INTO variables (session_id, step_number, timestamp, file, line, name, value_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: prepare insertVar: %w", err)
	}

	return &Ledger{db: db, dataDir: dataDir, insertStep: insertStep, insertVar: insertVar}, nil
}

// InitSession creates the session header row if absent.
func (l *Ledger) InitSession(sid string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO sessions (id, started_at, total_steps, breakpoints_hit, exceptions_thrown) VALUES (?, ?, 0, 0, 0)`,
		sid, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// RecordStep inserts (or replaces) a step and updates the session header
// counters: total_steps always increments, and exactly one of
// breakpoints_hit/exceptions_thrown increments depending on reason.
func (l *Ledger) RecordStep(sid string, step int, file string, line int, function, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Stmt(l.insertStep).Exec(sid, step, now, file, line, function, reason); err != nil {
		return fmt.Errorf("ledger: record step: %w", err)
	}

	counterCol := "breakpoints_hit"
	if reason == "exception" {
		counterCol = "exceptions_thrown"
	}
	q := fmt.Sprintf(`UPDATE sessions SET total_steps = total_steps + 1, %s = %s + 1 WHERE id = ?`, counterCol, counterCol)
	if _, err := tx.Exec(q, sid); err != nil {
		return fmt.Errorf("ledger: update counters: %w", err)
	}

	return tx.Commit()
}

// RecordVariable inserts a variable snapshot against the given step.
// SafeStringify never raises; on serialization failure it stores a
// diagnostic payload instead.
func (l *Ledger) RecordVariable(sid string, step int, file string, line int, name string, value interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	valueJSON := SafeStringify(value)
	_, err := l.insertVar.Exec(sid, step, now, file, line, name, valueJSON)
	return err
}

// HistoryEntry is one row returned by GetVariableHistory.
type HistoryEntry struct {
	StepNumber int
	Timestamp  time.Time
	File       string
	Line       int
	Value      interface{}
	Raw        string
}

// GetVariableHistory returns up to limit rows for (sid, name) with
// step_number <= fromStep, ordered by step_number descending. Malformed
// value_json falls back to the raw string rather than erroring.
func (l *Ledger) GetVariableHistory(sid, name string, fromStep, limit int) ([]HistoryEntry, error) {
	rows, err := l.db.Query(`
		SELECT step_number, timestamp, file, line, value_json
		FROM variables
		WHERE session_id = ? AND name = ? AND step_number <= ?
		ORDER BY step_number DESC
		LIMIT ?
	`, sid, name, fromStep, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts, raw string
		if err := rows.Scan(&e.StepNumber, &ts, &e.File, &e.Line, &raw); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		e.Raw = raw
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			e.Value = v
		} else {
			e.Value = raw
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetHeader returns the current session header row.
func (l *Ledger) GetHeader(sid string) (*Header, error) {
	row := l.db.QueryRow(`
		SELECT id, started_at, ended_at, total_steps, breakpoints_hit, exceptions_thrown, summary_md
		FROM sessions WHERE id = ?`, sid)

	var h Header
	var started string
	var ended, summary sql.NullString
	if err := row.Scan(&h.ID, &started, &ended, &h.TotalSteps, &h.BreakpointsHit, &h.ExceptionsThrown, &summary); err != nil {
		return nil, err
	}
	h.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if ended.Valid {
		t, _ := time.Parse(time.RFC3339Nano, ended.String)
		h.EndedAt = &t
	}
	h.SummaryMD = summary.String
	return &h, nil
}

// FinalizeSession sets ended_at, computes the Markdown summary and
// stores it both in the session row and on disk as
// session_<first-8-of-id>_summary.md. Calling FinalizeSession again keeps
// the first ended_at and only refreshes the summary. RecordStep and
// RecordVariable do not check ended_at, so they still write to a
// finalized session.
func (l *Ledger) FinalizeSession(sid string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := l.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, now, sid); err != nil {
		return "", err
	}

	summary, err := l.buildSummary(sid)
	if err != nil {
		return "", err
	}

	if _, err := l.db.Exec(`UPDATE sessions SET summary_md = ? WHERE id = ?`, summary, sid); err != nil {
		return "", err
	}

	prefix := sid
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	path := filepath.Join(l.dataDir, fmt.Sprintf("session_%s_summary.md", prefix))
	if err := os.WriteFile(path, []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("ledger: write summary: %w", err)
	}
	return path, nil
}

func (l *Ledger) buildSummary(sid string) (string, error) {
	header, err := l.GetHeader(sid)
	if err != nil {
		return "", err
	}

	rows, err := l.db.Query(`SELECT step_number, file, line, function, reason FROM steps WHERE session_id = ? ORDER BY step_number ASC`, sid)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var lines []string
	total := 0
	for rows.Next() {
		var step, line int
		var file, function, reason string
		if err := rows.Scan(&step, &file, &line, &function, &reason); err != nil {
			return "", err
		}
		total++
		if total <= 50 {
			fn := function
			if fn == "" {
				fn = "?"
			}
			lines = append(lines, fmt.Sprintf("#%d %s:%d (%s) [%s]", step, file, line, fn, reason))
		}
	}

	varRows, err := l.db.Query(`SELECT DISTINCT name FROM variables WHERE session_id = ? ORDER BY name ASC`, sid)
	if err != nil {
		return "", err
	}
	defer varRows.Close()

	var names []string
	for varRows.Next() {
		var n string
		if err := varRows.Scan(&n); err != nil {
			return "", err
		}
		names = append(names, n)
	}
	sort.Strings(names)

	duration := "unknown"
	if header.EndedAt != nil {
		duration = header.EndedAt.Sub(header.StartedAt).Round(time.Millisecond).String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Debug session %s\n\n", header.ID)
	fmt.Fprintf(&b, "- Started: %s\n", header.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n\n", duration)
	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|---|---|")
	fmt.Fprintf(&b, "| Total steps | %d |\n", header.TotalSteps)
	fmt.Fprintf(&b, "| Breakpoints hit | %d |\n", header.BreakpointsHit)
	fmt.Fprintf(&b, "| Exceptions thrown | %d |\n", header.ExceptionsThrown)
	fmt.Fprintf(&b, "| Distinct variables inspected | %d |\n\n", len(names))

	fmt.Fprintln(&b, "## Execution path")
	fmt.Fprintln(&b, "```")
	for _, l := range lines {
		fmt.Fprintln(&b, l)
	}
	if total > 50 {
		fmt.Fprintf(&b, "... and %d more steps\n", total-50)
	}
	fmt.Fprintln(&b, "```")

	if len(names) > 0 {
		fmt.Fprintln(&b, "\n## Inspected variables")
		for _, n := range names {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}

	return b.String(), nil
}

// Close closes the database handle. Idempotent.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
