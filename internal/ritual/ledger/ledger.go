// Package ledger persists somatic readings and ritual history in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// tsLayout is fixed-width so timestamps compare correctly as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    ts            TEXT NOT NULL UNIQUE,
    hrv_rmssd_ms  REAL,
    lux_minutes   REAL,
    nitrate_mg    REAL,
    forest_min    REAL,
    mood_1_10     REAL,
    dream_symbol  TEXT,
    geomag_kp     REAL,
    lunar_phase   TEXT,
    ritual_tag    TEXT
);

CREATE TABLE IF NOT EXISTS rituals (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    ts            TEXT NOT NULL,
    name          TEXT NOT NULL,
    completed     INTEGER NOT NULL DEFAULT 0,
    auto_trigger  TEXT,
    UNIQUE (ts, name)
);

CREATE VIEW IF NOT EXISTS peace_curve AS
SELECT substr(ts, 1, 10)   AS day,
       AVG(hrv_rmssd_ms)   AS avg_hrv,
       SUM(lux_minutes)    AS total_lux,
       SUM(nitrate_mg)     AS total_nitrate,
       SUM(forest_min)     AS total_forest
FROM entries
GROUP BY day;
`

// Entry is one somatic reading. Nil measurements are stored as NULL.
type Entry struct {
	TS          time.Time
	HRV         *float64
	LuxMinutes  *float64
	NitrateMg   *float64
	ForestMin   *float64
	Mood        *float64
	DreamSymbol string
	GeomagKp    *float64
	LunarPhase  string
	RitualTag   string
}

// Ritual is a logged ritual occurrence.
type Ritual struct {
	TS          time.Time
	Name        string
	Completed   bool
	AutoTrigger string
}

// DayCurve is one row of the daily peace curve.
type DayCurve struct {
	Day          string   `json:"day"`
	AvgHRV       *float64 `json:"avg_hrv"`
	TotalLux     *float64 `json:"total_lux"`
	TotalNitrate *float64 `json:"total_nitrate"`
	TotalForest  *float64 `json:"total_forest"`
}

// Ledger is safe for concurrent use.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path and applies the schema.
// Use ":memory:" for an ephemeral ledger.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	l, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an existing database handle and applies the schema.
func New(ctx context.Context, db *sql.DB) (*Ledger, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Ping verifies the database is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Record inserts a reading, replacing any existing reading at the same instant.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.TS.IsZero() {
		e.TS = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO entries
		    (ts, hrv_rmssd_ms, lux_minutes, nitrate_mg, forest_min,
		     mood_1_10, dream_symbol, geomag_kp, lunar_phase, ritual_tag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTS(e.TS), e.HRV, e.LuxMinutes, e.NitrateMg, e.ForestMin,
		e.Mood, nullString(e.DreamSymbol), e.GeomagKp, nullString(e.LunarPhase), nullString(e.RitualTag),
	)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

// AverageHRV averages HRV readings at or after since. ok is false when no
// reading in the window has an HRV value.
func (l *Ledger) AverageHRV(ctx context.Context, since time.Time) (float64, bool, error) {
	var avg sql.NullFloat64
	err := l.db.QueryRowContext(ctx,
		`SELECT AVG(hrv_rmssd_ms) FROM entries WHERE ts >= ? AND hrv_rmssd_ms IS NOT NULL`,
		formatTS(since),
	).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("average hrv: %w", err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// LogRitual records that a ritual was scheduled or performed. Logging the
// same ritual at the same instant twice is a no-op.
func (l *Ledger) LogRitual(ctx context.Context, r Ritual) error {
	if r.TS.IsZero() {
		r.TS = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO rituals (ts, name, completed, auto_trigger)
		VALUES (?, ?, ?, ?)`,
		formatTS(r.TS), r.Name, r.Completed, nullString(r.AutoTrigger),
	)
	if err != nil {
		return fmt.Errorf("log ritual: %w", err)
	}
	return nil
}

// RecentRituals returns the newest rituals first.
func (l *Ledger) RecentRituals(ctx context.Context, limit int) ([]Ritual, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT ts, name, completed, COALESCE(auto_trigger, '')
		FROM rituals
		ORDER BY ts DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list rituals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Ritual
	for rows.Next() {
		var (
			r  Ritual
			ts string
		)
		if err := rows.Scan(&ts, &r.Name, &r.Completed, &r.AutoTrigger); err != nil {
			return nil, fmt.Errorf("scan ritual: %w", err)
		}
		if r.TS, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("parse ritual ts %q: %w", ts, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PeaceCurve returns daily aggregates, oldest day first.
func (l *Ledger) PeaceCurve(ctx context.Context) ([]DayCurve, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT day, avg_hrv, total_lux, total_nitrate, total_forest
		FROM peace_curve
		ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("peace curve: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DayCurve
	for rows.Next() {
		var d DayCurve
		var hrv, lux, nitrate, forest sql.NullFloat64
		if err := rows.Scan(&d.Day, &hrv, &lux, &nitrate, &forest); err != nil {
			return nil, fmt.Errorf("scan peace curve: %w", err)
		}
		d.AvgHRV, d.TotalLux, d.TotalNitrate, d.TotalForest = ptr(hrv), ptr(lux), ptr(nitrate), ptr(forest)
		out = append(out, d)
	}
	return out, rows.Err()
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
