// Package persistence records run analytics to SQLite.
// It is a write-mostly history of per-tick statistics; simulation state is
// never saved or restored.
package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/talgya/hearsay/internal/engine"
)

// DB wraps a SQLite connection for run history.
type DB struct {
	conn *sqlx.DB
	log  *zap.Logger
}

// Run describes one simulation run.
type Run struct {
	ID        string    `db:"id" json:"id"`
	Seed      uint64    `db:"seed" json:"seed"`
	Width     int       `db:"width" json:"width"`
	Height    int       `db:"height" json:"height"`
	Agents    int       `db:"agents" json:"agents"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
}

// TickRecord is one row of per-tick statistics.
type TickRecord struct {
	RunID      string   `db:"run_id" json:"-"`
	Tick       uint64   `db:"tick" json:"tick"`
	Population int      `db:"population" json:"population"`
	Deaths     int      `db:"deaths" json:"deaths"`
	FoodEaten  int      `db:"food_eaten" json:"food_eaten"`
	WaterDrunk int      `db:"water_drunk" json:"water_drunk"`
	AvgHunger  float64  `db:"avg_hunger" json:"avg_hunger"`
	AvgThirst  float64  `db:"avg_thirst" json:"avg_thirst"`
	ErrorRate  *float64 `db:"error_rate" json:"error_rate"` // NULL with no agents
}

// Open opens or creates a SQLite database at the given path.
// Use ":memory:" for a throwaway database.
func Open(path string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; also keeps an in-memory database on a single connection.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, log: logger}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		population INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		food_eaten INTEGER NOT NULL,
		water_drunk INTEGER NOT NULL,
		avg_hunger REAL NOT NULL,
		avg_thirst REAL NOT NULL,
		error_rate REAL,
		PRIMARY KEY (run_id, tick)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun registers a new run and returns it.
func (db *DB) StartRun(seed uint64, p engine.Params) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		Width:     p.World.Width,
		Height:    p.World.Height,
		Agents:    p.NumAgents,
		StartedAt: time.Now().UTC(),
	}
	// SQLite stores INTEGER as signed 64-bit; keep the seed's bits.
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, width, height, agents, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, int64(run.Seed), run.Width, run.Height, run.Agents, run.StartedAt,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	db.log.Info("run registered", zap.String("run_id", run.ID), zap.Uint64("seed", seed))
	return run, nil
}

// RecordTick appends one tick's statistics to a run.
func (db *DB) RecordTick(runID string, stats engine.SimStats) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO tick_stats
		(run_id, tick, population, deaths, food_eaten, water_drunk, avg_hunger, avg_thirst, error_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, stats.Tick, stats.Population, stats.Deaths, stats.FoodEaten,
		stats.WaterDrunk, stats.AvgHunger, stats.AvgThirst, stats.ErrorRate,
	)
	if err != nil {
		return fmt.Errorf("insert tick %d: %w", stats.Tick, err)
	}
	return nil
}

// History returns up to limit of the most recent tick records for a run,
// oldest first.
func (db *DB) History(runID string, limit int) ([]TickRecord, error) {
	var records []TickRecord
	err := db.conn.Select(&records, `SELECT * FROM (
			SELECT run_id, tick, population, deaths, food_eaten, water_drunk, avg_hunger, avg_thirst, error_rate
			FROM tick_stats WHERE run_id = ? ORDER BY tick DESC LIMIT ?
		) ORDER BY tick ASC`,
		runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return records, nil
}

// Recorder returns a tick hook that writes every nth tick to the run.
// Write failures are logged, never propagated into the simulation.
func (db *DB) Recorder(runID string, every uint64) engine.TickHook {
	if every == 0 {
		every = 1
	}
	return func(tick uint64, stats engine.SimStats) {
		if tick%every != 0 {
			return
		}
		if err := db.RecordTick(runID, stats); err != nil {
			db.log.Error("history write failed", zap.Uint64("tick", tick), zap.Error(err))
		}
	}
}
