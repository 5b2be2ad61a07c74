package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"cellarena/game"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// ProgressionRow is a stored progression with its owner name
type ProgressionRow struct {
	Name  string  `json:"name"`
	XP    float64 `json:"xp"`
	Level int     `json:"level"`
	Coins int     `json:"coins"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer; the PRAGMAs below then apply to every query
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS progression (
		name TEXT PRIMARY KEY,
		xp REAL NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		coins INTEGER NOT NULL DEFAULT 0,
		last_bonus INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analytics_created ON analytics_events(created_at);
	CREATE INDEX IF NOT EXISTS idx_progression_level ON progression(level DESC, xp DESC);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		log.Printf("DB migration error: %v", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// LoadProgression returns the stored progression for name, or nil if the
// name has never been saved
func (db *DB) LoadProgression(name string) (*game.Progression, error) {
	row := db.conn.QueryRow(
		"SELECT xp, level, coins, last_bonus FROM progression WHERE name = ?",
		name,
	)
	p := &game.Progression{}
	var lastBonus int64
	err := row.Scan(&p.XP, &p.Level, &p.Coins, &lastBonus)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progression %q: %w", name, err)
	}
	if lastBonus > 0 {
		p.LastBonusClaim = time.UnixMilli(lastBonus).UTC()
	}
	return p, nil
}

// SaveProgression inserts or replaces the progression for name
func (db *DB) SaveProgression(name string, p game.Progression) error {
	var lastBonus int64
	if !p.LastBonusClaim.IsZero() {
		lastBonus = p.LastBonusClaim.UnixMilli()
	}
	_, err := db.conn.Exec(`
		INSERT INTO progression (name, xp, level, coins, last_bonus, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			xp = excluded.xp,
			level = excluded.level,
			coins = excluded.coins,
			last_bonus = excluded.last_bonus,
			updated_at = excluded.updated_at`,
		name, p.XP, p.Level, p.Coins, lastBonus, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save progression %q: %w", name, err)
	}
	return nil
}

// TopProgression returns the highest stored levels
func (db *DB) TopProgression(limit int) ([]ProgressionRow, error) {
	rows, err := db.conn.Query(
		"SELECT name, xp, level, coins FROM progression ORDER BY level DESC, xp DESC, name LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProgressionRow
	for rows.Next() {
		var r ProgressionRow
		if err := rows.Scan(&r.Name, &r.XP, &r.Level, &r.Coins); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
