package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tphummel/machine_registry/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNoSnapshot is returned by Snapshot before the first successful load.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// DB wraps a SQLite connection holding the mirror of the last loaded
// machine collection.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at path, enables WAL mode, and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

func migrate(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS machine_snapshot (
			position     INTEGER PRIMARY KEY,
			id           INTEGER NOT NULL,
			machine_code TEXT NOT NULL DEFAULT '',
			criticality  TEXT NOT NULL DEFAULT '',
			payload      TEXT NOT NULL,
			fetched_at   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_machine_snapshot_id ON machine_snapshot(id);
		CREATE TABLE IF NOT EXISTS snapshot_meta (
			singleton  INTEGER PRIMARY KEY CHECK (singleton = 1),
			fetched_at TEXT NOT NULL,
			records    INTEGER NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping verifies the database connection is alive.
func (d *DB) Ping() error {
	return d.conn.Ping()
}

// ReplaceSnapshot swaps the stored collection for records in one
// transaction. Positions follow the order of records.
func (d *DB) ReplaceSnapshot(records []models.Machine, at time.Time) (err error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM machine_snapshot`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stamp := at.UTC().Format(time.RFC3339Nano)
	stmt, err := tx.Prepare(`
		INSERT INTO machine_snapshot (position, id, machine_code, criticality, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range records {
		payload, merr := json.Marshal(m)
		if merr != nil {
			err = fmt.Errorf("encode machine %d: %w", m.ID, merr)
			return err
		}
		if _, err = stmt.Exec(i, m.ID, m.MachineCode, m.CriticalityLevel, string(payload), stamp); err != nil {
			return fmt.Errorf("insert machine %d: %w", m.ID, err)
		}
	}

	if _, err = tx.Exec(`
		INSERT INTO snapshot_meta (singleton, fetched_at, records) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET fetched_at = excluded.fetched_at, records = excluded.records`,
		stamp, len(records)); err != nil {
		return fmt.Errorf("update meta: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Snapshot returns the stored collection in load order and the time it was
// fetched, or ErrNoSnapshot if nothing has been stored yet.
func (d *DB) Snapshot() ([]models.Machine, time.Time, error) {
	var stamp string
	var count int
	err := d.conn.QueryRow(`SELECT fetched_at, records FROM snapshot_meta WHERE singleton = 1`).Scan(&stamp, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse fetched_at: %w", err)
	}

	rows, err := d.conn.Query(`SELECT payload FROM machine_snapshot ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	records := make([]models.Machine, 0, count)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, time.Time{}, err
		}
		var m models.Machine
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return nil, time.Time{}, fmt.Errorf("decode snapshot row: %w", err)
		}
		records = append(records, m)
	}
	return records, fetchedAt, rows.Err()
}

// CountByCriticality returns the number of mirrored records per criticality
// level.
func (d *DB) CountByCriticality() (map[string]int, error) {
	rows, err := d.conn.Query(`SELECT criticality, COUNT(*) FROM machine_snapshot GROUP BY criticality`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, err
		}
		counts[level] = n
	}
	return counts, rows.Err()
}
