package dqnlog

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/unixpickle/essentials"

	_ "modernc.org/sqlite"
)

// SQLiteSink stores scalars in a SQLite database.
//
// Every sink gets a fresh run ID, so several runs can
// share one database.
type SQLiteSink struct {
	db     *sql.DB
	insert *sql.Stmt
	runID  string
}

// OpenSQLite opens (or creates) a metrics database and
// registers a new run in it.
func OpenSQLite(path string) (s *SQLiteSink, err error) {
	defer essentials.AddCtxTo("open metrics database", &err)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs(
			run_id TEXT PRIMARY KEY,
			started REAL NOT NULL
		)`)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scalars(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			tag TEXT NOT NULL,
			step INTEGER NOT NULL,
			value REAL NOT NULL,
			wall_time REAL NOT NULL
		)`)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS graphs(
			run_id TEXT NOT NULL,
			summary TEXT NOT NULL,
			wall_time REAL NOT NULL
		)`)
	if err != nil {
		return nil, err
	}
	runID := uuid.New().String()
	_, err = db.Exec("INSERT INTO runs(run_id, started) VALUES(?, ?)", runID,
		wallTime())
	if err != nil {
		return nil, err
	}
	insert, err := db.Prepare(`INSERT INTO scalars(run_id, tag, step, value, wall_time)
		VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	return &SQLiteSink{db: db, insert: insert, runID: runID}, nil
}

// RunID returns the ID under which scalars are stored.
func (s *SQLiteSink) RunID() string {
	return s.runID
}

// AddScalar stores a scalar.
func (s *SQLiteSink) AddScalar(tag string, value float64, step int) error {
	_, err := s.insert.Exec(s.runID, tag, step, value, wallTime())
	if err != nil {
		return essentials.AddCtx("store scalar "+tag, err)
	}
	return nil
}

// AddScalars stores each value under the tag
// "<group>/<name>".
func (s *SQLiteSink) AddScalars(group string, values map[string]float64,
	step int) (err error) {
	defer essentials.AddCtxTo("store scalars "+group, &err)
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(s.insert)
	now := wallTime()
	for name, value := range values {
		if _, err := stmt.Exec(s.runID, groupTag(group, name), step, value, now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// AddGraph stores a description of the network for this
// run.
func (s *SQLiteSink) AddGraph(summary string) error {
	_, err := s.db.Exec("INSERT INTO graphs(run_id, summary, wall_time) VALUES(?, ?, ?)",
		s.runID, summary, wallTime())
	if err != nil {
		return essentials.AddCtx("store graph", err)
	}
	return nil
}

// Graph reads back the latest network description of
// this run.
// It returns sql.ErrNoRows if there is none.
func (s *SQLiteSink) Graph() (summary string, err error) {
	err = s.db.QueryRow(`SELECT summary FROM graphs WHERE run_id = ?
		ORDER BY wall_time DESC LIMIT 1`, s.runID).Scan(&summary)
	return
}

// Scalars reads back the series for a tag in this run,
// ordered by step.
func (s *SQLiteSink) Scalars(tag string) (points []Point, err error) {
	defer essentials.AddCtxTo("read scalars "+tag, &err)
	rows, err := s.db.Query(`SELECT step, value FROM scalars
		WHERE run_id = ? AND tag = ? ORDER BY step, id`, s.runID, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Step, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	s.insert.Close()
	return s.db.Close()
}

func wallTime() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
