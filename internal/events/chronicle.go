package events

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Chronicle is a SQLite-backed sink. Every row carries the run id of the
// session that produced it, so one database can hold many runs.
type Chronicle struct {
	conn  *sqlx.DB
	runID uuid.UUID
}

// OpenChronicle opens or creates the database at path and tags new rows with
// runID.
func OpenChronicle(path string, runID uuid.UUID) (*Chronicle, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open chronicle: %w", err)
	}
	c := &Chronicle{conn: conn, runID: runID}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate chronicle: %w", err)
	}
	return c, nil
}

func (c *Chronicle) migrate() error {
	_, err := c.conn.Exec(`
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		category TEXT NOT NULL,
		cell INTEGER NOT NULL,
		description TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, category);
	`)
	return err
}

// RunID returns the id stamped on rows written by this chronicle.
func (c *Chronicle) RunID() uuid.UUID { return c.runID }

// Record implements Sink.
func (c *Chronicle) Record(ev Event) error {
	_, err := c.conn.Exec(
		"INSERT INTO events (run_id, tick, category, cell, description) VALUES (?, ?, ?, ?, ?)",
		c.runID.String(), ev.Tick, string(ev.Category), ev.Cell, ev.Description,
	)
	return err
}

// Query returns this run's events of cat in insertion order. An empty category
// returns every event of the run.
func (c *Chronicle) Query(cat Category) ([]Event, error) {
	var out []Event
	var err error
	if cat == "" {
		err = c.conn.Select(&out,
			"SELECT tick, category, cell, description FROM events WHERE run_id = ? ORDER BY id",
			c.runID.String())
	} else {
		err = c.conn.Select(&out,
			"SELECT tick, category, cell, description FROM events WHERE run_id = ? AND category = ? ORDER BY id",
			c.runID.String(), string(cat))
	}
	return out, err
}

// Counts returns this run's event totals per category.
func (c *Chronicle) Counts() (map[Category]int, error) {
	var rows []struct {
		Category Category `db:"category"`
		N        int      `db:"n"`
	}
	err := c.conn.Select(&rows,
		"SELECT category, COUNT(*) AS n FROM events WHERE run_id = ? GROUP BY category",
		c.runID.String())
	if err != nil {
		return nil, err
	}
	out := make(map[Category]int, len(rows))
	for _, r := range rows {
		out[r.Category] = r.N
	}
	return out, nil
}

// Close closes the database.
func (c *Chronicle) Close() error {
	return c.conn.Close()
}
