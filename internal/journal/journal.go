// Package journal keeps a persistent record of simulation events in SQLite.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	_ "github.com/mattn/go-sqlite3"

	"github.com/san-kum/solsim/internal/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session    TEXT NOT NULL,
	tick       INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	other      TEXT NOT NULL DEFAULT '',
	x          REAL NOT NULL,
	y          REAL NOT NULL,
	value      REAL NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS events_kind ON events(kind);`

type Entry struct {
	ID        int64     `json:"id"`
	Session   string    `json:"session"`
	Event     sim.Event `json:"event"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal is a sim.Observer that writes every event it sees. Events from
// one process share a session id.
type Journal struct {
	db      *sql.DB
	session string
	log     hclog.Logger
}

func Open(path string, logger hclog.Logger) (*Journal, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &Journal{
		db:      db,
		session: time.Now().UTC().Format("20060102T150405.000000000"),
		log:     logger,
	}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) Session() string { return j.session }

func (j *Journal) Record(e sim.Event) error {
	_, err := j.db.Exec(
		"INSERT INTO events (session, tick, kind, body, other, x, y, value, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		j.session, e.Tick, string(e.Kind), e.Body, e.Other, e.X, e.Y, e.Value, time.Now().UTC(),
	)
	return err
}

// OnEvent records e. A failed write is logged and otherwise ignored so the
// frame loop never stalls on the journal.
func (j *Journal) OnEvent(e sim.Event) {
	if err := j.Record(e); err != nil {
		j.log.Warn("journal write failed", "kind", e.Kind, "error", err)
	}
}

// Recent returns up to limit events, newest first. An empty kind matches
// every event.
func (j *Journal) Recent(limit int, kind sim.EventKind) ([]Entry, error) {
	query := "SELECT id, session, tick, kind, body, other, x, y, value, created_at FROM events"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var en Entry
		var k string
		if err := rows.Scan(&en.ID, &en.Session, &en.Event.Tick, &k, &en.Event.Body, &en.Event.Other,
			&en.Event.X, &en.Event.Y, &en.Event.Value, &en.CreatedAt); err != nil {
			return nil, err
		}
		en.Event.Kind = sim.EventKind(k)
		entries = append(entries, en)
	}
	return entries, rows.Err()
}

// Counts tallies events per kind across all sessions.
func (j *Journal) Counts() (map[sim.EventKind]int, error) {
	rows, err := j.db.Query("SELECT kind, COUNT(*) FROM events GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[sim.EventKind]int)
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		counts[sim.EventKind(k)] = n
	}
	return counts, rows.Err()
}
