// Package audit persists completed hands to sqlite. Together with the
// hand_started commitment this is what lets anyone re-derive the shuffle and
// check the deal after the fact.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Log implements engine.Audit on a sqlite database.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the audit database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS game_audit (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_id TEXT NOT NULL,
			hand_id TEXT NOT NULL,
			server_seed TEXT,
			server_secret TEXT,
			commitment TEXT,
			events TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create audit tables: %w", err)
	}
	return nil
}

// LogHand records one completed hand.
func (l *Log) LogHand(ctx context.Context, tableID, handID, seed, secret, commitment string, eventsJSON []byte) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO game_audit (table_id, hand_id, server_seed, server_secret, commitment, events)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tableID, handID, seed, secret, commitment, string(eventsJSON))
	if err != nil {
		return fmt.Errorf("log hand %s: %w", handID, err)
	}
	return nil
}

// HandCount returns the number of audited hands for a table.
func (l *Log) HandCount(ctx context.Context, tableID string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_audit WHERE table_id = ?`, tableID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count hands: %v", err)
	}
	return n, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Noop is an Audit that records nothing, used when auditing is disabled.
type Noop struct{}

// LogHand discards the record.
func (Noop) LogHand(context.Context, string, string, string, string, string, []byte) error {
	return nil
}
