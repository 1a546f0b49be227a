// Package chatdb reads the macOS Messages database. The database belongs to
// Messages.app; this package opens it strictly read-only and never writes.
package chatdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// fetchBatchSize caps how many messages a single poll can return, bounding
// per-cycle latency when a backlog appears.
const fetchBatchSize = 50

// Message is one inbound entry from the message log. Immutable once written
// by Messages.app.
type Message struct {
	RowID  int64
	Text   string
	Sender string // handle id, or the chat identifier when no handle exists
	ChatID string
	Date   int64 // raw Apple epoch from the message table
}

// Store is a read-only handle on the Messages database.
type Store struct {
	db *sql.DB
}

// Open opens the database at path in read-only mode and probes it with a
// trivial query. A probe failure usually means the process lacks Full Disk
// Access.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open messages database: %w", err)
	}

	var count int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message").Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("probe messages database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// LatestRowID returns the highest message rowid, or 0 for an empty database.
// Used once at startup so the relay never replays historical messages.
func (s *Store) LatestRowID(ctx context.Context) (int64, error) {
	var rowID sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(ROWID) FROM message").Scan(&rowID); err != nil {
		return 0, fmt.Errorf("query latest rowid: %w", err)
	}
	return rowID.Int64, nil
}

// FetchSince returns inbound, non-empty messages with rowid greater than
// since, ascending, at most fetchBatchSize per call. The sender falls back to
// the chat identifier when the message has no direct handle (e.g. some group
// chats).
func (s *Store) FetchSince(ctx context.Context, since int64) ([]Message, error) {
	const query = `
	SELECT
		m.ROWID,
		m.text,
		m.date,
		h.id AS sender,
		c.chat_identifier
	FROM message m
	LEFT JOIN handle h ON m.handle_id = h.ROWID
	LEFT JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
	LEFT JOIN chat c ON cmj.chat_id = c.ROWID
	WHERE m.ROWID > ?
		AND m.text IS NOT NULL
		AND m.text != ''
		AND m.is_from_me = 0
	ORDER BY m.ROWID ASC
	LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, since, fetchBatchSize)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			m      Message
			sender sql.NullString
			chatID sql.NullString
		)
		if err := rows.Scan(&m.RowID, &m.Text, &m.Date, &sender, &chatID); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.ChatID = chatID.String
		if sender.Valid {
			m.Sender = sender.String
		} else {
			m.Sender = chatID.String
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return msgs, nil
}
