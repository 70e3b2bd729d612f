package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Load for unknown session ids
var ErrNotFound = errors.New("session not found")

// Store persists transcripts in the tables created by telemetry.InitDB
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Summary is one row of List
type Summary struct {
	ID           string
	StartTime    time.Time
	Provider     string
	Model        string
	MessageCount int
}

// Save upserts the session row and appends messages not saved before.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO sessions (id, start_time, provider, model, system_message) VALUES (?, ?, ?, ?, ?)",
		sess.ID, sess.StartTime, sess.Provider, sess.Model, sess.SystemMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	pending := sess.Pending()
	for _, msg := range pending {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO messages (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)",
			sess.ID, msg.Role, msg.Content, msg.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	sess.persisted += len(pending)
	return nil
}

// Load reads a session and its messages in insertion order
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	sess := &Session{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT start_time, provider, model, system_message FROM sessions WHERE id = ?", id,
	).Scan(&sess.StartTime, &sess.Provider, &sess.Model, &sess.SystemMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, timestamp FROM messages WHERE session_id = ? ORDER BY id",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	sess.Messages = []Message{}
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		sess.Messages = append(sess.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	sess.persisted = len(sess.Messages)

	return sess, nil
}

// List returns all sessions, newest first
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.start_time, s.provider, s.model, COUNT(m.id)
		FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.StartTime, &sum.Provider, &sum.Model, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
