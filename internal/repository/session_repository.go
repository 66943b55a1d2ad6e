package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smart-practice/internal/domain"

	"github.com/jmoiron/sqlx"
)

// SessionDatabaseAdapter implements domain.SessionRepository using sqlx.DB.
// One row per (user, topic); the whole state is replaced on every save so a
// reader never observes a partially updated session.
type SessionDatabaseAdapter struct {
	db *sqlx.DB
}

// NewSessionDatabaseAdapter creates a new instance of SessionDatabaseAdapter
func NewSessionDatabaseAdapter(db *sqlx.DB) domain.SessionRepository {
	return &SessionDatabaseAdapter{db: db}
}

// GetSession implements domain.SessionRepository
func (a *SessionDatabaseAdapter) GetSession(ctx context.Context, userID, topicName string) (*domain.SessionState, error) {
	var raw []byte
	query := `SELECT state FROM sessions WHERE user_id = ? AND topic = ?`

	err := a.db.GetContext(ctx, &raw, query, userID, topicName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session for (%s, %s): %w", userID, topicName, err)
	}

	session, err := domain.DecodeSession(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session for (%s, %s): %w", userID, topicName, err)
	}
	return session, nil
}

// SaveSession implements domain.SessionRepository
func (a *SessionDatabaseAdapter) SaveSession(ctx context.Context, session *domain.SessionState) error {
	raw, err := session.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode session for (%s, %s): %w", session.UserID, session.Topic, err)
	}

	now := time.Now()
	query := `INSERT INTO sessions (user_id, topic, state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id, topic) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`

	if _, err := a.db.ExecContext(ctx, query, session.UserID, session.Topic, raw, now, now); err != nil {
		return fmt.Errorf("failed to save session for (%s, %s): %w", session.UserID, session.Topic, err)
	}
	return nil
}
