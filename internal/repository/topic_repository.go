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

// TopicDatabaseAdapter implements domain.TopicRepository using sqlx.DB.
// Trees are stored as opaque JSON blobs keyed by topic name.
type TopicDatabaseAdapter struct {
	db *sqlx.DB
}

// NewTopicDatabaseAdapter creates a new instance of TopicDatabaseAdapter
func NewTopicDatabaseAdapter(db *sqlx.DB) domain.TopicRepository {
	return &TopicDatabaseAdapter{db: db}
}

// GetTree implements domain.TopicRepository
func (a *TopicDatabaseAdapter) GetTree(ctx context.Context, topicName string) (*domain.KnowledgeTree, error) {
	var raw []byte
	query := `SELECT tree FROM topics WHERE name = ?`

	err := a.db.GetContext(ctx, &raw, query, topicName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tree for topic %q: %w", topicName, err)
	}

	tree, err := domain.DecodeTree(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tree for topic %q: %w", topicName, err)
	}
	return tree, nil
}

// SaveTree implements domain.TopicRepository
func (a *TopicDatabaseAdapter) SaveTree(ctx context.Context, tree *domain.KnowledgeTree) error {
	raw, err := tree.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode tree for topic %q: %w", tree.TopicName, err)
	}

	now := time.Now()
	query := `INSERT INTO topics (name, tree, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET tree = excluded.tree, updated_at = excluded.updated_at`

	if _, err := a.db.ExecContext(ctx, query, tree.TopicName, raw, now, now); err != nil {
		return fmt.Errorf("failed to save tree for topic %q: %w", tree.TopicName, err)
	}
	return nil
}
