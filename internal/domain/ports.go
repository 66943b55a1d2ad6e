package domain

import (
	"context"
	"time"
)

// TopicRepository is the port for the (topic) -> KnowledgeTree blob store.
type TopicRepository interface {
	// GetTree loads the tree for a topic. Returns (nil, nil) when the
	// topic has not been ingested.
	GetTree(ctx context.Context, topicName string) (*KnowledgeTree, error)

	// SaveTree persists the tree, replacing any previous version.
	SaveTree(ctx context.Context, tree *KnowledgeTree) error
}

// SessionRepository is the port for the (user, topic) -> SessionState
// blob store. Saves must be atomic with respect to the session: a
// subsequent read never observes a partial write.
type SessionRepository interface {
	// GetSession loads a session. Returns (nil, nil) when no session
	// exists for the pair.
	GetSession(ctx context.Context, userID, topicName string) (*SessionState, error)

	// SaveSession upserts the session state.
	SaveSession(ctx context.Context, session *SessionState) error
}

// GenerationService is the port for the external content-generation
// collaborator.
type GenerationService interface {
	// GenerateHierarchy builds a full concept tree for a topic from raw
	// corpus text. Invoked once per topic, out of the practice hot path.
	GenerateHierarchy(ctx context.Context, topicName, corpus string) (*ConceptNode, error)

	// GenerateQuestion produces one fresh question for a concept at the
	// given tier. Invoked when a leaf's bank is exhausted mid-session.
	GenerateQuestion(ctx context.Context, conceptName, description string, tier DifficultyTier) (*Question, error)
}

// Cache defines the interface (port) for caching operations.
// Implementations of this interface will be the adapters (e.g., RedisCacheAdapter).
type Cache interface {
	// Get retrieves an item from the cache.
	// It returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set adds an item to the cache, overwriting an existing item if one exists.
	// If expiration is 0, the item is cached indefinitely.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes an item from the cache.
	// It should not return an error if the key is not found.
	Delete(ctx context.Context, key string) error

	// Ping checks the health of the cache service.
	Ping(ctx context.Context) error
}
