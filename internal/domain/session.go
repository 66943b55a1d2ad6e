package domain

import (
	"encoding/json"
	"time"
)

// SkillState tracks a user's progress on a single concept within a session.
// Mastery is streak-based: there is no numeric mastery score.
type SkillState struct {
	NodeID        string   `json:"node_id"`
	Attempts      int      `json:"attempts"`
	CorrectStreak int      `json:"correct_streak"`
	History       []string `json:"history"`
}

// Seen reports whether the question has already been served this session.
func (s *SkillState) Seen(questionID string) bool {
	for _, id := range s.History {
		if id == questionID {
			return true
		}
	}
	return false
}

// SessionState is the live state of a practice session for one
// (user, topic) pair. ActiveNodeID empty means "needs reselection"
// or "all mastered".
type SessionState struct {
	UserID       string                 `json:"user_id"`
	Topic        string                 `json:"current_topic"`
	NodeStates   map[string]*SkillState `json:"node_states"`
	Coverage     map[string]bool        `json:"coverage_map"`
	ActiveNodeID string                 `json:"active_node_id,omitempty"`
	StartedAt    time.Time              `json:"started_at"`
}

// NewSessionState creates a fresh session for the given user and topic.
func NewSessionState(userID, topic string) *SessionState {
	return &SessionState{
		UserID:     userID,
		Topic:      topic,
		NodeStates: make(map[string]*SkillState),
		Coverage:   make(map[string]bool),
		StartedAt:  time.Now(),
	}
}

// Skill returns the skill state for a concept, creating it on first visit.
func (s *SessionState) Skill(nodeID string) *SkillState {
	if s.NodeStates == nil {
		s.NodeStates = make(map[string]*SkillState)
	}
	state, ok := s.NodeStates[nodeID]
	if !ok {
		state = &SkillState{NodeID: nodeID}
		s.NodeStates[nodeID] = state
	}
	return state
}

// Mastered reports whether the concept is marked mastered in the coverage map.
func (s *SessionState) Mastered(nodeID string) bool {
	return s.Coverage[nodeID]
}

// Encode serializes the session for the blob store.
func (s *SessionState) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSession deserializes a session from the blob store.
func DecodeSession(data []byte) (*SessionState, error) {
	var s SessionState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.NodeStates == nil {
		s.NodeStates = make(map[string]*SkillState)
	}
	if s.Coverage == nil {
		s.Coverage = make(map[string]bool)
	}
	return &s, nil
}

// AssessmentResult is the ephemeral output of grading one answer. It is
// derived per turn and returned to the caller, never persisted.
type AssessmentResult struct {
	QuestionID string    `json:"question_id"`
	UserAnswer string    `json:"user_answer"`
	IsCorrect  bool      `json:"is_correct"`
	Feedback   string    `json:"feedback"`
	AnsweredAt time.Time `json:"answered_at"`
}
