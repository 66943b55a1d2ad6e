package dto

import "time"

// StartSessionRequest starts (or restarts) a practice session.
type StartSessionRequest struct {
	UserID    string `json:"user_id"`
	TopicName string `json:"topic_name"`
}

type StartSessionResponse struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	TopicName string `json:"topic_name"`
}

// QuestionResponse carries the next question to present. Done is true when
// every leaf concept in the topic has been mastered.
type QuestionResponse struct {
	ID         string   `json:"id,omitempty"`
	Content    string   `json:"content,omitempty"`
	Options    []string `json:"options,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Concept    string   `json:"concept,omitempty"`
	Done       bool     `json:"done"`
}

type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id"`
	UserAnswer string `json:"user_answer"`
}

type SubmitAnswerResponse struct {
	QuestionID string    `json:"question_id"`
	IsCorrect  bool      `json:"is_correct"`
	Feedback   string    `json:"feedback"`
	Streak     int       `json:"streak"`
	Mastered   bool      `json:"mastered"`
	AnsweredAt time.Time `json:"answered_at"`
}

// SessionStatusResponse summarizes where the session currently stands.
// Active is true only while a concept is being practiced; between concepts
// and after full mastery it is false.
type SessionStatusResponse struct {
	Active       bool   `json:"active"`
	MasteredAll  bool   `json:"mastered_all"`
	Breadcrumb   string `json:"breadcrumb,omitempty"`
	Streak       int    `json:"streak"`
	TargetStreak int    `json:"target_streak"`
}

// GraphNode is one node of the read-only graph snapshot. Status is one of
// "pending", "active" or "mastered".
type GraphNode struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type GraphSnapshotResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// IngestRequest asks the content-generation collaborator to build a topic.
type IngestRequest struct {
	TopicName string `json:"topic_name"`
	Corpus    string `json:"corpus"`
}

type IngestResponse struct {
	Message       string `json:"message"`
	TopicName     string `json:"topic_name"`
	ConceptCount  int    `json:"concept_count"`
	LeafCount     int    `json:"leaf_count"`
	QuestionCount int    `json:"question_count"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
