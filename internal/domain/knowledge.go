package domain

import (
	"encoding/json"
	"strings"
	"sync"
)

// DifficultyTier represents the difficulty level of a question or skill state.
type DifficultyTier string

const (
	TierBeginner     DifficultyTier = "beginner"
	TierIntermediate DifficultyTier = "intermediate"
	TierAdvanced     DifficultyTier = "advanced"
)

// Valid reports whether the tier is one of the three known levels.
func (t DifficultyTier) Valid() bool {
	switch t {
	case TierBeginner, TierIntermediate, TierAdvanced:
		return true
	}
	return false
}

// ParseTier converts a string to a DifficultyTier, case-insensitively.
func ParseTier(s string) (DifficultyTier, error) {
	t := DifficultyTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewInvalidInputError("unknown difficulty tier: " + s)
	}
	return t, nil
}

// QuestionKind represents the assessment format of a question.
type QuestionKind string

const (
	KindMultipleChoice       QuestionKind = "multiple_choice"
	KindCodeCorrection       QuestionKind = "code_correction"
	KindConceptExplanation   QuestionKind = "concept_explanation"
	KindCodingImplementation QuestionKind = "coding_implementation"
)

// Question is a single assessable item owned by exactly one leaf's bank.
// Questions are immutable once created.
type Question struct {
	ID            string            `json:"id"`
	Difficulty    DifficultyTier    `json:"difficulty"`
	Kind          QuestionKind      `json:"type"`
	Content       string            `json:"content"`
	Options       []string          `json:"options,omitempty"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Validate validates the question.
func (q *Question) Validate() error {
	if q.ID == "" {
		return NewValidationError("question id is required")
	}
	if !q.Difficulty.Valid() {
		return NewValidationError("question difficulty is invalid")
	}
	if q.Content == "" {
		return NewValidationError("question content is required")
	}
	if q.CorrectAnswer == "" {
		return NewValidationError("question correct answer is required")
	}
	return nil
}

// ConceptNode is a node in the knowledge hierarchy. Interior nodes group
// related concepts; leaves carry difficulty-tiered question banks.
type ConceptNode struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Path        []string       `json:"path"`
	ParentID    string         `json:"parent_id,omitempty"`
	Children    []*ConceptNode `json:"children,omitempty"`
	IsLeaf      bool           `json:"is_leaf"`

	// Questions is populated only when IsLeaf is true.
	Questions map[DifficultyTier][]*Question `json:"questions,omitempty"`
}

// Breadcrumb returns the human-readable path from root to this node.
func (n *ConceptNode) Breadcrumb() string {
	return strings.Join(n.Path, " > ")
}

// KnowledgeTree wraps the root concept with a flat node index for O(1)
// lookups. The tree is read-only during a practice session except for
// dynamic question appends, which are serialized by a tree-level lock.
type KnowledgeTree struct {
	TopicName string       `json:"topic_name"`
	Root      *ConceptNode `json:"root"`

	mu    sync.Mutex
	index map[string]*ConceptNode
}

// NewKnowledgeTree builds a tree around the given root and indexes it.
func NewKnowledgeTree(topicName string, root *ConceptNode) *KnowledgeTree {
	t := &KnowledgeTree{TopicName: topicName, Root: root}
	t.reindex()
	return t
}

func (t *KnowledgeTree) reindex() {
	t.index = make(map[string]*ConceptNode)
	if t.Root == nil {
		return
	}
	stack := []*ConceptNode{t.Root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t.index[node.ID] = node
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}

// Node returns the node with the given id, if present.
func (t *KnowledgeTree) Node(id string) (*ConceptNode, bool) {
	node, ok := t.index[id]
	return node, ok
}

// Leaves returns every leaf node in depth-first pre-order.
func (t *KnowledgeTree) Leaves() []*ConceptNode {
	var leaves []*ConceptNode
	if t.Root == nil {
		return leaves
	}
	stack := []*ConceptNode{t.Root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.IsLeaf {
			leaves = append(leaves, node)
			continue
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	return leaves
}

// AppendQuestion appends a question to a leaf's bank at the question's own
// tier. This is the only mutation the tree permits after creation and is
// safe under concurrent appends from sessions sharing the topic.
func (t *KnowledgeTree) AppendQuestion(nodeID string, q *Question) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.index[nodeID]
	if !ok {
		return NewNotFoundError("concept not found: " + nodeID)
	}
	if !node.IsLeaf {
		return NewInvalidInputError("question banks exist only on leaf concepts: " + nodeID)
	}
	if node.Questions == nil {
		node.Questions = make(map[DifficultyTier][]*Question)
	}
	node.Questions[q.Difficulty] = append(node.Questions[q.Difficulty], q)
	return nil
}

// Encode serializes the tree for the blob store.
func (t *KnowledgeTree) Encode() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.Marshal(t)
}

// DecodeTree deserializes a tree from the blob store and rebuilds the
// node index, which is not persisted.
func DecodeTree(data []byte) (*KnowledgeTree, error) {
	var t KnowledgeTree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.Root == nil {
		return nil, NewValidationError("knowledge tree has no root")
	}
	t.reindex()
	return &t, nil
}
