package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTree() *KnowledgeTree {
	l1 := &ConceptNode{ID: "l1", Name: "Variables", Path: []string{"Go", "Syntax", "Variables"}, ParentID: "syntax", IsLeaf: true}
	l2 := &ConceptNode{ID: "l2", Name: "Constants", Path: []string{"Go", "Syntax", "Constants"}, ParentID: "syntax", IsLeaf: true}
	syntax := &ConceptNode{ID: "syntax", Name: "Syntax", Path: []string{"Go", "Syntax"}, ParentID: "root", Children: []*ConceptNode{l1, l2}}
	l3 := &ConceptNode{ID: "l3", Name: "Maps", Path: []string{"Go", "Maps"}, ParentID: "root", IsLeaf: true}
	root := &ConceptNode{ID: "root", Name: "Go", Path: []string{"Go"}, Children: []*ConceptNode{syntax, l3}}
	return NewKnowledgeTree("Go", root)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("Advanced")
	assert.NoError(t, err)
	assert.Equal(t, TierAdvanced, tier)

	tier, err = ParseTier("  beginner ")
	assert.NoError(t, err)
	assert.Equal(t, TierBeginner, tier)

	_, err = ParseTier("expert")
	assert.Error(t, err)
}

func TestQuestionValidate(t *testing.T) {
	q := &Question{ID: "q1", Difficulty: TierBeginner, Content: "What is a map?", CorrectAnswer: "a hash table"}
	assert.NoError(t, q.Validate())

	assert.Error(t, (&Question{Difficulty: TierBeginner, Content: "c", CorrectAnswer: "a"}).Validate())
	assert.Error(t, (&Question{ID: "q1", Difficulty: "expert", Content: "c", CorrectAnswer: "a"}).Validate())
	assert.Error(t, (&Question{ID: "q1", Difficulty: TierBeginner, CorrectAnswer: "a"}).Validate())
	assert.Error(t, (&Question{ID: "q1", Difficulty: TierBeginner, Content: "c"}).Validate())
}

func TestBreadcrumb(t *testing.T) {
	tree := sampleTree()
	node, ok := tree.Node("l1")
	assert.True(t, ok)
	assert.Equal(t, "Go > Syntax > Variables", node.Breadcrumb())
}

func TestNodeIndexCoversWholeTree(t *testing.T) {
	tree := sampleTree()
	for _, id := range []string{"root", "syntax", "l1", "l2", "l3"} {
		_, ok := tree.Node(id)
		assert.True(t, ok, id)
	}
	_, ok := tree.Node("missing")
	assert.False(t, ok)
}

func TestLeavesPreOrder(t *testing.T) {
	tree := sampleTree()
	var ids []string
	for _, leaf := range tree.Leaves() {
		ids = append(ids, leaf.ID)
	}
	assert.Equal(t, []string{"l1", "l2", "l3"}, ids)
}

func TestAppendQuestion(t *testing.T) {
	tree := sampleTree()
	q := &Question{ID: "q1", Difficulty: TierIntermediate, Content: "c", CorrectAnswer: "a"}

	assert.NoError(t, tree.AppendQuestion("l1", q))
	node, _ := tree.Node("l1")
	assert.Equal(t, q, node.Questions[TierIntermediate][0])
}

func TestAppendQuestion_RejectsBranchAndUnknown(t *testing.T) {
	tree := sampleTree()
	q := &Question{ID: "q1", Difficulty: TierIntermediate, Content: "c", CorrectAnswer: "a"}

	err := tree.AppendQuestion("syntax", q)
	var domainErr *DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrInvalidInput, domainErr.Code)

	err = tree.AppendQuestion("missing", q)
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrNotFound, domainErr.Code)
}

func TestEncodeDecodeTreeRebuildsIndex(t *testing.T) {
	tree := sampleTree()
	assert.NoError(t, tree.AppendQuestion("l3", &Question{ID: "q1", Difficulty: TierAdvanced, Content: "c", CorrectAnswer: "a"}))

	raw, err := tree.Encode()
	assert.NoError(t, err)

	decoded, err := DecodeTree(raw)
	assert.NoError(t, err)
	assert.Equal(t, "Go", decoded.TopicName)

	node, ok := decoded.Node("l3")
	assert.True(t, ok, "index must be rebuilt after decode")
	assert.Len(t, node.Questions[TierAdvanced], 1)
}

func TestDecodeTree_Invalid(t *testing.T) {
	_, err := DecodeTree([]byte("{not json"))
	assert.Error(t, err)

	_, err = DecodeTree([]byte(`{"topic_name":"Go"}`))
	assert.Error(t, err, "a tree without a root is unusable")
}
