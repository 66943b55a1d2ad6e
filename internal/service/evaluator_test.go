package service

import (
	"testing"

	"smart-practice/internal/domain"

	"github.com/stretchr/testify/assert"
)

func mcQuestion() *domain.Question {
	return &domain.Question{
		ID:            "q1",
		Difficulty:    domain.TierBeginner,
		Kind:          domain.KindMultipleChoice,
		Content:       "What is the capital of the UK?",
		Options:       []string{"Paris", "London", "Berlin"},
		CorrectAnswer: "B",
	}
}

func TestEvaluate_DirectLetterMatch(t *testing.T) {
	ev := AnswerEvaluator{}
	q := mcQuestion()

	assert.True(t, ev.Evaluate(q, "B"))
	assert.True(t, ev.Evaluate(q, "b"))
	assert.True(t, ev.Evaluate(q, " b "))
	assert.False(t, ev.Evaluate(q, "A"))
}

func TestEvaluate_CaseAndWhitespaceInsensitive(t *testing.T) {
	ev := AnswerEvaluator{}
	q := &domain.Question{
		ID:            "q2",
		Kind:          domain.KindConceptExplanation,
		CorrectAnswer: "A",
	}

	assert.Equal(t, ev.Evaluate(q, "A"), ev.Evaluate(q, " a "))
	assert.True(t, ev.Evaluate(q, " a "))
}

func TestEvaluate_OptionTextMapsToLetter(t *testing.T) {
	ev := AnswerEvaluator{}
	q := mcQuestion()

	// Option text is matched verbatim and mapped to its positional letter.
	assert.True(t, ev.Evaluate(q, "London"))
	assert.True(t, ev.Evaluate(q, "  London  "))
	assert.False(t, ev.Evaluate(q, "paris"))
	assert.False(t, ev.Evaluate(q, "Paris"))
	assert.False(t, ev.Evaluate(q, "Madrid"))
}

func TestEvaluate_OptionMappingOnlyForMultipleChoice(t *testing.T) {
	ev := AnswerEvaluator{}
	q := mcQuestion()
	q.Kind = domain.KindCodeCorrection

	assert.False(t, ev.Evaluate(q, "London"))
	assert.True(t, ev.Evaluate(q, "B"))
}

func TestEvaluate_FullTextKey(t *testing.T) {
	ev := AnswerEvaluator{}
	q := &domain.Question{
		ID:            "q3",
		Kind:          domain.KindMultipleChoice,
		Options:       []string{"yes", "no"},
		CorrectAnswer: "yes",
	}

	assert.True(t, ev.Evaluate(q, "YES"))
	assert.False(t, ev.Evaluate(q, "no"))
}
