package service

import (
	"strings"

	"smart-practice/internal/domain"
)

// AnswerEvaluator grades a raw user answer against a question's key.
// Matching is deterministic: no partial credit, no fuzzy matching.
type AnswerEvaluator struct{}

// Evaluate reports whether the raw answer is correct.
//
// Both sides are trimmed and case-folded before the direct comparison. For
// multiple-choice questions a second chance applies: if the trimmed answer
// equals one of the option strings verbatim, its zero-based position is
// mapped to a letter (0 -> A, 1 -> B, ...) and compared against the key, so
// users may answer with either the letter or the full option text.
func (AnswerEvaluator) Evaluate(q *domain.Question, rawAnswer string) bool {
	user := strings.TrimSpace(rawAnswer)
	key := strings.TrimSpace(q.CorrectAnswer)

	if strings.EqualFold(user, key) {
		return true
	}

	if q.Kind != domain.KindMultipleChoice {
		return false
	}
	for i, opt := range q.Options {
		if user == opt {
			letter := string(rune('A' + i))
			return strings.EqualFold(letter, key)
		}
	}
	return false
}
