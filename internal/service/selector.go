package service

import (
	"smart-practice/internal/domain"
)

// QuestionSelector picks an unseen question from a leaf's bank.
type QuestionSelector struct{}

// Select scans the node's bank for the tier in stored order and returns the
// first question absent from the session history. It returns
// domain.ErrBankExhausted when every question at the tier has been served;
// the caller recovers by requesting a dynamically generated replacement.
func (QuestionSelector) Select(node *domain.ConceptNode, tier domain.DifficultyTier, history []string) (*domain.Question, error) {
	for _, q := range node.Questions[tier] {
		if !containsID(history, q.ID) {
			return q, nil
		}
	}
	return nil, domain.ErrBankExhausted
}

func containsID(history []string, id string) bool {
	for _, h := range history {
		if h == id {
			return true
		}
	}
	return false
}
