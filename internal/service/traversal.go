package service

import (
	"smart-practice/internal/domain"
)

// TraversalPolicy selects the concept a session should practice next.
//
// Selection is sticky: while the active concept is an unmastered leaf it is
// returned unchanged, so a learner is not bounced between concepts
// mid-practice. Otherwise the tree is walked depth-first in pre-order and
// the first unmastered leaf wins. A nil result means every leaf is mastered.
type TraversalPolicy struct{}

// SelectActive resolves the active concept for the session, updating
// session.ActiveNodeID as a side effect. Returns nil when the topic is
// complete.
func (TraversalPolicy) SelectActive(tree *domain.KnowledgeTree, session *domain.SessionState) *domain.ConceptNode {
	if session.ActiveNodeID != "" {
		if node, ok := tree.Node(session.ActiveNodeID); ok && node.IsLeaf && !session.Mastered(node.ID) {
			return node
		}
		// Stale or mastered reference; fall through to reselection.
		session.ActiveNodeID = ""
	}

	// Explicit stack; children pushed in reverse so the leftmost child is
	// explored first, giving document order.
	stack := []*domain.ConceptNode{tree.Root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.IsLeaf {
			if !session.Mastered(node.ID) {
				session.ActiveNodeID = node.ID
				return node
			}
			continue
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}

	return nil
}
