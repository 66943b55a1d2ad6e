package service

import (
	"smart-practice/internal/domain"
)

// Outcome classifies the effect of applying one graded answer.
type Outcome int

const (
	// OutcomeContinue means practice on the concept continues as-is.
	OutcomeContinue Outcome = iota
	// OutcomeFastTrack means the streak was completed on an intermediate
	// question; the next tier selection will be advanced.
	OutcomeFastTrack
	// OutcomeMastered means the streak was completed on an advanced
	// question and the concept is now mastered.
	OutcomeMastered
)

// DifficultyPolicy is the per-concept difficulty state machine. The tier is
// never stored; it is recomputed from the skill counters on every call so
// it cannot desynchronize from them.
type DifficultyPolicy struct {
	StartingTier  domain.DifficultyTier
	MasteryStreak int
}

// NewDifficultyPolicy builds a policy, falling back to the defaults
// (intermediate probe, streak of 3) for zero values.
func NewDifficultyPolicy(startingTier domain.DifficultyTier, masteryStreak int) DifficultyPolicy {
	if !startingTier.Valid() {
		startingTier = domain.TierIntermediate
	}
	if masteryStreak <= 0 {
		masteryStreak = 3
	}
	return DifficultyPolicy{StartingTier: startingTier, MasteryStreak: masteryStreak}
}

// SelectTier maps the current skill counters to the tier to serve next.
// It is a pure function of (attempts, correct streak):
//
//   - no attempts yet: the configured starting tier (a deliberate probe)
//   - streak at or past the mastery streak: advanced
//   - streak of zero (last attempt was wrong): beginner
//   - otherwise: intermediate
func (p DifficultyPolicy) SelectTier(state *domain.SkillState) domain.DifficultyTier {
	if state == nil || state.Attempts == 0 {
		return p.StartingTier
	}
	if state.CorrectStreak >= p.MasteryStreak {
		return domain.TierAdvanced
	}
	if state.CorrectStreak == 0 {
		return domain.TierBeginner
	}
	return domain.TierIntermediate
}

// ApplyResult records one graded answer against the skill state and, when a
// streak completes, against the session's coverage map.
//
// Streak credit is tied to the tier of the question actually answered, not
// the tier the selector originally aimed for: completing the streak on an
// advanced question masters the concept and clears the active node so the
// traversal reselects; completing it on an intermediate question only
// fast-tracks. An incorrect answer resets the streak; demotion to beginner
// happens implicitly on the next SelectTier call.
func (p DifficultyPolicy) ApplyResult(session *domain.SessionState, state *domain.SkillState, q *domain.Question, isCorrect bool) Outcome {
	state.Attempts++
	state.History = append(state.History, q.ID)

	if !isCorrect {
		state.CorrectStreak = 0
		return OutcomeContinue
	}

	state.CorrectStreak++
	if state.CorrectStreak < p.MasteryStreak {
		return OutcomeContinue
	}

	switch q.Difficulty {
	case domain.TierAdvanced:
		session.Coverage[state.NodeID] = true
		session.ActiveNodeID = ""
		return OutcomeMastered
	case domain.TierIntermediate:
		return OutcomeFastTrack
	}
	return OutcomeContinue
}
