package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"smart-practice/internal/cache"
	"smart-practice/internal/domain"
	"smart-practice/internal/dto"
	"smart-practice/internal/logger"

	"go.uber.org/zap"
)

// TutorService drives adaptive practice sessions. Every call is keyed by
// (user, topic); there is no process-global session.
type TutorService interface {
	StartSession(ctx context.Context, userID, topicName string) (*dto.StartSessionResponse, error)
	GetNextQuestion(ctx context.Context, userID, topicName string) (*dto.QuestionResponse, error)
	SubmitAnswer(ctx context.Context, userID, topicName string, req *dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error)
	GetSessionStatus(ctx context.Context, userID, topicName string) (*dto.SessionStatusResponse, error)
	GetGraphSnapshot(ctx context.Context, userID, topicName string) (*dto.GraphSnapshotResponse, error)
}

type tutorService struct {
	topics    domain.TopicRepository
	sessions  domain.SessionRepository
	generator domain.GenerationService
	treeCache domain.Cache

	traversal  TraversalPolicy
	difficulty DifficultyPolicy
	selector   QuestionSelector
	evaluator  AnswerEvaluator

	genTimeout   time.Duration
	treeCacheTTL time.Duration

	// topicLocks serializes the load-append-save cycle of dynamic question
	// appends per topic. Each turn decodes its own tree instance from the
	// store, so the tree-level lock alone cannot order store writes.
	topicLocks sync.Map
}

// NewTutorService creates a new TutorService. generator and treeCache are
// optional: without a generator, bank exhaustion becomes a turn failure;
// without a cache, trees are loaded from the store on every call.
func NewTutorService(
	topics domain.TopicRepository,
	sessions domain.SessionRepository,
	generator domain.GenerationService,
	treeCache domain.Cache,
	difficulty DifficultyPolicy,
	genTimeout time.Duration,
) TutorService {
	if genTimeout <= 0 {
		genTimeout = 30 * time.Second
	}
	return &tutorService{
		topics:       topics,
		sessions:     sessions,
		generator:    generator,
		treeCache:    treeCache,
		difficulty:   difficulty,
		genTimeout:   genTimeout,
		treeCacheTTL: time.Hour,
	}
}

// StartSession creates a fresh session for the pair, replacing any prior
// session for the same user and topic.
func (s *tutorService) StartSession(ctx context.Context, userID, topicName string) (*dto.StartSessionResponse, error) {
	if userID == "" || topicName == "" {
		return nil, domain.NewInvalidInputError("user_id and topic_name are required")
	}

	if _, err := s.loadTree(ctx, topicName); err != nil {
		return nil, err
	}

	session := domain.NewSessionState(userID, topicName)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, domain.NewPersistenceError("failed to persist new session", err)
	}

	logger.Get().Info("Session started",
		zap.String("user_id", userID),
		zap.String("topic", topicName))

	return &dto.StartSessionResponse{
		Message:   fmt.Sprintf("Session started for %s", topicName),
		UserID:    userID,
		TopicName: topicName,
	}, nil
}

// GetNextQuestion runs one selection turn: pick the active concept, pick a
// tier from the skill state, then pick an unseen question, generating a
// replacement when the bank is exhausted. Done is set when all leaves are
// mastered.
func (s *tutorService) GetNextQuestion(ctx context.Context, userID, topicName string) (*dto.QuestionResponse, error) {
	tree, err := s.loadTree(ctx, topicName)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, userID, topicName)
	if err != nil {
		return nil, err
	}

	node := s.traversal.SelectActive(tree, session)
	if node == nil {
		return &dto.QuestionResponse{Done: true}, nil
	}

	state := session.Skill(node.ID)
	tier := s.difficulty.SelectTier(state)

	q, err := s.selector.Select(node, tier, state.History)
	if errors.Is(err, domain.ErrBankExhausted) {
		logger.Get().Info("Question bank exhausted, generating replacement",
			zap.String("concept", node.Name),
			zap.String("tier", string(tier)))
		q, err = s.generateReplacement(ctx, tree, node, tier)
	}
	if err != nil {
		return nil, err
	}

	// Selection may have moved the active node or created the skill state.
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, domain.NewPersistenceError("failed to persist session", err)
	}

	return &dto.QuestionResponse{
		ID:         q.ID,
		Content:    q.Content,
		Options:    q.Options,
		Difficulty: string(q.Difficulty),
		Kind:       string(q.Kind),
		Concept:    node.Breadcrumb(),
	}, nil
}

// SubmitAnswer grades the answer, advances the difficulty state machine and
// persists the session. The skill state and coverage map are only mutated
// in memory before the single SaveSession call, so a persistence failure
// leaves the stored session exactly as it was before the turn.
func (s *tutorService) SubmitAnswer(ctx context.Context, userID, topicName string, req *dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	if req == nil || req.QuestionID == "" {
		return nil, domain.NewInvalidInputError("question_id is required")
	}

	tree, err := s.loadTree(ctx, topicName)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, userID, topicName)
	if err != nil {
		return nil, err
	}

	if session.ActiveNodeID == "" {
		return nil, domain.NewNotFoundError("no active concept; request the next question first")
	}
	node, ok := tree.Node(session.ActiveNodeID)
	if !ok {
		return nil, domain.NewNotFoundError("active concept not found: " + session.ActiveNodeID)
	}

	q := findQuestion(node, req.QuestionID)
	if q == nil {
		// Also rejects resubmission after the concept has moved on.
		return nil, domain.NewNotFoundError("question not in active scope: " + req.QuestionID)
	}

	state := session.Skill(node.ID)
	if state.Seen(q.ID) {
		// Each served question is graded exactly once; replaying it would
		// double-count the streak.
		return nil, domain.NewInvalidInputError("question already answered this session: " + q.ID)
	}

	isCorrect := s.evaluator.Evaluate(q, req.UserAnswer)
	outcome := s.difficulty.ApplyResult(session, state, q, isCorrect)

	feedback := buildFeedback(q, isCorrect, outcome)

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, domain.NewPersistenceError("failed to persist session after answer", err)
	}

	result := domain.AssessmentResult{
		QuestionID: q.ID,
		UserAnswer: req.UserAnswer,
		IsCorrect:  isCorrect,
		Feedback:   feedback,
		AnsweredAt: time.Now(),
	}

	logger.Get().Info("Answer submitted",
		zap.String("user_id", userID),
		zap.String("concept", node.Name),
		zap.String("question_id", q.ID),
		zap.Bool("correct", isCorrect),
		zap.Int("streak", state.CorrectStreak))

	return &dto.SubmitAnswerResponse{
		QuestionID: result.QuestionID,
		IsCorrect:  result.IsCorrect,
		Feedback:   result.Feedback,
		Streak:     state.CorrectStreak,
		Mastered:   outcome == OutcomeMastered,
		AnsweredAt: result.AnsweredAt,
	}, nil
}

// GetSessionStatus reports the active breadcrumb and streak progress.
func (s *tutorService) GetSessionStatus(ctx context.Context, userID, topicName string) (*dto.SessionStatusResponse, error) {
	session, err := s.loadSession(ctx, userID, topicName)
	if err != nil {
		return nil, err
	}

	resp := &dto.SessionStatusResponse{
		TargetStreak: s.difficulty.MasteryStreak,
	}
	if session.ActiveNodeID == "" {
		// Between concepts or finished; either way nothing is being
		// practiced right now.
		tree, err := s.loadTree(ctx, topicName)
		if err != nil {
			return nil, err
		}
		resp.MasteredAll = allLeavesMastered(tree, session)
		return resp, nil
	}

	resp.Active = true
	tree, err := s.loadTree(ctx, topicName)
	if err != nil {
		return nil, err
	}
	if node, ok := tree.Node(session.ActiveNodeID); ok {
		resp.Breadcrumb = node.Breadcrumb()
	}
	if state, ok := session.NodeStates[session.ActiveNodeID]; ok {
		resp.Streak = state.CorrectStreak
	}
	return resp, nil
}

// GetGraphSnapshot produces a read-only view of the tree with each node
// tagged pending, active or mastered.
func (s *tutorService) GetGraphSnapshot(ctx context.Context, userID, topicName string) (*dto.GraphSnapshotResponse, error) {
	tree, err := s.loadTree(ctx, topicName)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, userID, topicName)
	if err != nil {
		return nil, err
	}

	snapshot := &dto.GraphSnapshotResponse{}
	queue := []*domain.ConceptNode{tree.Root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		status := "pending"
		switch {
		case node.ID == session.ActiveNodeID:
			status = "active"
		case session.Mastered(node.ID):
			status = "mastered"
		}

		nodeType := "topic"
		if node.IsLeaf {
			nodeType = "leaf"
		}

		snapshot.Nodes = append(snapshot.Nodes, dto.GraphNode{
			ID:     node.ID,
			Label:  node.Name,
			Type:   nodeType,
			Status: status,
		})
		if node.ParentID != "" {
			snapshot.Edges = append(snapshot.Edges, dto.GraphEdge{
				Source: node.ParentID,
				Target: node.ID,
			})
		}
		queue = append(queue, node.Children...)
	}

	return snapshot, nil
}

// generateReplacement obtains a dynamic question from the collaborator,
// appends it to the leaf's bank so grading can later find it by id, and
// persists the mutated tree. Failure here is a hard failure for the turn.
//
// The persistence step re-reads the stored tree under a per-topic lock and
// appends to that copy: the caller's tree may predate an append from a
// concurrent session on the same topic, and saving it directly would
// overwrite the other session's question.
func (s *tutorService) generateReplacement(ctx context.Context, tree *domain.KnowledgeTree, node *domain.ConceptNode, tier domain.DifficultyTier) (*domain.Question, error) {
	if s.generator == nil {
		return nil, domain.NewGenerationError(node.Name, tier, errors.New("no generation service configured"))
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	q, err := s.generator.GenerateQuestion(genCtx, node.Name, node.Description, tier)
	if err != nil {
		return nil, domain.NewGenerationError(node.Name, tier, err)
	}
	if err := q.Validate(); err != nil {
		return nil, domain.NewGenerationError(node.Name, tier, err)
	}

	mu := s.topicLock(tree.TopicName)
	mu.Lock()
	defer mu.Unlock()

	stored, err := s.topics.GetTree(ctx, tree.TopicName)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to reload knowledge tree for append", err)
	}
	if stored == nil {
		stored = tree
	}
	if err := stored.AppendQuestion(node.ID, q); err != nil {
		return nil, err
	}

	// Drop the cached copy before the store write so a concurrent reader
	// cannot re-populate the cache with the stale tree.
	if s.treeCache != nil {
		if err := s.treeCache.Delete(ctx, cache.TreeKey(tree.TopicName)); err != nil {
			logger.Get().Warn("Failed to invalidate tree cache", zap.Error(err))
		}
	}
	if err := s.topics.SaveTree(ctx, stored); err != nil {
		return nil, domain.NewPersistenceError("failed to persist tree after dynamic append", err)
	}

	logger.Get().Info("Dynamic question appended",
		zap.String("concept", node.Name),
		zap.String("tier", string(tier)),
		zap.String("question_id", q.ID))

	return q, nil
}

func (s *tutorService) topicLock(topicName string) *sync.Mutex {
	lock, _ := s.topicLocks.LoadOrStore(topicName, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *tutorService) loadTree(ctx context.Context, topicName string) (*domain.KnowledgeTree, error) {
	if s.treeCache != nil {
		if raw, err := s.treeCache.Get(ctx, cache.TreeKey(topicName)); err == nil {
			if tree, decErr := domain.DecodeTree([]byte(raw)); decErr == nil {
				return tree, nil
			}
			// Corrupt cache entry; fall back to the store.
			_ = s.treeCache.Delete(ctx, cache.TreeKey(topicName))
		}
	}

	tree, err := s.topics.GetTree(ctx, topicName)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to load knowledge tree", err)
	}
	if tree == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("knowledge base for topic %q not found; run ingestion first", topicName))
	}

	if s.treeCache != nil {
		if raw, err := tree.Encode(); err == nil {
			if err := s.treeCache.Set(ctx, cache.TreeKey(topicName), string(raw), s.treeCacheTTL); err != nil {
				logger.Get().Warn("Failed to cache knowledge tree", zap.Error(err))
			}
		}
	}
	return tree, nil
}

func (s *tutorService) loadSession(ctx context.Context, userID, topicName string) (*domain.SessionState, error) {
	session, err := s.sessions.GetSession(ctx, userID, topicName)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to load session", err)
	}
	if session == nil {
		return nil, domain.NewNotInitializedError(fmt.Sprintf("no session for user %q on topic %q; start a session first", userID, topicName))
	}
	return session, nil
}

// findQuestion scans every tier of a leaf's bank for the question id.
func findQuestion(node *domain.ConceptNode, questionID string) *domain.Question {
	for _, bank := range node.Questions {
		for _, q := range bank {
			if q.ID == questionID {
				return q
			}
		}
	}
	return nil
}

func buildFeedback(q *domain.Question, isCorrect bool, outcome Outcome) string {
	if !isCorrect {
		return fmt.Sprintf("Incorrect. Correct answer: %s. %s", q.CorrectAnswer, q.Explanation)
	}
	feedback := "Correct! " + q.Explanation
	switch outcome {
	case OutcomeFastTrack:
		feedback += " Fast-track: moving to advanced."
	case OutcomeMastered:
		feedback += " Concept mastered."
	}
	return feedback
}

func allLeavesMastered(tree *domain.KnowledgeTree, session *domain.SessionState) bool {
	for _, leaf := range tree.Leaves() {
		if !session.Mastered(leaf.ID) {
			return false
		}
	}
	return true
}
