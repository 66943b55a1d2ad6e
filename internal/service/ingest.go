package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"smart-practice/internal/cache"
	"smart-practice/internal/config"
	"smart-practice/internal/domain"
	"smart-practice/internal/dto"
	"smart-practice/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IngestionService builds a topic's knowledge tree from raw corpus text
// using the content-generation collaborator. Two passes: the hierarchy
// skeleton in one shot, then the leaf question banks.
type IngestionService interface {
	IngestTopic(ctx context.Context, topicName, corpus string) (*dto.IngestResponse, error)
}

type ingestionService struct {
	topics    domain.TopicRepository
	generator domain.GenerationService
	treeCache domain.Cache
	cfg       config.TutorConfig
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(
	topics domain.TopicRepository,
	generator domain.GenerationService,
	treeCache domain.Cache,
	cfg config.TutorConfig,
) IngestionService {
	return &ingestionService{
		topics:    topics,
		generator: generator,
		treeCache: treeCache,
		cfg:       cfg,
	}
}

// IngestTopic generates and persists the full tree for a topic. An
// existing tree for the same topic is replaced.
func (s *ingestionService) IngestTopic(ctx context.Context, topicName, corpus string) (*dto.IngestResponse, error) {
	if topicName == "" {
		return nil, domain.NewInvalidInputError("topic_name is required")
	}
	if s.generator == nil {
		return nil, domain.NewError(domain.ErrGenerationFailure,
			fmt.Sprintf("cannot ingest topic %q", topicName), fmt.Errorf("no generation service configured"))
	}

	logger.Get().Info("Ingestion pass 1: architecting structure", zap.String("topic", topicName))
	root, err := s.generator.GenerateHierarchy(ctx, topicName, corpus)
	if err != nil {
		return nil, domain.NewError(domain.ErrGenerationFailure,
			fmt.Sprintf("failed to generate hierarchy for topic %q", topicName), err)
	}

	tree := domain.NewKnowledgeTree(topicName, root)
	leaves := tree.Leaves()

	logger.Get().Info("Ingestion pass 2: populating question banks",
		zap.String("topic", topicName),
		zap.Int("leaves", len(leaves)))

	var questionCount int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())

	for _, leaf := range leaves {
		leaf := leaf
		g.Go(func() error {
			n, err := s.populateLeaf(gctx, tree, leaf)
			if err != nil {
				return err
			}
			atomic.AddInt64(&questionCount, int64(n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.NewError(domain.ErrGenerationFailure,
			fmt.Sprintf("failed to populate question banks for topic %q", topicName), err)
	}

	if s.treeCache != nil {
		_ = s.treeCache.Delete(ctx, cache.TreeKey(topicName))
	}
	if err := s.topics.SaveTree(ctx, tree); err != nil {
		return nil, domain.NewPersistenceError("failed to persist knowledge tree", err)
	}

	conceptCount := len(countNodes(tree))
	logger.Get().Info("Ingestion complete",
		zap.String("topic", topicName),
		zap.Int("concepts", conceptCount),
		zap.Int("leaves", len(leaves)),
		zap.Int64("questions", questionCount))

	return &dto.IngestResponse{
		Message:       fmt.Sprintf("Successfully ingested %s", topicName),
		TopicName:     topicName,
		ConceptCount:  conceptCount,
		LeafCount:     len(leaves),
		QuestionCount: int(questionCount),
	}, nil
}

// populateLeaf fills one leaf's bank according to the configured per-tier
// counts and returns the number of questions generated.
func (s *ingestionService) populateLeaf(ctx context.Context, tree *domain.KnowledgeTree, leaf *domain.ConceptNode) (int, error) {
	generated := 0
	for _, tier := range []domain.DifficultyTier{domain.TierBeginner, domain.TierIntermediate, domain.TierAdvanced} {
		for i := 0; i < s.questionsFor(tier); i++ {
			q, err := s.generator.GenerateQuestion(ctx, leaf.Name, leaf.Description, tier)
			if err != nil {
				return generated, fmt.Errorf("leaf %q tier %s: %w", leaf.Name, tier, err)
			}
			if err := q.Validate(); err != nil {
				return generated, fmt.Errorf("leaf %q tier %s: %w", leaf.Name, tier, err)
			}
			if err := tree.AppendQuestion(leaf.ID, q); err != nil {
				return generated, err
			}
			generated++
		}
	}
	return generated, nil
}

func (s *ingestionService) questionsFor(tier domain.DifficultyTier) int {
	if n, ok := s.cfg.QuestionsPerLeaf[string(tier)]; ok && n >= 0 {
		return n
	}
	return 1
}

func (s *ingestionService) concurrency() int {
	if s.cfg.IngestConcurrency > 0 {
		return s.cfg.IngestConcurrency
	}
	return 4
}

func countNodes(tree *domain.KnowledgeTree) []*domain.ConceptNode {
	var nodes []*domain.ConceptNode
	stack := []*domain.ConceptNode{tree.Root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes = append(nodes, node)
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	return nodes
}
