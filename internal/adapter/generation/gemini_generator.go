package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smart-practice/internal/config"
	"smart-practice/internal/domain"
	"smart-practice/internal/logger"
	"smart-practice/internal/util"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"
)

const corpusLimit = 80000

// GeminiGenerator implements domain.GenerationService on top of a Gemini
// model via langchaingo. Transient failures are retried here with
// exponential backoff; the engine itself never retries.
type GeminiGenerator struct {
	model        llms.Model
	modelName    string
	maxRetries   int
	retryBackoff time.Duration

	maxDepth     int
	minSubtopics int
	maxSubtopics int
}

// NewGeminiGenerator creates a generator backed by the Google AI API.
func NewGeminiGenerator(llmCfg config.LLMConfig, tutorCfg config.TutorConfig) (domain.GenerationService, error) {
	if llmCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key cannot be empty")
	}
	if llmCfg.Model == "" {
		return nil, fmt.Errorf("gemini model name cannot be empty")
	}

	client, err := googleai.New(context.Background(),
		googleai.WithAPIKey(llmCfg.APIKey),
		googleai.WithDefaultModel(llmCfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGenerator(client, llmCfg, tutorCfg), nil
}

// newGenerator wires an arbitrary llms.Model; tests use it with a fake.
func newGenerator(model llms.Model, llmCfg config.LLMConfig, tutorCfg config.TutorConfig) *GeminiGenerator {
	g := &GeminiGenerator{
		model:        model,
		modelName:    llmCfg.Model,
		maxRetries:   llmCfg.MaxRetries,
		retryBackoff: llmCfg.RetryBackoff,
		maxDepth:     tutorCfg.MaxHierarchyDepth,
		minSubtopics: tutorCfg.MinSubtopics,
		maxSubtopics: tutorCfg.MaxSubtopics,
	}
	if g.maxRetries <= 0 {
		g.maxRetries = 3
	}
	if g.retryBackoff <= 0 {
		g.retryBackoff = 2 * time.Second
	}
	if g.maxDepth <= 0 {
		g.maxDepth = 3
	}
	if g.minSubtopics <= 0 {
		g.minSubtopics = 3
	}
	if g.maxSubtopics <= 0 {
		g.maxSubtopics = 5
	}
	return g
}

// skeletonNode mirrors the nested JSON shape the model is asked to emit
// for the hierarchy pass.
type skeletonNode struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Children    []skeletonNode `json:"children"`
}

// GenerateHierarchy implements domain.GenerationService. It asks the model
// to plan the entire curriculum tree in one shot and converts the skeleton
// into ConceptNodes with ids, breadcrumb paths and leaf flags.
func (g *GeminiGenerator) GenerateHierarchy(ctx context.Context, topicName, corpus string) (*domain.ConceptNode, error) {
	prompt := fmt.Sprintf(`You are a senior curriculum architect.
Create a hierarchical learning path for the topic: %q.

Output a nested JSON object representing the curriculum tree.

Rules:
1. Maximum depth is %d (e.g. Topic -> Sub-topic -> Leaf).
2. Group related concepts logically (%d-%d items per group).
3. The deepest nodes must be specific concepts testable by simple questions.

JSON structure:
{
  "name": %q,
  "description": "...",
  "children": [
    {
      "name": "Sub Topic A",
      "description": "...",
      "children": [
        { "name": "Concept A1", "description": "...", "children": [] }
      ]
    }
  ]
}

Content reference:
%s`, topicName, g.maxDepth, g.minSubtopics, g.maxSubtopics, topicName, truncate(corpus, corpusLimit))

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var skeleton skeletonNode
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object found in hierarchy response")
	}
	if err := json.Unmarshal([]byte(payload), &skeleton); err != nil {
		return nil, fmt.Errorf("failed to parse hierarchy response: %w", err)
	}
	if skeleton.Name == "" {
		return nil, fmt.Errorf("hierarchy response has no root name")
	}

	return buildNode(skeleton, nil, ""), nil
}

// buildNode converts a skeleton subtree into owned ConceptNodes.
func buildNode(sk skeletonNode, parentPath []string, parentID string) *domain.ConceptNode {
	path := make([]string, 0, len(parentPath)+1)
	path = append(path, parentPath...)
	path = append(path, sk.Name)

	node := &domain.ConceptNode{
		ID:          util.NewULID(),
		Name:        sk.Name,
		Description: sk.Description,
		Path:        path,
		ParentID:    parentID,
		IsLeaf:      len(sk.Children) == 0,
	}
	for _, child := range sk.Children {
		node.Children = append(node.Children, buildNode(child, path, node.ID))
	}
	return node
}

// questionPayload mirrors the JSON shape the model is asked to emit for a
// single question.
type questionPayload struct {
	Content       string   `json:"content"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// GenerateQuestion implements domain.GenerationService.
func (g *GeminiGenerator) GenerateQuestion(ctx context.Context, conceptName, description string, tier domain.DifficultyTier) (*domain.Question, error) {
	prompt := fmt.Sprintf(`Generate a NEW one-shot practice question for the concept: %q.
Difficulty: %s
Description: %s

Create a multiple-choice question. The correct_answer must be the letter of
the correct option (A, B, C or D).

Output JSON:
{
  "content": "...",
  "options": ["...", "...", "...", "..."],
  "correct_answer": "A",
  "explanation": "..."
}`, conceptName, tier, description)

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object found in question response")
	}
	var qp questionPayload
	if err := json.Unmarshal([]byte(payload), &qp); err != nil {
		return nil, fmt.Errorf("failed to parse question response: %w", err)
	}
	if qp.Content == "" || qp.CorrectAnswer == "" {
		return nil, fmt.Errorf("question response missing content or correct_answer")
	}

	return &domain.Question{
		ID:            util.NewULID(),
		Difficulty:    tier,
		Kind:          domain.KindMultipleChoice,
		Content:       qp.Content,
		Options:       qp.Options,
		CorrectAnswer: qp.CorrectAnswer,
		Explanation:   qp.Explanation,
		Metadata: map[string]string{
			"generated": "dynamic",
			"model":     g.modelName,
		},
	}, nil
}

// complete calls the model, retrying transient failures with exponential
// backoff. Context cancellation stops the retry loop immediately.
func (g *GeminiGenerator) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := g.retryBackoff * time.Duration(1<<(attempt-1))
			logger.Get().Warn("Retrying LLM call",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(0.2))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("LLM call failed after %d attempts: %w", g.maxRetries, lastErr)
}

// extractJSON pulls the first JSON object out of a model response,
// tolerating code fences and reasoning tags around it.
func extractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd != -1 && thinkEnd > thinkStart {
			cleaned = cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):]
		}
	}

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// Static assertion to ensure GeminiGenerator implements GenerationService
var _ domain.GenerationService = (*GeminiGenerator)(nil)
