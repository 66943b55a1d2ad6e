package generation

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"smart-practice/internal/config"
	"smart-practice/internal/domain"
	"smart-practice/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"
)

// TestMain initializes the logger for all tests in this package
func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{}); err != nil {
		panic("Failed to initialize logger for tests: " + err.Error())
	}

	exitVal := m.Run()

	_ = logger.Sync()
	os.Exit(exitVal)
}

// fakeModel serves scripted responses in order. A nil entry yields an error,
// which is how the retry tests inject transient failures.
type fakeModel struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	resp := ""
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: resp}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, nil, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func fastLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Model:        "gemini-2.0-flash-lite",
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}
}

func TestGenerateHierarchy_BuildsConceptTree(t *testing.T) {
	model := &fakeModel{responses: []string{`{
		"name": "Go",
		"description": "The Go language",
		"children": [
			{
				"name": "Concurrency",
				"description": "Concurrent programming",
				"children": [
					{"name": "Goroutines", "description": "Lightweight threads", "children": []},
					{"name": "Channels", "description": "Typed conduits", "children": []}
				]
			}
		]
	}`}}

	g := newGenerator(model, fastLLMConfig(), config.TutorConfig{})
	root, err := g.GenerateHierarchy(context.Background(), "Go", "corpus")

	assert.NoError(t, err)
	assert.Equal(t, "Go", root.Name)
	assert.NotEmpty(t, root.ID)
	assert.False(t, root.IsLeaf)
	assert.Empty(t, root.ParentID)
	assert.Equal(t, []string{"Go"}, root.Path)

	concurrency := root.Children[0]
	assert.Equal(t, root.ID, concurrency.ParentID)
	assert.Equal(t, []string{"Go", "Concurrency"}, concurrency.Path)
	assert.Len(t, concurrency.Children, 2)

	goroutines := concurrency.Children[0]
	assert.True(t, goroutines.IsLeaf)
	assert.Equal(t, []string{"Go", "Concurrency", "Goroutines"}, goroutines.Path)
	assert.NotEqual(t, root.ID, goroutines.ID)
}

func TestGenerateHierarchy_ToleratesFencedResponse(t *testing.T) {
	model := &fakeModel{responses: []string{"```json\n{\"name\": \"Go\", \"description\": \"d\", \"children\": []}\n```"}}

	g := newGenerator(model, fastLLMConfig(), config.TutorConfig{})
	root, err := g.GenerateHierarchy(context.Background(), "Go", "")

	assert.NoError(t, err)
	assert.Equal(t, "Go", root.Name)
	assert.True(t, root.IsLeaf)
}

func TestGenerateHierarchy_RejectsNonJSON(t *testing.T) {
	model := &fakeModel{responses: []string{"I cannot produce that."}}

	g := newGenerator(model, fastLLMConfig(), config.TutorConfig{})
	_, err := g.GenerateHierarchy(context.Background(), "Go", "")

	assert.Error(t, err)
}

func TestGenerateQuestion_ParsesPayload(t *testing.T) {
	model := &fakeModel{responses: []string{`{
		"content": "Which keyword starts a goroutine?",
		"options": ["go", "run", "spawn", "fork"],
		"correct_answer": "A",
		"explanation": "The go statement starts a new goroutine."
	}`}}

	g := newGenerator(model, fastLLMConfig(), config.TutorConfig{})
	q, err := g.GenerateQuestion(context.Background(), "Goroutines", "Lightweight threads", domain.TierBeginner)

	assert.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, domain.TierBeginner, q.Difficulty)
	assert.Equal(t, domain.KindMultipleChoice, q.Kind)
	assert.Equal(t, "A", q.CorrectAnswer)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, "dynamic", q.Metadata["generated"])
	assert.Equal(t, "gemini-2.0-flash-lite", q.Metadata["model"])
	assert.NoError(t, q.Validate())
}

func TestGenerateQuestion_MissingFields(t *testing.T) {
	model := &fakeModel{responses: []string{`{"options": ["a", "b"]}`}}

	g := newGenerator(model, fastLLMConfig(), config.TutorConfig{})
	_, err := g.GenerateQuestion(context.Background(), "Goroutines", "", domain.TierBeginner)

	assert.Error(t, err)
}

func TestComplete_RetriesTransientFailures(t *testing.T) {
	model := &fakeModel{
		errs:      []error{errors.New("503"), errors.New("503"), nil},
		responses: []string{"", "", `{"name": "Go", "description": "d", "children": []}`},
	}

	g := newGenerator(model, fastLLMConfig(), config.TutorConfig{})
	root, err := g.GenerateHierarchy(context.Background(), "Go", "")

	assert.NoError(t, err)
	assert.Equal(t, "Go", root.Name)
	assert.Equal(t, 3, model.calls)
}

func TestComplete_GivesUpAfterMaxRetries(t *testing.T) {
	model := &fakeModel{errs: []error{errors.New("503"), errors.New("503"), errors.New("503")}}

	g := newGenerator(model, fastLLMConfig(), config.TutorConfig{})
	_, err := g.GenerateHierarchy(context.Background(), "Go", "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, model.calls)
}

func TestComplete_StopsOnContextCancel(t *testing.T) {
	model := &fakeModel{errs: []error{errors.New("503"), errors.New("503"), errors.New("503")}}
	cfg := fastLLMConfig()
	cfg.RetryBackoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newGenerator(model, cfg, config.TutorConfig{})
	_, err := g.GenerateHierarchy(ctx, "Go", "")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, model.calls, "no retry after cancellation")
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON("<think>hmm</think>\n{\"a\":1}"))
	assert.Equal(t, `{"a":1}`, extractJSON("Here you go:\n{\"a\":1}\nEnjoy!"))
	assert.Equal(t, "", extractJSON("no object here"))
}
