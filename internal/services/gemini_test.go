package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"alfredoptarigan/creative-evaluator/internal/config"
)

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []generateCall
	respond func(model string, attempt int) (*genai.GenerateContentResponse, error)
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, generateCall{model: model, contents: contents, config: cfg})
	attempt := 0
	for _, c := range f.calls {
		if c.model == model {
			attempt++
		}
	}
	f.mu.Unlock()
	return f.respond(model, attempt)
}

func (f *fakeGenerator) modelsCalled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.model
	}
	return out
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}
}

var errQuota = genai.APIError{Code: 429, Message: "quota exceeded", Status: "RESOURCE_EXHAUSTED"}

func testGeminiConfig() (config.GeminiConfig, config.WorkerConfig) {
	return config.GeminiConfig{
			Model:           "primary-model",
			FallbackModel:   "fallback-model",
			Temperature:     0.7,
			TopP:            0.95,
			MaxOutputTokens: 4096,
		}, config.WorkerConfig{
			RetryMaxAttempts:  3,
			RetryInitialDelay: time.Millisecond,
		}
}

func newTestGemini(t *testing.T, gen *fakeGenerator) *geminiService {
	t.Helper()
	cfg, worker := testGeminiConfig()
	return newGeminiService(gen, cfg, worker, zaptest.NewLogger(t))
}

func TestGeminiQuery_MessageConversion(t *testing.T) {
	gen := &fakeGenerator{respond: func(string, int) (*genai.GenerateContentResponse, error) {
		return textResponse(`{"result": "PASS"}`), nil
	}}

	resp, err := newTestGemini(t, gen).Query(context.Background(), []Message{
		{Role: MessageRoleSystem, Content: "You are a strategist."},
		{Role: MessageRoleUser, Content: "Evaluate this."},
		{Role: MessageRoleAssistant, Content: "Understood."},
		{Role: MessageRoleSystem, Content: "Be strict."},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, `{"result": "PASS"}`, resp.Content)

	require.Len(t, gen.calls, 1)
	call := gen.calls[0]
	assert.Equal(t, "primary-model", call.model)
	require.Len(t, call.contents, 2)
	assert.Equal(t, genai.RoleUser, call.contents[0].Role)
	assert.Equal(t, "Evaluate this.", call.contents[0].Parts[0].Text)
	assert.Equal(t, genai.RoleModel, call.contents[1].Role)

	require.NotNil(t, call.config.SystemInstruction)
	assert.Equal(t, "You are a strategist.\n\nBe strict.", call.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, float32(0.7), *call.config.Temperature)
	assert.Equal(t, int32(4096), call.config.MaxOutputTokens)
}

func TestGeminiQuery_RequiresUserContent(t *testing.T) {
	gen := &fakeGenerator{}

	_, err := newTestGemini(t, gen).Query(context.Background(), []Message{{Role: MessageRoleSystem, Content: "only system"}})

	assert.Error(t, err)
	assert.Empty(t, gen.calls)
}

func TestGeminiQuery_RetriesTransientErrors(t *testing.T) {
	gen := &fakeGenerator{respond: func(_ string, attempt int) (*genai.GenerateContentResponse, error) {
		if attempt < 3 {
			return nil, errors.New("503 backend unavailable")
		}
		return textResponse("ok"), nil
	}}

	resp, err := newTestGemini(t, gen).Query(context.Background(), []Message{{Role: MessageRoleUser, Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, []string{"primary-model", "primary-model", "primary-model"}, gen.modelsCalled())
}

func TestGeminiQuery_GivesUpAfterMaxAttempts(t *testing.T) {
	gen := &fakeGenerator{respond: func(string, int) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("500 internal")
	}}

	_, err := newTestGemini(t, gen).Query(context.Background(), []Message{{Role: MessageRoleUser, Content: "hi"}})

	assert.ErrorContains(t, err, "failed after 3 attempts")
	assert.False(t, IsRateLimitError(err))
	assert.Len(t, gen.calls, 3)
}

func TestGeminiQuery_FallsBackOnRateLimit(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, _ int) (*genai.GenerateContentResponse, error) {
		if model == "primary-model" {
			return nil, errQuota
		}
		return textResponse("from fallback"), nil
	}}

	resp, err := newTestGemini(t, gen).Query(context.Background(), []Message{{Role: MessageRoleUser, Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)
	assert.Equal(t, []string{"primary-model", "fallback-model"}, gen.modelsCalled(), "rate limits are not retried")
}

func TestGeminiQuery_RateLimitedEverywhere(t *testing.T) {
	gen := &fakeGenerator{respond: func(string, int) (*genai.GenerateContentResponse, error) {
		return nil, errQuota
	}}

	_, err := newTestGemini(t, gen).Query(context.Background(), []Message{{Role: MessageRoleUser, Content: "hi"}})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, []string{"primary-model", "fallback-model"}, gen.modelsCalled())
}

func TestGeminiQuery_EmptyReply(t *testing.T) {
	for name, resp := range map[string]*genai.GenerateContentResponse{
		"nil response": nil,
		"blank text":   textResponse("   "),
		"no content":   {},
	} {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{respond: func(string, int) (*genai.GenerateContentResponse, error) { return resp, nil }}

			got, err := newTestGemini(t, gen).Query(context.Background(), []Message{{Role: MessageRoleUser, Content: "hi"}})

			assert.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestGeminiQuery_CancelledDuringBackoff(t *testing.T) {
	cfg, worker := testGeminiConfig()
	worker.RetryInitialDelay = time.Hour
	gen := &fakeGenerator{respond: func(string, int) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("temporary")
	}}
	svc := newGeminiService(gen, cfg, worker, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Query(ctx, []Message{{Role: MessageRoleUser, Content: "hi"}})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, gen.calls, 1)
}

func TestGeminiActiveBackend(t *testing.T) {
	cfg, worker := testGeminiConfig()
	assert.Equal(t, "gemini:primary-model (fallback fallback-model)", newGeminiService(&fakeGenerator{}, cfg, worker, nil).ActiveBackend())

	cfg.FallbackModel = ""
	assert.Equal(t, "gemini:primary-model", newGeminiService(&fakeGenerator{}, cfg, worker, nil).ActiveBackend())
}

func TestNewGeminiService_RequiresAPIKey(t *testing.T) {
	cfg, worker := testGeminiConfig()

	_, err := NewGeminiService(context.Background(), cfg, worker, nil)

	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(ErrRateLimited))
	assert.True(t, IsRateLimitError(errors.New("googleapi: Error 429: Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE_EXHAUSTED")))
	assert.False(t, IsRateLimitError(errors.New("deadline exceeded")))
	assert.False(t, IsRateLimitError(nil))

	assert.True(t, isGeminiRateLimit(errQuota))
	assert.True(t, isGeminiRateLimit(&genai.APIError{Code: 429}))
	assert.False(t, isGeminiRateLimit(genai.APIError{Code: 500}))
}
