package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"alfredoptarigan/creative-evaluator/internal/config"
)

// GeminiService adapts the Gemini API to QueryFunc.
type GeminiService interface {
	Query(ctx context.Context, messages []Message) (*Response, error)
	ActiveBackend() string
}

// contentGenerator is the subset of *genai.Models the adapter calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiService struct {
	models     contentGenerator
	cfg        config.GeminiConfig
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg config.GeminiConfig, worker config.WorkerConfig, logger *zap.Logger) (GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiService(client.Models, cfg, worker, logger), nil
}

func newGeminiService(models contentGenerator, cfg config.GeminiConfig, worker config.WorkerConfig, logger *zap.Logger) *geminiService {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}
	return &geminiService{
		models:     models,
		cfg:        cfg,
		maxRetries: max(worker.RetryMaxAttempts, 1),
		retryDelay: worker.RetryInitialDelay,
		limiter:    limiter,
		logger:     logger.Named("gemini"),
	}
}

// ActiveBackend implements GeminiService.
func (g *geminiService) ActiveBackend() string {
	if g.cfg.FallbackModel != "" {
		return fmt.Sprintf("gemini:%s (fallback %s)", g.cfg.Model, g.cfg.FallbackModel)
	}
	return "gemini:" + g.cfg.Model
}

// Query implements GeminiService. An empty reply yields a nil Response. A 429
// from the primary model moves the call to the fallback model; a 429 with no
// model left is returned wrapping ErrRateLimited.
func (g *geminiService) Query(ctx context.Context, messages []Message) (*Response, error) {
	system, contents := toGeminiContents(messages)
	if len(contents) == 0 {
		return nil, errors.New("no user content to send")
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       &g.cfg.Temperature,
		TopP:              &g.cfg.TopP,
		MaxOutputTokens:   g.cfg.MaxOutputTokens,
	}

	text, err := g.generateWithRetry(ctx, g.cfg.Model, contents, genConfig)
	if err != nil && isGeminiRateLimit(err) && g.cfg.FallbackModel != "" && g.cfg.FallbackModel != g.cfg.Model {
		g.logger.Warn("⚠️ Primary model rate limited, switching to fallback",
			zap.String("model", g.cfg.Model),
			zap.String("fallback_model", g.cfg.FallbackModel),
		)
		text, err = g.generateWithRetry(ctx, g.cfg.FallbackModel, contents, genConfig)
	}
	if err != nil {
		if isGeminiRateLimit(err) {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		g.logger.Warn("⚠️ Gemini returned an empty response")
		return nil, nil
	}
	return &Response{Content: text}, nil
}

// generateWithRetry retries everything except rate limiting, doubling the delay
// after each failed attempt.
func (g *geminiService) generateWithRetry(ctx context.Context, model string, contents []*genai.Content, genConfig *genai.GenerateContentConfig) (string, error) {
	var lastErr error
	delay := g.retryDelay

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("context cancelled: %w", err)
		}
		resp, err := g.models.GenerateContent(ctx, model, contents, genConfig)
		if err == nil {
			if resp == nil {
				return "", nil
			}
			return resp.Text(), nil
		}
		lastErr = err

		if isGeminiRateLimit(err) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		}
		if attempt == g.maxRetries {
			break
		}

		g.logger.Warn("⚠️ Gemini call failed, retrying",
			zap.String("model", model),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return "", fmt.Errorf("failed after %d attempts: %w", g.maxRetries, lastErr)
}

// toGeminiContents maps chat messages onto Gemini's model. System messages are
// joined into the system instruction and assistant turns take the model role.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case MessageRoleSystem:
			systemParts = append(systemParts, m.Content)
		case MessageRoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	return system, contents
}

func isGeminiRateLimit(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return true
	}
	return IsRateLimitError(err)
}
