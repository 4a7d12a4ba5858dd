package services

import (
	"context"
	"errors"
	"strings"
)

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

type Response struct {
	Content string `json:"content"`
}

// QueryFunc sends one conversation to a language model. A nil Response with a nil
// error means the model produced nothing. Rate-limit failures must satisfy
// IsRateLimitError.
type QueryFunc func(ctx context.Context, messages []Message) (*Response, error)

// ErrRateLimited marks a provider quota rejection. It aborts a whole run.
var ErrRateLimited = errors.New("rate limited (429)")

// IsRateLimitError reports whether err carries a rate-limit signature.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
