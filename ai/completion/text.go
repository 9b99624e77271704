// Package completion wraps single upstream model calls. The services here
// own retries, truncation, and response normalization so that agents never
// need error handling around an LLM call: every entry point returns a string.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ASGawde/AgriGPT/ai/core/llm"
	"github.com/ASGawde/AgriGPT/ai/internal/strutil"
)

// ClientManager supplies the shared upstream connection handle.
type ClientManager interface {
	Acquire(ctx context.Context) (llm.ChatClient, error)
	MarkFailed()
}

const (
	// DefaultPromptCeiling is the character limit applied to prompts before
	// sending upstream.
	DefaultPromptCeiling = 12000

	// DefaultMaxRetries is the total number of attempts for a transient
	// failure before degrading to an error string.
	DefaultMaxRetries = 3

	truncationNotice = "\n\n[Note: the question was shortened to fit the model input limit.]"

	noResponseMessage = "I could not generate a response at this moment. Please try again."
)

// TextConfig configures the text completion service.
type TextConfig struct {
	Model          string
	Temperature    float32
	MaxTokens      int
	PromptCeiling  int
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// TextService sends a single advisory prompt plus system message to the
// upstream chat model.
type TextService struct {
	manager ClientManager
	cfg     TextConfig
}

// NewTextService creates a text completion service backed by the shared
// client manager.
func NewTextService(manager ClientManager, cfg TextConfig) *TextService {
	if cfg.PromptCeiling <= 0 {
		cfg.PromptCeiling = DefaultPromptCeiling
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 600
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.6
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	return &TextService{manager: manager, cfg: cfg}
}

// Complete sends the prompt and returns the model content. It always returns
// a string: model content, a "no response" placeholder, or a descriptive
// error string. Transient upstream failures are retried with increasing
// backoff; terminal failures return immediately.
func (s *TextService) Complete(ctx context.Context, prompt, systemMsg string) string {
	prompt = truncatePrompt(prompt, s.cfg.PromptCeiling)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMsg},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	content, err := s.attemptWithRetry(ctx, messages)
	if err != nil {
		return fmt.Sprintf("Error while generating response: %v", err)
	}
	return content
}

// Chat is the raw single-attempt variant used by the routing sub-protocol,
// where the caller needs to distinguish an upstream failure from content.
func (s *TextService) Chat(ctx context.Context, systemMsg, userMsg string) (string, error) {
	client, err := s.manager.Acquire(ctx)
	if err != nil {
		return "", err
	}

	// Low temperature keeps routing output deterministic.
	req := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMsg},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		if classified := llm.ClassifyError(err); classified.IsTransient() {
			s.manager.MarkFailed()
		}
		return "", fmt.Errorf("chat failed: %w", err)
	}
	return normalizeResponse(resp), nil
}

// attemptWithRetry drives the shared retry loop for text requests.
func (s *TextService) attemptWithRetry(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages:    messages,
	}
	return completeWithRetry(ctx, s.manager, req, s.cfg.MaxRetries, s.cfg.RetryBaseDelay)
}

// completeWithRetry performs up to maxRetries attempts, backing off between
// transient failures. Terminal failures return immediately.
func completeWithRetry(ctx context.Context, manager ClientManager, req openai.ChatCompletionRequest, maxRetries int, baseDelay time.Duration) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		client, err := manager.Acquire(ctx)
		if err != nil {
			return "", fmt.Errorf("acquire upstream handle: %w", err)
		}

		resp, err := client.CreateChatCompletion(ctx, req)
		if err == nil {
			return normalizeResponse(resp), nil
		}

		classified := llm.ClassifyError(err)
		if !classified.IsTransient() {
			slog.Warn("completion: terminal upstream failure",
				"model", req.Model,
				"error", err)
			return "", err
		}

		lastErr = err
		manager.MarkFailed()
		slog.Warn("completion: transient upstream failure, will retry",
			"model", req.Model,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err)

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("retry budget exhausted after %d attempts: %w", maxRetries, lastErr)
}

// normalizeResponse extracts plain text from a chat response, tolerating
// empty choices and blank content.
func normalizeResponse(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return noResponseMessage
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return noResponseMessage
	}
	return content
}

// truncatePrompt caps the prompt at ceiling characters and appends a visible
// notice when truncation occurred.
func truncatePrompt(prompt string, ceiling int) string {
	if len([]rune(prompt)) <= ceiling {
		return prompt
	}
	return strutil.CapRunes(prompt, ceiling) + truncationNotice
}
