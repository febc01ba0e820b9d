package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"soundleaf/internal/config"
	"soundleaf/internal/descriptor"
	"soundleaf/internal/logging"
	"soundleaf/internal/retry"
	"soundleaf/internal/services"
)

// Unit is one classification request: a single page or a two-page spread.
type Unit struct {
	Index     int
	StartPage int
	EndPage   int
	Text      string
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	api    *openai.Client
	model  string
	policy retry.Policy
	logger *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithRetryPolicy overrides the retry behavior (useful for tests).
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// New constructs a classifier client from configuration.
func New(cfg config.Classifier, logger *slog.Logger, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "analyzing", "classifier_init", "api key required", nil)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	client := &Client{
		api:   openai.NewClientWithConfig(clientCfg),
		model: strings.TrimSpace(cfg.Model),
		policy: retry.Policy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   time.Duration(cfg.RetryBaseSeconds) * time.Second,
			MaxJitter:   500 * time.Millisecond,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.logger == nil {
		client.logger = logging.NewNop()
	}
	return client, nil
}

// Classify requests a descriptor set for one unit. The returned set is
// normalized: lowercase values with unknown filled for missing fields.
func (c *Client) Classify(ctx context.Context, unit Unit) (descriptor.Set, error) {
	text := strings.TrimSpace(unit.Text)
	if text == "" {
		return descriptor.Set{}, services.Wrap(services.ErrValidation, "analyzing", "classify",
			fmt.Sprintf("unit %d has no text", unit.Index), nil)
	}

	var set descriptor.Set
	err := retry.Do(ctx, c.policy, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			c.logger.Debug("retrying classification",
				logging.Int("unit_index", unit.Index),
				logging.Int("attempt", attempt))
		}
		parsed, err := c.classifyOnce(ctx, text)
		if err != nil {
			return err
		}
		set = parsed
		return nil
	})
	if err != nil {
		return descriptor.Set{}, services.Wrap(services.ErrClassification, "analyzing", "classify",
			fmt.Sprintf("unit %d starting at page %d", unit.Index, unit.StartPage), err)
	}
	return set, nil
}

func (c *Client) classifyOnce(ctx context.Context, text string) (descriptor.Set, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if !retryable(err) {
			return descriptor.Set{}, retry.Permanent(err)
		}
		return descriptor.Set{}, err
	}
	if len(resp.Choices) == 0 {
		return descriptor.Set{}, errors.New("completion returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return descriptor.Set{}, errors.New("completion returned empty content")
	}

	var set descriptor.Set
	if err := decodePayload(content, &set); err != nil {
		return descriptor.Set{}, fmt.Errorf("parse descriptors: %w", err)
	}
	return set.Normalize(), nil
}

// HealthCheck issues a minimal completion to verify the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You must respond with JSON only."},
			{Role: openai.ChatMessageRoleUser, Content: `Respond with {"ok":true}`},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return fmt.Errorf("classifier health: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("classifier health: empty response")
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := decodePayload(resp.Choices[0].Message.Content, &parsed); err != nil {
		return fmt.Errorf("classifier health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("classifier health: unexpected response")
	}
	return nil
}

// retryable reports whether a transport error is worth another attempt.
// Rate limits, timeouts, and server errors retry; other 4xx responses fail
// immediately because re-sending the same payload cannot help.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusRequestTimeout,
			apiErr.HTTPStatusCode == http.StatusTooManyRequests,
			apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// decodePayload decodes JSON from a model response, tolerating code fences
// and prose around the object.
func decodePayload(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizePayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, payloadSnippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, payloadSnippet(sanitized))
	}
	return nil
}

func sanitizePayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func payloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}
