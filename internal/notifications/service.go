package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"soundleaf/internal/config"
)

const userAgent = "Soundleaf/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyBookIngested(ctx context.Context, title string, pages int) error
	NotifyProcessingStarted(ctx context.Context, title string) error
	NotifyProcessingCompleted(ctx context.Context, title string, scenes, matched int, duration time.Duration) error
	NotifyReviewRequired(ctx context.Context, title string) error
	NotifyProcessingFailed(ctx context.Context, title, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyBookIngested(ctx context.Context, title string, pages int) error {
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Soundleaf - Book Ingested",
		message: fmt.Sprintf("Ingested: %s (%d pages)", title, pages),
		tags:    []string{"soundleaf", "ingest", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingStarted(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Soundleaf - Processing Started",
		message: fmt.Sprintf("Started processing: %s", title),
		tags:    []string{"soundleaf", "processing", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingCompleted(ctx context.Context, title string, scenes, matched int, duration time.Duration) error {
	title = strings.TrimSpace(title)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title: "Soundleaf - Processing Complete",
		message: fmt.Sprintf("%s: %d scenes, %d soundscapes matched in %s",
			title, scenes, matched, duration),
		tags:     []string{"soundleaf", "processing", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewRequired(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Soundleaf - Review Required",
		message: fmt.Sprintf("%s finished processing and awaits review", title),
		tags:    []string{"soundleaf", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingFailed(ctx context.Context, title, reason string) error {
	title = strings.TrimSpace(title)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Soundleaf - Processing Failed",
		message:  fmt.Sprintf("%s failed: %s", title, reason),
		tags:     []string{"soundleaf", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Soundleaf - Test",
		message:  "Notification system test",
		tags:     []string{"soundleaf", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ntfy request failed: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyBookIngested(context.Context, string, int) error { return nil }
func (noopService) NotifyProcessingStarted(context.Context, string) error { return nil }
func (noopService) NotifyProcessingCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyReviewRequired(context.Context, string) error           { return nil }
func (noopService) NotifyProcessingFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
