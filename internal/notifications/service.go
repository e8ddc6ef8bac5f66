package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Microck/FrameScribe/internal/config"
)

const userAgent = "FrameScribe/0.1.0"

// RunSummary describes a finished run.
type RunSummary struct {
	Title     string
	OutputDir string
	Frames    int
	PDFSize   int64
	Elapsed   time.Duration
}

// Service defines the notification surface exposed to the session.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyRunFailed(ctx context.Context, title, stage string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	title := strings.TrimSpace(summary.Title)
	if title == "" {
		title = "untitled"
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s: %d frames", title, summary.Frames)
	if summary.PDFSize > 0 {
		fmt.Fprintf(&builder, ", %s PDF", humanize.IBytes(uint64(summary.PDFSize)))
	}
	if summary.Elapsed > 0 {
		fmt.Fprintf(&builder, " in %s", summary.Elapsed.Round(time.Second))
	}
	if dir := strings.TrimSpace(summary.OutputDir); dir != "" {
		builder.WriteString("\n")
		builder.WriteString(dir)
	}
	return n.send(ctx, payload{
		title:   "FrameScribe - Done",
		message: builder.String(),
		tags:    []string{"framescribe", "done"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, title, stage string, err error) error {
	var builder strings.Builder
	builder.WriteString("Run failed")
	if title = strings.TrimSpace(title); title != "" {
		builder.WriteString(" for ")
		builder.WriteString(title)
	}
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" while ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "FrameScribe - Error",
		message:  builder.String(),
		tags:     []string{"framescribe", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "FrameScribe - Test",
		message:  "Notification system test",
		tags:     []string{"framescribe", "test"},
		priority: "low",
	})
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
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error {
	return nil
}

func (noopService) NotifyRunFailed(context.Context, string, string, error) error {
	return nil
}

func (noopService) TestNotification(context.Context) error {
	return nil
}
