package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/petfriends-harness/pkg/httpclient"
)

const maxErrorSnippet = 512

// httpPublisher delivers events as JSON to a webhook.
type httpPublisher struct {
	id     string
	target HTTPPublisherConfig
	client *resty.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	target := *cfg.HTTP
	target.normalize()

	client := httpclient.NewRestyHTTPClient(time.Duration(target.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(target.Headers)

	return &httpPublisher{id: cfg.ID, target: target, client: client, log: orDiscard(log)}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(evt).
		Execute(h.target.Method, h.target.URL)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if !resp.IsError() {
		return nil
	}

	body := resp.Body()
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	h.log.WarnObj("http publisher rejected event", "publisher_http_error", map[string]any{
		"publisher_id": h.id,
		"scenario":     evt.Scenario,
		"status":       resp.StatusCode(),
	})
	return fmt.Errorf("http response status %d: %s", resp.StatusCode(), strings.TrimSpace(string(body)))
}
