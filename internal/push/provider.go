// Package push forwards persisted notifications to the external push
// provider. Delivery is best-effort: failures are logged and never surface
// to the operations that produced the notifications.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
)

var _ notification.Pusher = (*Provider)(nil)

// Provider delivers push messages over the provider's HTTP API.
type Provider struct {
	url    string
	apiKey string
	client *http.Client
}

// NewProvider creates a Provider for the given endpoint. apiKey may be empty
// when the provider is unauthenticated (local development sink).
func NewProvider(url, apiKey string) *Provider {
	return &Provider{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Push sends one message to one device token. A non-2xx response is an error.
func (p *Provider) Push(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(pushRequest{
		To:    token,
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		return errors.Wrap(err, "marshal push payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "create push request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send push request")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("push provider returned %d", resp.StatusCode)
	}
	return nil
}
