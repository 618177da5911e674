// Package webhook routes server-originated chat messages back to the hosting
// chat server through an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// maxErrorBodySize caps how much of a failed response is read into the error.
const maxErrorBodySize = 4 * 1024

// Router POSTs each message as JSON to the hosting server's route endpoint.
type Router struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// RouterOption is a functional option for configuring Router.
type RouterOption func(*Router)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) RouterOption {
	return func(r *Router) {
		r.httpClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if r.httpClient != nil && d > 0 {
			r.httpClient.Timeout = d
		}
	}
}

// NewRouter creates a router posting to endpoint.
func NewRouter(endpoint string, logger *slog.Logger, opts ...RouterOption) *Router {
	r := &Router{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route delivers msg. Any non-2xx response is an error.
func (r *Router) Route(ctx context.Context, msg *xmpp.Message) error {
	payload, err := xmpp.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("route message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("route message: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("route message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("route message: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	r.logger.Debug("message routed",
		"to", xmpp.BareString(msg.To),
		"from", xmpp.BareString(msg.From),
		"id", msg.ID,
	)
	return nil
}

// Compile-time check that Router implements outbound.Router.
var _ outbound.Router = (*Router)(nil)
