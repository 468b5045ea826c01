package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fruitsalade/breadbox/pkg/protocol"
)

// SSEClient streams change events from the server, reconnecting with
// exponential backoff when the connection drops.
type SSEClient struct {
	baseURL      string
	httpClient   *http.Client
	logger       *zap.Logger
	reconnectMin time.Duration
	reconnectMax time.Duration

	mu        sync.RWMutex
	authToken string
}

// NewSSEClient creates a new SSE client.
func NewSSEClient(baseURL string, logger *zap.Logger) *SSEClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SSEClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 0, // No timeout for SSE
		},
		logger:       logger,
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

// SetAuthToken sets the JWT auth token for SSE requests.
func (c *SSEClient) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// Subscribe connects to the event stream and returns a channel of events.
// The channels close when ctx is cancelled.
func (c *SSEClient) Subscribe(ctx context.Context) (<-chan protocol.ChangeEvent, <-chan error) {
	events := make(chan protocol.ChangeEvent, 100)
	errs := make(chan error, 1)

	go c.subscribeLoop(ctx, events, errs)

	return events, errs
}

func (c *SSEClient) subscribeLoop(ctx context.Context, events chan<- protocol.ChangeEvent, errs chan<- error) {
	defer close(events)
	defer close(errs)

	reconnectDelay := c.reconnectMin

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := c.connect(ctx, events)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			c.logger.Warn("event stream disconnected",
				zap.Error(err),
				zap.Duration("reconnect_in", reconnectDelay))

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}

			reconnectDelay *= 2
			if reconnectDelay > c.reconnectMax {
				reconnectDelay = c.reconnectMax
			}
			continue
		}

		reconnectDelay = c.reconnectMin
	}
}

func (c *SSEClient) connect(ctx context.Context, events chan<- protocol.ChangeEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/events", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	c.mu.RLock()
	token := c.authToken
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	c.logger.Debug("event stream connected", zap.String("url", c.baseURL))

	scanner := bufio.NewScanner(resp.Body)
	var data string

	for scanner.Scan() {
		line := scanner.Text()

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if line == "" {
			if data != "" {
				var event protocol.ChangeEvent
				if err := json.Unmarshal([]byte(data), &event); err == nil {
					select {
					case events <- event:
					default:
						c.logger.Debug("event dropped, channel full")
					}
				}
			}
			data = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}

	return fmt.Errorf("connection closed")
}
