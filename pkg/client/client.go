// Package client provides an HTTP client for the breadbox API with retry,
// offline tracking, and auth.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fruitsalade/breadbox/pkg/models"
	"github.com/fruitsalade/breadbox/pkg/protocol"
	"github.com/fruitsalade/breadbox/pkg/retry"
)

// Client talks to a breadbox server.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config
	logger      *zap.Logger

	mu        sync.RWMutex
	online    bool
	lastPing  time.Time
	authToken string
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
	AuthToken   string
	Logger      *zap.Logger
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
		logger:      cfg.Logger,
		online:      true,
		authToken:   cfg.AuthToken,
	}
}

// SetAuthToken sets the JWT auth token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

func (c *Client) applyAuth(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// IsOnline returns true if the server was reachable on the last request.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online != online {
		if online {
			c.logger.Info("server is back online")
		} else {
			c.logger.Warn("server is offline")
		}
	}
	c.online = online
	c.lastPing = time.Now()
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (protocol.HealthResponse, error) {
	var health protocol.HealthResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return health, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return health, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return health, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	c.setOnline(true)
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return health, fmt.Errorf("decode health: %w", err)
	}
	return health, nil
}

// Login exchanges the shared API key for a device token and stores it for
// subsequent requests.
func (c *Client) Login(ctx context.Context, apiKey, deviceName string) (*protocol.TokenResponse, error) {
	var resp protocol.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/token",
		protocol.TokenRequest{APIKey: apiKey, DeviceName: deviceName}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetAuthToken(resp.Token)
	return &resp, nil
}

// do performs a JSON request with retry. Network errors and 5xx responses are
// retried; 4xx responses fail immediately with the server's error message.
func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	return retry.Do(ctx, c.retryConfig, func() error {
		var body io.Reader
		if reqBody != nil {
			data, err := json.Marshal(reqBody)
			if err != nil {
				return fmt.Errorf("encode request: %w", err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		c.applyAuth(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			c.setOnline(false)
			return retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
		}

		c.setOnline(true)

		if resp.StatusCode != http.StatusOK {
			var errResp protocol.ErrorResponse
			if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
				return fmt.Errorf("%s %s: %s", method, path, errResp.Error)
			}
			return fmt.Errorf("%s %s: server returned %d", method, path, resp.StatusCode)
		}

		if respBody != nil {
			if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	})
}

// ─── File Manager State ─────────────────────────────────────────────────────

// State fetches the current file-manager snapshot.
func (c *Client) State(ctx context.Context) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodGet, "/api/v1/state", nil, &snap)
	return snap, err
}

// History fetches the navigation history, oldest first.
func (c *Client) History(ctx context.Context) ([]string, error) {
	var paths []string
	err := c.do(ctx, http.MethodGet, "/api/v1/state/history", nil, &paths)
	return paths, err
}

// Selection fetches the selected file URIs.
func (c *Client) Selection(ctx context.Context) ([]string, error) {
	var uris []string
	err := c.do(ctx, http.MethodGet, "/api/v1/state/selection", nil, &uris)
	return uris, err
}

// Favorites fetches the favorite URIs.
func (c *Client) Favorites(ctx context.Context) ([]string, error) {
	var uris []string
	err := c.do(ctx, http.MethodGet, "/api/v1/state/favorites", nil, &uris)
	return uris, err
}

// Recents fetches the recently accessed files, newest first.
func (c *Client) Recents(ctx context.Context) ([]models.FileItem, error) {
	var files []models.FileItem
	err := c.do(ctx, http.MethodGet, "/api/v1/state/recents", nil, &files)
	return files, err
}

// Clipboard fetches the clipboard contents.
func (c *Client) Clipboard(ctx context.Context) (models.Clipboard, error) {
	var clip models.Clipboard
	err := c.do(ctx, http.MethodGet, "/api/v1/state/clipboard", nil, &clip)
	return clip, err
}

// SearchHistory fetches submitted search terms, newest first.
func (c *Client) SearchHistory(ctx context.Context) ([]string, error) {
	var terms []string
	err := c.do(ctx, http.MethodGet, "/api/v1/state/search/history", nil, &terms)
	return terms, err
}

// SetFiles replaces the current directory listing.
func (c *Client) SetFiles(ctx context.Context, files []models.FileItem) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/files",
		protocol.SetFilesRequest{Files: files}, &snap)
	return snap, err
}

// SetPath changes the current directory.
func (c *Client) SetPath(ctx context.Context, path string) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/path",
		protocol.SetPathRequest{Path: path}, &snap)
	return snap, err
}

// AddHistory appends a path to the navigation history.
func (c *Client) AddHistory(ctx context.Context, path string) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/history",
		protocol.HistoryRequest{Path: path}, &snap)
	return snap, err
}

// SetSelection replaces the selected file URIs.
func (c *Client) SetSelection(ctx context.Context, uris []string) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/selection",
		protocol.SelectionRequest{Files: uris}, &snap)
	return snap, err
}

// SelectAll selects every file in the current listing.
func (c *Client) SelectAll(ctx context.Context) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/selection/all", struct{}{}, &snap)
	return snap, err
}

// DeselectAll clears the selection.
func (c *Client) DeselectAll(ctx context.Context) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodDelete, "/api/v1/state/selection", nil, &snap)
	return snap, err
}

// ToggleMultiSelect flips multi-select mode and reports the new state.
func (c *Client) ToggleMultiSelect(ctx context.Context) (bool, error) {
	var resp protocol.MultiSelectResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/state/selection/mode",
		protocol.MultiSelectRequest{}, &resp)
	return resp.Enabled, err
}

// SetMultiSelect sets multi-select mode explicitly.
func (c *Client) SetMultiSelect(ctx context.Context, enabled bool) (bool, error) {
	var resp protocol.MultiSelectResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/state/selection/mode",
		protocol.MultiSelectRequest{Enabled: &enabled}, &resp)
	return resp.Enabled, err
}

// ToggleFavorite flips the favorite flag for a URI and reports the new state.
func (c *Client) ToggleFavorite(ctx context.Context, uri string) (bool, error) {
	var resp protocol.FavoriteResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/state/favorites/toggle",
		protocol.FavoriteRequest{URI: uri}, &resp)
	return resp.IsFavorite, err
}

// AddRecent records a file access in the recents list.
func (c *Client) AddRecent(ctx context.Context, file models.FileItem) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/recents",
		protocol.RecentRequest{File: file}, &snap)
	return snap, err
}

// SetClipboard replaces the clipboard with the given mode and files.
func (c *Client) SetClipboard(ctx context.Context, mode models.ClipboardMode, uris []string) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/clipboard",
		protocol.ClipboardRequest{Type: mode, Files: uris}, &snap)
	return snap, err
}

// ClearClipboard empties the clipboard.
func (c *Client) ClearClipboard(ctx context.Context) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodDelete, "/api/v1/state/clipboard", nil, &snap)
	return snap, err
}

// SetSort updates the sort field and/or direction. Empty values keep the
// current setting.
func (c *Client) SetSort(ctx context.Context, field models.SortField, direction models.SortDirection) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/sort",
		protocol.SortRequest{Field: field, Direction: direction}, &snap)
	return snap, err
}

// SetFilters updates the filter bounds and/or type. A nil filters pointer
// leaves the bounds untouched.
func (c *Client) SetFilters(ctx context.Context, filters *models.Filters, filterType models.FilterType) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/filters",
		protocol.FiltersRequest{Filters: filters, Type: filterType}, &snap)
	return snap, err
}

// SetSearchQuery sets the live search query.
func (c *Client) SetSearchQuery(ctx context.Context, query string) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/search",
		protocol.SearchQueryRequest{Query: query}, &snap)
	return snap, err
}

// AddSearchTerm records a submitted search in the history.
func (c *Client) AddSearchTerm(ctx context.Context, term string) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/search/history",
		protocol.SearchHistoryRequest{Term: term}, &snap)
	return snap, err
}

// SetView updates view mode, grid columns and/or hidden-file visibility.
func (c *Client) SetView(ctx context.Context, req protocol.ViewRequest) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/view", req, &snap)
	return snap, err
}

// ResetState restores the file-manager state to its defaults.
func (c *Client) ResetState(ctx context.Context) (models.FileManagerSnapshot, error) {
	var snap models.FileManagerSnapshot
	err := c.do(ctx, http.MethodPost, "/api/v1/state/reset", struct{}{}, &snap)
	return snap, err
}

// ─── Settings ───────────────────────────────────────────────────────────────

// Settings fetches the general settings.
func (c *Client) Settings(ctx context.Context) (models.GeneralSettings, error) {
	var s models.GeneralSettings
	err := c.do(ctx, http.MethodGet, "/api/v1/settings", nil, &s)
	return s, err
}

// UpdateSettings replaces the general settings.
func (c *Client) UpdateSettings(ctx context.Context, settings models.GeneralSettings) (models.GeneralSettings, error) {
	var s models.GeneralSettings
	err := c.do(ctx, http.MethodPut, "/api/v1/settings", settings, &s)
	return s, err
}

// ResetSettings restores the general settings to their defaults.
func (c *Client) ResetSettings(ctx context.Context) (models.GeneralSettings, error) {
	var s models.GeneralSettings
	err := c.do(ctx, http.MethodPost, "/api/v1/settings/reset", struct{}{}, &s)
	return s, err
}

// DownloadSettings fetches the download settings.
func (c *Client) DownloadSettings(ctx context.Context) (models.DownloadSettings, error) {
	var s models.DownloadSettings
	err := c.do(ctx, http.MethodGet, "/api/v1/settings/downloads", nil, &s)
	return s, err
}

// UpdateDownloadSettings replaces the download settings.
func (c *Client) UpdateDownloadSettings(ctx context.Context, settings models.DownloadSettings) (models.DownloadSettings, error) {
	var s models.DownloadSettings
	err := c.do(ctx, http.MethodPut, "/api/v1/settings/downloads", settings, &s)
	return s, err
}

// AddDownloadLocation adds a named download target.
func (c *Client) AddDownloadLocation(ctx context.Context, loc models.DownloadLocation) (models.DownloadSettings, error) {
	var s models.DownloadSettings
	err := c.do(ctx, http.MethodPost, "/api/v1/settings/downloads/locations", loc, &s)
	return s, err
}

// RemoveDownloadLocation deletes a named download target.
func (c *Client) RemoveDownloadLocation(ctx context.Context, name string) (models.DownloadSettings, error) {
	var s models.DownloadSettings
	err := c.do(ctx, http.MethodDelete, "/api/v1/settings/downloads/locations/"+url.PathEscape(name), nil, &s)
	return s, err
}

// SetDefaultDownloadLocation marks a named location as the default.
func (c *Client) SetDefaultDownloadLocation(ctx context.Context, name string) (models.DownloadSettings, error) {
	var s models.DownloadSettings
	err := c.do(ctx, http.MethodPost, "/api/v1/settings/downloads/default-location",
		protocol.DefaultLocationRequest{Name: name}, &s)
	return s, err
}

// ResetDownloadSettings restores the download settings to their defaults.
func (c *Client) ResetDownloadSettings(ctx context.Context) (models.DownloadSettings, error) {
	var s models.DownloadSettings
	err := c.do(ctx, http.MethodPost, "/api/v1/settings/downloads/reset", struct{}{}, &s)
	return s, err
}

// ─── Stats ──────────────────────────────────────────────────────────────────

// Stats fetches server statistics.
func (c *Client) Stats(ctx context.Context) (protocol.StatsResponse, error) {
	var stats protocol.StatsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &stats)
	return stats, err
}
