// Package protocol defines the API request/response types.
package protocol

import (
	"time"

	"github.com/fruitsalade/breadbox/pkg/models"
)

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// TokenRequest is the body for POST /api/v1/auth/token.
type TokenRequest struct {
	APIKey     string `json:"api_key"`
	DeviceName string `json:"device_name,omitempty"`
}

// TokenResponse is returned when a token is issued.
type TokenResponse struct {
	Token     string    `json:"token"`
	DeviceID  string    `json:"device_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SetFilesRequest is the body for POST /api/v1/state/files.
type SetFilesRequest struct {
	Files []models.FileItem `json:"files"`
}

// SetPathRequest is the body for POST /api/v1/state/path.
type SetPathRequest struct {
	Path string `json:"path"`
}

// HistoryRequest is the body for POST /api/v1/state/history.
type HistoryRequest struct {
	Path string `json:"path"`
}

// SelectionRequest is the body for POST /api/v1/state/selection.
type SelectionRequest struct {
	Files []string `json:"files"`
}

// MultiSelectRequest is the body for POST /api/v1/state/selection/mode.
// A nil Enabled toggles the current mode.
type MultiSelectRequest struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// MultiSelectResponse reports the mode after the change.
type MultiSelectResponse struct {
	Enabled bool `json:"enabled"`
}

// FavoriteRequest is the body for POST /api/v1/state/favorites/toggle.
type FavoriteRequest struct {
	URI string `json:"uri"`
}

// FavoriteResponse reports the favorite state after the toggle.
type FavoriteResponse struct {
	URI        string `json:"uri"`
	IsFavorite bool   `json:"is_favorite"`
}

// RecentRequest is the body for POST /api/v1/state/recents.
type RecentRequest struct {
	File models.FileItem `json:"file"`
}

// ClipboardRequest is the body for POST /api/v1/state/clipboard.
// The clipboard is replaced wholesale with the given mode and files.
type ClipboardRequest struct {
	Type  models.ClipboardMode `json:"type"`
	Files []string             `json:"files"`
}

// SortRequest is the body for POST /api/v1/state/sort. Empty fields keep
// their current value.
type SortRequest struct {
	Field     models.SortField     `json:"field,omitempty"`
	Direction models.SortDirection `json:"direction,omitempty"`
}

// FiltersRequest is the body for POST /api/v1/state/filters. A nil Filters
// leaves the bounds untouched; an empty Type keeps the current one.
type FiltersRequest struct {
	Filters *models.Filters   `json:"filters,omitempty"`
	Type    models.FilterType `json:"type,omitempty"`
}

// SearchQueryRequest is the body for POST /api/v1/state/search.
type SearchQueryRequest struct {
	Query string `json:"query"`
}

// SearchHistoryRequest is the body for POST /api/v1/state/search/history.
type SearchHistoryRequest struct {
	Term string `json:"term"`
}

// ViewRequest is the body for POST /api/v1/state/view. Zero-valued fields
// keep their current value.
type ViewRequest struct {
	Mode        models.ViewMode `json:"mode,omitempty"`
	GridColumns int             `json:"grid_columns,omitempty"`
	ShowHidden  *bool           `json:"show_hidden,omitempty"`
}

// DefaultLocationRequest is the body for
// POST /api/v1/settings/downloads/default-location.
type DefaultLocationRequest struct {
	Name string `json:"name"`
}

// ChangeEvent is the wire shape of entries on the GET /api/v1/events stream.
type ChangeEvent struct {
	Type      string `json:"type"`
	Store     string `json:"store"`
	Op        string `json:"op,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// StoreStats describes one store in the stats response.
type StoreStats struct {
	Key       string `json:"key"`
	Mutations int64  `json:"mutations"`
}

// StatsResponse is returned by GET /api/v1/stats.
type StatsResponse struct {
	UptimeSeconds int64        `json:"uptime_seconds"`
	Backend       string       `json:"backend"`
	PendingWrites int          `json:"pending_writes"`
	Subscribers   int          `json:"subscribers"`
	Stores        []StoreStats `json:"stores"`
}
