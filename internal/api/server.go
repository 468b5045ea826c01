// Package api provides the HTTP server and handlers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fruitsalade/breadbox/internal/auth"
	"github.com/fruitsalade/breadbox/internal/events"
	"github.com/fruitsalade/breadbox/internal/logging"
	"github.com/fruitsalade/breadbox/internal/metrics"
	"github.com/fruitsalade/breadbox/internal/persist"
	"github.com/fruitsalade/breadbox/internal/settings"
	"github.com/fruitsalade/breadbox/internal/state"
	"github.com/fruitsalade/breadbox/pkg/protocol"
)

// Server is the HTTP server.
type Server struct {
	state     *state.Store
	settings  *settings.GeneralStore
	downloads *settings.DownloadStore
	backend   persist.Backend
	writer    *persist.Writer
	auth      *auth.Auth

	// SSE
	broadcaster *events.Broadcaster

	started time.Time
}

// NewServer creates a new server.
func NewServer(
	stateStore *state.Store,
	generalStore *settings.GeneralStore,
	downloadStore *settings.DownloadStore,
	backend persist.Backend,
	writer *persist.Writer,
	authHandler *auth.Auth,
	broadcaster *events.Broadcaster,
) *Server {
	return &Server{
		state:       stateStore,
		settings:    generalStore,
		downloads:   downloadStore,
		backend:     backend,
		writer:      writer,
		auth:        authHandler,
		broadcaster: broadcaster,
		started:     time.Now(),
	}
}

// Handler returns the HTTP handler with auth, logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/auth/token", s.auth.HandleToken)

	// Protected endpoints
	protected := http.NewServeMux()

	// File manager state
	protected.HandleFunc("GET /api/v1/state", s.handleGetState)
	protected.HandleFunc("POST /api/v1/state/files", s.handleSetFiles)
	protected.HandleFunc("POST /api/v1/state/path", s.handleSetPath)
	protected.HandleFunc("GET /api/v1/state/history", s.handleGetHistory)
	protected.HandleFunc("POST /api/v1/state/history", s.handleAddHistory)
	protected.HandleFunc("GET /api/v1/state/selection", s.handleGetSelection)
	protected.HandleFunc("POST /api/v1/state/selection", s.handleSetSelection)
	protected.HandleFunc("POST /api/v1/state/selection/all", s.handleSelectAll)
	protected.HandleFunc("DELETE /api/v1/state/selection", s.handleDeselectAll)
	protected.HandleFunc("POST /api/v1/state/selection/mode", s.handleMultiSelectMode)
	protected.HandleFunc("GET /api/v1/state/favorites", s.handleGetFavorites)
	protected.HandleFunc("POST /api/v1/state/favorites/toggle", s.handleToggleFavorite)
	protected.HandleFunc("GET /api/v1/state/recents", s.handleGetRecents)
	protected.HandleFunc("POST /api/v1/state/recents", s.handleAddRecent)
	protected.HandleFunc("GET /api/v1/state/clipboard", s.handleGetClipboard)
	protected.HandleFunc("POST /api/v1/state/clipboard", s.handleSetClipboard)
	protected.HandleFunc("DELETE /api/v1/state/clipboard", s.handleClearClipboard)
	protected.HandleFunc("POST /api/v1/state/sort", s.handleSetSort)
	protected.HandleFunc("POST /api/v1/state/filters", s.handleSetFilters)
	protected.HandleFunc("POST /api/v1/state/search", s.handleSetSearchQuery)
	protected.HandleFunc("GET /api/v1/state/search/history", s.handleGetSearchHistory)
	protected.HandleFunc("POST /api/v1/state/search/history", s.handleAddSearchHistory)
	protected.HandleFunc("POST /api/v1/state/view", s.handleSetView)
	protected.HandleFunc("POST /api/v1/state/reset", s.handleResetState)

	// Settings
	protected.HandleFunc("GET /api/v1/settings", s.handleGetSettings)
	protected.HandleFunc("PUT /api/v1/settings", s.handlePutSettings)
	protected.HandleFunc("POST /api/v1/settings/reset", s.handleResetSettings)
	protected.HandleFunc("GET /api/v1/settings/downloads", s.handleGetDownloads)
	protected.HandleFunc("PUT /api/v1/settings/downloads", s.handlePutDownloads)
	protected.HandleFunc("POST /api/v1/settings/downloads/locations", s.handleAddLocation)
	protected.HandleFunc("DELETE /api/v1/settings/downloads/locations/{name}", s.handleRemoveLocation)
	protected.HandleFunc("POST /api/v1/settings/downloads/default-location", s.handleSetDefaultLocation)
	protected.HandleFunc("POST /api/v1/settings/downloads/reset", s.handleResetDownloads)

	// SSE endpoint
	protected.HandleFunc("GET /api/v1/events", s.handleEvents)

	// Stats endpoint
	protected.HandleFunc("GET /api/v1/stats", s.handleStats)

	mux.Handle("/api/v1/", s.auth.Middleware(protected))

	// Apply logging and metrics middleware
	return metrics.Middleware(logging.Middleware(mux))
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, protocol.HealthResponse{
		Status:  "ok",
		Backend: s.backend.Type(),
	})
}

// ─── SSE Events ─────────────────────────────────────────────────────────────

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := protocol.StatsResponse{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Backend:       s.backend.Type(),
		PendingWrites: s.writer.Pending(),
		Subscribers:   s.broadcaster.Count(),
		Stores: []protocol.StoreStats{
			{Key: s.state.Key(), Mutations: s.state.Mutations()},
			{Key: s.settings.Key(), Mutations: s.settings.Mutations()},
			{Key: s.downloads.Key(), Mutations: s.downloads.Mutations()},
		},
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Server) sendJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("failed to encode response")
	}
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(protocol.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
