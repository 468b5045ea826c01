package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fruitsalade/breadbox/pkg/models"
	"github.com/fruitsalade/breadbox/pkg/protocol"
)

// State mutations respond with the full snapshot after the change so clients
// can replace their local copy without a second round trip.

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

// Sub-resource reads for collaborators that need one slice of the state,
// like an execution layer picking up the selection and clipboard before a
// paste. Snapshot slices are always non-nil, so these encode as [] when empty.

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.state.Snapshot().History)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.state.Snapshot().SelectedFiles)
}

func (s *Server) handleGetFavorites(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.state.Snapshot().Favorites)
}

func (s *Server) handleGetRecents(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.state.Snapshot().RecentFiles)
}

func (s *Server) handleGetClipboard(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.state.Snapshot().Clipboard)
}

func (s *Server) handleGetSearchHistory(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.state.Snapshot().SearchHistory)
}

func (s *Server) handleSetFiles(w http.ResponseWriter, r *http.Request) {
	var req protocol.SetFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.state.SetFiles(req.Files)
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetPath(w http.ResponseWriter, r *http.Request) {
	var req protocol.SetPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.sendError(w, http.StatusBadRequest, "path required")
		return
	}

	s.state.SetCurrentPath(req.Path)
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var req protocol.HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.sendError(w, http.StatusBadRequest, "path required")
		return
	}

	s.state.AddToHistory(req.Path)
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req protocol.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.state.SetSelectedFiles(req.Files)
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	s.state.SelectAll()
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleDeselectAll(w http.ResponseWriter, r *http.Request) {
	s.state.DeselectAll()
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleMultiSelectMode(w http.ResponseWriter, r *http.Request) {
	var req protocol.MultiSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var enabled bool
	if req.Enabled == nil {
		enabled = s.state.ToggleMultiSelectMode()
	} else {
		s.state.SetMultiSelectMode(*req.Enabled)
		enabled = *req.Enabled
	}
	s.sendJSON(w, http.StatusOK, protocol.MultiSelectResponse{Enabled: enabled})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req protocol.FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URI == "" {
		s.sendError(w, http.StatusBadRequest, "uri required")
		return
	}

	isFavorite := s.state.ToggleFavorite(req.URI)
	s.sendJSON(w, http.StatusOK, protocol.FavoriteResponse{
		URI:        req.URI,
		IsFavorite: isFavorite,
	})
}

func (s *Server) handleAddRecent(w http.ResponseWriter, r *http.Request) {
	var req protocol.RecentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.File.URI == "" {
		s.sendError(w, http.StatusBadRequest, "file.uri required")
		return
	}

	s.state.AddRecent(req.File)
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetClipboard(w http.ResponseWriter, r *http.Request) {
	var req protocol.ClipboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Type {
	case models.ClipboardCopy:
		s.state.SetCopyFiles(req.Files)
	case models.ClipboardCut:
		s.state.SetCutFiles(req.Files)
	case models.ClipboardNone:
		s.state.ClearClipboard()
	default:
		s.sendError(w, http.StatusBadRequest, "invalid clipboard type: "+string(req.Type))
		return
	}
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleClearClipboard(w http.ResponseWriter, r *http.Request) {
	s.state.ClearClipboard()
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var req protocol.SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.Field != "" && req.Direction != "":
		s.state.SetSortOptions(models.SortOptions{Field: req.Field, Direction: req.Direction})
	case req.Field != "":
		s.state.SetSortBy(req.Field)
	case req.Direction != "":
		s.state.SetSortOrder(req.Direction)
	default:
		s.sendError(w, http.StatusBadRequest, "field or direction required")
		return
	}
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req protocol.FiltersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Filters == nil && req.Type == "" {
		s.sendError(w, http.StatusBadRequest, "filters or type required")
		return
	}

	if req.Filters != nil {
		s.state.SetFilters(*req.Filters)
	}
	if req.Type != "" {
		s.state.SetFilterType(req.Type)
	}
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetSearchQuery(w http.ResponseWriter, r *http.Request) {
	var req protocol.SearchQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.state.SetSearchQuery(req.Query)
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleAddSearchHistory(w http.ResponseWriter, r *http.Request) {
	var req protocol.SearchHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Term) == "" {
		s.sendError(w, http.StatusBadRequest, "term required")
		return
	}

	s.state.AddToSearchHistory(req.Term)
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req protocol.ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" && req.GridColumns == 0 && req.ShowHidden == nil {
		s.sendError(w, http.StatusBadRequest, "mode, grid_columns or show_hidden required")
		return
	}
	if req.Mode != "" && req.Mode != models.ViewList && req.Mode != models.ViewGrid {
		s.sendError(w, http.StatusBadRequest, "invalid view mode: "+string(req.Mode))
		return
	}
	if req.GridColumns < 0 {
		s.sendError(w, http.StatusBadRequest, "grid_columns must be positive")
		return
	}

	if req.Mode != "" {
		s.state.SetViewMode(req.Mode)
	}
	if req.GridColumns > 0 {
		s.state.SetGridColumns(req.GridColumns)
	}
	if req.ShowHidden != nil {
		s.state.SetShowHidden(*req.ShowHidden)
	}
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	s.state.Reset()
	s.sendJSON(w, http.StatusOK, s.state.Snapshot())
}
