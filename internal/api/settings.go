package api

import (
	"encoding/json"
	"net/http"

	"github.com/fruitsalade/breadbox/pkg/models"
	"github.com/fruitsalade/breadbox/pkg/protocol"
)

// ─── General Settings ───────────────────────────────────────────────────────

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req models.GeneralSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.settings.Set(req)
	s.sendJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	s.settings.Reset()
	s.sendJSON(w, http.StatusOK, s.settings.Get())
}

// ─── Download Settings ──────────────────────────────────────────────────────

func (s *Server) handleGetDownloads(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.downloads.Get())
}

func (s *Server) handlePutDownloads(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.downloads.Set(req)
	s.sendJSON(w, http.StatusOK, s.downloads.Get())
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadLocation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Path == "" {
		s.sendError(w, http.StatusBadRequest, "name and path required")
		return
	}

	s.downloads.AddLocation(req)
	s.sendJSON(w, http.StatusOK, s.downloads.Get())
}

func (s *Server) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		s.sendError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := s.downloads.RemoveLocation(name); err != nil {
		s.sendError(w, http.StatusNotFound, err.Error())
		return
	}
	s.sendJSON(w, http.StatusOK, s.downloads.Get())
}

func (s *Server) handleSetDefaultLocation(w http.ResponseWriter, r *http.Request) {
	var req protocol.DefaultLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.sendError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := s.downloads.SetDefaultLocation(req.Name); err != nil {
		s.sendError(w, http.StatusNotFound, err.Error())
		return
	}
	s.sendJSON(w, http.StatusOK, s.downloads.Get())
}

func (s *Server) handleResetDownloads(w http.ResponseWriter, r *http.Request) {
	s.downloads.Reset()
	s.sendJSON(w, http.StatusOK, s.downloads.Get())
}
