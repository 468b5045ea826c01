// Package state implements the persisted file-manager state store.
//
// The in-memory snapshot is authoritative. Every mutation updates it under
// the store lock, hands the serialized snapshot to the write-behind writer,
// and publishes a change event. Reads never touch the backend; persistence
// failures never propagate to mutators.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fruitsalade/breadbox/internal/events"
	"github.com/fruitsalade/breadbox/internal/logging"
	"github.com/fruitsalade/breadbox/internal/metrics"
	"github.com/fruitsalade/breadbox/internal/persist"
	"github.com/fruitsalade/breadbox/pkg/models"
)

// DefaultKey is the persistence key of the file-manager store.
const DefaultKey = "file-manager"

// Store is an injected instance; construct one per logical state domain
// rather than sharing a process-wide singleton.
type Store struct {
	key         string
	backend     persist.Backend
	writer      *persist.Writer
	broadcaster *events.Broadcaster

	mu   sync.RWMutex
	snap models.FileManagerSnapshot

	mutations atomic.Int64
}

// New creates a Store with default state. Call Load to rehydrate it from the
// backend. A nil writer disables persistence; a nil broadcaster disables
// change events.
func New(key string, backend persist.Backend, writer *persist.Writer, broadcaster *events.Broadcaster) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		key:         key,
		backend:     backend,
		writer:      writer,
		broadcaster: broadcaster,
		snap:        models.DefaultFileManagerSnapshot(),
	}
}

// Key returns the persistence key of this store.
func (s *Store) Key() string { return s.key }

// Mutations returns the number of mutations applied since startup.
func (s *Store) Mutations() int64 { return s.mutations.Load() }

// Load rehydrates the store from the backend. Missing, corrupt, or
// unreadable snapshots fall back to defaults; Load never fails.
func (s *Store) Load(ctx context.Context) {
	var snap models.FileManagerSnapshot
	err := persist.LoadJSON(ctx, s.backend, s.key, &snap)
	switch {
	case err == nil:
		s.mu.Lock()
		s.snap = normalize(snap)
		s.mu.Unlock()
		metrics.RecordStoreLoad(s.key, "ok")
		logging.Info("state loaded", zap.String("store", s.key))
	case errors.Is(err, persist.ErrNotFound):
		metrics.RecordStoreLoad(s.key, "fallback_empty")
		logging.Info("no stored state, starting with defaults", zap.String("store", s.key))
	case errors.Is(err, persist.ErrCorrupt):
		metrics.RecordStoreLoad(s.key, "fallback_corrupt")
		logging.Warn("stored state corrupt, starting with defaults",
			zap.String("store", s.key), zap.Error(err))
	default:
		metrics.RecordStoreLoad(s.key, "error")
		logging.Error("state load failed, starting with defaults",
			zap.String("store", s.key), zap.Error(err))
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(events.Event{Type: events.EventLoaded, Store: s.key})
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() models.FileManagerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// SetFiles replaces the current directory listing.
func (s *Store) SetFiles(files []models.FileItem) {
	s.mutate("set_files", func(snap *models.FileManagerSnapshot) {
		snap.Files = copyItems(files)
	})
}

// SetCurrentPath sets the directory being browsed. It does not touch the
// navigation history; callers record that separately via AddToHistory.
func (s *Store) SetCurrentPath(path string) {
	s.mutate("set_current_path", func(snap *models.FileManagerSnapshot) {
		snap.CurrentPath = path
	})
}

// AddToHistory appends a path to the navigation history, dropping the oldest
// entries beyond PathHistoryCap.
func (s *Store) AddToHistory(path string) {
	s.mutate("add_to_history", func(snap *models.FileManagerSnapshot) {
		h := append(copyStrings(snap.History), path)
		if len(h) > models.PathHistoryCap {
			h = h[len(h)-models.PathHistoryCap:]
		}
		snap.History = h
	})
}

// SetSelectedFiles replaces the selection and keeps the count in step.
func (s *Store) SetSelectedFiles(uris []string) {
	s.mutate("set_selected_files", func(snap *models.FileManagerSnapshot) {
		snap.SelectedFiles = copyStrings(uris)
		snap.SelectedCount = len(snap.SelectedFiles)
	})
}

// SelectAll selects every file in the current listing.
func (s *Store) SelectAll() {
	s.mutate("select_all", func(snap *models.FileManagerSnapshot) {
		uris := make([]string, 0, len(snap.Files))
		for _, f := range snap.Files {
			uris = append(uris, f.URI)
		}
		snap.SelectedFiles = uris
		snap.SelectedCount = len(uris)
	})
}

// DeselectAll clears the selection.
func (s *Store) DeselectAll() {
	s.mutate("deselect_all", func(snap *models.FileManagerSnapshot) {
		snap.SelectedFiles = []string{}
		snap.SelectedCount = 0
	})
}

// SetMultiSelectMode switches multi-select mode without touching the
// current selection.
func (s *Store) SetMultiSelectMode(enabled bool) {
	s.mutate("set_multi_select_mode", func(snap *models.FileManagerSnapshot) {
		snap.MultiSelectMode = enabled
	})
}

// ToggleMultiSelectMode flips multi-select mode and reports the new value.
// The selection is left as is.
func (s *Store) ToggleMultiSelectMode() bool {
	var enabled bool
	s.mutate("set_multi_select_mode", func(snap *models.FileManagerSnapshot) {
		snap.MultiSelectMode = !snap.MultiSelectMode
		enabled = snap.MultiSelectMode
	})
	return enabled
}

// ToggleFavorite adds uri to the favorites if absent, removes it if present,
// and reports whether it is a favorite afterwards.
func (s *Store) ToggleFavorite(uri string) bool {
	var nowFavorite bool
	s.mutate("toggle_favorite", func(snap *models.FileManagerSnapshot) {
		out := make([]string, 0, len(snap.Favorites)+1)
		found := false
		for _, f := range snap.Favorites {
			if f == uri {
				found = true
				continue
			}
			out = append(out, f)
		}
		if !found {
			out = append(out, uri)
		}
		snap.Favorites = out
		nowFavorite = !found
	})
	return nowFavorite
}

// AddRecent records a file access at the head of the recents list. An entry
// with the same URI moves to the head instead of duplicating; the list is
// capped at RecentFilesCap.
func (s *Store) AddRecent(item models.FileItem) {
	s.mutate("add_recent", func(snap *models.FileManagerSnapshot) {
		recents := make([]models.FileItem, 0, len(snap.RecentFiles)+1)
		recents = append(recents, item.Clone())
		for _, it := range snap.RecentFiles {
			if it.URI == item.URI {
				continue
			}
			recents = append(recents, it)
		}
		if len(recents) > models.RecentFilesCap {
			recents = recents[:models.RecentFilesCap]
		}
		snap.RecentFiles = recents
	})
}

// SetCopyFiles loads the clipboard with files to copy, replacing any
// previous contents.
func (s *Store) SetCopyFiles(uris []string) {
	s.mutate("set_copy_files", func(snap *models.FileManagerSnapshot) {
		snap.Clipboard = models.Clipboard{Type: models.ClipboardCopy, Files: copyStrings(uris)}
	})
}

// SetCutFiles loads the clipboard with files to cut, replacing any previous
// contents.
func (s *Store) SetCutFiles(uris []string) {
	s.mutate("set_cut_files", func(snap *models.FileManagerSnapshot) {
		snap.Clipboard = models.Clipboard{Type: models.ClipboardCut, Files: copyStrings(uris)}
	})
}

// AddToClipboard sets the clipboard to exactly the given mode and files.
// Despite the name it replaces the previous contents wholesale; a mode other
// than copy or cut clears the clipboard.
func (s *Store) AddToClipboard(mode models.ClipboardMode, uris []string) {
	s.mutate("add_to_clipboard", func(snap *models.FileManagerSnapshot) {
		if mode != models.ClipboardCopy && mode != models.ClipboardCut {
			snap.Clipboard = models.Clipboard{Type: models.ClipboardNone, Files: []string{}}
			return
		}
		snap.Clipboard = models.Clipboard{Type: mode, Files: copyStrings(uris)}
	})
}

// ClearClipboard empties the clipboard.
func (s *Store) ClearClipboard() {
	s.mutate("clear_clipboard", func(snap *models.FileManagerSnapshot) {
		snap.Clipboard = models.Clipboard{Type: models.ClipboardNone, Files: []string{}}
	})
}

// SetSortOptions replaces both sort field and direction.
func (s *Store) SetSortOptions(opts models.SortOptions) {
	s.mutate("set_sort_options", func(snap *models.FileManagerSnapshot) {
		snap.SortOptions = opts
	})
}

// SetSortBy sets the sort field, keeping the direction.
func (s *Store) SetSortBy(field models.SortField) {
	s.mutate("set_sort_by", func(snap *models.FileManagerSnapshot) {
		snap.SortOptions.Field = field
	})
}

// SetSortOrder sets the sort direction, keeping the field.
func (s *Store) SetSortOrder(dir models.SortDirection) {
	s.mutate("set_sort_order", func(snap *models.FileManagerSnapshot) {
		snap.SortOptions.Direction = dir
	})
}

// SetFilters replaces the filter bounds.
func (s *Store) SetFilters(filters models.Filters) {
	s.mutate("set_filters", func(snap *models.FileManagerSnapshot) {
		snap.Filters = filters.Clone()
	})
}

// SetFilterType sets the coarse file/folder filter.
func (s *Store) SetFilterType(ft models.FilterType) {
	s.mutate("set_filter_type", func(snap *models.FileManagerSnapshot) {
		snap.FilterType = ft
	})
}

// SetSearchQuery sets the live search query. The query is not added to the
// search history; that happens on submit via AddToSearchHistory.
func (s *Store) SetSearchQuery(query string) {
	s.mutate("set_search_query", func(snap *models.FileManagerSnapshot) {
		snap.SearchQuery = query
	})
}

// AddToSearchHistory prepends a submitted search term. The history keeps
// duplicates and is capped at SearchHistoryCap; blank terms are ignored.
func (s *Store) AddToSearchHistory(term string) {
	if strings.TrimSpace(term) == "" {
		return
	}
	s.mutate("add_to_search_history", func(snap *models.FileManagerSnapshot) {
		hist := make([]string, 0, len(snap.SearchHistory)+1)
		hist = append(hist, term)
		hist = append(hist, snap.SearchHistory...)
		if len(hist) > models.SearchHistoryCap {
			hist = hist[:models.SearchHistoryCap]
		}
		snap.SearchHistory = hist
	})
}

// SetViewMode switches between grid and list presentation.
func (s *Store) SetViewMode(mode models.ViewMode) {
	s.mutate("set_view_mode", func(snap *models.FileManagerSnapshot) {
		snap.ViewMode = mode
	})
}

// SetGridColumns sets the grid column count. Non-positive values are ignored.
func (s *Store) SetGridColumns(n int) {
	if n < 1 {
		return
	}
	s.mutate("set_grid_columns", func(snap *models.FileManagerSnapshot) {
		snap.GridColumns = n
	})
}

// SetShowHidden toggles visibility of dotfiles and hidden entries.
func (s *Store) SetShowHidden(show bool) {
	s.mutate("set_show_hidden", func(snap *models.FileManagerSnapshot) {
		snap.ShowHidden = show
	})
}

// Reset restores the default state and persists it.
func (s *Store) Reset() {
	s.apply("reset", events.EventReset, func(snap *models.FileManagerSnapshot) {
		*snap = models.DefaultFileManagerSnapshot()
	})
}

func (s *Store) mutate(op string, fn func(*models.FileManagerSnapshot)) {
	s.apply(op, events.EventMutation, fn)
}

func (s *Store) apply(op, eventType string, fn func(*models.FileManagerSnapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	data, err := json.Marshal(s.snap)
	s.mu.Unlock()

	s.mutations.Add(1)
	metrics.RecordMutation(s.key, op)

	if err != nil {
		logging.Error("snapshot encode failed",
			zap.String("store", s.key), zap.Error(err))
	} else {
		metrics.SetSnapshotBytes(s.key, len(data))
		if s.writer != nil {
			s.writer.Enqueue(s.key, data)
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(events.Event{Type: eventType, Store: s.key, Op: op})
	}
}

// copyStrings copies input so callers cannot alias store state. The result
// is always non-nil.
func copyStrings(in []string) []string {
	out := make([]string, 0, len(in))
	return append(out, in...)
}

// copyItems deep-copies a listing into an owned, non-nil slice.
func copyItems(in []models.FileItem) []models.FileItem {
	out := make([]models.FileItem, 0, len(in))
	for _, it := range in {
		out = append(out, it.Clone())
	}
	return out
}

// normalize repairs a loaded snapshot: nil slices become empty, derived
// fields are recomputed, zero-valued enums get defaults, and bounded
// sequences are re-trimmed. Loaded data is repaired, never rejected.
func normalize(snap models.FileManagerSnapshot) models.FileManagerSnapshot {
	def := models.DefaultFileManagerSnapshot()

	if snap.Files == nil {
		snap.Files = []models.FileItem{}
	}
	if snap.History == nil {
		snap.History = []string{}
	}
	if snap.SelectedFiles == nil {
		snap.SelectedFiles = []string{}
	}
	if snap.Favorites == nil {
		snap.Favorites = []string{}
	}
	if snap.RecentFiles == nil {
		snap.RecentFiles = []models.FileItem{}
	}
	if snap.Clipboard.Files == nil {
		snap.Clipboard.Files = []string{}
	}
	if snap.SearchHistory == nil {
		snap.SearchHistory = []string{}
	}

	if snap.CurrentPath == "" {
		snap.CurrentPath = def.CurrentPath
	}
	if snap.Clipboard.Type == "" {
		snap.Clipboard.Type = models.ClipboardNone
	}
	if snap.SortOptions.Field == "" {
		snap.SortOptions.Field = def.SortOptions.Field
	}
	if snap.SortOptions.Direction == "" {
		snap.SortOptions.Direction = def.SortOptions.Direction
	}
	if snap.FilterType == "" {
		snap.FilterType = def.FilterType
	}
	if snap.ViewMode == "" {
		snap.ViewMode = def.ViewMode
	}
	if snap.GridColumns < 1 {
		snap.GridColumns = def.GridColumns
	}

	snap.SelectedCount = len(snap.SelectedFiles)

	if len(snap.RecentFiles) > models.RecentFilesCap {
		snap.RecentFiles = snap.RecentFiles[:models.RecentFilesCap]
	}
	if len(snap.SearchHistory) > models.SearchHistoryCap {
		snap.SearchHistory = snap.SearchHistory[:models.SearchHistoryCap]
	}
	if len(snap.History) > models.PathHistoryCap {
		snap.History = snap.History[len(snap.History)-models.PathHistoryCap:]
	}

	return snap
}
