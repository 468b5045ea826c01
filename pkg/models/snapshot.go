package models

// Caps on the bounded MRU sequences. RecentFilesCap and SearchHistoryCap are
// part of the store contract; PathHistoryCap bounds what would otherwise grow
// without limit since the snapshot is rewritten on every mutation.
const (
	RecentFilesCap   = 10
	SearchHistoryCap = 10
	PathHistoryCap   = 100
)

// FileManagerSnapshot is the complete state of the file-manager store at a
// point in time. It is the persisted record shape and the API wire shape;
// field names are stable.
type FileManagerSnapshot struct {
	Files       []FileItem `json:"files"`
	CurrentPath string     `json:"current_path"`
	History     []string   `json:"history"`

	SelectedFiles []string `json:"selected_files"`
	// SelectedCount is maintained by the selection mutators, not recomputed
	// elsewhere.
	SelectedCount   int  `json:"selected_count"`
	MultiSelectMode bool `json:"multi_select_mode"`

	Favorites   []string   `json:"favorites"`
	RecentFiles []FileItem `json:"recent_files"`
	Clipboard   Clipboard  `json:"clipboard"`

	SortOptions   SortOptions `json:"sort_options"`
	Filters       Filters     `json:"filters"`
	FilterType    FilterType  `json:"filter_type"`
	SearchQuery   string      `json:"search_query"`
	SearchHistory []string    `json:"search_history"`

	ViewMode    ViewMode `json:"view_mode"`
	GridColumns int      `json:"grid_columns"`
	ShowHidden  bool     `json:"show_hidden"`
}

// DefaultFileManagerSnapshot returns the initial store state. All slice
// fields are non-nil so the default serializes to empty arrays and survives
// a marshal/unmarshal round trip deep-equal.
func DefaultFileManagerSnapshot() FileManagerSnapshot {
	return FileManagerSnapshot{
		Files:         []FileItem{},
		CurrentPath:   "/",
		History:       []string{},
		SelectedFiles: []string{},
		Favorites:     []string{},
		RecentFiles:   []FileItem{},
		Clipboard:     Clipboard{Type: ClipboardNone, Files: []string{}},
		SortOptions:   SortOptions{Field: SortByName, Direction: SortAsc},
		FilterType:    FilterAll,
		SearchHistory: []string{},
		ViewMode:      ViewGrid,
		GridColumns:   4,
	}
}

// Clone returns a deep copy of the snapshot; mutating the copy never affects
// the original.
func (s FileManagerSnapshot) Clone() FileManagerSnapshot {
	out := s
	out.Files = CloneFileItems(s.Files)
	out.History = cloneStrings(s.History)
	out.SelectedFiles = cloneStrings(s.SelectedFiles)
	out.Favorites = cloneStrings(s.Favorites)
	out.RecentFiles = CloneFileItems(s.RecentFiles)
	out.Clipboard = s.Clipboard.Clone()
	out.Filters = s.Filters.Clone()
	out.SearchHistory = cloneStrings(s.SearchHistory)
	return out
}
