package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }

// fullSnapshot populates every field, including the optional pointers.
func fullSnapshot() FileManagerSnapshot {
	s := DefaultFileManagerSnapshot()
	s.Files = []FileItem{
		{
			Name:             "report.pdf",
			URI:              "content://docs/report.pdf",
			Size:             int64p(4096),
			ModificationTime: int64p(1724000000),
			LastAccessed:     int64p(1724100000),
			IsFavorite:       boolp(true),
			IsLocked:         boolp(false),
			Permissions:      &Permissions{Read: true, Write: true},
			Tags:             []string{"work", "q3"},
			MimeType:         "application/pdf",
			ThumbnailURI:     "content://thumbs/report.png",
		},
		{Name: "Photos", URI: "content://dirs/photos", IsDirectory: true},
	}
	s.CurrentPath = "/documents"
	s.History = []string{"/", "/documents"}
	s.SelectedFiles = []string{"content://docs/report.pdf"}
	s.SelectedCount = 1
	s.MultiSelectMode = true
	s.Favorites = []string{"content://docs/report.pdf"}
	s.RecentFiles = []FileItem{{Name: "notes.txt", URI: "content://docs/notes.txt"}}
	s.Clipboard = Clipboard{Type: ClipboardCut, Files: []string{"content://docs/notes.txt"}}
	s.SortOptions = SortOptions{Field: SortBySize, Direction: SortDesc}
	s.Filters = Filters{
		Name:      "rep",
		Extension: "pdf",
		MinSize:   int64p(1024),
		MaxSize:   int64p(1 << 20),
		DateFrom:  int64p(1700000000),
		DateTo:    int64p(1725000000),
	}
	s.FilterType = FilterFiles
	s.SearchQuery = "report"
	s.SearchHistory = []string{"report", "invoice"}
	s.ViewMode = ViewList
	s.GridColumns = 3
	s.ShowHidden = true
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		snap FileManagerSnapshot
	}{
		{"default", DefaultFileManagerSnapshot()},
		{"populated", fullSnapshot()},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.snap)
		if err != nil {
			t.Fatalf("%s: marshal: %v", tt.name, err)
		}
		var got FileManagerSnapshot
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("%s: unmarshal: %v", tt.name, err)
		}
		if !reflect.DeepEqual(got, tt.snap) {
			t.Errorf("%s: round trip mismatch\n got: %+v\nwant: %+v", tt.name, got, tt.snap)
		}
	}
}

func TestSnapshotUnknownFieldsIgnored(t *testing.T) {
	data := []byte(`{"current_path":"/sd","grid_columns":6,"future_field":{"a":1}}`)
	var got FileManagerSnapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.CurrentPath != "/sd" {
		t.Errorf("CurrentPath = %q, want %q", got.CurrentPath, "/sd")
	}
	if got.GridColumns != 6 {
		t.Errorf("GridColumns = %d, want 6", got.GridColumns)
	}
}

func TestSnapshotCloneIndependence(t *testing.T) {
	orig := fullSnapshot()
	clone := orig.Clone()

	if !reflect.DeepEqual(clone, orig) {
		t.Fatal("clone differs from original before mutation")
	}

	// Empty non-nil slices must survive cloning, or a cloned default would
	// no longer compare deep-equal to DefaultFileManagerSnapshot().
	def := DefaultFileManagerSnapshot()
	if got := def.Clone(); !reflect.DeepEqual(got, def) {
		t.Fatalf("Clone of default differs from default\n got: %+v\nwant: %+v", got, def)
	}

	clone.Files[0].Name = "mutated"
	clone.Files[0].Tags[0] = "mutated"
	*clone.Files[0].Size = 1
	clone.History[0] = "/mutated"
	clone.SelectedFiles[0] = "mutated"
	clone.Favorites[0] = "mutated"
	clone.Clipboard.Files[0] = "mutated"
	*clone.Filters.MinSize = 1
	clone.SearchHistory[0] = "mutated"

	want := fullSnapshot()
	if !reflect.DeepEqual(orig, want) {
		t.Errorf("mutating clone changed original\n got: %+v\nwant: %+v", orig, want)
	}
}

func TestDefaultSnapshotShape(t *testing.T) {
	s := DefaultFileManagerSnapshot()

	if s.CurrentPath != "/" {
		t.Errorf("CurrentPath = %q, want %q", s.CurrentPath, "/")
	}
	if s.SortOptions.Field != SortByName || s.SortOptions.Direction != SortAsc {
		t.Errorf("SortOptions = %+v, want name/asc", s.SortOptions)
	}
	if s.FilterType != FilterAll {
		t.Errorf("FilterType = %q, want %q", s.FilterType, FilterAll)
	}
	if s.ViewMode != ViewGrid || s.GridColumns != 4 {
		t.Errorf("view = %q/%d, want grid/4", s.ViewMode, s.GridColumns)
	}
	if s.Clipboard.Type != ClipboardNone || len(s.Clipboard.Files) != 0 {
		t.Errorf("Clipboard = %+v, want empty none", s.Clipboard)
	}

	// Slice fields must be non-nil so defaults serialize as [] and compare
	// deep-equal after a round trip.
	if s.Files == nil || s.History == nil || s.SelectedFiles == nil ||
		s.Favorites == nil || s.RecentFiles == nil || s.SearchHistory == nil ||
		s.Clipboard.Files == nil {
		t.Error("default snapshot has nil slice fields")
	}
}
