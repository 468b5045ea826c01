package state

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/fruitsalade/breadbox/internal/persist"
	"github.com/fruitsalade/breadbox/pkg/models"
	"github.com/fruitsalade/breadbox/pkg/retry"
)

// newTestStore builds a store in write-through mode over a throwaway local
// backend, so every mutation is on disk before the mutator returns.
func newTestStore(t *testing.T) (*Store, persist.Backend) {
	t.Helper()
	backend, err := persist.NewLocal(persist.LocalConfig{RootPath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	w := persist.NewWriter(backend, 0, retry.Config{
		MaxAttempts: 1,
		InitialWait: time.Millisecond,
		Multiplier:  2.0,
	})
	return New(DefaultKey, backend, w, nil), backend
}

func item(name, uri string) models.FileItem {
	return models.FileItem{Name: name, URI: uri}
}

func TestToggleFavoriteTwiceRestores(t *testing.T) {
	s, _ := newTestStore(t)

	if !s.ToggleFavorite("content://docs/report.pdf") {
		t.Error("first toggle: want favorite true")
	}
	if got := s.Snapshot().Favorites; len(got) != 1 || got[0] != "content://docs/report.pdf" {
		t.Errorf("Favorites = %v, want one entry", got)
	}

	if s.ToggleFavorite("content://docs/report.pdf") {
		t.Error("second toggle: want favorite false")
	}
	if got := s.Snapshot().Favorites; len(got) != 0 {
		t.Errorf("Favorites after double toggle = %v, want empty", got)
	}
}

func TestSelectAllDeselectAll(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetFiles([]models.FileItem{
		item("a.txt", "file:///a.txt"),
		item("b.txt", "file:///b.txt"),
		item("c", "file:///c"),
	})

	s.SelectAll()
	snap := s.Snapshot()
	if snap.SelectedCount != 3 || len(snap.SelectedFiles) != 3 {
		t.Fatalf("after SelectAll: count=%d files=%v", snap.SelectedCount, snap.SelectedFiles)
	}
	if snap.SelectedFiles[0] != "file:///a.txt" {
		t.Errorf("SelectedFiles[0] = %q, want listing order", snap.SelectedFiles[0])
	}

	s.DeselectAll()
	snap = s.Snapshot()
	if snap.SelectedCount != 0 || len(snap.SelectedFiles) != 0 {
		t.Errorf("after DeselectAll: count=%d files=%v, want empty", snap.SelectedCount, snap.SelectedFiles)
	}
}

func TestSelectedCountTracksSelection(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetSelectedFiles([]string{"file:///a", "file:///b"})
	if got := s.Snapshot().SelectedCount; got != 2 {
		t.Errorf("SelectedCount = %d, want 2", got)
	}

	s.SetSelectedFiles(nil)
	snap := s.Snapshot()
	if snap.SelectedCount != 0 {
		t.Errorf("SelectedCount = %d, want 0", snap.SelectedCount)
	}
	if snap.SelectedFiles == nil {
		t.Error("SelectedFiles is nil, want empty slice")
	}
}

func TestClipboardReplacesWholesale(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetCutFiles([]string{"file:///a"})
	s.SetCopyFiles([]string{"file:///b"})

	got := s.Snapshot().Clipboard
	want := models.Clipboard{Type: models.ClipboardCopy, Files: []string{"file:///b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Clipboard = %+v, want %+v", got, want)
	}

	s.AddToClipboard(models.ClipboardCut, []string{"file:///c", "file:///d"})
	got = s.Snapshot().Clipboard
	if got.Type != models.ClipboardCut || len(got.Files) != 2 {
		t.Errorf("AddToClipboard did not replace: %+v", got)
	}

	s.ClearClipboard()
	got = s.Snapshot().Clipboard
	if got.Type != models.ClipboardNone || len(got.Files) != 0 {
		t.Errorf("Clipboard after clear = %+v, want empty none", got)
	}
}

func TestAddToClipboardRejectsUnknownMode(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetCopyFiles([]string{"file:///a"})

	s.AddToClipboard(models.ClipboardMode("paste"), []string{"file:///b"})

	got := s.Snapshot().Clipboard
	if got.Type != models.ClipboardNone || len(got.Files) != 0 {
		t.Errorf("Clipboard = %+v, want cleared on unknown mode", got)
	}
}

func TestSearchHistoryCapNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 1; i <= 11; i++ {
		s.AddToSearchHistory(fmt.Sprintf("term-%d", i))
	}

	got := s.Snapshot().SearchHistory
	if len(got) != models.SearchHistoryCap {
		t.Fatalf("len = %d, want %d", len(got), models.SearchHistoryCap)
	}
	if got[0] != "term-11" {
		t.Errorf("head = %q, want term-11", got[0])
	}
	if got[len(got)-1] != "term-2" {
		t.Errorf("tail = %q, want term-2 (term-1 evicted)", got[len(got)-1])
	}
}

func TestSearchHistoryKeepsDuplicates(t *testing.T) {
	s, _ := newTestStore(t)

	s.AddToSearchHistory("invoice")
	s.AddToSearchHistory("photos")
	s.AddToSearchHistory("invoice")

	got := s.Snapshot().SearchHistory
	want := []string{"invoice", "photos", "invoice"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SearchHistory = %v, want %v", got, want)
	}
}

func TestSearchHistoryIgnoresBlank(t *testing.T) {
	s, _ := newTestStore(t)

	s.AddToSearchHistory("")
	s.AddToSearchHistory("   ")

	if got := s.Snapshot().SearchHistory; len(got) != 0 {
		t.Errorf("SearchHistory = %v, want empty", got)
	}
}

func TestRecentFilesMRU(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 1; i <= 11; i++ {
		s.AddRecent(item(fmt.Sprintf("f%d", i), fmt.Sprintf("file:///f%d", i)))
	}

	got := s.Snapshot().RecentFiles
	if len(got) != models.RecentFilesCap {
		t.Fatalf("len = %d, want %d", len(got), models.RecentFilesCap)
	}
	if got[0].URI != "file:///f11" {
		t.Errorf("head = %q, want the 11th added", got[0].URI)
	}
	for _, it := range got {
		if it.URI == "file:///f1" {
			t.Error("oldest entry still present, want evicted")
		}
	}
}

func TestRecentFilesDedupByURI(t *testing.T) {
	s, _ := newTestStore(t)

	s.AddRecent(item("a", "file:///a"))
	s.AddRecent(item("b", "file:///b"))
	s.AddRecent(item("a-renamed", "file:///a"))

	got := s.Snapshot().RecentFiles
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (same URI consolidated)", len(got))
	}
	if got[0].URI != "file:///a" || got[0].Name != "a-renamed" {
		t.Errorf("head = %+v, want refreshed entry for file:///a", got[0])
	}
	if got[1].URI != "file:///b" {
		t.Errorf("second = %q, want file:///b", got[1].URI)
	}
}

func TestMultiSelectModeKeepsSelection(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetSelectedFiles([]string{"file:///a", "file:///b"})

	if got := s.ToggleMultiSelectMode(); !got {
		t.Error("first toggle: want true")
	}
	snap := s.Snapshot()
	if !snap.MultiSelectMode {
		t.Error("MultiSelectMode = false, want true")
	}
	if snap.SelectedCount != 2 || len(snap.SelectedFiles) != 2 {
		t.Errorf("selection changed by mode toggle: count=%d files=%v",
			snap.SelectedCount, snap.SelectedFiles)
	}

	s.SetMultiSelectMode(false)
	snap = s.Snapshot()
	if snap.MultiSelectMode {
		t.Error("MultiSelectMode = true, want false")
	}
	if snap.SelectedCount != 2 {
		t.Errorf("selection changed by SetMultiSelectMode: count=%d", snap.SelectedCount)
	}
}

func TestHistoryBounded(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 1; i <= models.PathHistoryCap+5; i++ {
		s.AddToHistory(fmt.Sprintf("/dir/%d", i))
	}

	got := s.Snapshot().History
	if len(got) != models.PathHistoryCap {
		t.Fatalf("len = %d, want %d", len(got), models.PathHistoryCap)
	}
	if got[0] != "/dir/6" {
		t.Errorf("oldest = %q, want /dir/6", got[0])
	}
	if got[len(got)-1] != fmt.Sprintf("/dir/%d", models.PathHistoryCap+5) {
		t.Errorf("newest = %q, want last added", got[len(got)-1])
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetFiles([]models.FileItem{item("a", "file:///a")})
	s.SetCurrentPath("/documents")
	s.AddToHistory("/documents")
	s.SelectAll()
	s.ToggleFavorite("file:///a")
	s.AddRecent(item("a", "file:///a"))
	s.SetCutFiles([]string{"file:///a"})
	s.SetSortOptions(models.SortOptions{Field: models.SortBySize, Direction: models.SortDesc})
	s.SetSearchQuery("a")
	s.AddToSearchHistory("a")
	s.SetViewMode(models.ViewList)
	s.SetGridColumns(6)
	s.SetShowHidden(true)

	s.Reset()

	got := s.Snapshot()
	want := models.DefaultFileManagerSnapshot()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("state after Reset differs from defaults\n got: %+v\nwant: %+v", got, want)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	s, backend := newTestStore(t)

	s.SetFiles([]models.FileItem{item("report.pdf", "content://docs/report.pdf")})
	s.SetCurrentPath("/documents")
	s.AddToHistory("/")
	s.AddToHistory("/documents")
	s.SetSelectedFiles([]string{"content://docs/report.pdf"})
	s.ToggleFavorite("content://docs/report.pdf")
	s.AddRecent(item("report.pdf", "content://docs/report.pdf"))
	s.SetCopyFiles([]string{"content://docs/report.pdf"})
	s.SetSortOptions(models.SortOptions{Field: models.SortByDate, Direction: models.SortDesc})
	s.SetFilterType(models.FilterFiles)
	s.SetSearchQuery("rep")
	s.AddToSearchHistory("rep")
	s.SetViewMode(models.ViewList)
	s.SetGridColumns(3)
	s.SetShowHidden(true)

	reloaded := New(DefaultKey, backend, nil, nil)
	reloaded.Load(context.Background())

	got := reloaded.Snapshot()
	want := s.Snapshot()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded state differs\n got: %+v\nwant: %+v", got, want)
	}
}

func TestLoadMissingFallsBackToDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	s.Load(context.Background())

	got := s.Snapshot()
	want := models.DefaultFileManagerSnapshot()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("state after empty load differs from defaults\n got: %+v\nwant: %+v", got, want)
	}
}

func TestLoadCorruptFallsBackToDefaults(t *testing.T) {
	s, backend := newTestStore(t)
	if err := backend.Store(context.Background(), DefaultKey, []byte("{definitely not json")); err != nil {
		t.Fatalf("seed corrupt snapshot: %v", err)
	}

	s.Load(context.Background())

	got := s.Snapshot()
	want := models.DefaultFileManagerSnapshot()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("state after corrupt load differs from defaults\n got: %+v\nwant: %+v", got, want)
	}
}

func TestLoadNormalizesLooseSnapshot(t *testing.T) {
	s, backend := newTestStore(t)
	raw := []byte(`{
		"current_path": "",
		"selected_files": ["file:///a"],
		"selected_count": 99,
		"clipboard": {"type": "", "files": null},
		"grid_columns": 0,
		"search_history": ["a","b","c","d","e","f","g","h","i","j","k","l"]
	}`)
	if err := backend.Store(context.Background(), DefaultKey, raw); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	s.Load(context.Background())
	got := s.Snapshot()

	if got.CurrentPath != "/" {
		t.Errorf("CurrentPath = %q, want /", got.CurrentPath)
	}
	if got.SelectedCount != 1 {
		t.Errorf("SelectedCount = %d, want recomputed 1", got.SelectedCount)
	}
	if got.Clipboard.Type != models.ClipboardNone || got.Clipboard.Files == nil {
		t.Errorf("Clipboard = %+v, want repaired empty none", got.Clipboard)
	}
	if got.GridColumns != 4 {
		t.Errorf("GridColumns = %d, want default 4", got.GridColumns)
	}
	if len(got.SearchHistory) != models.SearchHistoryCap {
		t.Errorf("SearchHistory len = %d, want trimmed to %d",
			len(got.SearchHistory), models.SearchHistoryCap)
	}
	if got.Files == nil || got.History == nil || got.Favorites == nil || got.RecentFiles == nil {
		t.Error("nil slices survived normalization")
	}
}

func TestInputsAreCopied(t *testing.T) {
	s, _ := newTestStore(t)

	files := []models.FileItem{item("a", "file:///a")}
	s.SetFiles(files)
	files[0].Name = "mutated"

	if got := s.Snapshot().Files[0].Name; got != "a" {
		t.Errorf("caller mutation leaked into store: Name = %q", got)
	}

	uris := []string{"file:///a"}
	s.SetSelectedFiles(uris)
	uris[0] = "mutated"
	if got := s.Snapshot().SelectedFiles[0]; got != "file:///a" {
		t.Errorf("caller mutation leaked into selection: %q", got)
	}

	snap := s.Snapshot()
	snap.Files[0].Name = "mutated-again"
	if got := s.Snapshot().Files[0].Name; got != "a" {
		t.Errorf("snapshot mutation leaked into store: Name = %q", got)
	}
}

func TestGridColumnsIgnoresNonPositive(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetGridColumns(0)
	s.SetGridColumns(-3)

	if got := s.Snapshot().GridColumns; got != 4 {
		t.Errorf("GridColumns = %d, want untouched default 4", got)
	}
}

func TestMutationsCounter(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetCurrentPath("/a")
	s.SetCurrentPath("/b")
	s.SetShowHidden(true)

	if got := s.Mutations(); got != 3 {
		t.Errorf("Mutations = %d, want 3", got)
	}
}
