package settings

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/fruitsalade/breadbox/internal/persist"
	"github.com/fruitsalade/breadbox/pkg/models"
	"github.com/fruitsalade/breadbox/pkg/retry"
)

func testWriter(t *testing.T) (persist.Backend, *persist.Writer) {
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
	return backend, w
}

func TestGeneralStoreRoundTrip(t *testing.T) {
	backend, w := testWriter(t)
	s := NewGeneralStore(backend, w, nil)

	want := models.GeneralSettings{
		Theme:              models.ThemeDark,
		Language:           "de",
		ConfirmDelete:      false,
		ShowFileExtensions: true,
		DefaultView:        models.ViewList,
		RememberLastPath:   false,
	}
	s.Set(want)

	reloaded := NewGeneralStore(backend, nil, nil)
	reloaded.Load(context.Background())

	if got := reloaded.Get(); !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded settings = %+v, want %+v", got, want)
	}
}

func TestGeneralStoreLoadMissingKeepsDefaults(t *testing.T) {
	backend, _ := testWriter(t)
	s := NewGeneralStore(backend, nil, nil)
	s.Load(context.Background())

	if got, want := s.Get(), models.DefaultGeneralSettings(); !reflect.DeepEqual(got, want) {
		t.Errorf("settings = %+v, want defaults %+v", got, want)
	}
}

func TestGeneralStoreReset(t *testing.T) {
	backend, w := testWriter(t)
	s := NewGeneralStore(backend, w, nil)

	s.Set(models.GeneralSettings{Theme: models.ThemeLight, Language: "fr"})
	s.Reset()

	if got, want := s.Get(), models.DefaultGeneralSettings(); !reflect.DeepEqual(got, want) {
		t.Errorf("settings after reset = %+v, want %+v", got, want)
	}
}

func TestDownloadStoreLocations(t *testing.T) {
	backend, w := testWriter(t)
	s := NewDownloadStore(backend, w, nil)

	s.AddLocation(models.DownloadLocation{Name: "sdcard", Path: "/sdcard/Download"})
	s.AddLocation(models.DownloadLocation{Name: "internal", Path: "/storage/downloads", Default: true})

	got := s.Get()
	if len(got.Locations) != 2 {
		t.Fatalf("locations = %d, want 2", len(got.Locations))
	}
	if got.Directory != "/storage/downloads" {
		t.Errorf("Directory = %q, want default location path", got.Directory)
	}

	if err := s.SetDefaultLocation("sdcard"); err != nil {
		t.Fatalf("SetDefaultLocation: %v", err)
	}
	got = s.Get()
	if got.Directory != "/sdcard/Download" {
		t.Errorf("Directory = %q, want /sdcard/Download", got.Directory)
	}
	for _, loc := range got.Locations {
		if loc.Name == "sdcard" && !loc.Default {
			t.Error("sdcard not marked default")
		}
		if loc.Name == "internal" && loc.Default {
			t.Error("previous default not cleared")
		}
	}

	if err := s.SetDefaultLocation("nope"); err == nil {
		t.Error("SetDefaultLocation on unknown name: want error, got nil")
	}

	if err := s.RemoveLocation("internal"); err != nil {
		t.Fatalf("RemoveLocation: %v", err)
	}
	if got := s.Get(); len(got.Locations) != 1 {
		t.Errorf("locations after remove = %d, want 1", len(got.Locations))
	}
	if err := s.RemoveLocation("internal"); err == nil {
		t.Error("RemoveLocation twice: want error, got nil")
	}
}

func TestDownloadStoreAddLocationReplacesSameName(t *testing.T) {
	backend, w := testWriter(t)
	s := NewDownloadStore(backend, w, nil)

	s.AddLocation(models.DownloadLocation{Name: "sdcard", Path: "/old"})
	s.AddLocation(models.DownloadLocation{Name: "sdcard", Path: "/new"})

	got := s.Get()
	if len(got.Locations) != 1 {
		t.Fatalf("locations = %d, want 1", len(got.Locations))
	}
	if got.Locations[0].Path != "/new" {
		t.Errorf("Path = %q, want /new", got.Locations[0].Path)
	}
}

func TestDownloadStoreRoundTrip(t *testing.T) {
	backend, w := testWriter(t)
	s := NewDownloadStore(backend, w, nil)

	s.Set(models.DownloadSettings{
		Directory:     "/custom",
		WifiOnly:      true,
		MaxConcurrent: 5,
		AutoResume:    false,
		Locations: []models.DownloadLocation{
			{Name: "custom", Path: "/custom", Default: true},
		},
	})

	reloaded := NewDownloadStore(backend, nil, nil)
	reloaded.Load(context.Background())

	if got, want := reloaded.Get(), s.Get(); !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded = %+v, want %+v", got, want)
	}
}

func TestDownloadStoreCorruptFallsBack(t *testing.T) {
	backend, _ := testWriter(t)
	if err := backend.Store(context.Background(), DownloadsKey, []byte("oops")); err != nil {
		t.Fatalf("seed corrupt: %v", err)
	}

	s := NewDownloadStore(backend, nil, nil)
	s.Load(context.Background())

	if got, want := s.Get(), models.DefaultDownloadSettings(); !reflect.DeepEqual(got, want) {
		t.Errorf("settings = %+v, want defaults %+v", got, want)
	}
}
