// Package settings implements the persisted settings stores. They follow the
// same write-behind pattern as the file-manager state store but hold small
// preference records: one store for general preferences, one for download
// locations.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fruitsalade/breadbox/internal/events"
	"github.com/fruitsalade/breadbox/internal/logging"
	"github.com/fruitsalade/breadbox/internal/metrics"
	"github.com/fruitsalade/breadbox/internal/persist"
	"github.com/fruitsalade/breadbox/pkg/models"
)

// Persistence keys of the settings stores.
const (
	GeneralKey   = "settings"
	DownloadsKey = "downloads"
)

// load rehydrates v from the backend under key and reports whether the
// decode succeeded. Callers pre-fill v with defaults (absent fields keep
// them) and must discard v entirely when load returns false, since a corrupt
// document may have been partially decoded.
func load(ctx context.Context, backend persist.Backend, key string, v any) bool {
	err := persist.LoadJSON(ctx, backend, key, v)
	switch {
	case err == nil:
		metrics.RecordStoreLoad(key, "ok")
		logging.Info("settings loaded", zap.String("store", key))
		return true
	case errors.Is(err, persist.ErrNotFound):
		metrics.RecordStoreLoad(key, "fallback_empty")
	case errors.Is(err, persist.ErrCorrupt):
		metrics.RecordStoreLoad(key, "fallback_corrupt")
		logging.Warn("stored settings corrupt, using defaults",
			zap.String("store", key), zap.Error(err))
	default:
		metrics.RecordStoreLoad(key, "error")
		logging.Error("settings load failed, using defaults",
			zap.String("store", key), zap.Error(err))
	}
	return false
}

// persistAndPublish serializes v, hands it to the writer, and publishes a
// change event. Shared by both settings stores.
func persistAndPublish(key, op, eventType string, v any, w *persist.Writer, b *events.Broadcaster) {
	metrics.RecordMutation(key, op)

	data, err := json.Marshal(v)
	if err != nil {
		logging.Error("settings encode failed", zap.String("store", key), zap.Error(err))
	} else {
		metrics.SetSnapshotBytes(key, len(data))
		if w != nil {
			w.Enqueue(key, data)
		}
	}

	if b != nil {
		b.Publish(events.Event{Type: eventType, Store: key, Op: op})
	}
}

// GeneralStore holds application-wide preferences.
type GeneralStore struct {
	backend     persist.Backend
	writer      *persist.Writer
	broadcaster *events.Broadcaster

	mu        sync.RWMutex
	settings  models.GeneralSettings
	mutations atomic.Int64
}

// NewGeneralStore creates the store with default settings.
func NewGeneralStore(backend persist.Backend, writer *persist.Writer, broadcaster *events.Broadcaster) *GeneralStore {
	return &GeneralStore{
		backend:     backend,
		writer:      writer,
		broadcaster: broadcaster,
		settings:    models.DefaultGeneralSettings(),
	}
}

// Key returns the persistence key of this store.
func (s *GeneralStore) Key() string { return GeneralKey }

// Mutations returns the number of mutations applied since startup.
func (s *GeneralStore) Mutations() int64 { return s.mutations.Load() }

// Load rehydrates the store; missing or unreadable data keeps the defaults.
func (s *GeneralStore) Load(ctx context.Context) {
	settings := models.DefaultGeneralSettings()
	loaded := models.DefaultGeneralSettings()
	if load(ctx, s.backend, GeneralKey, &loaded) {
		settings = loaded
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.Publish(events.Event{Type: events.EventLoaded, Store: GeneralKey})
	}
}

// Get returns the current settings.
func (s *GeneralStore) Get() models.GeneralSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Set replaces the settings wholesale.
func (s *GeneralStore) Set(settings models.GeneralSettings) {
	s.mu.Lock()
	s.settings = settings
	current := s.settings
	s.mu.Unlock()

	s.mutations.Add(1)
	persistAndPublish(GeneralKey, "set", events.EventMutation, current, s.writer, s.broadcaster)
}

// Reset restores the default settings.
func (s *GeneralStore) Reset() {
	s.mu.Lock()
	s.settings = models.DefaultGeneralSettings()
	current := s.settings
	s.mu.Unlock()

	s.mutations.Add(1)
	persistAndPublish(GeneralKey, "reset", events.EventReset, current, s.writer, s.broadcaster)
}

// DownloadStore holds download preferences and named download locations.
type DownloadStore struct {
	backend     persist.Backend
	writer      *persist.Writer
	broadcaster *events.Broadcaster

	mu        sync.RWMutex
	settings  models.DownloadSettings
	mutations atomic.Int64
}

// NewDownloadStore creates the store with default settings.
func NewDownloadStore(backend persist.Backend, writer *persist.Writer, broadcaster *events.Broadcaster) *DownloadStore {
	return &DownloadStore{
		backend:     backend,
		writer:      writer,
		broadcaster: broadcaster,
		settings:    models.DefaultDownloadSettings(),
	}
}

// Key returns the persistence key of this store.
func (s *DownloadStore) Key() string { return DownloadsKey }

// Mutations returns the number of mutations applied since startup.
func (s *DownloadStore) Mutations() int64 { return s.mutations.Load() }

// Load rehydrates the store; missing or unreadable data keeps the defaults.
func (s *DownloadStore) Load(ctx context.Context) {
	settings := models.DefaultDownloadSettings()
	loaded := models.DefaultDownloadSettings()
	if load(ctx, s.backend, DownloadsKey, &loaded) {
		settings = loaded
	}
	if settings.Locations == nil {
		settings.Locations = []models.DownloadLocation{}
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.Publish(events.Event{Type: events.EventLoaded, Store: DownloadsKey})
	}
}

// Get returns a copy of the current settings.
func (s *DownloadStore) Get() models.DownloadSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Set replaces the settings wholesale.
func (s *DownloadStore) Set(settings models.DownloadSettings) {
	s.mu.Lock()
	s.settings = settings.Clone()
	if s.settings.Locations == nil {
		s.settings.Locations = []models.DownloadLocation{}
	}
	current := s.settings.Clone()
	s.mu.Unlock()

	s.mutations.Add(1)
	persistAndPublish(DownloadsKey, "set", events.EventMutation, current, s.writer, s.broadcaster)
}

// AddLocation adds a named download location, replacing any location with
// the same name. A location marked default displaces the previous default.
func (s *DownloadStore) AddLocation(loc models.DownloadLocation) {
	s.mu.Lock()
	out := make([]models.DownloadLocation, 0, len(s.settings.Locations)+1)
	for _, l := range s.settings.Locations {
		if l.Name == loc.Name {
			continue
		}
		if loc.Default {
			l.Default = false
		}
		out = append(out, l)
	}
	out = append(out, loc)
	s.settings.Locations = out
	if loc.Default {
		s.settings.Directory = loc.Path
	}
	current := s.settings.Clone()
	s.mu.Unlock()

	s.mutations.Add(1)
	persistAndPublish(DownloadsKey, "add_location", events.EventMutation, current, s.writer, s.broadcaster)
}

// RemoveLocation deletes a named download location.
func (s *DownloadStore) RemoveLocation(name string) error {
	s.mu.Lock()
	out := make([]models.DownloadLocation, 0, len(s.settings.Locations))
	found := false
	for _, l := range s.settings.Locations {
		if l.Name == name {
			found = true
			continue
		}
		out = append(out, l)
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("location %s not found", name)
	}
	s.settings.Locations = out
	current := s.settings.Clone()
	s.mu.Unlock()

	s.mutations.Add(1)
	persistAndPublish(DownloadsKey, "remove_location", events.EventMutation, current, s.writer, s.broadcaster)
	return nil
}

// SetDefaultLocation marks the named location as the default and points the
// download directory at it.
func (s *DownloadStore) SetDefaultLocation(name string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.settings.Locations {
		if s.settings.Locations[i].Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return fmt.Errorf("location %s not found", name)
	}
	for i := range s.settings.Locations {
		s.settings.Locations[i].Default = i == idx
	}
	s.settings.Directory = s.settings.Locations[idx].Path
	current := s.settings.Clone()
	s.mu.Unlock()

	s.mutations.Add(1)
	persistAndPublish(DownloadsKey, "set_default_location", events.EventMutation, current, s.writer, s.broadcaster)
	return nil
}

// Reset restores the default settings.
func (s *DownloadStore) Reset() {
	s.mu.Lock()
	s.settings = models.DefaultDownloadSettings()
	current := s.settings.Clone()
	s.mu.Unlock()

	s.mutations.Add(1)
	persistAndPublish(DownloadsKey, "reset", events.EventReset, current, s.writer, s.broadcaster)
}
