package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalConfig holds local filesystem backend settings.
type LocalConfig struct {
	RootPath   string `json:"root_path"`
	CreateDirs bool   `json:"create_dirs"`
}

// LocalBackend stores snapshots as JSON files under a root directory.
type LocalBackend struct {
	rootPath string
}

// NewLocal creates a new local filesystem backend.
func NewLocal(cfg LocalConfig) (*LocalBackend, error) {
	if cfg.RootPath == "" {
		return nil, fmt.Errorf("root_path is required")
	}

	info, err := os.Stat(cfg.RootPath)
	if err != nil {
		if os.IsNotExist(err) && cfg.CreateDirs {
			if mkErr := os.MkdirAll(cfg.RootPath, 0755); mkErr != nil {
				return nil, fmt.Errorf("create root path %s: %w", cfg.RootPath, mkErr)
			}
		} else {
			return nil, fmt.Errorf("stat root path %s: %w", cfg.RootPath, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("root path %s is not a directory", cfg.RootPath)
	}

	return &LocalBackend{rootPath: cfg.RootPath}, nil
}

// NewLocalFromJSON creates a LocalBackend from raw JSON config.
func NewLocalFromJSON(raw json.RawMessage) (*LocalBackend, error) {
	var cfg LocalConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse local config: %w", err)
	}
	return NewLocal(cfg)
}

func (b *LocalBackend) path(key string) string {
	return filepath.Join(b.rootPath, key+".json")
}

// Load reads a snapshot file.
func (b *LocalBackend) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return data, nil
}

// Store writes a snapshot file atomically via temp file and rename, so a
// crash mid-write never leaves a truncated snapshot behind.
func (b *LocalBackend) Store(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(b.rootPath, ".breadbox-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", key, err)
	}

	if err := os.Rename(tmpName, b.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", key, err)
	}

	return nil
}

// Delete removes a snapshot file.
func (b *LocalBackend) Delete(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys of all stored snapshots.
func (b *LocalBackend) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.rootPath)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// Type returns "local".
func (b *LocalBackend) Type() string { return "local" }

// Close is a no-op for local backends.
func (b *LocalBackend) Close() error { return nil }
