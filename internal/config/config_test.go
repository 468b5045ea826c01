package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8080")
	}
	if cfg.PersistType != "local" {
		t.Errorf("PersistType = %q, want %q", cfg.PersistType, "local")
	}
	if cfg.FlushInterval != time.Second {
		t.Errorf("FlushInterval = %v, want %v", cfg.FlushInterval, time.Second)
	}
	if cfg.TokenTTL != 720*time.Hour {
		t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, 720*time.Hour)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BREADBOX_LISTEN_ADDR", ":9000")
	t.Setenv("BREADBOX_FLUSH_INTERVAL", "250ms")
	t.Setenv("BREADBOX_PERSIST_TYPE", "redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9000")
	}
	if cfg.FlushInterval != 250*time.Millisecond {
		t.Errorf("FlushInterval = %v, want %v", cfg.FlushInterval, 250*time.Millisecond)
	}
	if cfg.PersistType != "redis" {
		t.Errorf("PersistType = %q, want %q", cfg.PersistType, "redis")
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("BREADBOX_FLUSH_INTERVAL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.FlushInterval != time.Second {
		t.Errorf("FlushInterval = %v, want fallback %v", cfg.FlushInterval, time.Second)
	}
}

func TestLoadAuthRequiresKeyHash(t *testing.T) {
	t.Setenv("BREADBOX_JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("Load() with JWT secret but no API key hash: want error, got nil")
	}
}
