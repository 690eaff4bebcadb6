package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SocketURL != "ws://localhost:3001/ws" {
		t.Errorf("SocketURL = %q", cfg.SocketURL)
	}
	if cfg.ReconnectDelay != time.Second || cfg.ReconnectAttempts != 5 {
		t.Errorf("reconnect policy = %v x %d, want 1s x 5", cfg.ReconnectDelay, cfg.ReconnectAttempts)
	}
	if cfg.BidIncrement != 10 {
		t.Errorf("BidIncrement = %d, want 10", cfg.BidIncrement)
	}
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "socket_url: wss://auction.example.com/ws\nreconnect_attempts: 8\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SocketURL != "wss://auction.example.com/ws" {
		t.Errorf("SocketURL = %q", cfg.SocketURL)
	}
	if cfg.ReconnectAttempts != 8 {
		t.Errorf("ReconnectAttempts = %d, want 8", cfg.ReconnectAttempts)
	}
	// untouched keys keep their defaults
	if cfg.APIURL != "http://localhost:3001" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: http://from-file:3001\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("API_URL", "http://from-env:3001")
	t.Setenv("RECONNECT_DELAY_MS", "250")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "http://from-env:3001" {
		t.Errorf("APIURL = %q, env must win over file", cfg.APIURL)
	}
	if cfg.ReconnectDelay != 250*time.Millisecond {
		t.Errorf("ReconnectDelay = %v, want 250ms", cfg.ReconnectDelay)
	}
}

func TestMissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatal(err)
	}
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("socket_url: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
