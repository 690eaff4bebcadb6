// Package config resolves client settings from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every knob the client reads at startup.
type Config struct {
	SocketURL         string `yaml:"socket_url"`
	APIURL            string `yaml:"api_url"`
	IdentityFile      string `yaml:"identity_file"`
	ReconnectDelayMS  int    `yaml:"reconnect_delay_ms"`
	ReconnectAttempts int    `yaml:"reconnect_attempts"`
	BidIncrement      int64  `yaml:"bid_increment"`
	MetricsAddr       string `yaml:"metrics_addr"`
	LogLevel          string `yaml:"log_level"`

	ReconnectDelay time.Duration `yaml:"-"`
}

// Default returns the reference configuration pointing at a local auction
// server.
func Default() Config {
	return Config{
		SocketURL:         "ws://localhost:3001/ws",
		APIURL:            "http://localhost:3001",
		IdentityFile:      ".auctionsync-id",
		ReconnectDelayMS:  1000,
		ReconnectAttempts: 5,
		BidIncrement:      10,
		MetricsAddr:       "",
		LogLevel:          "info",
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty or the file does not exist), then env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.SocketURL = getEnv("SOCKET_URL", cfg.SocketURL)
	cfg.APIURL = getEnv("API_URL", cfg.APIURL)
	cfg.IdentityFile = getEnv("IDENTITY_FILE", cfg.IdentityFile)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ReconnectAttempts = getEnvAsInt("RECONNECT_ATTEMPTS", cfg.ReconnectAttempts)
	cfg.ReconnectDelayMS = getEnvAsInt("RECONNECT_DELAY_MS", cfg.ReconnectDelayMS)
	if inc := getEnvAsInt("BID_INCREMENT", 0); inc > 0 {
		cfg.BidIncrement = int64(inc)
	}

	if cfg.ReconnectDelayMS <= 0 {
		cfg.ReconnectDelayMS = 1000
	}
	cfg.ReconnectDelay = time.Duration(cfg.ReconnectDelayMS) * time.Millisecond

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
