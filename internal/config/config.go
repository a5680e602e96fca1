package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// Root is the shared exchange directory. Empty means discover via
	// DefaultRoot at startup.
	Root string `json:"root"`
	// User is the default sender identity for posts and heartbeats.
	User string `json:"user"`

	PollIntervalMs      int `json:"pollIntervalMs"`
	HeartbeatIntervalMs int `json:"heartbeatIntervalMs"`
	PresenceTTLMs       int `json:"presenceTtlMs"`
	InitialTail         int `json:"initialTail"`
	LockTTLMs           int `json:"lockTtlMs"`

	// CompactionZone is an IANA zone name used for date bucketing.
	CompactionZone string `json:"compactionZone"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		PollIntervalMs:      2000,
		HeartbeatIntervalMs: 10000,
		PresenceTTLMs:       30000,
		InitialTail:         50,
		LockTTLMs:           120000,
		CompactionZone:      "UTC",
	}
}

// Load reads configuration from a JSON file, overlaying defaults. If path
// is empty, returns defaults. A .env file in the working directory is
// folded into the environment first so FromEnv sees it.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// PollInterval returns the tail poll interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// HeartbeatInterval returns the presence heartbeat period.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}

// PresenceTTL returns the liveness window for roster scans.
func (c Config) PresenceTTL() time.Duration {
	return time.Duration(c.PresenceTTLMs) * time.Millisecond
}

// LockTTL returns the compaction lock time-to-live.
func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMs) * time.Millisecond
}

// Zone resolves CompactionZone, falling back to UTC on bad names.
func (c Config) Zone() *time.Location {
	if c.CompactionZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.CompactionZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
