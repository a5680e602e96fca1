package config

import (
	"os"
	"strconv"
)

// FromEnv overlays COURIER_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("COURIER_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv("COURIER_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("COURIER_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PollIntervalMs = n
		}
	}
	if v := os.Getenv("COURIER_HEARTBEAT_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HeartbeatIntervalMs = n
		}
	}
	if v := os.Getenv("COURIER_PRESENCE_TTL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PresenceTTLMs = n
		}
	}
	if v := os.Getenv("COURIER_INITIAL_TAIL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InitialTail = n
		}
	}
	if v := os.Getenv("COURIER_LOCK_TTL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LockTTLMs = n
		}
	}
	if v := os.Getenv("COURIER_COMPACTION_ZONE"); v != "" {
		cfg.CompactionZone = v
	}
}
