// Package presence implements heartbeat/TTL liveness over the shared
// directory. Each user owns one file under presence/, overwritten in
// place by atomic rewrite; liveness is derived from freshness against a
// TTL, never from explicit leave events.
//
// Freshness comes from the entry's embedded ts field: file modification
// times are mangled by some network transports, while the body timestamp
// is written atomically with the record. When the body does not parse the
// scanner falls back to the file's modification time and the file-name
// token, logging the fallback without failing the scan.
package presence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/filedrop-io/courier/internal/fsio"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// ErrValidation reports a user name with no file-system-safe characters.
var ErrValidation = errors.New("validation failed")

// Entry is the single-line JSON body of a presence file.
type Entry struct {
	User string `json:"user"`
	TS   string `json:"ts"`
}

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// Dir returns the presence directory under the shared root.
func Dir(root string) string { return filepath.Join(root, "presence") }

// SanitizeUser reduces a display name to a file-system-safe token:
// alphanumerics, '.', '_', and '-' survive, everything else is dropped.
func SanitizeUser(user string) string {
	var b strings.Builder
	for _, c := range user {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '.' || c == '_' || c == '-':
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Heartbeat writes the user's liveness file. The presence directory must
// already exist; fsio.ErrDirMissing signals the feature is not
// provisioned, which callers treat as disabled rather than failed.
func Heartbeat(root, user string, now time.Time) error {
	token := SanitizeUser(user)
	if token == "" {
		return fmt.Errorf("%w: user %q has no file-safe characters", ErrValidation, user)
	}
	body, err := json.Marshal(Entry{User: user, TS: now.UTC().Format(tsLayout)})
	if err != nil {
		return fmt.Errorf("encode heartbeat: %w", err)
	}
	return fsio.ReplaceAtomic(Dir(root), token+".json", body)
}

// Scan lists presence files and returns the display names whose freshness
// is within ttl of now, case-insensitively deduplicated and sorted.
// Corrupt bodies degrade to the file-name token with mtime freshness;
// only a missing presence directory or an unreadable listing fail the
// scan.
func Scan(root string, ttl time.Duration, now time.Time, logger logpkg.Logger) ([]string, error) {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	dir := Dir(root)
	names, _, err := fsio.Since(dir, "")
	if err != nil {
		return nil, err
	}

	byFold := map[string]string{}
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		display, fresh, ok := readEntry(dir, name, logger)
		if !ok {
			continue
		}
		if now.Sub(fresh) > ttl {
			continue
		}
		fold := strings.ToLower(display)
		if _, dup := byFold[fold]; !dup {
			byFold[fold] = display
		}
	}

	out := make([]string, 0, len(byFold))
	for _, display := range byFold {
		out = append(out, display)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out, nil
}

// readEntry extracts (display, freshness) for one presence file,
// degrading per-file problems to fallbacks instead of errors.
func readEntry(dir, name string, logger logpkg.Logger) (string, time.Time, bool) {
	token := strings.TrimSuffix(name, ".json")
	path := filepath.Join(dir, name)

	b, err := os.ReadFile(path)
	if err == nil {
		var e Entry
		if jsonErr := json.Unmarshal(b, &e); jsonErr == nil && e.TS != "" {
			if ts, tsErr := time.Parse(time.RFC3339Nano, e.TS); tsErr == nil {
				display := e.User
				if display == "" {
					display = token
				}
				return display, ts, true
			}
		}
		logger.Warn("presence.fallback_mtime", logpkg.Str("file", name))
	} else {
		logger.Warn("presence.unreadable", logpkg.Str("file", name), logpkg.Err(err))
	}

	// Body unusable: freshness from stat, display from the token.
	info, statErr := os.Stat(path)
	if statErr != nil {
		return "", time.Time{}, false
	}
	return token, info.ModTime(), true
}
