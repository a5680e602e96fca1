package recname

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Suffix and timestamp widths are part of the on-disk contract.
const (
	// TokenLen is the hex-encoded random suffix length.
	TokenLen = 8
	// Ext is the record file extension.
	Ext = ".json"

	tsLen   = 24 // 2006-01-02T15-04-05-000Z
	nameLen = tsLen + 1 + TokenLen + len(Ext)
)

// ErrBadName reports a string that is not a well-formed record file name.
var ErrBadName = errors.New("malformed record file name")

// Format renders the file name for the given instant and token. The
// instant is truncated to millisecond resolution in UTC.
func Format(t time.Time, token string) string {
	u := t.UTC()
	return fmt.Sprintf("%s-%03dZ_%s%s", u.Format("2006-01-02T15-04-05"), u.Nanosecond()/1e6, token, Ext)
}

// FormatTimestamp renders only the fixed-width timestamp component.
func FormatTimestamp(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%s-%03dZ", u.Format("2006-01-02T15-04-05"), u.Nanosecond()/1e6)
}

// Parse decodes a record file name back into its instant and token.
func Parse(name string) (time.Time, string, error) {
	if len(name) != nameLen || !strings.HasSuffix(name, Ext) || name[tsLen] != '_' {
		return time.Time{}, "", ErrBadName
	}
	ts := name[:tsLen]
	token := name[tsLen+1 : tsLen+1+TokenLen]
	for _, c := range token {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return time.Time{}, "", ErrBadName
		}
	}
	// Rebuild an RFC3339 instant from the colon-free form.
	if ts[13] != '-' || ts[16] != '-' || ts[19] != '-' || ts[23] != 'Z' {
		return time.Time{}, "", ErrBadName
	}
	rfc := ts[:13] + ":" + ts[14:16] + ":" + ts[17:19] + "." + ts[20:23] + "Z"
	t, err := time.Parse("2006-01-02T15:04:05.000Z07:00", rfc)
	if err != nil {
		return time.Time{}, "", ErrBadName
	}
	return t, token, nil
}

// IsRecordName reports whether name parses as a record file name.
func IsRecordName(name string) bool {
	_, _, err := Parse(name)
	return err == nil
}

// NewToken returns a fresh random suffix (4 bytes, hex).
func NewToken() (string, error) {
	var b [TokenLen / 2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// NowMs returns the current wall clock in milliseconds since the epoch.
// Swappable for tests.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Generator produces per-process strictly increasing (instant, token)
// pairs. If the clock regresses it pins to the last seen millisecond;
// within one millisecond it re-rolls the token until the resulting name
// sorts after the previous one.
type Generator struct {
	mu        sync.Mutex
	lastMs    int64
	lastToken string
}

// NewGenerator creates a Generator.
func NewGenerator() *Generator { return &Generator{} }

// Next returns the instant and token for the next record name.
func (g *Generator) Next() (time.Time, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	for rolls := 0; ; rolls++ {
		token, err := NewToken()
		if err != nil {
			return time.Time{}, "", err
		}
		if ms != g.lastMs || token > g.lastToken {
			g.lastMs = ms
			g.lastToken = token
			return time.UnixMilli(ms).UTC(), token, nil
		}
		// Same millisecond and the fresh token does not sort after the
		// previous one; after a few rolls take the next millisecond.
		if rolls >= 3 {
			ms++
		}
	}
}
