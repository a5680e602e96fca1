package compactor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/filedrop-io/courier/internal/lockfile"
	"github.com/filedrop-io/courier/internal/spool"
	"github.com/filedrop-io/courier/pkg/recname"
)

func newTestCompactor(t *testing.T) (*Compactor, *spool.Spool, string) {
	t.Helper()
	root := t.TempDir()
	sp := spool.New(root)
	c := New(root, sp, nil)
	for _, d := range []string{sp.MsgsDir("general"), c.LogsDir("general")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	return c, sp, root
}

// postAt spools one record with a pinned wall clock.
func postAt(t *testing.T, sp *spool.Spool, at time.Time, text string) string {
	t.Helper()
	recname.NowMs = func() int64 { return at.UnixMilli() }
	defer func() { recname.NowMs = func() int64 { return time.Now().UnixMilli() } }()
	_, name, err := sp.Post("general", "alice", text, "", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return name
}

func TestCompactRoundTrip(t *testing.T) {
	c, sp, _ := newTestCompactor(t)
	day1 := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 11, 11, 9, 0, 0, 0, time.UTC)
	postAt(t, sp, day1, "d1-a")
	postAt(t, sp, day1.Add(time.Hour), "d1-b")
	postAt(t, sp, day2, "d2-a")

	cutoff := time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)
	sum, err := c.Compact("general", Options{Cutoff: cutoff})
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if sum.Considered != 3 || sum.Appended != 3 || sum.Skipped != 0 || sum.DaysTouched != 2 {
		t.Fatalf("summary = %+v", sum)
	}

	// Spool must be empty.
	entries, err := os.ReadDir(sp.MsgsDir("general"))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("spool not drained: %v", entries)
	}

	// Each day log holds exactly its records, one newline-terminated line each.
	assertLog(t, c, "2025-11-10", "d1-a", "d1-b")
	assertLog(t, c, "2025-11-11", "d2-a")
}

func assertLog(t *testing.T, c *Compactor, day string, wantTexts ...string) {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(c.LogsDir("general"), day+".ndjson"))
	if err != nil {
		t.Fatalf("read log %s: %v", day, err)
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		t.Fatalf("log %s not newline-terminated", day)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != len(wantTexts) {
		t.Fatalf("log %s has %d lines, want %d", day, len(lines), len(wantTexts))
	}
	for i, line := range lines {
		rec, err := spool.DecodeRecord([]byte(line))
		if err != nil {
			t.Fatalf("log %s line %d: %v", day, i, err)
		}
		if rec.Text != wantTexts[i] {
			t.Fatalf("log %s line %d text = %q, want %q", day, i, rec.Text, wantTexts[i])
		}
	}
}

func TestCompactLeavesUndueRecords(t *testing.T) {
	c, sp, _ := newTestCompactor(t)
	old := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	today := time.Date(2025, 11, 12, 9, 0, 0, 0, time.UTC)
	postAt(t, sp, old, "due")
	postAt(t, sp, today, "not-due")

	cutoff := time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)
	sum, err := c.Compact("general", Options{Cutoff: cutoff})
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if sum.Considered != 2 || sum.Appended != 1 || sum.Skipped != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	entries, _ := os.ReadDir(sp.MsgsDir("general"))
	if len(entries) != 1 {
		t.Fatalf("undue record should remain in spool: %v", entries)
	}
}

func TestCompactSkipsCorruptAndContinues(t *testing.T) {
	c, sp, _ := newTestCompactor(t)
	old := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	postAt(t, sp, old, "good")
	bad := filepath.Join(sp.MsgsDir("general"), "2025-11-10T00-00-00-000Z_ffffffff.json")
	if err := os.WriteFile(bad, []byte("{broken\n"), 0o644); err != nil {
		t.Fatalf("seed corrupt: %v", err)
	}

	sum, err := c.Compact("general", Options{Cutoff: time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if sum.Considered != 2 || sum.Appended != 1 || sum.Skipped != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	// The corrupt file stays in the spool; it is never deleted unappended.
	if _, err := os.Stat(bad); err != nil {
		t.Fatalf("corrupt file removed from spool: %v", err)
	}
}

func TestCompactCrashBetweenAppendAndDelete(t *testing.T) {
	c, sp, _ := newTestCompactor(t)
	old := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	name := postAt(t, sp, old, "survivor")

	// Simulate a crash after append succeeded but before the delete: the
	// record's line is already in the day log and the spool file remains.
	raw, err := os.ReadFile(filepath.Join(sp.MsgsDir("general"), name))
	if err != nil {
		t.Fatalf("read spool file: %v", err)
	}
	logPath := filepath.Join(c.LogsDir("general"), "2025-11-10.ndjson")
	if err := os.WriteFile(logPath, raw, 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	sum, err := c.Compact("general", Options{Cutoff: time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if sum.Appended != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	// The record was duplicated, which is acceptable, but never lost, and
	// every line still parses.
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want duplicate pair", len(lines))
	}
	for _, line := range lines {
		if _, err := spool.DecodeRecord([]byte(line)); err != nil {
			t.Fatalf("log line corrupt: %v", err)
		}
	}
	if entries, _ := os.ReadDir(sp.MsgsDir("general")); len(entries) != 0 {
		t.Fatalf("spool not drained after recovery run: %v", entries)
	}
}

func TestCompactLockBusy(t *testing.T) {
	c, _, _ := newTestCompactor(t)
	err := lockfile.WithLock(c.LockPath("general"), time.Minute, "other compactor", func() error {
		_, err := c.Compact("general", Options{Cutoff: time.Now()})
		return err
	})
	if !errors.Is(err, lockfile.ErrLockUnavailable) {
		t.Fatalf("want ErrLockUnavailable, got %v", err)
	}
}

func TestCompactDryRunTouchesNothing(t *testing.T) {
	c, sp, _ := newTestCompactor(t)
	postAt(t, sp, time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC), "kept")

	sum, err := c.Compact("general", Options{
		Cutoff: time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC),
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if sum.Appended != 1 || sum.DaysTouched != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if entries, _ := os.ReadDir(sp.MsgsDir("general")); len(entries) != 1 {
		t.Fatalf("dry run mutated the spool")
	}
	logs, _ := os.ReadDir(c.LogsDir("general"))
	if len(logs) != 0 {
		t.Fatalf("dry run wrote logs: %v", logs)
	}
}

func TestCutoffPresets(t *testing.T) {
	now := time.Date(2025, 11, 12, 15, 30, 0, 0, time.UTC)

	c1, err := Cutoff(ThroughYesterday, now, time.Time{}, time.UTC)
	if err != nil {
		t.Fatalf("cutoff: %v", err)
	}
	if !c1.Equal(time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("through-yesterday cutoff = %v", c1)
	}

	c2, err := Cutoff(ExcludeToday, now, time.Time{}, time.UTC)
	if err != nil || !c2.Equal(c1) {
		t.Fatalf("exclude-today cutoff = %v, %v; want same instant as through-yesterday", c2, err)
	}

	date := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	c3, err := Cutoff(ThroughDate, now, date, time.UTC)
	if err != nil {
		t.Fatalf("cutoff: %v", err)
	}
	if !c3.Equal(time.Date(2025, 11, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("through-date cutoff = %v, want day after the given date", c3)
	}
}
