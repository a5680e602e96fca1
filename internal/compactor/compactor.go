// Package compactor folds a room's spool into date-partitioned NDJSON
// logs. The walk appends each due record's original line verbatim to its
// day's log and deletes the source file only after the append succeeds,
// never the reverse, so a crash at any point leaves the record in the
// spool (re-processable) or in both places (an acceptable duplicate under
// the at-least-once contract), never in neither.
//
// Compaction is the one operation that mutates the spool, so it runs
// under the room's lock file. Per-file failures are counted and skipped;
// only lock acquisition and listing the spool abort a run.
package compactor

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/filedrop-io/courier/internal/fsio"
	"github.com/filedrop-io/courier/internal/lockfile"
	"github.com/filedrop-io/courier/internal/spool"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// DefaultLockTTL must exceed the worst-case duration of a compaction
// pass; the TTL is crash insurance, not a renewal mechanism.
const DefaultLockTTL = 2 * time.Minute

// Summary reports one compaction run. It is computed, never persisted.
type Summary struct {
	Considered  int
	Appended    int
	Skipped     int
	DaysTouched int
}

// Options configure a run.
type Options struct {
	// Cutoff excludes records with ts >= Cutoff (they are not yet due and
	// not counted).
	Cutoff time.Time
	// Zone is the reference zone for date keys. It must match the zone
	// the cutoff was computed in or log bucketing and cutoff boundaries
	// disagree. Defaults to UTC.
	Zone *time.Location
	// LockTTL overrides DefaultLockTTL.
	LockTTL time.Duration
	// DryRun walks and buckets without appending or deleting.
	DryRun bool
}

// Compactor drains spools into daily logs.
type Compactor struct {
	root   string
	sp     *spool.Spool
	logger logpkg.Logger
}

// New returns a Compactor over the shared root.
func New(root string, sp *spool.Spool, logger logpkg.Logger) *Compactor {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Compactor{root: root, sp: sp, logger: logger.With(logpkg.Component("compactor"))}
}

// LogsDir returns the daily-log directory for a room.
func (c *Compactor) LogsDir(room string) string {
	return filepath.Join(c.root, "rooms", room, "logs")
}

// LockPath returns the room's compaction lock file.
func (c *Compactor) LockPath(room string) string {
	return filepath.Join(c.LogsDir(room), ".lock")
}

// Compact runs one lock-guarded pass over the room's spool. It returns
// lockfile.ErrLockUnavailable (as a HeldError) when another compaction
// holds the room.
func (c *Compactor) Compact(room string, opts Options) (Summary, error) {
	zone := opts.Zone
	if zone == nil {
		zone = time.UTC
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	var sum Summary
	err := lockfile.WithLock(c.LockPath(room), ttl, "compact "+room, func() error {
		s, err := c.run(room, opts.Cutoff, zone, opts.DryRun)
		sum = s
		return err
	})
	return sum, err
}

func (c *Compactor) run(room string, cutoff time.Time, zone *time.Location, dryRun bool) (Summary, error) {
	var sum Summary
	msgsDir := c.sp.MsgsDir(room)
	names, _, err := fsio.Since(msgsDir, "")
	if err != nil {
		// Listing failure aborts the run; everything below is per-file.
		return sum, err
	}

	t0 := time.Now()
	days := map[string]struct{}{}
	for _, name := range names {
		sum.Considered++
		raw, err := os.ReadFile(filepath.Join(msgsDir, name))
		if err != nil {
			c.logger.Warn("compact.skip_unreadable", logpkg.Str("file", name), logpkg.Err(err))
			sum.Skipped++
			continue
		}
		line := strings.TrimRight(string(raw), "\n")
		rec, err := spool.DecodeRecord([]byte(line))
		if err != nil {
			c.logger.Warn("compact.skip_corrupt", logpkg.Str("file", name), logpkg.Err(err))
			sum.Skipped++
			continue
		}
		ts := rec.TS.Time()
		if !ts.Before(cutoff) {
			// Not yet due; no count change.
			continue
		}
		day := ts.In(zone).Format("2006-01-02")
		if dryRun {
			sum.Appended++
			days[day] = struct{}{}
			continue
		}
		logPath := filepath.Join(c.LogsDir(room), day+".ndjson")
		if err := fsio.AppendLine(logPath, []byte(line)); err != nil {
			c.logger.Warn("compact.append_failed", logpkg.Str("file", name), logpkg.Err(err))
			sum.Skipped++
			continue
		}
		sum.Appended++
		days[day] = struct{}{}
		// Delete only after the append is durable. A failure here leaves
		// the record in both places; the next run may duplicate it into
		// the log but can never lose it.
		if err := os.Remove(filepath.Join(msgsDir, name)); err != nil {
			c.logger.Warn("compact.delete_failed", logpkg.Str("file", name), logpkg.Err(err))
		}
	}
	sum.DaysTouched = len(days)

	c.logger.Debug("compact.run",
		logpkg.Str("room", room),
		logpkg.Int("considered", sum.Considered),
		logpkg.Int("appended", sum.Appended),
		logpkg.Int("skipped", sum.Skipped),
		logpkg.Int("days", sum.DaysTouched),
		logpkg.Bool("dry_run", dryRun),
		logpkg.Dur("dur", time.Since(t0)),
	)
	return sum, nil
}
