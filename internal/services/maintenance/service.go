// Package maintsvc implements the maintenance facade: compaction with
// human-oriented cutoff presets and summaries. Compaction is cooperative
// housekeeping; any participant may run it, and lock contention is an
// informational outcome, not a fault.
package maintsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/filedrop-io/courier/internal/compactor"
	"github.com/filedrop-io/courier/internal/lockfile"
	"github.com/filedrop-io/courier/internal/metrics"
	"github.com/filedrop-io/courier/internal/runtime"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// Service is the maintenance facade.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New returns a maintenance Service bound to a runtime.
func New(rt *runtime.Runtime) *Service {
	return &Service{rt: rt, logger: rt.Logger().With(logpkg.Component("maintenance"))}
}

// Request selects one compaction run.
type Request struct {
	Room   string
	Preset compactor.Preset
	// Date is the last included day, ThroughDate only.
	Date   time.Time
	DryRun bool
}

// Compact resolves the preset against the configured zone and runs one
// compaction pass. A lock held by another participant surfaces as an
// error wrapping lockfile.ErrLockUnavailable; callers report it, they do
// not retry inline.
func (s *Service) Compact(ctx context.Context, req Request) (compactor.Summary, error) {
	if err := ctx.Err(); err != nil {
		return compactor.Summary{}, err
	}
	zone := s.rt.Config().Zone()
	cutoff, err := compactor.Cutoff(req.Preset, time.Now(), req.Date, zone)
	if err != nil {
		return compactor.Summary{}, err
	}
	sum, err := s.rt.Compactor().Compact(req.Room, compactor.Options{
		Cutoff:  cutoff,
		Zone:    zone,
		LockTTL: s.rt.Config().LockTTL(),
		DryRun:  req.DryRun,
	})
	if err != nil {
		if errors.Is(err, lockfile.ErrLockUnavailable) {
			metrics.LockContention.Inc()
			s.logger.Info("maintenance.lock_busy", logpkg.Str("room", req.Room), logpkg.Err(err))
		}
		return sum, err
	}
	metrics.CompactionRecords.WithLabelValues("appended").Add(float64(sum.Appended))
	metrics.CompactionRecords.WithLabelValues("skipped").Add(float64(sum.Skipped))
	s.logger.Info("maintenance.compacted",
		logpkg.Str("room", req.Room),
		logpkg.Str("cutoff", req.Preset.Label()),
		logpkg.Int("appended", sum.Appended),
		logpkg.Int("skipped", sum.Skipped),
		logpkg.Bool("dry_run", req.DryRun),
	)
	return sum, nil
}

// Describe renders a summary for human output.
func Describe(sum compactor.Summary, dryRun bool) string {
	verb := "compacted"
	if dryRun {
		verb = "would compact"
	}
	return fmt.Sprintf("%s %d of %d records into %d day log(s), %d skipped",
		verb, sum.Appended, sum.Considered, sum.DaysTouched, sum.Skipped)
}
