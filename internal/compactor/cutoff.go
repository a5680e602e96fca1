package compactor

import (
	"fmt"
	"time"
)

// Preset names a cutoff policy offered to callers. ThroughYesterday and
// ExcludeToday share a cutoff instant and differ only in how the choice
// is presented.
type Preset int

const (
	// ThroughYesterday compacts records dated before the start of the
	// current day.
	ThroughYesterday Preset = iota
	// ExcludeToday is ThroughYesterday under its other name.
	ExcludeToday
	// ThroughDate compacts records through an explicit date, inclusive.
	ThroughDate
)

// Cutoff resolves a preset to a cutoff instant in zone. For ThroughDate,
// date supplies the last included day; the cutoff is the start of the
// following day in the same zone used for date-key bucketing, so
// compaction boundaries and log names always agree.
func Cutoff(p Preset, now time.Time, date time.Time, zone *time.Location) (time.Time, error) {
	if zone == nil {
		zone = time.UTC
	}
	switch p {
	case ThroughYesterday, ExcludeToday:
		return startOfDay(now.In(zone)), nil
	case ThroughDate:
		return startOfDay(date.In(zone)).AddDate(0, 0, 1), nil
	default:
		return time.Time{}, fmt.Errorf("unknown cutoff preset %d", p)
	}
}

// Label returns the human-readable name of a preset.
func (p Preset) Label() string {
	switch p {
	case ThroughYesterday:
		return "through yesterday"
	case ExcludeToday:
		return "exclude today"
	case ThroughDate:
		return "through date"
	default:
		return "unknown"
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
