// Package tailer turns a room's spool directory into a pollable event
// stream. A Tailer owns one room's cursor: the first poll emits a reset
// event carrying a bounded snapshot of the newest records, every later
// poll emits an append event with records that arrived since the cursor.
// Switching rooms means constructing a new Tailer; no global current-room
// state exists anywhere in the core.
package tailer

import (
	"errors"

	"github.com/filedrop-io/courier/internal/fsio"
	"github.com/filedrop-io/courier/internal/spool"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// EventKind discriminates tail events.
type EventKind int

const (
	// Reset carries the initial snapshot; consumers replace any state.
	Reset EventKind = iota
	// Append carries records newer than the previous cursor.
	Append
)

// Event is one batch of delivered records.
type Event struct {
	Kind    EventKind
	Room    string
	Records []*spool.MessageRecord
	// Names are the spool file names backing Records, same order.
	Names []string
	// Cursor is the new cursor after this event (last listed name).
	Cursor string
	// Skipped counts files in the batch that failed to hydrate.
	Skipped int
	// Examined counts directory entries read during the listing.
	Examined int
}

// Options configure a Tailer.
type Options struct {
	// MaxInitial bounds the reset snapshot (default 50).
	MaxInitial int
	// Cursor resumes from a previously returned cursor instead of doing
	// an initial load. The token is opaque; the host owns its persistence.
	Cursor string
}

// Tailer is the per-room polling state machine.
type Tailer struct {
	sp          *spool.Spool
	room        string
	maxInitial  int
	cursor      string
	initialized bool
	logger      logpkg.Logger
}

// New constructs a Tailer for one room.
func New(sp *spool.Spool, room string, opts Options, logger logpkg.Logger) *Tailer {
	if opts.MaxInitial <= 0 {
		opts.MaxInitial = 50
	}
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	t := &Tailer{
		sp:         sp,
		room:       room,
		maxInitial: opts.MaxInitial,
		logger:     logger.With(logpkg.Component("tailer"), logpkg.Str("room", room)),
	}
	if opts.Cursor != "" {
		t.cursor = opts.Cursor
		t.initialized = true
	}
	return t
}

// Cursor returns the current cursor token (empty before the first poll).
func (t *Tailer) Cursor() string { return t.cursor }

// Poll performs one cycle. The first call returns a Reset event; later
// calls return an Append event when new records exist, or nil when the
// directory is unchanged. Errors are returned as-is: fsio.ErrDirMissing
// means "room not provisioned yet, retry later, do not alarm".
func (t *Tailer) Poll() (*Event, error) {
	dir := t.sp.MsgsDir(t.room)
	if !t.initialized {
		names, err := fsio.Tail(dir, t.maxInitial)
		if err != nil {
			return nil, err
		}
		ev := t.hydrate(Reset, names, len(names))
		if len(names) > 0 {
			t.cursor = names[len(names)-1]
		}
		t.initialized = true
		ev.Cursor = t.cursor
		return ev, nil
	}

	names, examined, err := fsio.Since(dir, t.cursor)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	ev := t.hydrate(Append, names, examined)
	// The cursor advances to the last file name, not the last record that
	// parsed, so a permanently corrupt file is never retried forever.
	t.cursor = names[len(names)-1]
	ev.Cursor = t.cursor
	return ev, nil
}

func (t *Tailer) hydrate(kind EventKind, names []string, examined int) *Event {
	ev := &Event{
		Kind:     kind,
		Room:     t.room,
		Records:  make([]*spool.MessageRecord, 0, len(names)),
		Names:    make([]string, 0, len(names)),
		Examined: examined,
	}
	for _, name := range names {
		rec, err := t.sp.Hydrate(t.room, name)
		if err != nil {
			if errors.Is(err, spool.ErrCorruptRecord) {
				t.logger.Warn("tail.skip_corrupt", logpkg.Str("file", name), logpkg.Err(err))
			} else {
				t.logger.Warn("tail.skip_unreadable", logpkg.Str("file", name), logpkg.Err(err))
			}
			ev.Skipped++
			continue
		}
		ev.Records = append(ev.Records, rec)
		ev.Names = append(ev.Names, name)
	}
	return ev
}
