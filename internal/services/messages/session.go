package msgsvc

import (
	"errors"
	"sync"
	"time"

	"github.com/filedrop-io/courier/internal/fsio"
	"github.com/filedrop-io/courier/internal/metrics"
	"github.com/filedrop-io/courier/internal/tailer"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// SessionOptions configure a live tail session.
type SessionOptions struct {
	Room string
	// Interval is the poll cadence (default from runtime config).
	Interval time.Duration
	// MaxInitial bounds the first event's snapshot.
	MaxInitial int
	// Cursor resumes from a prior session instead of an initial load.
	Cursor string
	// Filter is an optional CEL expression applied per record.
	Filter string
	// Handler receives each non-empty event on the session goroutine.
	Handler func(tailer.Event)
}

// Session runs a per-room poll loop. One room, one cursor, one goroutine;
// switching rooms means a new Session.
type Session struct {
	tl       *tailer.Tailer
	filter   celFilter
	interval time.Duration
	handler  func(tailer.Event)
	logger   logpkg.Logger

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSession compiles the filter and builds a stopped Session.
func (s *Service) NewSession(opts SessionOptions) (*Session, error) {
	if opts.Handler == nil {
		return nil, errors.New("session requires a handler")
	}
	filter, err := newCELFilter(opts.Filter)
	if err != nil {
		return nil, err
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = s.rt.Config().PollInterval()
	}
	maxInitial := opts.MaxInitial
	if maxInitial <= 0 {
		maxInitial = s.rt.Config().InitialTail
	}
	tl := tailer.New(s.rt.Spool(), opts.Room, tailer.Options{
		MaxInitial: maxInitial,
		Cursor:     opts.Cursor,
	}, s.logger)
	return &Session{
		tl:       tl,
		filter:   filter,
		interval: interval,
		handler:  opts.Handler,
		logger:   s.logger.With(logpkg.Str("room", opts.Room)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the poll loop: one immediate poll, then one per tick.
// Ticks that land while a poll is still running coalesce (the ticker
// channel holds at most one pending tick), so slow IO never queues a
// backlog of polls.
func (sess *Session) Start() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.started {
		return
	}
	sess.started = true
	go sess.run()
}

// Stop halts future polls and waits for any in-flight poll to finish.
// The in-flight poll's result is discarded, not delivered.
func (sess *Session) Stop() {
	sess.mu.Lock()
	if !sess.started {
		sess.mu.Unlock()
		return
	}
	sess.mu.Unlock()
	select {
	case <-sess.stop:
	default:
		close(sess.stop)
	}
	<-sess.done
}

// Cursor returns the session's current cursor token. Valid after Stop for
// persisting resume state.
func (sess *Session) Cursor() string { return sess.tl.Cursor() }

func (sess *Session) run() {
	defer close(sess.done)
	ticker := time.NewTicker(sess.interval)
	defer ticker.Stop()

	sess.poll()
	for {
		select {
		case <-sess.stop:
			return
		case <-ticker.C:
			sess.poll()
		}
	}
}

func (sess *Session) poll() {
	t0 := time.Now()
	ev, err := sess.tl.Poll()
	metrics.PollCycles.Inc()
	if err != nil {
		if errors.Is(err, fsio.ErrDirMissing) {
			// Room not provisioned yet; quiet retry next tick.
			sess.logger.Debug("session.room_missing")
		} else {
			sess.logger.Warn("session.poll_failed", logpkg.Err(err))
		}
		return
	}
	if ev == nil {
		return
	}
	metrics.EntriesExamined.Add(float64(ev.Examined))
	metrics.RecordsCorrupt.Add(float64(ev.Skipped))
	applyFilter(ev, sess.filter)
	if ev.Kind != tailer.Reset && len(ev.Records) == 0 {
		return
	}
	select {
	case <-sess.stop:
		// Stopped while polling; discard.
		return
	default:
	}
	sess.logger.Debug("session.deliver",
		logpkg.Int("batch_n", len(ev.Records)),
		logpkg.Int("skipped", ev.Skipped),
		logpkg.Dur("dur", time.Since(t0)),
	)
	sess.handler(*ev)
}
