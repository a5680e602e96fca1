// Package presencesvc implements the presence facade: a heartbeat keeper
// that advertises this process's user and a roster scan for everyone
// else. Presence is advisory; a missing presence directory disables the
// feature quietly instead of failing callers.
package presencesvc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/filedrop-io/courier/internal/fsio"
	"github.com/filedrop-io/courier/internal/metrics"
	"github.com/filedrop-io/courier/internal/presence"
	"github.com/filedrop-io/courier/internal/runtime"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// Service is the presence facade.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New returns a presence Service bound to a runtime.
func New(rt *runtime.Runtime) *Service {
	return &Service{rt: rt, logger: rt.Logger().With(logpkg.Component("presence"))}
}

// Beat writes one heartbeat for user at the current time.
func (s *Service) Beat(ctx context.Context, user string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := presence.Heartbeat(s.rt.Root(), user, time.Now()); err != nil {
		return err
	}
	metrics.Heartbeats.Inc()
	return nil
}

// Who returns the display names fresh within the configured TTL, sorted.
// A missing presence directory yields an empty roster, not an error.
func (s *Service) Who(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := presence.Scan(s.rt.Root(), s.rt.Config().PresenceTTL(), time.Now(), s.logger)
	if err != nil {
		if errors.Is(err, fsio.ErrDirMissing) {
			return nil, nil
		}
		return nil, err
	}
	return names, nil
}

// Keeper runs a periodic heartbeat loop for one user.
type Keeper struct {
	svc      *Service
	user     string
	interval time.Duration
	logger   logpkg.Logger

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewKeeper builds a stopped Keeper. Interval defaults from config.
func (s *Service) NewKeeper(user string, interval time.Duration) *Keeper {
	if interval <= 0 {
		interval = s.rt.Config().HeartbeatInterval()
	}
	return &Keeper{
		svc:      s,
		user:     user,
		interval: interval,
		logger:   s.logger.With(logpkg.Str("user", user)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the heartbeat loop: one immediate beat, then one per
// tick. A tick landing during a slow write coalesces rather than queuing.
func (k *Keeper) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.started {
		return
	}
	k.started = true
	go k.run()
}

// Stop halts future beats and waits for an in-flight write to finish.
// The user's presence file is left in place to age out via TTL; liveness
// has no explicit leave event.
func (k *Keeper) Stop() {
	k.mu.Lock()
	if !k.started {
		k.mu.Unlock()
		return
	}
	k.mu.Unlock()
	select {
	case <-k.stop:
	default:
		close(k.stop)
	}
	<-k.done
}

func (k *Keeper) run() {
	defer close(k.done)
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	k.beat()
	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
			k.beat()
		}
	}
}

func (k *Keeper) beat() {
	err := k.svc.Beat(context.Background(), k.user)
	switch {
	case err == nil:
	case errors.Is(err, fsio.ErrDirMissing):
		// Presence not provisioned; quiet retry next tick.
		k.logger.Debug("presence.dir_missing")
	default:
		k.logger.Warn("presence.beat_failed", logpkg.Err(err))
	}
}
