package msgsvc

import (
	"context"
	"time"

	"github.com/filedrop-io/courier/internal/metrics"
	"github.com/filedrop-io/courier/internal/runtime"
	"github.com/filedrop-io/courier/internal/spool"
	"github.com/filedrop-io/courier/internal/tailer"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// Service is the messages facade.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New returns a messages Service bound to a runtime.
func New(rt *runtime.Runtime) *Service {
	return &Service{rt: rt, logger: rt.Logger().With(logpkg.Component("messages"))}
}

// Post ensures the room exists, then writes one message record.
func (s *Service) Post(ctx context.Context, room, from, text, replyTo string, attachments []spool.Attachment) (*spool.MessageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.rt.EnsureRoom(room); err != nil {
		return nil, err
	}
	t0 := time.Now()
	rec, name, err := s.rt.Spool().Post(room, from, text, replyTo, attachments)
	if err != nil {
		return nil, err
	}
	metrics.MessagesPosted.Inc()
	s.logger.Debug("messages.post",
		logpkg.Str("room", room),
		logpkg.Str("file", name),
		logpkg.Int("bytes", len(text)),
		logpkg.Dur("dur", time.Since(t0)),
	)
	return rec, nil
}

// Snapshot performs a one-shot initial load of the newest n records,
// optionally filtered by a CEL expression. The returned event carries the
// cursor a follow-up session can resume from.
func (s *Service) Snapshot(ctx context.Context, room string, n int, filterExpr string) (*tailer.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter, err := newCELFilter(filterExpr)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.rt.Config().InitialTail
	}
	tl := tailer.New(s.rt.Spool(), room, tailer.Options{MaxInitial: n}, s.logger)
	ev, err := tl.Poll()
	if err != nil {
		return nil, err
	}
	metrics.PollCycles.Inc()
	metrics.EntriesExamined.Add(float64(ev.Examined))
	metrics.RecordsCorrupt.Add(float64(ev.Skipped))
	applyFilter(ev, filter)
	return ev, nil
}

// applyFilter drops records the filter rejects, in place. Names stay
// aligned with Records; the cursor is untouched so filtered records are
// never re-examined.
func applyFilter(ev *tailer.Event, filter celFilter) {
	if !filter.enabled || ev == nil {
		return
	}
	recs := ev.Records[:0]
	names := ev.Names[:0]
	for i, rec := range ev.Records {
		if filter.Eval(rec) {
			recs = append(recs, rec)
			names = append(names, ev.Names[i])
		}
	}
	ev.Records = recs
	ev.Names = names
}
