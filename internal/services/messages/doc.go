// Package msgsvc implements the messages facade over the spool and
// tailer. It provides post, one-shot snapshot, and live tail sessions
// consumed by the CLI and by library embedders.
//
// Example:
//
//	svc := msgsvc.New(rt)
//	rec, _ := svc.Post(ctx, "general", "alice", "hello", "", nil)
//	sess, _ := svc.NewSession(msgsvc.SessionOptions{
//		Room:    "general",
//		Handler: func(ev tailer.Event) { render(ev) },
//	})
//	sess.Start()
//	defer sess.Stop()
package msgsvc

// Performance notes
//
// Tailing
//   - Every poll re-lists the room's spool directory; cost scales with the
//     number of un-compacted files, not with history. Run compaction on a
//     schedule to keep listings small.
//   - COURIER_POLL_INTERVAL_MS tunes the session cadence. Shared-folder
//     sync latency usually dwarfs the poll interval, so values below ~500ms
//     buy little.
//
// Filtering
//   - CEL filters run after hydration, per record. They drop records from
//     delivery but never move the cursor backwards, so a filtered record is
//     not re-examined on later polls.
