// Package metrics registers the process-wide Prometheus instruments.
// There is no scrape endpoint in the client binary; counters are cheap
// and the registry can be dumped or exposed by embedders.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_messages_posted_total",
			Help: "Total messages posted to spools",
		},
	)

	PollCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_poll_cycles_total",
			Help: "Total tail poll cycles",
		},
	)

	EntriesExamined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_entries_examined_total",
			Help: "Total directory entries examined while polling",
		},
	)

	RecordsCorrupt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_records_corrupt_total",
			Help: "Total records skipped as corrupt or unreadable",
		},
	)

	Heartbeats = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_heartbeats_total",
			Help: "Total presence heartbeats written",
		},
	)

	CompactionRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_compaction_records_total",
			Help: "Total records handled by compaction runs",
		},
		[]string{"outcome"}, // "appended" or "skipped"
	)

	LockContention = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_lock_contention_total",
			Help: "Total lock acquisitions refused because another holder was live",
		},
	)
)
