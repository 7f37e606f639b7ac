// Package metrics exports the promauto collectors the log and its servers
// update. The metrics endpoint that serves them is wired up in cmd/server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AppendsTotal counts records appended to the log.
	AppendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recordlog",
			Subsystem: "log",
			Name:      "appends_total",
			Help:      "Number of records appended to the log.",
		},
	)

	// AppendedBytesTotal counts payload bytes appended to the log.
	AppendedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recordlog",
			Subsystem: "log",
			Name:      "appended_bytes_total",
			Help:      "Payload bytes appended to the log.",
		},
	)

	// ReadsTotal counts reads served by the log, successful or not.
	ReadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recordlog",
			Subsystem: "log",
			Name:      "reads_total",
			Help:      "Number of reads served by the log.",
		},
	)

	// ReadErrorsTotal counts reads rejected because the offset was out of range.
	ReadErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recordlog",
			Subsystem: "log",
			Name:      "read_errors_total",
			Help:      "Number of reads rejected with an out of range offset.",
		},
	)

	// Records tracks the number of records currently held by the log.
	Records = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "recordlog",
			Subsystem: "log",
			Name:      "records",
			Help:      "Number of records held by the log.",
		},
	)
)
