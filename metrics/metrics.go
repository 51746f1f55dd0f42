package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Draft metrics
var (
	DraftsComposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdmail_drafts_composed_total",
			Help: "Total number of drafts written",
		},
		[]string{"kind"},
	)

	InlineImages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mdmail_inline_images_total",
			Help: "Total number of local images embedded into drafts",
		},
	)

	SkippedImages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mdmail_skipped_images_total",
			Help: "Total number of local image references whose file was not found",
		},
	)
)

// Delivery metrics
var (
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdmail_messages_sent_total",
			Help: "Total number of messages handed to the transport",
		},
		[]string{"result"},
	)

	MessageSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mdmail_message_size_bytes",
			Help:    "Size of assembled messages in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)
)
