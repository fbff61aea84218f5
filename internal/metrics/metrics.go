package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scanner metrics
	framesScannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpeg_frames_scanned_total",
		Help: "Total MPEG audio frames appended to the catalog",
	}, []string{"reader_id"})

	resyncBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpeg_resync_bytes_total",
		Help: "Total bytes skipped while resynchronizing on garbage",
	}, []string{"reader_id"})

	tagsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpeg_tags_skipped_total",
		Help: "Total container tags recognized and skipped",
	}, []string{"reader_id", "kind"})

	freeFormatResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpeg_free_format_resolved_total",
		Help: "Total free-format frames whose length was recovered",
	}, []string{"reader_id"})

	// Window buffer metrics
	windowCapacityBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mpeg_window_capacity_bytes",
		Help: "Current window buffer capacity",
	})

	windowGrowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpeg_window_grows_total",
		Help: "Total window buffer capacity doublings",
	})

	windowTruncatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpeg_window_truncates_total",
		Help: "Total window buffer truncate-and-refill relocations",
	})

	// Forward-only retention metrics
	savedBufferBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mpeg_saved_buffer_bytes",
		Help: "Bytes currently retained in per-frame save buffers",
	}, []string{"reader_id"})
)
