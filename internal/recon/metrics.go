package recon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aetherlink",
		Subsystem: "recon",
		Name:      "scans_total",
		Help:      "Discovery cycles by originating source and result.",
	}, []string{"result"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aetherlink",
		Subsystem: "recon",
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of a discovery cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	devicesOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aetherlink",
		Subsystem: "recon",
		Name:      "devices_online",
		Help:      "Devices currently in the live snapshot.",
	})

	devicesKnown = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aetherlink",
		Subsystem: "recon",
		Name:      "devices_known",
		Help:      "Devices ever observed, online or offline.",
	})
)
