package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscriberGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aetherlink",
		Subsystem: "stream",
		Name:      "subscribers",
		Help:      "Connected WebSocket subscribers.",
	})

	framesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aetherlink",
		Subsystem: "stream",
		Name:      "frames_sent_total",
		Help:      "Frames delivered to subscribers, by frame type.",
	}, []string{"type"})
)
