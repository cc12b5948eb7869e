package pulse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aetherlink",
		Subsystem: "pulse",
		Name:      "alerts_raised_total",
		Help:      "Alerts raised, by severity.",
	}, []string{"severity"})

	alertsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aetherlink",
		Subsystem: "pulse",
		Name:      "alerts_active",
		Help:      "Alerts currently active (unacknowledged).",
	})
)
