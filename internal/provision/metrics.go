package provision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	stepCarrierTrunk = "carrier_trunk"
	stepInboundTrunk = "inbound_trunk"
	stepDispatchRule = "dispatch_rule"
)

var (
	provisionStepsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent_platform",
			Subsystem: "provision",
			Name:      "steps_total",
			Help:      "Provisioning steps by outcome.",
		},
		[]string{"step", "outcome"}, // outcome: created, reused, error, skipped
	)

	provisionRunsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent_platform",
			Subsystem: "provision",
			Name:      "runs_total",
			Help:      "Provisioning runs by final stage.",
		},
		[]string{"stage"},
	)

	provisionDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agent_platform",
			Subsystem: "provision",
			Name:      "duration_seconds",
			Help:      "Wall time of a provisioning run.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Collectors exposes the provisioning metrics for push-based export from
// short-lived processes.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{provisionStepsCounter, provisionRunsCounter, provisionDurationHist}
}
