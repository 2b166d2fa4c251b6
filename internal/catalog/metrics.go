package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeList     = "list"
	modeNearText = "near_text"
)

var (
	catalogLookupsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent_platform",
			Subsystem: "catalog",
			Name:      "lookups_total",
			Help:      "Catalog lookups by mode and outcome.",
		},
		[]string{"mode", "outcome"}, // outcome: ok, not_ready, error
	)

	catalogSeededCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agent_platform",
			Subsystem: "catalog",
			Name:      "seeded_items_total",
			Help:      "Items written to the catalog by seed runs.",
		},
	)
)

// Collectors exposes the catalog metrics for push-based export.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{catalogLookupsCounter, catalogSeededCounter}
}
