// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imi_royalty",
		Name:      "reconciliations_total",
		Help:      "Royalty reconciliations applied, by trigger path.",
	}, []string{"trigger"})

	StaleDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imi_royalty",
		Name:      "reconciliation_stale_drops_total",
		Help:      "In-flight reconciliation results discarded as stale.",
	})

	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imi_royalty",
		Name:      "claims_total",
		Help:      "Royalty claim attempts, by outcome.",
	}, []string{"outcome"})

	NotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imi_royalty",
		Name:      "royalty_notifications_total",
		Help:      "Royalty-changed notifications ingested.",
	})
)
