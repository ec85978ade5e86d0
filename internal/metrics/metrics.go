// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_votes_cast_total",
		Help: "Vote attempts by outcome (recorded, changed, already_voted).",
	}, []string{"outcome"})

	PropagatedDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_identity_propagated_documents_total",
		Help: "Denormalized author fields rewritten, by kind (post, comment) and result.",
	}, []string{"kind", "result"})

	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_cascade_deleted_documents_total",
		Help: "Documents removed by cascade deletes, by kind (post, comment, reply) and result.",
	}, []string{"kind", "result"})

	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "board_live_subscribers",
		Help: "Currently open live subscriptions.",
	})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
