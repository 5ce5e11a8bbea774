package restapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
)

var fallbacksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mlopshub",
		Subsystem: "viewmodel",
		Name:      "fallbacks_total",
		Help:      "Malformed upstream fields replaced by a default, by kind",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(fallbacksTotal)
}

func countFallbacks(warnings []viewmodel.ParseWarning) {
	for _, w := range warnings {
		fallbacksTotal.WithLabelValues(string(w.Kind)).Inc()
	}
}
