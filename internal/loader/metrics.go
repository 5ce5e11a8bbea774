package loader

import "github.com/prometheus/client_golang/prometheus"

var loadsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mlopshub",
		Subsystem: "loader",
		Name:      "loads_total",
		Help:      "Loads by resource and outcome (hit, shared, fetched, failed)",
	},
	[]string{"resource", "outcome"},
)

func init() {
	prometheus.MustRegister(loadsTotal)
}
