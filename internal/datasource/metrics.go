package datasource

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

var (
	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlopshub",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Requests sent to the hub backend by method and status code",
		},
		[]string{"method", "code"},
	)
	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mlopshub",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the hub backend",
			Buckets:   []float64{0.01, 0.03, 0.1, 0.3, 1, 3, 10},
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(upstreamRequests, upstreamLatency)
}

// instrument records every upstream request. Requests that never got an answer are counted with code
// "transport".
func instrument() cbhttp.MiddlewareFunc {
	return func(next cbhttp.RunnerFunc) cbhttp.RunnerFunc {
		return func(r *cbhttp.Request) (*cbhttp.Response, *lhttp.HttpError) {
			start := time.Now()
			resp, herr := next(r)
			upstreamLatency.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())

			code := "transport"
			switch {
			case resp != nil:
				code = strconv.Itoa(resp.StatusCode)
			case herr != nil && herr.Code != 0:
				code = strconv.Itoa(herr.Code)
			}
			upstreamRequests.WithLabelValues(r.Method, code).Inc()
			return resp, herr
		}
	}
}
