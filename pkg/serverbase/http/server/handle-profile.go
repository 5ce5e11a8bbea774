package sbhttpserver

import (
	"net/http"
	"net/http/pprof"

	log "github.com/sirupsen/logrus"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
)

var profileHandlers = map[string]http.HandlerFunc{
	"":             pprof.Index,
	"allocs":       pprof.Index,
	"block":        pprof.Index,
	"goroutine":    pprof.Index,
	"heap":         pprof.Index,
	"mutex":        pprof.Index,
	"threadcreate": pprof.Index,
	"cmdline":      pprof.Cmdline,
	"profile":      pprof.Profile,
	"symbol":       pprof.Symbol,
	"trace":        pprof.Trace,
}

// registerProfileHandlers exposes net/http/pprof under /debug/pprof/ when SERVER_HTTP_ENABLE_PPROF is set.
func (instance *Instance) registerProfileHandlers() {
	log.Warnf("profiling endpoints enabled under /debug/pprof/")

	for name, handler := range profileHandlers {
		instance.RegisterHandler(&HandleDescription{
			Path:    "/debug/pprof/" + name,
			Method:  http.MethodGet,
			Handler: sbhttpbase.HandleStdFunc(handler),
		})
	}
}
