package sbhttpserver

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
)

func statusHandler(name string, check func(ctx context.Context) error) sbhttpbase.HandleFunc {
	return func(request *sbhttpbase.Request) {
		if err := check(request.Request.Context()); err != nil {
			log.Warnf("%s check failed: %s", name, err)
			lhttp.NewInternalError(err.Error()).WriteResponse(request.Writer)
			return
		}
		request.Writer.WriteHeader(http.StatusOK)
	}
}

func (instance *Instance) registerStatusHandlers(server Server) {
	instance.RegisterHandler(&HandleDescription{
		Path:    "/_status/live",
		Method:  "GET",
		Handler: statusHandler("liveness", server.Live),
	})
	instance.RegisterHandler(&HandleDescription{
		Path:    "/_status/ready",
		Method:  "GET",
		Handler: statusHandler("readiness", server.Ready),
	})
}
