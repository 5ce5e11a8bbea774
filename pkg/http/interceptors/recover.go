package interceptors

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
)

// HttpServerRecoverInterceptor turns a panicking handler into a 500 with the usual error body.
func HttpServerRecoverInterceptor() sbhttpbase.MiddlewareFunc {
	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"method": request.Request.Method,
					"path":   request.Request.URL.Path,
				}).Errorf("handler panicked: %v\n%s", r, debug.Stack())
				lhttp.NewInternalError(fmt.Sprintf("internal error handling %s", request.PathPattern)).WriteResponse(request.Writer)
			}
		}()
		next(request)
	}
}
