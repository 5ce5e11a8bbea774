package cbhttpmiddleware

import (
	"github.com/google/uuid"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

const RequestIDHeader = "X-Request-Id"

// RequestID stamps outbound requests with a fresh id unless the caller already set one.
func RequestID() cbhttp.MiddlewareFunc {
	return func(next cbhttp.RunnerFunc) cbhttp.RunnerFunc {
		return func(r *cbhttp.Request) (*cbhttp.Response, *lhttp.HttpError) {
			if r.Header == nil || r.Header.Get(RequestIDHeader) == "" {
				r = r.Options(cbhttp.SetHeader(RequestIDHeader, uuid.NewString()))
			}
			return next(r)
		}
	}
}
