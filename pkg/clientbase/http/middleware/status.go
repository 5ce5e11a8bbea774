package cbhttpmiddleware

import (
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

// StatusHandler may replace the error returned to the caller. Returning nil keeps the original error.
type StatusHandler func(r *cbhttp.Request, herr *lhttp.HttpError) *lhttp.HttpError

func OnStatus(code int, fn StatusHandler) cbhttp.MiddlewareFunc {
	return func(next cbhttp.RunnerFunc) cbhttp.RunnerFunc {
		return func(r *cbhttp.Request) (*cbhttp.Response, *lhttp.HttpError) {
			resp, herr := next(r)
			if herr != nil && !herr.IsTransport() && herr.Code == code {
				if replaced := fn(r, herr); replaced != nil {
					return nil, replaced
				}
			}
			return resp, herr
		}
	}
}
