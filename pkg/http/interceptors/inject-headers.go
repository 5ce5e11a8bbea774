package interceptors

import (
	"net/http"
	"strings"

	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/http/wrappers"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
)

// InjectHeadersInterceptor overwrites the given headers on every response right before the status is written.
// Underscores in keys are read as dashes so the headers can come from environment variables.
func InjectHeadersInterceptor(headers http.Header) sbhttpbase.MiddlewareFunc {
	injected := make(http.Header, len(headers))
	for k, v := range headers {
		injected[http.CanonicalHeaderKey(strings.ReplaceAll(k, "_", "-"))] = v
	}

	wrapper := wrappers.CustomizableResponseWriter{
		OnWriteHeader: func(w *wrappers.CustomizableResponseWriter, code int) {
			for k, vals := range injected {
				w.Response.Header()[k] = append([]string(nil), vals...)
			}
			w.Response.WriteHeader(code)
		},
	}

	return wrapper.AsInterceptor()
}
