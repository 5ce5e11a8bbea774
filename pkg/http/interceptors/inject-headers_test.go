package interceptors

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	lhttptest "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http/test"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttptest "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/test"
	"pgregory.net/rapid"
)

func TestInjectHeadersInterceptor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		headers := lhttptest.HeadersGenerator().Draw(t, "header")
		expected := http.Header{}
		for k, v := range headers {
			if strings.Contains(k, "_") {
				continue
			}
			expected[k] = v
		}
		interceptor := InjectHeadersInterceptor(expected)

		recorder := httptest.NewRecorder()
		request := sbhttptest.RequestGenerator(recorder).Draw(t, "request")
		handler := sbhttptest.HandlerGenerator().Draw(t, "handler")

		interceptor(request, handler)

		lhttptest.CheckHeaders(t, expected, recorder.Header())
	})
}

func TestInjectHeadersUnderscoreKeys(t *testing.T) {
	headers := http.Header{"Cache_control": {"no-store"}}
	recorder := httptest.NewRecorder()
	request := &sbhttpbase.Request{
		Writer:  recorder,
		Request: httptest.NewRequest(http.MethodGet, "/hub/v1/models", nil),
	}

	InjectHeadersInterceptor(headers)(request, func(request *sbhttpbase.Request) {
		request.Writer.Header().Set("Cache-Control", "max-age=60")
		request.Writer.WriteHeader(http.StatusOK)
	})

	assert.Equal(t, []string{"no-store"}, recorder.Header().Values("Cache-Control"))
	assert.Contains(t, headers, "Cache_control")
}
