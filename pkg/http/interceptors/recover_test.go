package interceptors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
)

func TestRecoverWritesInternalError(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := &sbhttpbase.Request{
		PathPattern: "/hub/v1/runs/:id",
		Writer:      recorder,
		Request:     httptest.NewRequest(http.MethodGet, "/hub/v1/runs/7", nil),
	}

	HttpServerRecoverInterceptor()(request, func(*sbhttpbase.Request) {
		panic("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"internal error handling /hub/v1/runs/:id"}`, recorder.Body.String())
}

func TestDefaultContentType(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := &sbhttpbase.Request{Writer: recorder, Request: httptest.NewRequest(http.MethodGet, "/", nil)}

	HttpServerDefaultContentTypeInterceptor("application/json")(request, func(r *sbhttpbase.Request) {
		r.Writer.WriteHeader(http.StatusNoContent)
	})
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	recorder = httptest.NewRecorder()
	request = &sbhttpbase.Request{Writer: recorder, Request: httptest.NewRequest(http.MethodGet, "/", nil)}
	HttpServerDefaultContentTypeInterceptor("application/json")(request, func(r *sbhttpbase.Request) {
		r.Writer.Header().Set("Content-Type", "text/csv")
		r.Writer.WriteHeader(http.StatusOK)
	})
	assert.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))
}
