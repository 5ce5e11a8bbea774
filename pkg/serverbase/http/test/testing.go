package sbhttptest

import (
	"bytes"
	"io"
	"net/http/httptest"

	lhttptest "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http/test"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	"pgregory.net/rapid"
)

// RequestGenerator draws a gateway request with a random body that writes into recorder.
func RequestGenerator(recorder *httptest.ResponseRecorder) *rapid.Generator[*sbhttpbase.Request] {
	return rapid.Custom(func(t *rapid.T) *sbhttpbase.Request {
		body := rapid.SliceOf(rapid.Byte()).Draw(t, "body")
		return drawRequest(t, recorder, bytes.NewBuffer(body))
	})
}

func RequestWithBodyGenerator(recorder *httptest.ResponseRecorder, body io.Reader) *rapid.Generator[*sbhttpbase.Request] {
	return rapid.Custom(func(t *rapid.T) *sbhttpbase.Request {
		return drawRequest(t, recorder, body)
	})
}

func drawRequest(t *rapid.T, recorder *httptest.ResponseRecorder, body io.Reader) *sbhttpbase.Request {
	request := &sbhttpbase.Request{
		PathPattern: rapid.SampledFrom([]string{"/hub/v1/runs/:id", "/hub/v1/entrypoints/:id/infer", "/hub/v1/monitoring"}).Draw(t, "pattern"),
		Writer:      recorder,
		Request: httptest.NewRequest(
			lhttptest.MethodGenerator().Draw(t, "method"),
			lhttptest.UrlGenerator().Draw(t, "target"),
			body,
		),
		Params: rapid.MapOf(rapid.StringMatching(`[a-z]+`), rapid.String()).Draw(t, "params"),
	}
	request.Request.Header = lhttptest.HeadersGenerator().Draw(t, "header")
	return request
}

// HandlerGenerator draws a handler that drains the request and answers with a random code, headers and body.
func HandlerGenerator() *rapid.Generator[sbhttpbase.HandleFunc] {
	return rapid.Custom(func(t *rapid.T) sbhttpbase.HandleFunc {
		code := lhttptest.CodeGenerator().Draw(t, "code")
		headers := lhttptest.HeadersGenerator().Draw(t, "headers")
		body := rapid.SliceOf(rapid.Byte()).Draw(t, "body")

		return func(request *sbhttpbase.Request) {
			_, _ = io.Copy(io.Discard, request.Request.Body)
			_ = request.Request.Body.Close()

			for k, vals := range headers {
				request.Writer.Header().Del(k)
				for _, v := range vals {
					request.Writer.Header().Add(k, v)
				}
			}
			request.Writer.WriteHeader(code)
			_, _ = request.Writer.Write(body)
		}
	})
}
