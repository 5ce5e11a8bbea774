package cbhttpmiddleware

import (
	"encoding/json"
	"io"

	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

// JsonDecoder consumes the response body into obj. The returned response is always nil.
func JsonDecoder(obj interface{}) cbhttp.MiddlewareFunc {
	return func(next cbhttp.RunnerFunc) cbhttp.RunnerFunc {
		return func(r *cbhttp.Request) (*cbhttp.Response, *lhttp.HttpError) {
			body, herr := next(r)
			if herr != nil {
				return nil, herr
			}
			defer body.Close()

			if err := json.NewDecoder(body).Decode(obj); err != nil && err != io.EOF {
				return nil, &lhttp.HttpError{Err: err}
			}

			return nil, nil
		}
	}
}

// BytesDecoder copies the raw response body into out without any text decoding.
func BytesDecoder(out *[]byte) cbhttp.MiddlewareFunc {
	return func(next cbhttp.RunnerFunc) cbhttp.RunnerFunc {
		return func(r *cbhttp.Request) (*cbhttp.Response, *lhttp.HttpError) {
			body, herr := next(r)
			if herr != nil {
				return nil, herr
			}
			defer body.Close()

			content, err := io.ReadAll(body)
			if err != nil {
				return nil, &lhttp.HttpError{Err: err}
			}
			*out = content

			return nil, nil
		}
	}
}
