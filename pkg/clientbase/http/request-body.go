package cbhttp

import (
	"bytes"
	"encoding/json"
	"io"

	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

func BodyObj(obj interface{}) RequestOption {
	return func(r *Request) *Request {
		buffer := &bytes.Buffer{}
		if err := json.NewEncoder(buffer).Encode(obj); err != nil {
			r.HErr = &lhttp.HttpError{Err: err}
			return r
		}

		r.Body = io.NopCloser(buffer)
		r.ContentLength = int64(buffer.Len())
		return SetHeader("content-type", "application/json")(r)
	}
}

// BodyRaw sends an already encoded JSON document untouched.
func BodyRaw(content json.RawMessage) RequestOption {
	return func(r *Request) *Request {
		r.Body = io.NopCloser(bytes.NewReader(content))
		r.ContentLength = int64(len(content))
		return SetHeader("content-type", "application/json")(r)
	}
}

func body(reader io.Reader) RequestOption {
	if readcloser, ok := reader.(io.ReadCloser); ok {
		return func(r *Request) *Request {
			r.Body = readcloser
			return r
		}
	} else {
		return func(r *Request) *Request {
			r.Body = io.NopCloser(reader)
			return r
		}
	}
}
