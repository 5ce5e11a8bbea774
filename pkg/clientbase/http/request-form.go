package cbhttp

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

// FormFile uploads a single file as multipart/form-data under the given field name. The content is buffered
// so that the request carries a content length.
func FormFile(field, filename string, content io.Reader) RequestOption {
	return func(r *Request) *Request {
		requestBody := &bytes.Buffer{}
		writer := multipart.NewWriter(requestBody)

		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			r.HErr = &lhttp.HttpError{Err: err}
			return r
		}
		if _, err := io.Copy(part, content); err != nil {
			r.HErr = &lhttp.HttpError{Err: err}
			return r
		}
		if err := writer.Close(); err != nil {
			r.HErr = &lhttp.HttpError{Err: err}
			return r
		}

		r.ContentLength = int64(requestBody.Len())
		return r.Options(body(requestBody), SetHeader("content-type", writer.FormDataContentType()))
	}
}

// FormValues sends the values as an application/x-www-form-urlencoded body.
func FormValues(values url.Values) RequestOption {
	return func(r *Request) *Request {
		encoded := values.Encode()
		r.ContentLength = int64(len(encoded))
		return r.Options(body(strings.NewReader(encoded)), SetHeader("content-type", "application/x-www-form-urlencoded"))
	}
}
