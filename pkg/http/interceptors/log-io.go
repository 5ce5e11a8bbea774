package interceptors

import (
	"bytes"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/http/wrappers"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
)

var logIOInterceptorPool = &sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

type LogIOConfig struct {
	Enabled bool `env:"HUB_LOG_IO" envDefault:"false"`
	// Bodies longer than this are cut in the log line
	MaxBytes int `env:"HUB_LOG_IO_MAX_BYTES" envDefault:"2048"`
}

// HttpServerLogIOInterceptor logs request and response bodies at debug level once the handler is done.
func HttpServerLogIOInterceptor(cfg *LogIOConfig) sbhttpbase.MiddlewareFunc {
	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		if !cfg.Enabled {
			next(request)
			return
		}

		bufferRead := logIOInterceptorPool.Get().(*bytes.Buffer)
		defer logIOInterceptorPool.Put(bufferRead)
		defer bufferRead.Reset()
		bufferWrite := logIOInterceptorPool.Get().(*bytes.Buffer)
		defer logIOInterceptorPool.Put(bufferWrite)
		defer bufferWrite.Reset()

		newBody := &wrappers.Request{
			Original: request.Request.Body,
			Reader:   io.TeeReader(request.Request.Body, bufferRead),
		}
		newW := wrappers.CustomizableResponseWriter{
			Response: request.Writer,
			Writer:   io.MultiWriter(request.Writer, bufferWrite),
		}

		next(request.WithBody(newBody).WithWriter(&newW))

		log.WithFields(log.Fields{
			"method":   request.Request.Method,
			"path":     request.Request.URL.Path,
			"code":     newW.Code,
			"request":  truncate(bufferRead.Bytes(), cfg.MaxBytes),
			"response": truncate(bufferWrite.Bytes(), cfg.MaxBytes),
		}).Debug("served request")
	}
}

func truncate(data []byte, max int) string {
	if max > 0 && len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
