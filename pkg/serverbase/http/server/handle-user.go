package sbhttpserver

import (
	"net/http"
	"strings"

	"github.com/dimfeld/httptreemux"
	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/http/interceptors"
	context_cancel "github.infra.cloudera.com/CAI/MLOpsHub/pkg/interceptors/context-cancel"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
)

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func (instance *Instance) registerHandlers(server Server) error {
	for _, handle := range server.GetHandlers() {
		if handle.NotFound {
			log.Debugf("registering not found handler")
			instance.registerNotFoundHandler(handle)
			continue
		}
		log.Debugf("registering handler %s %s", handle.Method, handle.Path)
		instance.RegisterHandler(&HandleDescription{
			Path:    handle.Path,
			Method:  handle.Method,
			Handler: chain(handle, handle.Path, handle.Method),
		})
	}
	return nil
}

// tailMiddlewares run closest to the handler, after the route's own middleware.
func tailMiddlewares(path, method string) []sbhttpbase.MiddlewareFunc {
	return []sbhttpbase.MiddlewareFunc{
		interceptors.HttpServerDefaultContentTypeInterceptor("application/json").Register(path, method),
		exhaustRequest,
		defaultOk,
		context_cancel.Interceptor{}.ToHTTP(),
		interceptors.HttpServerRecoverInterceptor().Register(path, method),
	}
}

func chain(handle HandleDescription, path, method string) sbhttpbase.HandleFunc {
	middleware := make([]sbhttpbase.MiddlewareFunc, 0, len(handle.Middleware)+5)
	for _, m := range handle.Middleware {
		middleware = append(middleware, m.Register(path, method))
	}
	middleware = append(middleware, tailMiddlewares(path, method)...)
	return ComposeMiddleware(middleware, handle.Handler)
}

// registerNotFoundHandler builds the chain per request since the path is only known then.
func (instance *Instance) registerNotFoundHandler(handle HandleDescription) {
	instance.RegisterHandler(&HandleDescription{
		NotFound: true,
		Handler: func(request *sbhttpbase.Request) {
			chain(handle, request.Request.URL.Path, request.Request.Method)(request)
		},
	})
}

func handleWrapper(pathPattern string, handler sbhttpbase.HandleFunc) httptreemux.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		handler(&sbhttpbase.Request{
			PathPattern: pathPattern,
			Writer:      w,
			Request:     r,
			Params:      params,
		})
	}
}

// RegisterHandler adds handle to the router as is. Method "*" expands to every route method, and paths
// without a wildcard also answer with a trailing slash.
func (instance *Instance) RegisterHandler(handle *HandleDescription) {
	if handle.NotFound {
		handler := handle.Handler
		instance.router.NotFoundHandler = func(w http.ResponseWriter, r *http.Request) {
			handler(&sbhttpbase.Request{PathPattern: "*", Writer: w, Request: r})
		}
		return
	}

	if handle.Method == "*" {
		for _, method := range routeMethods {
			instance.RegisterHandler(&HandleDescription{Path: handle.Path, Method: method, Handler: handle.Handler})
		}
		return
	}

	instance.router.Handle(handle.Method, handle.Path, handleWrapper(handle.Path, handle.Handler))
	if !strings.HasSuffix(handle.Path, "/") && !strings.Contains(handle.Path, "*") {
		instance.router.Handle(handle.Method, handle.Path+"/", handleWrapper(handle.Path, handle.Handler))
	}
}

func ComposeMiddleware(funcs []sbhttpbase.MiddlewareFunc, base sbhttpbase.HandleFunc) sbhttpbase.HandleFunc {
	for i := len(funcs) - 1; i >= 0; i-- {
		f := funcs[i]
		if f == nil {
			continue
		}
		next := base
		base = func(request *sbhttpbase.Request) {
			f(request, next)
		}
	}
	return base
}
