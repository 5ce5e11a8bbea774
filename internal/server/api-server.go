package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/restapi"
	interceptors_inflight "github.infra.cloudera.com/CAI/MLOpsHub/pkg/interceptors/in-flight"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

// ApiServer exposes the view API and the Prometheus metrics of the process.
type ApiServer struct {
	api        *restapi.HubAPI
	middleware []sbhttpbase.RegistrableMiddleware
}

func NewApiServer(api *restapi.HubAPI, limiter *interceptors_inflight.Interceptor) *ApiServer {
	return &ApiServer{
		api:        api,
		middleware: sbhttpserver.GetBaseInterceptors(sbhttpserver.NewBaseInterceptorsConfigFromEnv(), limiter),
	}
}

func NewHttpServers(apiServer *ApiServer) []sbhttpserver.Server {
	return []sbhttpserver.Server{
		apiServer,
	}
}

// Ready doesn't check the backend: a backend outage is reported per request as a 502
func (s *ApiServer) Ready(ctx context.Context) error {
	return nil
}

// Live doesn't do any check. Just answering the request is enough evidence we're alive
func (s *ApiServer) Live(ctx context.Context) error {
	return nil
}

func (s *ApiServer) Shutdown() error {
	return nil
}

func (s *ApiServer) GetHandlers() []sbhttpserver.HandleDescription {
	handlers := make([]sbhttpserver.HandleDescription, 0)
	for _, handle := range s.api.Handlers() {
		handle.Middleware = append(append([]sbhttpbase.RegistrableMiddleware{}, s.middleware...), handle.Middleware...)
		handlers = append(handlers, handle)
	}

	handlers = append(handlers, sbhttpserver.HandleDescription{
		Path:    "/metrics",
		Method:  "GET",
		Handler: sbhttpbase.HandleStdFunc(promhttp.Handler().ServeHTTP),
	})
	return handlers
}

var _ sbhttpserver.Server = &ApiServer{}
