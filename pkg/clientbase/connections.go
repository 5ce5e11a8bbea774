package clientbase

import (
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	cbhttpmiddleware "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http/middleware"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

// Connections holds the outbound clients shared by every service of the process.
type Connections struct {
	Cfg        *Config
	HttpClient *cbhttp.Instance
}

func NewConnections(cfg *Config, httpClient *cbhttp.Instance) (*Connections, error) {
	c := &Connections{
		Cfg: cfg,
	}

	c.HttpClient = httpClient.With(
		userAgent(cfg.UserAgent),
		cbhttpmiddleware.RequestID(),
	)

	return c, nil
}

func userAgent(agent string) cbhttp.MiddlewareFunc {
	return func(next cbhttp.RunnerFunc) cbhttp.RunnerFunc {
		return func(r *cbhttp.Request) (*cbhttp.Response, *lhttp.HttpError) {
			if agent != "" {
				r = r.Options(cbhttp.SetHeader("User-Agent", agent))
			}
			return next(r)
		}
	}
}

func (c *Connections) Close() {
	if c.HttpClient != nil {
		_ = c.HttpClient.Close()
	}
}
