package sbhttpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dimfeld/httptreemux"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/app"
	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
)

type Config struct {
	Port              int           `env:"SERVER_HTTP_PORT" envDefault:"3000"`
	ReadTimeout       time.Duration `env:"SERVER_HTTP_READ_TIMEOUT"  envDefault:"60s"`
	ReadHeaderTimeout time.Duration `env:"SERVER_HTTP_READ_HEADER_TIMEOUT" envDefault:"15s"`
	// Artifact downloads stream through the hub so writes get more room than reads
	WriteTimeout    time.Duration `env:"SERVER_HTTP_WRITE_TIMEOUT" envDefault:"300s"`
	IdleTimeout     time.Duration `env:"SERVER_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes  int           `env:"SERVER_HTTP_MAX_HEADER_BYTES"`
	EnableProfiling bool          `env:"SERVER_HTTP_ENABLE_PPROF" envDefault:"false"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Instance struct {
	app    *app.Instance
	router *httptreemux.TreeMux
	server *http.Server
	config *Config
}

func NewInstance(cfg *Config, app *app.Instance) (*Instance, error) {
	router := httptreemux.New()
	router.RedirectTrailingSlash = false

	localServer := &http.Server{
		Handler:           router,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	return &Instance{
		app:    app,
		config: cfg,
		router: router,
		server: localServer,
	}, nil
}

// Handler exposes the router, mostly so tests can serve it through httptest.
func (instance *Instance) Handler() http.Handler {
	return instance.router
}

func (instance *Instance) Register(server Server) error {
	instance.app.AddCloseFunc(server.Shutdown)

	instance.registerStatusHandlers(server)

	return instance.registerHandlers(server)
}
