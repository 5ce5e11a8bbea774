package main

import (
	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/config"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/reconcilers"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/app"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

type dependencies struct {
	cfg         *config.Config
	app         *app.Instance
	svc         *sbhttpserver.Instance
	servers     []sbhttpserver.Server
	session     *auth.Session
	reconcilers *reconcilers.ReconcilerSet
}

func newDependencies(cfg *config.Config, app *app.Instance, svc *sbhttpserver.Instance, servers []sbhttpserver.Server,
	session *auth.Session, reconcilers *reconcilers.ReconcilerSet) *dependencies {
	return &dependencies{
		cfg:         cfg,
		app:         app,
		svc:         svc,
		servers:     servers,
		session:     session,
		reconcilers: reconcilers,
	}
}

func main() {
	deps, err := InitializeDependencies()
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}
	if err := deps.cfg.SetupLogging(); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	if deps.cfg.ServiceLogin {
		if err := deps.session.LoginClientCredentials(deps.app.Context()); err != nil {
			log.Fatalf("failed to log the gateway in: %v", err)
		}
		deps.app.AddCloseFunc(func() error {
			ctx, cancel := app.BackgroundTimeoutContext()
			defer cancel()
			return deps.session.Logout(ctx)
		})
	}

	if err := deps.svc.Register(sbhttpserver.NewMultiServer(deps.servers)); err != nil {
		log.Fatalf("failed to register servers: %v", err)
	}
	if err := deps.svc.Serve(); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}

	deps.reconcilers.Start()
	defer deps.reconcilers.Finish()

	deps.app.WaitForFinish()
}
