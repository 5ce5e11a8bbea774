//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/config"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/loader"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/reconcilers"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/reconcilers/monitoring"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/restapi"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/server"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/app/builders"
)

// wire up the dependencies.
func InitializeDependencies() (*dependencies, error) {
	wire.Build(config.NewConfigFromEnv, builders.Builders,
		auth.WireSet,
		datasource.WireSet,
		loader.NewConfigFromEnv, loader.NewLoader,
		monitoring.NewConfigFromEnv, monitoring.NewStore, monitoring.NewReconciler, monitoring.NewManager,
		reconcilers.NewReconcilerSet,
		restapi.NewConfigFromEnv, restapi.NewHubAPI,
		server.NewApiServer, server.NewHttpServers,
		newDependencies)
	return &dependencies{}, nil
}
