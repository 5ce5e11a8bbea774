package restapi

import (
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

func (a *HubAPI) monitoringHandlers() []sbhttpserver.HandleDescription {
	return []sbhttpserver.HandleDescription{
		a.handle("GET", "/monitoring", a.getMonitoring),
	}
}

// getMonitoring answers the latest snapshots collected in the background. It never calls the backend.
func (a *HubAPI) getMonitoring(request *sbhttpbase.Request) {
	writeView(request, 200, plain(a.monitoring.List()))
}

func (a *HubAPI) Handlers() []sbhttpserver.HandleDescription {
	handlers := make([]sbhttpserver.HandleDescription, 0)
	handlers = append(handlers, a.datasetHandlers()...)
	handlers = append(handlers, a.modelHandlers()...)
	handlers = append(handlers, a.experimentHandlers()...)
	handlers = append(handlers, a.runHandlers()...)
	handlers = append(handlers, a.serviceHandlers()...)
	handlers = append(handlers, a.entrypointHandlers()...)
	handlers = append(handlers, a.monitoringHandlers()...)
	return handlers
}
