package restapi

import (
	"context"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

const resourceExperiments = "experiments"

func (a *HubAPI) experimentHandlers() []sbhttpserver.HandleDescription {
	return []sbhttpserver.HandleDescription{
		a.handle("GET", "/experiments", a.read(resourceExperiments, a.listExperiments)),
		a.handle("POST", "/experiments", a.write(a.createExperiment, resourceExperiments)),
		a.handle("GET", "/experiments/:id", a.read(resourceExperiments, a.getExperiment)),
		a.handle("DELETE", "/experiments/:id", a.write(a.deleteExperiment, resourceExperiments, resourceRuns)),
	}
}

func (a *HubAPI) listExperiments(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var opts datasource.ListExperimentsOptions
	if err := a.decodeQuery(request, &opts); err != nil {
		return view{}, err
	}
	experiments, err := a.store.ListExperiments(ctx, opts)
	if err != nil {
		return view{}, err
	}
	return many(experiments), nil
}

func (a *HubAPI) getExperiment(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	experiment, err := a.store.GetExperiment(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return single(experiment), nil
}

type createdExperiment struct {
	Id string `json:"id"`
}

func (a *HubAPI) createExperiment(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var req datasource.CreateExperimentRequest
	if err := decodeBody(request, &req); err != nil {
		return view{}, err
	}
	id, err := a.store.CreateExperiment(ctx, req)
	if err != nil {
		return view{}, err
	}
	return plain(createdExperiment{Id: id}), nil
}

func (a *HubAPI) deleteExperiment(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	return view{}, a.store.DeleteExperiment(ctx, param(request, "id"))
}
