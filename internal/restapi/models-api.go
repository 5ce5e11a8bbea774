package restapi

import (
	"context"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

const resourceModels = "models"

func (a *HubAPI) modelHandlers() []sbhttpserver.HandleDescription {
	return []sbhttpserver.HandleDescription{
		a.handle("GET", "/models", a.read(resourceModels, a.listModels)),
		a.handle("GET", "/models/:name", a.read(resourceModels, a.getModel)),
		a.handle("DELETE", "/models/:name", a.write(a.deleteModel, resourceModels)),
		a.handle("GET", "/models/:name/versions", a.read(resourceModels, a.listModelVersions)),
		a.handle("POST", "/models/:name/versions/:version/stage", a.write(a.transitionStage, resourceModels)),
	}
}

func (a *HubAPI) listModels(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var opts datasource.ListModelsOptions
	if err := a.decodeQuery(request, &opts); err != nil {
		return view{}, err
	}
	models, err := a.store.ListModels(ctx, opts)
	if err != nil {
		return view{}, err
	}
	return many(models), nil
}

func (a *HubAPI) getModel(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	model, err := a.store.GetModel(ctx, param(request, "name"))
	if err != nil {
		return view{}, err
	}
	return single(model), nil
}

func (a *HubAPI) deleteModel(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	return view{}, a.store.DeleteModel(ctx, param(request, "name"))
}

func (a *HubAPI) listModelVersions(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	versions, err := a.store.ListModelVersions(ctx, param(request, "name"))
	if err != nil {
		return view{}, err
	}
	return many(versions), nil
}

func (a *HubAPI) transitionStage(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var req datasource.TransitionStageRequest
	if err := decodeBody(request, &req); err != nil {
		return view{}, err
	}
	version, err := a.store.TransitionModelStage(ctx, param(request, "name"), param(request, "version"), req)
	if err != nil {
		return view{}, err
	}
	return single(version), nil
}
