package restapi

import (
	"context"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

const resourceServices = "inference-services"

func (a *HubAPI) serviceHandlers() []sbhttpserver.HandleDescription {
	return []sbhttpserver.HandleDescription{
		a.handle("GET", "/inference-services", a.read(resourceServices, a.listServices)),
		a.handle("POST", "/inference-services", a.write(a.createService, resourceServices)),
		a.handle("GET", "/inference-services/:id", a.read(resourceServices, a.getService)),
		a.handle("PUT", "/inference-services/:id", a.write(a.updateService, resourceServices)),
		a.handle("DELETE", "/inference-services/:id", a.write(a.deleteService, resourceServices, resourceEntrypoints)),
		a.handle("POST", "/inference-services/:id/start", a.write(a.startService, resourceServices)),
		a.handle("POST", "/inference-services/:id/stop", a.write(a.stopService, resourceServices)),
	}
}

func (a *HubAPI) listServices(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var opts datasource.ListInferenceServicesOptions
	if err := a.decodeQuery(request, &opts); err != nil {
		return view{}, err
	}
	services, err := a.store.ListInferenceServices(ctx, opts)
	if err != nil {
		return view{}, err
	}
	return many(services), nil
}

func (a *HubAPI) getService(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	service, err := a.store.GetInferenceService(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return single(service), nil
}

func (a *HubAPI) createService(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	req, err := serviceRequest(request)
	if err != nil {
		return view{}, err
	}
	service, err := a.store.CreateInferenceService(ctx, req)
	if err != nil {
		return view{}, err
	}
	return single(service), nil
}

func (a *HubAPI) updateService(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	req, err := serviceRequest(request)
	if err != nil {
		return view{}, err
	}
	service, err := a.store.UpdateInferenceService(ctx, param(request, "id"), req)
	if err != nil {
		return view{}, err
	}
	return single(service), nil
}

func (a *HubAPI) deleteService(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	return view{}, a.store.DeleteInferenceService(ctx, param(request, "id"))
}

func (a *HubAPI) startService(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	service, err := a.store.StartInferenceService(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return single(service), nil
}

func (a *HubAPI) stopService(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	service, err := a.store.StopInferenceService(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return single(service), nil
}

// serviceRequest decodes a service body on top of the default deployment config, so omitted settings
// keep their defaults.
func serviceRequest(request *sbhttpbase.Request) (datasource.InferenceServiceRequest, error) {
	req := datasource.InferenceServiceRequest{DeploymentConfig: viewmodel.DefaultDeploymentConfig()}
	err := decodeBody(request, &req)
	return req, err
}
