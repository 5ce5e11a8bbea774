package restapi

import (
	"context"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

const resourceDatasets = "datasets"

func (a *HubAPI) datasetHandlers() []sbhttpserver.HandleDescription {
	return []sbhttpserver.HandleDescription{
		a.handle("GET", "/datasets", a.read(resourceDatasets, a.listDatasets)),
		a.handle("POST", "/datasets", a.write(a.createDataset, resourceDatasets)),
		a.handle("GET", "/datasets/:id", a.read(resourceDatasets, a.getDataset)),
		a.handle("DELETE", "/datasets/:id", a.write(a.deleteDataset, resourceDatasets)),
		a.handle("GET", "/datasets/:id/versions", a.read(resourceDatasets, a.listDatasetVersions)),
		a.handle("GET", "/datasets/:id/versions/:version/files", a.read(resourceDatasets, a.listDatasetFiles)),
	}
}

func (a *HubAPI) listDatasets(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var opts datasource.ListDatasetsOptions
	if err := a.decodeQuery(request, &opts); err != nil {
		return view{}, err
	}
	datasets, err := a.store.ListDatasets(ctx, opts)
	if err != nil {
		return view{}, err
	}
	return plain(datasets), nil
}

func (a *HubAPI) getDataset(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	dataset, err := a.store.GetDataset(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return plain(dataset), nil
}

func (a *HubAPI) createDataset(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var req datasource.CreateDatasetRequest
	if err := decodeBody(request, &req); err != nil {
		return view{}, err
	}
	dataset, err := a.store.CreateDataset(ctx, req)
	if err != nil {
		return view{}, err
	}
	return plain(dataset), nil
}

func (a *HubAPI) deleteDataset(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	return view{}, a.store.DeleteDataset(ctx, param(request, "id"))
}

func (a *HubAPI) listDatasetVersions(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	versions, err := a.store.ListDatasetVersions(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return plain(versions), nil
}

func (a *HubAPI) listDatasetFiles(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	files, err := a.store.ListDatasetFiles(ctx, param(request, "id"), param(request, "version"))
	if err != nil {
		return view{}, err
	}
	return plain(files), nil
}
