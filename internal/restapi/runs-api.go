package restapi

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	sbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

const resourceRuns = "runs"

func (a *HubAPI) runHandlers() []sbhttpserver.HandleDescription {
	return []sbhttpserver.HandleDescription{
		a.handle("GET", "/runs", a.read(resourceRuns, a.listRuns)),
		a.handle("GET", "/runs/:id", a.read(resourceRuns, a.getRun)),
		a.handle("GET", "/runs/:id/metrics/:key", a.read(resourceRuns, a.getMetricHistory)),
		a.handle("GET", "/runs/:id/artifacts", a.read(resourceRuns, a.getArtifactTree)),
		a.handle("GET", "/runs/:id/artifacts/download", a.downloadArtifact),
	}
}

func (a *HubAPI) listRuns(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var opts datasource.ListRunsOptions
	if err := a.decodeQuery(request, &opts); err != nil {
		return view{}, err
	}
	runs, err := a.store.ListRuns(ctx, opts)
	if err != nil {
		return view{}, err
	}
	return many(runs), nil
}

func (a *HubAPI) getRun(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	run, err := a.store.GetRun(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return single(run), nil
}

func (a *HubAPI) getMetricHistory(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	history, err := a.store.GetMetricHistory(ctx, param(request, "id"), param(request, "key"))
	if err != nil {
		return view{}, err
	}
	return single(history), nil
}

type artifactQuery struct {
	Path string `json:"path"`
}

// getArtifactTree answers one directory level as a file tree. Nested folders come back unloaded and are
// fetched with a further request on their path.
func (a *HubAPI) getArtifactTree(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var query artifactQuery
	if err := a.decodeQuery(request, &query); err != nil {
		return view{}, err
	}
	tree, err := datasource.ArtifactTree(ctx, a.store, param(request, "id"), query.Path)
	if err != nil {
		return view{}, err
	}
	return plain(tree), nil
}

// downloadArtifact streams the artifact untouched. It bypasses the loader since the content is not
// shared between callers.
func (a *HubAPI) downloadArtifact(request *sbhttpbase.Request) {
	var query artifactQuery
	if err := a.decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	content, err := a.store.StreamArtifact(withCallerToken(request), param(request, "id"), query.Path)
	if err != nil {
		writeError(request, err)
		return
	}
	defer content.Close()

	if err := sbhttp.ReturnStream(request.Writer, query.Path, content); err != nil {
		log.Printf("failed to stream artifact %s of run %s: %s", query.Path, param(request, "id"), err)
	}
}
