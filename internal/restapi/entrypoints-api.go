package restapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/http/interceptors"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

const resourceEntrypoints = "entrypoints"

func (a *HubAPI) entrypointHandlers() []sbhttpserver.HandleDescription {
	invoke := a.handle("POST", "/entrypoints/:id/infer", a.invoke)
	invoke.Middleware = []sbhttpbase.RegistrableMiddleware{
		interceptors.HttpServerLimitSizeInterceptor(a.cfg.PlaygroundMaxBody),
	}

	return []sbhttpserver.HandleDescription{
		a.handle("GET", "/entrypoints", a.read(resourceEntrypoints, a.listEntrypoints)),
		a.handle("POST", "/entrypoints", a.write(a.createEntrypoint, resourceEntrypoints)),
		a.handle("GET", "/entrypoints/:id", a.read(resourceEntrypoints, a.getEntrypoint)),
		a.handle("PUT", "/entrypoints/:id", a.write(a.updateEntrypoint, resourceEntrypoints)),
		a.handle("DELETE", "/entrypoints/:id", a.write(a.deleteEntrypoint, resourceEntrypoints)),
		a.handle("GET", "/entrypoints/:id/history", a.read(resourceEntrypoints, a.getHistory)),
		a.handle("GET", "/entrypoints/:id/metrics", a.read(resourceEntrypoints, a.getEntrypointMetrics)),
		a.handle("GET", "/entrypoints/:id/metrics/daily", a.read(resourceEntrypoints, a.getDailyMetrics)),
		invoke,
	}
}

func (a *HubAPI) listEntrypoints(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var opts datasource.ListEntrypointsOptions
	if err := a.decodeQuery(request, &opts); err != nil {
		return view{}, err
	}
	entrypoints, err := a.store.ListEntrypoints(ctx, opts)
	if err != nil {
		return view{}, err
	}
	return many(entrypoints), nil
}

func (a *HubAPI) getEntrypoint(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	entrypoint, err := a.store.GetEntrypoint(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return single(entrypoint), nil
}

func (a *HubAPI) createEntrypoint(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var req datasource.EntrypointRequest
	if err := decodeBody(request, &req); err != nil {
		return view{}, err
	}
	entrypoint, err := a.store.CreateEntrypoint(ctx, req)
	if err != nil {
		return view{}, err
	}
	return single(entrypoint), nil
}

func (a *HubAPI) updateEntrypoint(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	var req datasource.EntrypointRequest
	if err := decodeBody(request, &req); err != nil {
		return view{}, err
	}
	entrypoint, err := a.store.UpdateEntrypoint(ctx, param(request, "id"), req)
	if err != nil {
		return view{}, err
	}
	return single(entrypoint), nil
}

func (a *HubAPI) deleteEntrypoint(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	return view{}, a.store.DeleteEntrypoint(ctx, param(request, "id"))
}

type historyQuery struct {
	Limit int `json:"limit"`
}

func (a *HubAPI) getHistory(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	query := historyQuery{Limit: a.cfg.HistoryLimit}
	if err := a.decodeQuery(request, &query); err != nil {
		return view{}, err
	}
	history, err := a.store.GetInvocationHistory(ctx, param(request, "id"), query.Limit)
	if err != nil {
		return view{}, err
	}
	return many(history), nil
}

func (a *HubAPI) getEntrypointMetrics(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	metrics, err := a.store.GetEntrypointMetrics(ctx, param(request, "id"))
	if err != nil {
		return view{}, err
	}
	return single(metrics), nil
}

type dailyQuery struct {
	Days int `json:"days"`
}

func (a *HubAPI) getDailyMetrics(ctx context.Context, request *sbhttpbase.Request) (view, error) {
	query := dailyQuery{Days: a.cfg.DailyMetricsDays}
	if err := a.decodeQuery(request, &query); err != nil {
		return view{}, err
	}
	daily, err := a.store.GetDailyMetrics(ctx, param(request, "id"), query.Days)
	if err != nil {
		return view{}, err
	}
	return many(daily), nil
}

// invoke is the playground: the payload goes to the entrypoint verbatim and the model's answer comes
// back verbatim. The route segment is the entrypoint's path, escaped when it holds slashes. Invocations
// are never shared or cached.
func (a *HubAPI) invoke(request *sbhttpbase.Request) {
	payload, err := io.ReadAll(request.Request.Body)
	if err != nil {
		writeError(request, lhttp.NewBadRequest("failed to read payload: "+err.Error()))
		return
	}
	if len(payload) > 0 && !json.Valid(payload) {
		writeError(request, lhttp.NewBadRequest("payload is not valid JSON"))
		return
	}

	answer, err := a.store.InvokeEntrypoint(withCallerToken(request), param(request, "id"), payload)
	a.loader.Invalidate(resourceEntrypoints)
	if err != nil {
		writeError(request, err)
		return
	}

	request.Writer.Header().Set("Content-Type", "application/json")
	request.Writer.WriteHeader(http.StatusOK)
	_, _ = request.Writer.Write(answer)
}
