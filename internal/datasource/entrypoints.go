package datasource

import (
	"context"
	"encoding/json"
	"strings"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	cbhttpmiddleware "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http/middleware"
)

type ListEntrypointsOptions struct {
	InferenceServiceId string `json:"inference_service_id,omitempty"`
	Status             string `json:"status,omitempty"`
}

type EntrypointStore interface {
	ListEntrypoints(ctx context.Context, opts ListEntrypointsOptions) (List[viewmodel.Entrypoint], error)
	GetEntrypoint(ctx context.Context, id string) (viewmodel.Result[viewmodel.Entrypoint], error)
	CreateEntrypoint(ctx context.Context, req EntrypointRequest) (viewmodel.Result[viewmodel.Entrypoint], error)
	UpdateEntrypoint(ctx context.Context, id string, req EntrypointRequest) (viewmodel.Result[viewmodel.Entrypoint], error)
	DeleteEntrypoint(ctx context.Context, id string) error
	InvokeEntrypoint(ctx context.Context, path string, payload json.RawMessage) (json.RawMessage, error)
	GetInvocationHistory(ctx context.Context, id string, limit int) (List[viewmodel.Invocation], error)
	GetEntrypointMetrics(ctx context.Context, id string) (viewmodel.Result[viewmodel.EntrypointMetrics], error)
	GetDailyMetrics(ctx context.Context, id string, days int) (List[viewmodel.DailyMetric], error)
}

var _ EntrypointStore = &Client{}

func (c *Client) ListEntrypoints(ctx context.Context, opts ListEntrypointsOptions) (List[viewmodel.Entrypoint], error) {
	raw, err := c.getRaw(ctx, "list entrypoints", c.url("api", "entrypoints"), cbhttp.QueryObj(opts))
	if err != nil {
		return List[viewmodel.Entrypoint]{}, err
	}
	return decodeAndConvert(raw, c.watch.Now(), viewmodel.ConvertEntrypoint, "entrypoints")
}

func (c *Client) GetEntrypoint(ctx context.Context, id string) (viewmodel.Result[viewmodel.Entrypoint], error) {
	raw, err := c.getRaw(ctx, opName("get entrypoint %s", id), c.url("api", "entrypoints", id))
	if err != nil {
		return viewmodel.Result[viewmodel.Entrypoint]{}, err
	}
	return viewmodel.ConvertEntrypoint(raw, c.watch.Now())
}

func (c *Client) CreateEntrypoint(ctx context.Context, req EntrypointRequest) (viewmodel.Result[viewmodel.Entrypoint], error) {
	if err := req.Validate(); err != nil {
		return viewmodel.Result[viewmodel.Entrypoint]{}, err
	}
	return c.entrypointCall(ctx, opName("create entrypoint %s", req.Name), "POST", c.url("api", "entrypoints"), req.wire())
}

func (c *Client) UpdateEntrypoint(ctx context.Context, id string, req EntrypointRequest) (viewmodel.Result[viewmodel.Entrypoint], error) {
	if err := req.Validate(); err != nil {
		return viewmodel.Result[viewmodel.Entrypoint]{}, err
	}
	return c.entrypointCall(ctx, opName("update entrypoint %s", id), "PUT", c.url("api", "entrypoints", id), req.wire())
}

func (c *Client) DeleteEntrypoint(ctx context.Context, id string) error {
	return c.send(ctx, opName("delete entrypoint %s", id), "DELETE", c.url("api", "entrypoints", id), nil, nil)
}

func (c *Client) entrypointCall(ctx context.Context, op, method, uri string, body interface{}) (viewmodel.Result[viewmodel.Entrypoint], error) {
	var raw rawObject
	if err := c.send(ctx, op, method, uri, body, &raw); err != nil {
		return viewmodel.Result[viewmodel.Entrypoint]{}, err
	}
	return viewmodel.ConvertEntrypoint(raw.message(), c.watch.Now())
}

// InvokeEntrypoint posts payload verbatim to the entrypoint's inference path. A backend answer other than
// 2xx is returned as an *InvocationError holding the backend's body, so it can be shown as is.
func (c *Client) InvokeEntrypoint(ctx context.Context, path string, payload json.RawMessage) (json.RawMessage, error) {
	segments := []string{"api", "entrypoints"}
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	segments = append(segments, "infer")

	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	var content []byte
	req := cbhttp.NewRequest(ctx, "POST", c.url(segments...), cbhttp.BodyRaw(payload))
	herr := c.http.DoNoResponse(req, cbhttpmiddleware.BytesDecoder(&content))
	if herr != nil {
		err := failed(opName("invoke entrypoint %s", path), herr)
		// Transport failures and expired sessions keep their error
		if herr.Unwrap() != nil {
			return nil, err
		}
		return nil, &InvocationError{Path: path, StatusCode: herr.Code, Body: []byte(herr.Message)}
	}
	if len(content) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(content) {
		encoded, _ := json.Marshal(string(content))
		return encoded, nil
	}
	return content, nil
}

type historyQuery struct {
	Limit int `json:"limit,omitempty"`
}

func (c *Client) GetInvocationHistory(ctx context.Context, id string, limit int) (List[viewmodel.Invocation], error) {
	raw, err := c.getRaw(ctx, opName("get history of entrypoint %s", id), c.url("api", "entrypoints", id, "history"),
		cbhttp.QueryObj(historyQuery{Limit: limit}))
	if err != nil {
		return List[viewmodel.Invocation]{}, err
	}
	return decodeAndConvert(raw, c.watch.Now(), viewmodel.ConvertInvocation, "invocations", "history")
}

func (c *Client) GetEntrypointMetrics(ctx context.Context, id string) (viewmodel.Result[viewmodel.EntrypointMetrics], error) {
	raw, err := c.getRaw(ctx, opName("get metrics of entrypoint %s", id), c.url("api", "entrypoints", id, "metrics"))
	if err != nil {
		return viewmodel.Result[viewmodel.EntrypointMetrics]{}, err
	}
	return viewmodel.ConvertEntrypointMetrics(raw)
}

type dailyQuery struct {
	Days int `json:"days,omitempty"`
}

func (c *Client) GetDailyMetrics(ctx context.Context, id string, days int) (List[viewmodel.DailyMetric], error) {
	raw, err := c.getRaw(ctx, opName("get daily metrics of entrypoint %s", id), c.url("api", "entrypoints", id, "metrics", "daily"),
		cbhttp.QueryObj(dailyQuery{Days: days}))
	if err != nil {
		return List[viewmodel.DailyMetric]{}, err
	}
	return decodeAndConvert(raw, c.watch.Now(), viewmodel.ConvertDailyMetric, "daily_metrics", "metrics")
}
