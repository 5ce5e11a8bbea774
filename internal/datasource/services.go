package datasource

import (
	"context"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
)

type ListInferenceServicesOptions struct {
	Status string `json:"status,omitempty"`
}

type InferenceServiceStore interface {
	ListInferenceServices(ctx context.Context, opts ListInferenceServicesOptions) (List[viewmodel.InferenceService], error)
	GetInferenceService(ctx context.Context, id string) (viewmodel.Result[viewmodel.InferenceService], error)
	CreateInferenceService(ctx context.Context, req InferenceServiceRequest) (viewmodel.Result[viewmodel.InferenceService], error)
	UpdateInferenceService(ctx context.Context, id string, req InferenceServiceRequest) (viewmodel.Result[viewmodel.InferenceService], error)
	DeleteInferenceService(ctx context.Context, id string) error
	StartInferenceService(ctx context.Context, id string) (viewmodel.Result[viewmodel.InferenceService], error)
	StopInferenceService(ctx context.Context, id string) (viewmodel.Result[viewmodel.InferenceService], error)
}

var _ InferenceServiceStore = &Client{}

func (c *Client) ListInferenceServices(ctx context.Context, opts ListInferenceServicesOptions) (List[viewmodel.InferenceService], error) {
	raw, err := c.getRaw(ctx, "list inference services", c.url("api", "inference-services"), cbhttp.QueryObj(opts))
	if err != nil {
		return List[viewmodel.InferenceService]{}, err
	}
	return decodeAndConvert(raw, c.watch.Now(), viewmodel.ConvertInferenceService, "inference_services", "services")
}

func (c *Client) GetInferenceService(ctx context.Context, id string) (viewmodel.Result[viewmodel.InferenceService], error) {
	raw, err := c.getRaw(ctx, opName("get inference service %s", id), c.url("api", "inference-services", id))
	if err != nil {
		return viewmodel.Result[viewmodel.InferenceService]{}, err
	}
	return viewmodel.ConvertInferenceService(raw, c.watch.Now())
}

func (c *Client) CreateInferenceService(ctx context.Context, req InferenceServiceRequest) (viewmodel.Result[viewmodel.InferenceService], error) {
	if err := req.Validate(); err != nil {
		return viewmodel.Result[viewmodel.InferenceService]{}, err
	}
	return c.serviceCall(ctx, opName("create inference service %s", req.Name), "POST", c.url("api", "inference-services"), req.wire())
}

func (c *Client) UpdateInferenceService(ctx context.Context, id string, req InferenceServiceRequest) (viewmodel.Result[viewmodel.InferenceService], error) {
	if err := req.Validate(); err != nil {
		return viewmodel.Result[viewmodel.InferenceService]{}, err
	}
	return c.serviceCall(ctx, opName("update inference service %s", id), "PUT", c.url("api", "inference-services", id), req.wire())
}

func (c *Client) DeleteInferenceService(ctx context.Context, id string) error {
	return c.send(ctx, opName("delete inference service %s", id), "DELETE", c.url("api", "inference-services", id), nil, nil)
}

func (c *Client) StartInferenceService(ctx context.Context, id string) (viewmodel.Result[viewmodel.InferenceService], error) {
	return c.serviceCall(ctx, opName("start inference service %s", id), "POST", c.url("api", "inference-services", id, "start"), nil)
}

func (c *Client) StopInferenceService(ctx context.Context, id string) (viewmodel.Result[viewmodel.InferenceService], error) {
	return c.serviceCall(ctx, opName("stop inference service %s", id), "POST", c.url("api", "inference-services", id, "stop"), nil)
}

func (c *Client) serviceCall(ctx context.Context, op, method, uri string, body interface{}) (viewmodel.Result[viewmodel.InferenceService], error) {
	var raw rawObject
	if err := c.send(ctx, op, method, uri, body, &raw); err != nil {
		return viewmodel.Result[viewmodel.InferenceService]{}, err
	}
	return viewmodel.ConvertInferenceService(raw.message(), c.watch.Now())
}
