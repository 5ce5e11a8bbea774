package datasource

import (
	"context"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
)

type ListModelsOptions struct {
	Search     string `json:"search,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	PageToken  string `json:"page_token,omitempty"`
}

type ModelStore interface {
	ListModels(ctx context.Context, opts ListModelsOptions) (List[viewmodel.RegisteredModel], error)
	GetModel(ctx context.Context, name string) (viewmodel.Result[viewmodel.RegisteredModel], error)
	ListModelVersions(ctx context.Context, name string) (List[viewmodel.ModelVersion], error)
	TransitionModelStage(ctx context.Context, name, version string, req TransitionStageRequest) (viewmodel.Result[viewmodel.ModelVersion], error)
	DeleteModel(ctx context.Context, name string) error
}

var _ ModelStore = &Client{}

func (c *Client) ListModels(ctx context.Context, opts ListModelsOptions) (List[viewmodel.RegisteredModel], error) {
	raw, err := c.getRaw(ctx, "list models", c.url("api", "models"), cbhttp.QueryObj(opts))
	if err != nil {
		return List[viewmodel.RegisteredModel]{}, err
	}
	return decodeAndConvert(raw, c.watch.Now(), viewmodel.ConvertModel, "registered_models", "models")
}

func (c *Client) GetModel(ctx context.Context, name string) (viewmodel.Result[viewmodel.RegisteredModel], error) {
	raw, err := c.getRaw(ctx, opName("get model %s", name), c.url("api", "models", name))
	if err != nil {
		return viewmodel.Result[viewmodel.RegisteredModel]{}, err
	}
	return viewmodel.ConvertModel(raw, c.watch.Now())
}

func (c *Client) ListModelVersions(ctx context.Context, name string) (List[viewmodel.ModelVersion], error) {
	raw, err := c.getRaw(ctx, opName("list versions of model %s", name), c.url("api", "models", name, "versions"))
	if err != nil {
		return List[viewmodel.ModelVersion]{}, err
	}
	return decodeAndConvert(raw, c.watch.Now(), viewmodel.ConvertModelVersion, "model_versions", "versions")
}

func (c *Client) TransitionModelStage(ctx context.Context, name, version string, req TransitionStageRequest) (viewmodel.Result[viewmodel.ModelVersion], error) {
	if err := req.Validate(); err != nil {
		return viewmodel.Result[viewmodel.ModelVersion]{}, err
	}
	var raw rawObject
	err := c.send(ctx, opName("transition model %s version %s", name, version), "POST",
		c.url("api", "models", name, "versions", version, "stage"), req.wire(), &raw)
	if err != nil {
		return viewmodel.Result[viewmodel.ModelVersion]{}, err
	}
	return viewmodel.ConvertModelVersion(raw.message(), c.watch.Now())
}

func (c *Client) DeleteModel(ctx context.Context, name string) error {
	return c.send(ctx, opName("delete model %s", name), "DELETE", c.url("api", "models", name), nil, nil)
}
