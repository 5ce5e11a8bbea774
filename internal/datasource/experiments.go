package datasource

import (
	"context"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
)

const (
	ViewTypeActive  = "ACTIVE_ONLY"
	ViewTypeDeleted = "DELETED_ONLY"
	ViewTypeAll     = "ALL"
)

type ListExperimentsOptions struct {
	ViewType   string `json:"view_type,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	PageToken  string `json:"page_token,omitempty"`
}

type ExperimentStore interface {
	ListExperiments(ctx context.Context, opts ListExperimentsOptions) (List[viewmodel.TrackedExperiment], error)
	GetExperiment(ctx context.Context, id string) (viewmodel.Result[viewmodel.TrackedExperiment], error)
	CreateExperiment(ctx context.Context, req CreateExperimentRequest) (string, error)
	DeleteExperiment(ctx context.Context, id string) error
}

var _ ExperimentStore = &Client{}

func (c *Client) ListExperiments(ctx context.Context, opts ListExperimentsOptions) (List[viewmodel.TrackedExperiment], error) {
	raw, err := c.getRaw(ctx, "list experiments", c.url("api", "experiments"), cbhttp.QueryObj(opts))
	if err != nil {
		return List[viewmodel.TrackedExperiment]{}, err
	}
	return decodeAndConvert(raw, c.watch.Now(), viewmodel.ConvertExperiment, "experiments")
}

func (c *Client) GetExperiment(ctx context.Context, id string) (viewmodel.Result[viewmodel.TrackedExperiment], error) {
	raw, err := c.getRaw(ctx, opName("get experiment %s", id), c.url("api", "experiments", id))
	if err != nil {
		return viewmodel.Result[viewmodel.TrackedExperiment]{}, err
	}
	return viewmodel.ConvertExperiment(raw, c.watch.Now())
}

// CreateExperiment returns the id assigned by the tracking server.
func (c *Client) CreateExperiment(ctx context.Context, req CreateExperimentRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	var resp struct {
		ExperimentId string `json:"experiment_id"`
		Id           string `json:"id"`
	}
	if err := c.send(ctx, opName("create experiment %s", req.Name), "POST", c.url("api", "experiments"), req.wire(), &resp); err != nil {
		return "", err
	}
	if resp.ExperimentId != "" {
		return resp.ExperimentId, nil
	}
	return resp.Id, nil
}

func (c *Client) DeleteExperiment(ctx context.Context, id string) error {
	return c.send(ctx, opName("delete experiment %s", id), "DELETE", c.url("api", "experiments", id), nil, nil)
}
