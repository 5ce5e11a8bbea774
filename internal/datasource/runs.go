package datasource

import (
	"context"
	"encoding/json"
	"io"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/filetree"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
)

type ListRunsOptions struct {
	ExperimentId string `json:"experiment_id,omitempty"`
	Status       string `json:"status,omitempty"`
	MaxResults   int    `json:"max_results,omitempty"`
	PageToken    string `json:"page_token,omitempty"`
}

type MetricPoint struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Step      int64   `json:"step"`
	Timestamp string  `json:"timestamp"`
}

// ArtifactListing is one page of a run's artifact directory.
type ArtifactListing struct {
	RootUri       string            `json:"rootUri"`
	Files         []filetree.Record `json:"files"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

type RunStore interface {
	ListRuns(ctx context.Context, opts ListRunsOptions) (List[viewmodel.TrackedRun], error)
	GetRun(ctx context.Context, id string) (viewmodel.Result[viewmodel.TrackedRun], error)
	GetMetricHistory(ctx context.Context, id, key string) (viewmodel.Result[[]MetricPoint], error)
	ListArtifacts(ctx context.Context, runId, path, pageToken string) (*ArtifactListing, error)
	DownloadArtifact(ctx context.Context, runId, path string) ([]byte, error)
	StreamArtifact(ctx context.Context, runId, path string) (io.ReadCloser, error)
}

var _ RunStore = &Client{}

func (c *Client) ListRuns(ctx context.Context, opts ListRunsOptions) (List[viewmodel.TrackedRun], error) {
	raw, err := c.getRaw(ctx, "list runs", c.url("api", "runs"), cbhttp.QueryObj(opts))
	if err != nil {
		return List[viewmodel.TrackedRun]{}, err
	}
	return decodeAndConvert(raw, c.watch.Now(), viewmodel.ConvertRun, "runs")
}

func (c *Client) GetRun(ctx context.Context, id string) (viewmodel.Result[viewmodel.TrackedRun], error) {
	raw, err := c.getRaw(ctx, opName("get run %s", id), c.url("api", "runs", id))
	if err != nil {
		return viewmodel.Result[viewmodel.TrackedRun]{}, err
	}
	return viewmodel.ConvertRun(raw, c.watch.Now())
}

type metricHistoryQuery struct {
	MetricKey string `json:"metric_key"`
}

type rawMetricPoint struct {
	Key       string      `json:"key"`
	Value     json.Number `json:"value"`
	Step      json.Number `json:"step"`
	Timestamp interface{} `json:"timestamp"`
}

func (c *Client) GetMetricHistory(ctx context.Context, id, key string) (viewmodel.Result[[]MetricPoint], error) {
	var resp struct {
		Metrics []rawMetricPoint `json:"metrics"`
	}
	err := c.getJSON(ctx, opName("get history of metric %s of run %s", key, id), c.url("api", "runs", id, "metrics", "history"),
		&resp, cbhttp.QueryObj(metricHistoryQuery{MetricKey: key}))
	if err != nil {
		return viewmodel.Result[[]MetricPoint]{}, err
	}

	now := c.watch.Now()
	ret := viewmodel.Result[[]MetricPoint]{Value: make([]MetricPoint, 0, len(resp.Metrics))}
	for _, point := range resp.Metrics {
		value, err := point.Value.Float64()
		if err != nil {
			ret.Warnings = append(ret.Warnings, viewmodel.ParseWarning{Field: "value", Kind: viewmodel.WarningNumber, Raw: point.Value.String()})
			continue
		}
		step, _ := point.Step.Int64()
		timestamp, warning := viewmodel.CoerceTimestamp(point.Timestamp, now)
		if warning != nil {
			warning.Field = "timestamp"
			ret.Warnings = append(ret.Warnings, *warning)
		}
		if point.Key == "" {
			point.Key = key
		}
		ret.Value = append(ret.Value, MetricPoint{Key: point.Key, Value: value, Step: step, Timestamp: timestamp})
	}
	return ret, nil
}

type artifactQuery struct {
	Path      string `json:"path,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type rawArtifact struct {
	Path     string      `json:"path"`
	IsDir    bool        `json:"is_dir"`
	FileSize json.Number `json:"file_size"`
}

func (c *Client) ListArtifacts(ctx context.Context, runId, path, pageToken string) (*ArtifactListing, error) {
	var resp struct {
		RootUri       string        `json:"root_uri"`
		Files         []rawArtifact `json:"files"`
		NextPageToken string        `json:"next_page_token"`
	}
	err := c.getJSON(ctx, opName("list artifacts of run %s at %q", runId, path), c.url("api", "runs", runId, "artifacts"),
		&resp, cbhttp.QueryObj(artifactQuery{Path: path, PageToken: pageToken}))
	if err != nil {
		return nil, err
	}

	listing := &ArtifactListing{
		RootUri:       resp.RootUri,
		Files:         make([]filetree.Record, 0, len(resp.Files)),
		NextPageToken: resp.NextPageToken,
	}
	for _, file := range resp.Files {
		size, _ := file.FileSize.Int64()
		listing.Files = append(listing.Files, filetree.Record{Path: file.Path, IsDir: file.IsDir, Size: size})
	}
	return listing, nil
}

type downloadQuery struct {
	Path string `json:"path"`
}

func (c *Client) DownloadArtifact(ctx context.Context, runId, path string) ([]byte, error) {
	return c.getBytes(ctx, opName("download artifact %s of run %s", path, runId), c.url("api", "runs", runId, "artifacts", "download"),
		cbhttp.QueryObj(downloadQuery{Path: path}))
}

// StreamArtifact is DownloadArtifact without buffering. The caller closes the reader.
func (c *Client) StreamArtifact(ctx context.Context, runId, path string) (io.ReadCloser, error) {
	return c.stream(ctx, opName("download artifact %s of run %s", path, runId), c.url("api", "runs", runId, "artifacts", "download"),
		cbhttp.QueryObj(downloadQuery{Path: path}))
}
