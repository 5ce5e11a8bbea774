package datasource

import (
	"context"
	"encoding/json"
	"io"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
)

// Tags decodes a tag list stored either as a JSON array or as a JSON-encoded array string.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		list, _ := viewmodel.ParseStringList("tags", encoded)
		*t = list
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		*t = Tags{}
		return nil
	}
	if list == nil {
		list = []string{}
	}
	*t = list
	return nil
}

type Dataset struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	Source        string `json:"source,omitempty"`
	Tags          Tags   `json:"tags"`
	LatestVersion string `json:"latest_version,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type DatasetVersion struct {
	Id          string `json:"id"`
	DatasetId   string `json:"dataset_id"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Tags        Tags   `json:"tags"`
	FileCount   int64  `json:"file_count"`
	SizeBytes   int64  `json:"size_bytes"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type DatasetFile struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type ListDatasetsOptions struct {
	Search   string `json:"search,omitempty"`
	Type     string `json:"type,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

type DatasetStore interface {
	ListDatasets(ctx context.Context, opts ListDatasetsOptions) ([]Dataset, error)
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	CreateDataset(ctx context.Context, req CreateDatasetRequest) (*Dataset, error)
	UpdateDataset(ctx context.Context, id string, req UpdateDatasetRequest) (*Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
	ListDatasetVersions(ctx context.Context, id string) ([]DatasetVersion, error)
	CreateDatasetVersion(ctx context.Context, id string, req CreateDatasetVersionRequest) (*DatasetVersion, error)
	ListDatasetFiles(ctx context.Context, id, version string) ([]DatasetFile, error)
	UploadDatasetFile(ctx context.Context, id, version, name string, content io.Reader) (*DatasetFile, error)
	DownloadDatasetFile(ctx context.Context, id, version, fileId string) ([]byte, error)
}

var _ DatasetStore = &Client{}

// decodeTyped decodes a collection answered bare or wrapped under one of keys.
func decodeTyped[T any](raw json.RawMessage, keys ...string) ([]T, error) {
	list, err := decodeList(raw, keys...)
	if err != nil {
		return nil, err
	}
	ret := make([]T, 0, len(list.items))
	for _, item := range list.items {
		var value T
		if err := json.Unmarshal(item, &value); err != nil {
			return nil, err
		}
		ret = append(ret, value)
	}
	return ret, nil
}

func (c *Client) ListDatasets(ctx context.Context, opts ListDatasetsOptions) ([]Dataset, error) {
	raw, err := c.getRaw(ctx, "list datasets", c.url("api", "datasets"), cbhttp.QueryObj(opts))
	if err != nil {
		return nil, err
	}
	return decodeTyped[Dataset](raw, "datasets")
}

func (c *Client) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	var dataset Dataset
	if err := c.getJSON(ctx, opName("get dataset %s", id), c.url("api", "datasets", id), &dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (c *Client) CreateDataset(ctx context.Context, req CreateDatasetRequest) (*Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var dataset Dataset
	if err := c.send(ctx, "create dataset", "POST", c.url("api", "datasets"), req.wire(), &dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (c *Client) UpdateDataset(ctx context.Context, id string, req UpdateDatasetRequest) (*Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var dataset Dataset
	if err := c.send(ctx, opName("update dataset %s", id), "PUT", c.url("api", "datasets", id), req.wire(), &dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (c *Client) DeleteDataset(ctx context.Context, id string) error {
	return c.send(ctx, opName("delete dataset %s", id), "DELETE", c.url("api", "datasets", id), nil, nil)
}

func (c *Client) ListDatasetVersions(ctx context.Context, id string) ([]DatasetVersion, error) {
	raw, err := c.getRaw(ctx, opName("list versions of dataset %s", id), c.url("api", "datasets", id, "versions"))
	if err != nil {
		return nil, err
	}
	return decodeTyped[DatasetVersion](raw, "versions")
}

func (c *Client) CreateDatasetVersion(ctx context.Context, id string, req CreateDatasetVersionRequest) (*DatasetVersion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var version DatasetVersion
	err := c.send(ctx, opName("create version of dataset %s", id), "POST", c.url("api", "datasets", id, "versions"), req.wire(), &version)
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *Client) ListDatasetFiles(ctx context.Context, id, version string) ([]DatasetFile, error) {
	raw, err := c.getRaw(ctx, opName("list files of dataset %s@%s", id, version), c.url("api", "datasets", id, "versions", version, "files"))
	if err != nil {
		return nil, err
	}
	return decodeTyped[DatasetFile](raw, "files")
}

func (c *Client) UploadDatasetFile(ctx context.Context, id, version, name string, content io.Reader) (*DatasetFile, error) {
	var file DatasetFile
	req := cbhttp.NewRequest(ctx, "POST", c.url("api", "datasets", id, "versions", version, "files"),
		cbhttp.FormFile("file", name, content))
	if herr := c.http.DoNoResponse(req, jsonInto(&file)); herr != nil {
		return nil, failed(opName("upload %s to dataset %s@%s", name, id, version), herr)
	}
	return &file, nil
}

func (c *Client) DownloadDatasetFile(ctx context.Context, id, version, fileId string) ([]byte, error) {
	return c.getBytes(ctx, opName("download file %s of dataset %s@%s", fileId, id, version),
		c.url("api", "datasets", id, "versions", version, "files", fileId, "download"))
}
