package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
)

var testNow = time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.Handler, tokens auth.TokenProvider) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient, err := cbhttp.NewInstance(&cbhttp.Config{Timeout: 5 * time.Second})
	require.NoError(t, err)
	connections, err := clientbase.NewConnections(&clientbase.Config{UserAgent: "hub-test"}, httpClient)
	require.NoError(t, err)

	return NewClient(&Config{BaseUrl: server.URL + "/"}, connections, tokens, &ltime.TestingWatch{Current: testNow})
}

func TestClientSendsBearerAndHandlesExpiredSession(t *testing.T) {
	var authorization, agent string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		agent = r.Header.Get("User-Agent")
		if r.URL.Path == "/api/experiments/7" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"experiment": {"experiment_id": "1", "name": "churn"}}`))
	}), auth.StaticTokenProvider("abc"))

	expired := 0
	client.OnSessionExpired(func(context.Context) { expired++ })

	result, err := client.GetExperiment(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "churn", result.Value.Name)
	assert.Equal(t, "Bearer abc", authorization)
	assert.Equal(t, "hub-test", agent)
	assert.Equal(t, 0, expired)

	_, err = client.GetExperiment(context.Background(), "7")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, http.StatusUnauthorized, lhttp.FromError(err).Code)
	assert.Equal(t, 1, expired)
}

func TestGatewayClientDropsRejectedServiceSession(t *testing.T) {
	var authorizations []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get("Authorization")
		authorizations = append(authorizations, authorization)
		if authorization != "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	httpClient, err := cbhttp.NewInstance(&cbhttp.Config{Timeout: 5 * time.Second})
	require.NoError(t, err)
	connections, err := clientbase.NewConnections(&clientbase.Config{UserAgent: "hub-test"}, httpClient)
	require.NoError(t, err)

	watch := &ltime.TestingWatch{Current: testNow}
	session := auth.NewSession(&auth.Config{}, httpClient, watch)
	session.Restore(auth.Tokens{AccessToken: "service", ExpiresAt: testNow.Add(time.Hour)})
	client := NewGatewayClient(&Config{BaseUrl: server.URL}, connections, session, watch)

	_, err = client.ListDatasets(auth.WithToken(context.Background(), "caller"), ListDatasetsOptions{})
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, ok := session.Tokens()
	assert.True(t, ok, "a rejected caller token must not end the service session")

	_, err = client.ListDatasets(context.Background(), ListDatasetsOptions{})
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, ok = session.Tokens()
	assert.False(t, ok)

	_, err = client.ListDatasets(context.Background(), ListDatasetsOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer caller", "Bearer service", ""}, authorizations)
}

func TestClientWithoutToken(t *testing.T) {
	var authorization []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Values("Authorization")
		w.Write([]byte(`[]`))
	}), auth.NoTokenProvider{})

	datasets, err := client.ListDatasets(context.Background(), ListDatasetsOptions{})
	require.NoError(t, err)
	assert.Empty(t, datasets)
	assert.Empty(t, authorization)
}

func TestClientErrorsPropagate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "database down"}`))
	}), auth.NoTokenProvider{})

	_, err := client.GetRun(context.Background(), "r1")
	require.Error(t, err)
	herr := lhttp.FromError(err)
	assert.Equal(t, http.StatusInternalServerError, herr.Code)
	assert.Equal(t, `{"detail": "database down"}`, herr.Message)
	assert.False(t, herr.IsTransport())
}

func TestListDatasetsQueryAndTags(t *testing.T) {
	var query string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/datasets", r.URL.Path)
		query = r.URL.RawQuery
		w.Write([]byte(`{"datasets": [
			{"id": "d1", "name": "iris", "tags": "[\"flowers\",\"tabular\"]"},
			{"id": "d2", "name": "mnist", "tags": ["images"]},
			{"id": "d3", "name": "broken", "tags": "{oops"}
		]}`))
	}), auth.NoTokenProvider{})

	datasets, err := client.ListDatasets(context.Background(), ListDatasetsOptions{Search: "iris", PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, "page_size=20&search=iris", query)

	require.Len(t, datasets, 3)
	assert.Equal(t, Tags{"flowers", "tabular"}, datasets[0].Tags)
	assert.Equal(t, Tags{"images"}, datasets[1].Tags)
	assert.Equal(t, Tags{}, datasets[2].Tags)
}

func TestCreateDatasetValidatesBeforeSending(t *testing.T) {
	var requests int32
	var body map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, "POST", r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"id": "d9", "name": "iris", "tags": "[\"x\",\"y\"]"}`))
	}), auth.NoTokenProvider{})

	_, err := client.CreateDataset(context.Background(), CreateDatasetRequest{Name: ""})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "dataset", verr.Kind)
	assert.NotEmpty(t, verr.Fields)
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))

	dataset, err := client.CreateDataset(context.Background(), CreateDatasetRequest{Name: "iris", Tags: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "d9", dataset.Id)
	assert.Equal(t, `["x","y"]`, body["tags"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestCreateInferenceServiceSerializesConfig(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"id": "svc-1", "name": "iris-svc", "status": "PENDING", "deployment_config": ` +
			`"{\"replicas\": 2}", "tags": "[\"prod\"]"}`))
	}), auth.NoTokenProvider{})

	config := viewmodel.DefaultDeploymentConfig()
	config.Replicas = 2

	bad := InferenceServiceRequest{Name: "Iris Service", ModelName: "iris", DeploymentConfig: config}
	bad.DeploymentConfig.Resources.CPU = "lots"
	_, err := client.CreateInferenceService(context.Background(), bad)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0)
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "deploymentConfig.resources.cpu")
	assert.Nil(t, body)

	result, err := client.CreateInferenceService(context.Background(), InferenceServiceRequest{
		Name: "iris-svc", ModelName: "iris", ModelVersion: "3", Tags: []string{"prod"}, DeploymentConfig: config,
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", result.Value.Status)
	assert.Equal(t, 2, result.Value.DeploymentConfig.Replicas)
	assert.Equal(t, []string{"prod"}, result.Value.Tags)

	assert.Equal(t, `["prod"]`, body["tags"])
	assert.Equal(t, "iris", body["model_name"])
	var wireConfig viewmodel.DeploymentConfig
	require.NoError(t, json.Unmarshal([]byte(body["deployment_config"].(string)), &wireConfig))
	assert.Equal(t, config, wireConfig)
}

func TestListRunsAcceptsEveryEnvelope(t *testing.T) {
	var query string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"runs": [
			{"run_id": "r1", "status": "FINISHED", "start_time": 1710505740000, "end_time": 1710505800000},
			{"info": {"run_id": "r2", "status": "RUNNING", "start_time": 1710505740000}, "data": {}},
			{"run": {"info": {"run_id": "r3", "status": "FAILED", "start_time": "garbage"}}},
			42
		], "next_page_token": "p2"}`))
	}), auth.NoTokenProvider{})

	runs, err := client.ListRuns(context.Background(), ListRunsOptions{ExperimentId: "4", MaxResults: 50})
	require.NoError(t, err)
	assert.Equal(t, "experiment_id=4&max_results=50", query)

	require.Len(t, runs.Items, 3)
	assert.Equal(t, "r1", runs.Items[0].Id)
	assert.Equal(t, int64(60), runs.Items[0].Duration)
	assert.Equal(t, "running", runs.Items[1].Status)
	assert.Equal(t, int64(60), runs.Items[1].Duration)
	assert.Equal(t, "failed", runs.Items[2].Status)
	assert.Equal(t, "p2", runs.NextPageToken)

	assert.True(t, runs.Incomplete())
	kinds := make([]string, 0)
	for _, w := range runs.Warnings {
		kinds = append(kinds, w.Field)
	}
	assert.ElementsMatch(t, []string{"start_time", "items"}, kinds)
}

func TestGetMetricHistory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/runs/r1/metrics/history", r.URL.Path)
		assert.Equal(t, "loss", r.URL.Query().Get("metric_key"))
		w.Write([]byte(`{"metrics": [
			{"key": "loss", "value": 0.5, "step": 1, "timestamp": 1710505740000},
			{"key": "loss", "value": "0.25", "step": "2", "timestamp": 1710505800000}
		]}`))
	}), auth.NoTokenProvider{})

	history, err := client.GetMetricHistory(context.Background(), "r1", "loss")
	require.NoError(t, err)
	assert.False(t, history.Incomplete())
	assert.Equal(t, []MetricPoint{
		{Key: "loss", Value: 0.5, Step: 1, Timestamp: "2024-03-15T12:29:00.000Z"},
		{Key: "loss", Value: 0.25, Step: 2, Timestamp: "2024-03-15T12:30:00.000Z"},
	}, history.Value)
}

func TestArtifactTreeFollowsPages(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/runs/r1/artifacts", r.URL.Path)
		path := r.URL.Query().Get("path")
		switch {
		case path == "" && r.URL.Query().Get("page_token") == "":
			w.Write([]byte(`{"root_uri": "s3://bucket/r1", "files": [{"path": "iris_model", "is_dir": true}], "next_page_token": "t1"}`))
		case path == "":
			w.Write([]byte(`{"files": [{"path": "metrics.json", "is_dir": false, "file_size": "12"}]}`))
		case path == "iris_model":
			w.Write([]byte(`{"files": [
				{"path": "iris_model/MLmodel", "is_dir": false, "file_size": 927},
				{"path": "iris_model/model.pkl", "is_dir": false, "file_size": 1024}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}), auth.NoTokenProvider{})

	tree, err := ArtifactTree(context.Background(), client, "r1", "")
	require.NoError(t, err)
	require.Len(t, tree.Roots, 2)
	assert.False(t, tree.Roots[0].Loaded)
	assert.Equal(t, int64(12), tree.Roots[1].Size)

	require.NoError(t, ExpandArtifactDir(context.Background(), client, tree, "r1", "iris_model"))
	model := tree.Find("iris_model")
	assert.True(t, model.Loaded)
	require.Len(t, model.Children, 2)
	assert.True(t, tree.Find("iris_model/model.pkl").IsBinary)

	err = ExpandArtifactDir(context.Background(), client, tree, "r1", "missing")
	assert.Equal(t, http.StatusNotFound, lhttp.FromError(err).Code)
}

func TestDownloadArtifactKeepsBytes(t *testing.T) {
	payload := []byte{0x80, 0x04, 0x95, 0x00, 0xff, 0xfe}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "iris_model/model.pkl", r.URL.Query().Get("path"))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(payload)
	}), auth.NoTokenProvider{})

	content, err := client.DownloadArtifact(context.Background(), "r1", "iris_model/model.pkl")
	require.NoError(t, err)
	assert.Equal(t, payload, content)

	stream, err := client.StreamArtifact(context.Background(), "r1", "iris_model/model.pkl")
	require.NoError(t, err)
	defer stream.Close()
	streamed, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, payload, streamed)
}

func TestInvokeEntrypoint(t *testing.T) {
	var received string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, _ := io.ReadAll(r.Body)
		received = string(content)
		if r.URL.Path == "/api/entrypoints/iris/predict/infer" {
			w.Write([]byte(`{"prediction": "setosa"}`))
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": [{"loc": ["body", "features"], "msg": "field required"}]}`))
	}), auth.NoTokenProvider{})

	payload := json.RawMessage(`{"features": [5.1, 3.5, 1.4, 0.2],  "extra": null}`)
	answer, err := client.InvokeEntrypoint(context.Background(), "/iris/predict", payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prediction": "setosa"}`, string(answer))
	assert.Equal(t, string(payload), received)

	_, err = client.InvokeEntrypoint(context.Background(), "other", json.RawMessage(`{}`))
	var ierr *InvocationError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, http.StatusUnprocessableEntity, ierr.StatusCode)
	assert.True(t, strings.Contains(string(ierr.Body), "field required"))
}

func TestEntrypointMetricsAndDaily(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/entrypoints/ep-1/metrics":
			w.Write([]byte(`{"total_requests": 10, "successful_requests": 9, "failed_requests": 1, "avg_latency_ms": 12.5, "error_rate": 0.1}`))
		case "/api/entrypoints/ep-1/metrics/daily":
			assert.Equal(t, "7", r.URL.Query().Get("days"))
			w.Write([]byte(`[{"date": "2024-03-14", "total_requests": 4}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}), auth.NoTokenProvider{})

	metrics, err := client.GetEntrypointMetrics(context.Background(), "ep-1")
	require.NoError(t, err)
	assert.Equal(t, viewmodel.EntrypointMetrics{TotalRequests: 10, SuccessfulRequests: 9, FailedRequests: 1, AverageLatencyMs: 12.5, ErrorRate: 0.1}, metrics.Value)

	daily, err := client.GetDailyMetrics(context.Background(), "ep-1", 7)
	require.NoError(t, err)
	require.Len(t, daily.Items, 1)
	assert.Equal(t, int64(4), daily.Items[0].TotalRequests)
}

func TestUrlEscapesSegments(t *testing.T) {
	client := &Client{baseUrl: "http://hub"}
	assert.Equal(t, "http://hub/api/models/iris%20v2/versions", client.url("api", "models", "iris v2", "versions"))
	assert.Equal(t, "http://hub/api/datasets/a%2Fb", client.url("api", "datasets", "a/b"))
}
