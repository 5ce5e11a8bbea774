package restapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/loader"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/reconcilers/monitoring"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/app"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
	_ "github.infra.cloudera.com/CAI/MLOpsHub/pkg/test/gomega"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
	"k8s.io/apimachinery/pkg/api/resource"
)

var testNow = time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

type fixture struct {
	api       *httptest.Server
	backend   *httptest.Server
	snapshots *monitoring.Store

	lock  sync.Mutex
	hits  map[string]int
	auths []string
}

func (f *fixture) hit(r *http.Request) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.hits[r.Method+" "+r.URL.Path]++
	f.auths = append(f.auths, r.Header.Get("Authorization"))
}

func (f *fixture) count(key string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.hits[key]
}

// newFixture serves the hub API in front of a fake backend driven by handler.
func newFixture(t *testing.T, cfg *Config, handler http.HandlerFunc) *fixture {
	f := &fixture{hits: make(map[string]int), snapshots: monitoring.NewStore()}
	f.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hit(r)
		handler(w, r)
	}))
	t.Cleanup(f.backend.Close)

	httpClient, err := cbhttp.NewInstance(&cbhttp.Config{Timeout: 5 * time.Second})
	Expect(err).ToNot(HaveOccurred())
	connections, err := clientbase.NewConnections(&clientbase.Config{UserAgent: "hub-test"}, httpClient)
	Expect(err).ToNot(HaveOccurred())

	watch := &ltime.TestingWatch{Current: testNow}
	client := datasource.NewClient(&datasource.Config{BaseUrl: f.backend.URL}, connections, auth.ContextTokenProvider{}, watch)

	if cfg == nil {
		cfg = &Config{HistoryLimit: 50, DailyMetricsDays: 7}
	}
	api := NewHubAPI(cfg, client, loader.NewLoader(&loader.Config{CacheTTL: time.Minute}, watch), f.snapshots)

	instance, err := sbhttpserver.NewInstance(&sbhttpserver.Config{}, app.NewInstance())
	Expect(err).ToNot(HaveOccurred())
	Expect(instance.Register(&testServer{handlers: api.Handlers()})).To(Succeed())

	f.api = httptest.NewServer(instance.Handler())
	t.Cleanup(f.api.Close)
	return f
}

type testServer struct {
	sbhttpserver.MultiServer
	handlers []sbhttpserver.HandleDescription
}

func (s *testServer) GetHandlers() []sbhttpserver.HandleDescription {
	return s.handlers
}

func (f *fixture) do(method, path, token string, body io.Reader) *http.Response {
	req, err := http.NewRequest(method, f.api.URL+Prefix+path, body)
	Expect(err).ToNot(HaveOccurred())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	Expect(err).ToNot(HaveOccurred())
	return resp
}

type envelope struct {
	Data       json.RawMessage          `json:"data"`
	Warnings   []viewmodel.ParseWarning `json:"warnings"`
	Incomplete bool                     `json:"incomplete"`
}

func readEnvelope(resp *http.Response) envelope {
	defer resp.Body.Close()
	var env envelope
	Expect(json.NewDecoder(resp.Body).Decode(&env)).To(Succeed())
	return env
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	Expect(err).ToNot(HaveOccurred())
	return string(data)
}

func TestEnvelopeCarriesWarnings(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entrypoints": [
			{"id": "e1", "name": "iris", "path": "iris/predict", "created_at": "2024-03-01T10:00:00Z"},
			{"id": "e2", "name": "churn", "path": "churn", "created_at": "not a date"}
		]}`))
	})

	resp := f.do("GET", "/entrypoints", "", nil)
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	Expect(resp.Header.Get("Content-Type")).To(HavePrefix("application/json"))
	env := readEnvelope(resp)

	var data struct {
		Items []viewmodel.Entrypoint `json:"items"`
	}
	Expect(json.Unmarshal(env.Data, &data)).To(Succeed())
	Expect(data.Items).To(HaveLen(2))
	Expect(data.Items[0].Method).To(Equal("POST"))
	Expect(env.Incomplete).To(BeTrue())
	Expect(env.Warnings).ToNot(BeEmpty())
}

func TestCleanAnswerIsComplete(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "e1", "name": "iris", "path": "iris", "created_at": "2024-03-01T10:00:00Z", "updated_at": "2024-03-01T10:00:00Z"}`))
	})

	env := readEnvelope(f.do("GET", "/entrypoints/e1", "", nil))
	Expect(env.Incomplete).To(BeFalse())
	Expect(env.Warnings).ToNot(BeNil())
	Expect(env.Warnings).To(BeEmpty())
}

func TestReadsAreCachedPerCaller(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"registered_models": [{"name": "iris"}]}`))
	})

	for i := 0; i < 3; i++ {
		resp := f.do("GET", "/models", "alice", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		readBody(resp)
	}
	Expect(f.count("GET /api/models")).To(Equal(1))

	readBody(f.do("GET", "/models", "bob", nil))
	Expect(f.count("GET /api/models")).To(Equal(2))
	Expect(f.auths).To(Equal([]string{"Bearer alice", "Bearer bob"}))

	readBody(f.do("GET", "/models?search=iris", "bob", nil))
	Expect(f.count("GET /api/models")).To(Equal(3))
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`[]`))
	})

	var wg sync.WaitGroup
	var ok int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := f.do("GET", "/experiments", "alice", nil)
			readBody(resp)
			if resp.StatusCode == http.StatusOK {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	Eventually(func() int { return f.count("GET /api/experiments") }).Should(Equal(1))
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	Expect(atomic.LoadInt32(&ok)).To(Equal(int32(5)))
	Expect(f.count("GET /api/experiments")).To(Equal(1))
}

func TestMutationInvalidatesCachedReads(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "DELETE":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Write([]byte(`[{"id": "d1", "name": "iris"}]`))
		}
	})

	readBody(f.do("GET", "/datasets", "", nil))
	readBody(f.do("GET", "/datasets", "", nil))
	Expect(f.count("GET /api/datasets")).To(Equal(1))

	resp := f.do("DELETE", "/datasets/d1", "", nil)
	Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
	readBody(resp)

	readBody(f.do("GET", "/datasets", "", nil))
	Expect(f.count("GET /api/datasets")).To(Equal(2))
}

func TestValidationFailsWithoutCallingBackend(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	resp := f.do("POST", "/entrypoints", "", strings.NewReader(`{"name": "", "path": "bad path!"}`))
	Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	var body struct {
		Error  string                  `json:"error"`
		Fields []datasource.FieldError `json:"fields"`
	}
	Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
	resp.Body.Close()
	Expect(body.Fields).ToNot(BeEmpty())
	Expect(f.count("POST /api/entrypoints")).To(Equal(0))

	resp = f.do("POST", "/entrypoints", "", strings.NewReader(`{not json`))
	Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	readBody(resp)
}

func TestCreateAnswersCreated(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "e9", "name": "iris", "path": "iris/predict", "method": "post"}`))
	})

	resp := f.do("POST", "/entrypoints", "", strings.NewReader(`{"name": "iris", "path": "iris/predict", "inferenceServiceId": "s1"}`))
	Expect(resp.StatusCode).To(Equal(http.StatusCreated))
	env := readEnvelope(resp)
	var entrypoint viewmodel.Entrypoint
	Expect(json.Unmarshal(env.Data, &entrypoint)).To(Succeed())
	Expect(entrypoint.Id).To(Equal("e9"))
	Expect(entrypoint.Method).To(Equal("POST"))
}

func TestExpiredSessionRedirects(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	resp := f.do("GET", "/runs/r1", "stale", nil)
	Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	Expect(resp.Header.Get("Location")).To(Equal("/"))
	Expect(readBody(resp)).To(ContainSubstring("session expired"))
}

func TestBackendErrorsKeepTheirStatus(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`no such run`))
	})

	resp := f.do("GET", "/runs/missing", "", nil)
	Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	Expect(readBody(resp)).To(ContainSubstring("no such run"))
}

func TestUnreachableBackendIsBadGateway(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {})
	f.backend.Close()

	resp := f.do("GET", "/models", "", nil)
	Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
	readBody(resp)
}

func TestInvokeRelaysPayloadVerbatim(t *testing.T) {
	var received []byte
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		if r.URL.Path == "/api/entrypoints/broken/infer" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"detail": "feature count mismatch"}`))
			return
		}
		w.Write([]byte(`{"predictions": [1, 0]}`))
	})

	payload := `{"inputs": [[5.1, 3.5, 1.4, 0.2]]}`
	resp := f.do("POST", "/entrypoints/iris%2Fpredict/infer", "", strings.NewReader(payload))
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	Expect(readBody(resp)).To(Equal(`{"predictions": [1, 0]}`))
	Expect(string(received)).To(Equal(payload))
	Expect(f.count("POST /api/entrypoints/iris/predict/infer")).To(Equal(1))

	resp = f.do("POST", "/entrypoints/broken/infer", "", strings.NewReader(payload))
	Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
	Expect(readBody(resp)).To(Equal(`{"detail": "feature count mismatch"}`))

	resp = f.do("POST", "/entrypoints/iris/infer", "", strings.NewReader(`{oops`))
	Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	readBody(resp)
}

func TestInvokePayloadLimit(t *testing.T) {
	f := newFixture(t, &Config{PlaygroundMaxBody: resource.MustParse("16"), HistoryLimit: 50, DailyMetricsDays: 7},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

	resp := f.do("POST", "/entrypoints/iris/infer", "", bytes.NewReader([]byte(`{"inputs": [1, 2, 3, 4, 5, 6]}`)))
	Expect(resp.StatusCode).To(Equal(http.StatusRequestEntityTooLarge))
	readBody(resp)
	Expect(f.count("POST /api/entrypoints/iris/infer")).To(Equal(0))

	resp = f.do("POST", "/entrypoints/iris/infer", "", bytes.NewReader([]byte(`{"x": 1}`)))
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	readBody(resp)
}

func TestMonitoringServesSnapshots(t *testing.T) {
	f := newFixture(t, nil, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("monitoring must not call the backend, got %s %s", r.Method, r.URL.Path)
	})
	f.snapshots.Track("e1", "iris", "iris/predict")
	f.snapshots.Update("e1", viewmodel.Result[viewmodel.EntrypointMetrics]{
		Value: viewmodel.EntrypointMetrics{TotalRequests: 10, FailedRequests: 1, ErrorRate: 0.1},
	}, testNow)

	resp := f.do("GET", "/monitoring", "", nil)
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	env := readEnvelope(resp)
	var snapshots []monitoring.Snapshot
	Expect(json.Unmarshal(env.Data, &snapshots)).To(Succeed())
	Expect(snapshots).To(HaveLen(1))
	Expect(snapshots[0].EntrypointId).To(Equal("e1"))
	Expect(snapshots[0].Metrics.TotalRequests).To(Equal(int64(10)))
}

func TestQueryDefaultsAreForwarded(t *testing.T) {
	var queries []string
	f := newFixture(t, &Config{HistoryLimit: 25, DailyMetricsDays: 3}, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		w.Write([]byte(`[]`))
	})

	readBody(f.do("GET", "/entrypoints/e1/metrics/daily", "", nil))
	readBody(f.do("GET", "/entrypoints/e1/metrics/daily?days=30", "", nil))
	Expect(queries).To(HaveLen(2))
	Expect(queries[0]).To(ContainSubstring("days=3"))
	Expect(queries[1]).To(ContainSubstring("days=30"))

	resp := f.do("GET", "/entrypoints/e1/history?limit=many", "", nil)
	Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	readBody(resp)
}
