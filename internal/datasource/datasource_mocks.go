package datasource

import (
	"context"
	"encoding/json"
	"sync"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

// EntrypointStoreMock serves entrypoints and their metrics from memory.
type EntrypointStoreMock struct {
	Entrypoints     []viewmodel.Entrypoint
	MetricsById     map[string]viewmodel.EntrypointMetrics
	FailMetricsOnce map[string]bool

	lock         sync.Mutex
	MetricsCalls map[string]int
}

var _ EntrypointStore = &EntrypointStoreMock{}

func (m *EntrypointStoreMock) ListEntrypoints(_ context.Context, _ ListEntrypointsOptions) (List[viewmodel.Entrypoint], error) {
	return List[viewmodel.Entrypoint]{Items: m.Entrypoints}, nil
}

func (m *EntrypointStoreMock) GetEntrypoint(_ context.Context, id string) (viewmodel.Result[viewmodel.Entrypoint], error) {
	for _, e := range m.Entrypoints {
		if e.Id == id {
			return viewmodel.Result[viewmodel.Entrypoint]{Value: e}, nil
		}
	}
	return viewmodel.Result[viewmodel.Entrypoint]{}, lhttp.NewNotFound("entrypoint " + id)
}

func (m *EntrypointStoreMock) CreateEntrypoint(_ context.Context, req EntrypointRequest) (viewmodel.Result[viewmodel.Entrypoint], error) {
	if err := req.Validate(); err != nil {
		return viewmodel.Result[viewmodel.Entrypoint]{}, err
	}
	e := viewmodel.Entrypoint{Id: req.Name, Name: req.Name, Path: req.Path, Method: "POST", InferenceServiceId: req.InferenceServiceId, Tags: req.Tags}
	m.Entrypoints = append(m.Entrypoints, e)
	return viewmodel.Result[viewmodel.Entrypoint]{Value: e}, nil
}

func (m *EntrypointStoreMock) UpdateEntrypoint(ctx context.Context, id string, req EntrypointRequest) (viewmodel.Result[viewmodel.Entrypoint], error) {
	if err := m.DeleteEntrypoint(ctx, id); err != nil {
		return viewmodel.Result[viewmodel.Entrypoint]{}, err
	}
	return m.CreateEntrypoint(ctx, req)
}

func (m *EntrypointStoreMock) DeleteEntrypoint(_ context.Context, id string) error {
	for i, e := range m.Entrypoints {
		if e.Id == id {
			m.Entrypoints = append(m.Entrypoints[:i], m.Entrypoints[i+1:]...)
			return nil
		}
	}
	return lhttp.NewNotFound("entrypoint " + id)
}

func (m *EntrypointStoreMock) InvokeEntrypoint(_ context.Context, path string, payload json.RawMessage) (json.RawMessage, error) {
	return payload, nil
}

func (m *EntrypointStoreMock) GetInvocationHistory(_ context.Context, _ string, _ int) (List[viewmodel.Invocation], error) {
	return List[viewmodel.Invocation]{Items: []viewmodel.Invocation{}}, nil
}

func (m *EntrypointStoreMock) GetEntrypointMetrics(_ context.Context, id string) (viewmodel.Result[viewmodel.EntrypointMetrics], error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.MetricsCalls == nil {
		m.MetricsCalls = make(map[string]int)
	}
	m.MetricsCalls[id]++

	if m.FailMetricsOnce[id] && m.MetricsCalls[id] == 1 {
		return viewmodel.Result[viewmodel.EntrypointMetrics]{}, lhttp.NewBadGateway("metrics unavailable")
	}
	metrics, ok := m.MetricsById[id]
	if !ok {
		return viewmodel.Result[viewmodel.EntrypointMetrics]{}, lhttp.NewNotFound("entrypoint " + id)
	}
	return viewmodel.Result[viewmodel.EntrypointMetrics]{Value: metrics}, nil
}

func (m *EntrypointStoreMock) GetDailyMetrics(_ context.Context, _ string, _ int) (List[viewmodel.DailyMetric], error) {
	return List[viewmodel.DailyMetric]{Items: []viewmodel.DailyMetric{}}, nil
}

func (m *EntrypointStoreMock) Calls(id string) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.MetricsCalls[id]
}
