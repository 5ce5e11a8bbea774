package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/app"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/reconciler"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
)

var testNow = time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

func newSource() *datasource.EntrypointStoreMock {
	return &datasource.EntrypointStoreMock{
		Entrypoints: []viewmodel.Entrypoint{
			{Id: "ep-1", Name: "predict", Path: "iris/predict"},
			{Id: "ep-2", Name: "explain", Path: "iris/explain"},
		},
		MetricsById: map[string]viewmodel.EntrypointMetrics{
			"ep-1": {TotalRequests: 10, SuccessfulRequests: 9, FailedRequests: 1, ErrorRate: 0.1},
			"ep-2": {TotalRequests: 3, SuccessfulRequests: 3},
		},
		FailMetricsOnce: map[string]bool{},
	}
}

func newTestReconciler(source datasource.EntrypointStore) (*Reconciler, *Store, *reconciler.ReconcileQueue[string]) {
	store := NewStore()
	cfg := &Config{Enabled: true, ResyncFrequency: time.Hour, MaxWorkers: 1, RunMaxItems: 10}
	queue := reconciler.NewReconcileQueue[string](time.Hour)
	return NewReconciler(cfg, store, source, &ltime.TestingWatch{Current: testNow}), store, queue
}

func TestResyncAndReconcile(t *testing.T) {
	source := newSource()
	r, store, queue := newTestReconciler(source)
	defer queue.Shutdown()

	r.Resync(context.Background(), queue)
	assert.Equal(t, 2, queue.Len())

	tracked := store.List()
	require.Len(t, tracked, 2)
	assert.True(t, tracked[0].FetchedAt.IsZero())

	r.Reconcile(context.Background(), queue.Pop(10))
	assert.Equal(t, 0, queue.Len())

	snapshot, ok := store.Get("ep-1")
	require.True(t, ok)
	assert.Equal(t, "predict", snapshot.Name)
	assert.Equal(t, int64(10), snapshot.Metrics.TotalRequests)
	assert.Equal(t, testNow, snapshot.FetchedAt)
	assert.Empty(t, snapshot.LastError)
}

func TestFailedFetchIsRetried(t *testing.T) {
	source := newSource()
	source.FailMetricsOnce["ep-2"] = true
	r, store, queue := newTestReconciler(source)
	defer queue.Shutdown()

	r.Resync(context.Background(), queue)
	r.Reconcile(context.Background(), queue.Pop(10))

	snapshot, _ := store.Get("ep-2")
	assert.NotEmpty(t, snapshot.LastError)
	assert.True(t, snapshot.FetchedAt.IsZero())

	// waiting for a retry, so a resync does not queue it twice
	assert.Equal(t, 1, queue.Len())
	r.Resync(context.Background(), queue)
	assert.Equal(t, 1, queue.Len())
}

func TestResyncForgetsRemovedEntrypoints(t *testing.T) {
	source := newSource()
	r, store, queue := newTestReconciler(source)
	defer queue.Shutdown()

	r.Resync(context.Background(), queue)
	source.Entrypoints = source.Entrypoints[:1]
	r.Resync(context.Background(), queue)

	_, ok := store.Get("ep-2")
	assert.False(t, ok)
	assert.Len(t, store.List(), 1)
}

func TestDisabledResyncQueuesNothing(t *testing.T) {
	r, store, queue := newTestReconciler(newSource())
	defer queue.Shutdown()
	r.config.Enabled = false

	r.Resync(context.Background(), queue)
	assert.Equal(t, 0, queue.Len())
	assert.Empty(t, store.List())
}

func TestManagerFillsStore(t *testing.T) {
	source := newSource()
	store := NewStore()
	cfg := &Config{Enabled: true, ResyncFrequency: time.Hour, MaxWorkers: 1, RunMaxItems: 10}
	rec := NewReconciler(cfg, store, source, ltime.NewWallWatch())

	manager, err := NewManager(app.NewInstance(), cfg, rec)
	require.NoError(t, err)
	manager.Start()
	defer manager.Finish()

	require.Eventually(t, func() bool {
		return source.Calls("ep-1") == 1 && source.Calls("ep-2") == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		snapshot, _ := store.Get("ep-2")
		return !snapshot.FetchedAt.IsZero()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDisabledManagerIsInert(t *testing.T) {
	cfg := &Config{Enabled: false}
	manager, err := NewManager(app.NewInstance(), cfg, NewReconciler(cfg, NewStore(), newSource(), ltime.NewWallWatch()))
	require.NoError(t, err)
	manager.Start()
	manager.Finish()
}
