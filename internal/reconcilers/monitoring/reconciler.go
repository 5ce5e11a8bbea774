package monitoring

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/app"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/reconciler"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
)

// Reconciler keeps a snapshot of the metrics of every entrypoint.
type Reconciler struct {
	config *Config
	store  *Store
	source datasource.EntrypointStore
	watch  ltime.Watch
}

func NewReconciler(config *Config, store *Store, source datasource.EntrypointStore, watch ltime.Watch) *Reconciler {
	return &Reconciler{
		config: config,
		store:  store,
		source: source,
		watch:  watch,
	}
}

func (r *Reconciler) Name() string {
	return "monitoring-reconciler"
}

func (r *Reconciler) Reboot(_ context.Context) {}

func (r *Reconciler) Resync(ctx context.Context, queue *reconciler.ReconcileQueue[string]) {
	if !r.config.Enabled {
		return
	}
	log.Debugln("beginning monitoring reconciler resync")

	entrypoints, err := r.source.ListEntrypoints(ctx, datasource.ListEntrypointsOptions{})
	if err != nil {
		log.Printf("failed to list entrypoints: %s", err)
		return
	}

	ids := make(map[string]struct{}, len(entrypoints.Items))
	for _, entrypoint := range entrypoints.Items {
		if entrypoint.Id == "" {
			continue
		}
		ids[entrypoint.Id] = struct{}{}
		r.store.Track(entrypoint.Id, entrypoint.Name, entrypoint.Path)
		queue.Add(entrypoint.Id)
	}
	r.store.Retain(ids)

	if len(ids) > 0 {
		log.Debugf("queued %d entrypoints for monitoring", len(ids))
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, items []reconciler.ReconcileItem[string]) {
	log.Debugf("fetching metrics of %d entrypoints", len(items))
	for _, item := range items {
		metrics, err := r.source.GetEntrypointMetrics(ctx, item.ID)
		if err != nil {
			log.Printf("failed to fetch metrics of entrypoint %s: %s", item.ID, err)
			r.store.Failed(item.ID, err)
			item.Callback(err)
			continue
		}
		if len(metrics.Warnings) > 0 {
			log.Debugf("metrics of entrypoint %s had %d malformed fields", item.ID, len(metrics.Warnings))
		}
		r.store.Update(item.ID, metrics, r.watch.Now())
		item.Callback(nil)
	}
}

var _ reconciler.Reconciler[string] = &Reconciler{}

// Manager owns the reconciler's lifecycle; it does nothing when monitoring is disabled.
type Manager struct {
	manager *reconciler.Manager[string]
}

func NewManager(app *app.Instance, cfg *Config, rec *Reconciler) (*Manager, error) {
	log.Println("monitoring reconciler initializing")
	if !cfg.Enabled {
		return &Manager{}, nil
	}
	reconcilerConfig, err := reconciler.NewConfig(cfg.ResyncFrequency, cfg.MaxWorkers, cfg.RunMaxItems)
	if err != nil {
		return nil, err
	}
	return &Manager{manager: reconciler.NewManager[string](app.Context(), reconcilerConfig, rec)}, nil
}

func (m *Manager) Start() {
	if m.manager != nil {
		m.manager.Start()
	}
}

func (m *Manager) Finish() {
	if m.manager != nil {
		m.manager.Finish()
	}
}
