package reconcilers

import (
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/reconcilers/monitoring"
)

// ReconcilerSet starts and stops every background reconciler of the gateway.
type ReconcilerSet struct {
	MonitoringReconciler *monitoring.Reconciler

	monitoringManager *monitoring.Manager
}

func NewReconcilerSet(monitoringReconciler *monitoring.Reconciler, monitoringManager *monitoring.Manager) *ReconcilerSet {
	return &ReconcilerSet{
		MonitoringReconciler: monitoringReconciler,
		monitoringManager:    monitoringManager,
	}
}

func (r *ReconcilerSet) Start() {
	r.monitoringManager.Start()
}

func (r *ReconcilerSet) Finish() {
	r.monitoringManager.Finish()
}
