package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
)

// Snapshot is the latest metrics of one entrypoint.
type Snapshot struct {
	EntrypointId string                      `json:"entrypointId"`
	Name         string                      `json:"name"`
	Path         string                      `json:"path"`
	Metrics      viewmodel.EntrypointMetrics `json:"metrics"`
	Warnings     []viewmodel.ParseWarning    `json:"warnings,omitempty"`
	FetchedAt    time.Time                   `json:"fetchedAt"`
	LastError    string                      `json:"lastError,omitempty"`
}

type Store struct {
	lock      sync.RWMutex
	snapshots map[string]Snapshot
}

func NewStore() *Store {
	return &Store{snapshots: make(map[string]Snapshot)}
}

// Track registers an entrypoint so that it shows up before its first fetch.
func (s *Store) Track(id, name, path string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	snapshot := s.snapshots[id]
	snapshot.EntrypointId = id
	snapshot.Name = name
	snapshot.Path = path
	s.snapshots[id] = snapshot
}

// Retain drops every entrypoint not in ids.
func (s *Store) Retain(ids map[string]struct{}) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for id := range s.snapshots {
		if _, ok := ids[id]; !ok {
			delete(s.snapshots, id)
		}
	}
}

func (s *Store) Update(id string, metrics viewmodel.Result[viewmodel.EntrypointMetrics], at time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	snapshot, ok := s.snapshots[id]
	if !ok {
		// untracked since the fetch started
		return
	}
	snapshot.Metrics = metrics.Value
	snapshot.Warnings = metrics.Warnings
	snapshot.FetchedAt = at
	snapshot.LastError = ""
	s.snapshots[id] = snapshot
}

// Failed records err and keeps the previous metrics.
func (s *Store) Failed(id string, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	snapshot, ok := s.snapshots[id]
	if !ok {
		return
	}
	snapshot.LastError = err.Error()
	s.snapshots[id] = snapshot
}

func (s *Store) Get(id string) (Snapshot, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	snapshot, ok := s.snapshots[id]
	return snapshot, ok
}

// List returns every snapshot ordered by entrypoint id.
func (s *Store) List() []Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()
	ret := make([]Snapshot, 0, len(s.snapshots))
	for _, snapshot := range s.snapshots {
		ret = append(ret, snapshot)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].EntrypointId < ret[j].EntrypointId
	})
	return ret
}
