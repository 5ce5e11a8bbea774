package loader

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
	"golang.org/x/sync/singleflight"
)

type LoadFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	resource string
	value    interface{}
	expires  time.Time
}

// Loader collapses concurrent loads of the same key into one execution and keeps successful results for
// a short TTL. Failed loads are never kept, so the next call tries again.
type Loader struct {
	group       singleflight.Group
	ttl         time.Duration
	watch       ltime.Watch
	lock        sync.Mutex
	entries     map[string]entry
	generations map[string]uint64
}

func NewLoader(cfg *Config, watch ltime.Watch) *Loader {
	return &Loader{
		ttl:         cfg.CacheTTL,
		watch:       watch,
		entries:     make(map[string]entry),
		generations: make(map[string]uint64),
	}
}

// Do returns the cached value for key or runs fn, sharing one execution between concurrent callers. A caller
// whose ctx ends stops waiting; the shared execution continues for the others.
func (l *Loader) Do(ctx context.Context, key Key, fn LoadFunc) (interface{}, error) {
	id, err := key.id()
	if err != nil {
		return nil, err
	}

	if value, ok := l.cached(id); ok {
		loadsTotal.WithLabelValues(key.Resource, "hit").Inc()
		return value, nil
	}

	generation := l.generation(key.Resource)
	ch := l.group.DoChan(id, func() (interface{}, error) {
		value, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			log.Debugf("load of %s failed: %s", id, err)
			loadsTotal.WithLabelValues(key.Resource, "failed").Inc()
			return nil, err
		}
		loadsTotal.WithLabelValues(key.Resource, "fetched").Inc()
		l.store(id, key.Resource, generation, value)
		return value, nil
	})

	select {
	case result := <-ch:
		if result.Shared {
			loadsTotal.WithLabelValues(key.Resource, "shared").Inc()
		}
		return result.Val, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Load is the typed form of Loader.Do.
func Load[T any](ctx context.Context, l *Loader, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	value, err := l.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, _ := value.(T)
	return typed, nil
}

func (l *Loader) cached(id string) (interface{}, bool) {
	if l.ttl <= 0 {
		return nil, false
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return nil, false
	}
	if !l.watch.Now().Before(e.expires) {
		delete(l.entries, id)
		return nil, false
	}
	return e.value, true
}

func (l *Loader) generation(resource string) uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.generations[resource]
}

func (l *Loader) store(id, resource string, generation uint64, value interface{}) {
	if l.ttl <= 0 {
		return
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	// Invalidated while loading
	if l.generations[resource] != generation {
		return
	}
	l.entries[id] = entry{
		resource: resource,
		value:    value,
		expires:  l.watch.Now().Add(l.ttl),
	}
}

// Invalidate drops every cached entry of resource, including results of loads still in flight.
func (l *Loader) Invalidate(resource string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.generations[resource]++
	for id, e := range l.entries {
		if e.resource == resource {
			delete(l.entries, id)
		}
	}
}

// Forget drops the cached entry of key, and detaches a load in flight so that the next call starts anew.
func (l *Loader) Forget(key Key) {
	id, err := key.id()
	if err != nil {
		return
	}
	l.group.Forget(id)

	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.entries, id)
}
