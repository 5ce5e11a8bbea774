package reconciler

import (
	"sync"
	"time"

	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
)

type Key interface {
	int64 | uint64 | string
}

// ReconcileQueue holds each id in at most one of three states: pending, running or waiting for a retry.
type ReconcileQueue[T Key] struct {
	pending      map[T]struct{}
	running      map[T]struct{}
	toRetry      map[T]time.Time
	retryDelay   time.Duration
	wakeup       chan bool
	shutdown     chan bool
	shuttingDown bool
	lock         sync.Mutex
}

type ReconcileItemCallback func(error)

// ReconcileItem is handed to Reconcile. Callback must be called once the item is done; a non-nil error
// schedules a retry.
type ReconcileItem[T Key] struct {
	ID       T
	Callback ReconcileItemCallback
}

func NewReconcileQueue[T Key](retryDelay time.Duration) *ReconcileQueue[T] {
	q := &ReconcileQueue[T]{
		pending:    make(map[T]struct{}),
		running:    make(map[T]struct{}),
		toRetry:    make(map[T]time.Time),
		retryDelay: retryDelay,
		wakeup:     make(chan bool, 1),
		shutdown:   make(chan bool, 1),
	}

	go q.runRetry()

	return q
}

func (q *ReconcileQueue[T]) retryTick() time.Duration {
	if q.retryDelay < time.Second {
		return q.retryDelay
	}
	return time.Second
}

func (q *ReconcileQueue[T]) runRetry() {
	// toRetry -> pending
	for {
		select {
		case <-q.shutdown:
			q.lock.Lock()
			q.shuttingDown = true
			q.lock.Unlock()
			close(q.wakeup)
			return
		default:
		}

		ltime.Sleep(q.retryTick())

		q.lock.Lock()
		now := time.Now()
		for id, retryTime := range q.toRetry {
			if now.After(retryTime) {
				q.pending[id] = struct{}{}
				delete(q.toRetry, id)
				q.signal()
			}
		}
		q.lock.Unlock()
	}
}

// signal wakes a parked Pop. Callers hold the lock.
func (q *ReconcileQueue[T]) signal() {
	if q.shuttingDown {
		return
	}
	select {
	case q.wakeup <- true:
	default:
	}
}

// Add queues id unless it is already pending, running or waiting for a retry.
func (q *ReconcileQueue[T]) Add(id T) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if _, ok := q.pending[id]; ok {
		return
	}
	if _, ok := q.running[id]; ok {
		return
	}
	if _, ok := q.toRetry[id]; ok {
		return
	}
	q.pending[id] = struct{}{}
	q.signal()
}

// Len counts ids in any state.
func (q *ReconcileQueue[T]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.pending) + len(q.running) + len(q.toRetry)
}

// Pop moves up to max pending ids to running, parking until there is one. It returns an empty slice once
// the queue shuts down.
func (q *ReconcileQueue[T]) Pop(max int) []ReconcileItem[T] {
	for {
		q.lock.Lock()
		if q.shuttingDown {
			q.lock.Unlock()
			return nil
		}

		ret := make([]ReconcileItem[T], 0)
		for id := range q.pending {
			ret = append(ret, ReconcileItem[T]{
				ID:       id,
				Callback: q.getCallback(id),
			})
			if len(ret) == max {
				break
			}
		}

		if len(ret) > 0 {
			for _, item := range ret {
				delete(q.pending, item.ID)
				q.running[item.ID] = struct{}{}
			}
			q.lock.Unlock()
			return ret
		}

		q.lock.Unlock()
		<-q.wakeup
	}
}

func (q *ReconcileQueue[T]) getCallback(id T) ReconcileItemCallback {
	// running -> nil|toRetry
	return func(err error) {
		q.lock.Lock()
		defer q.lock.Unlock()
		delete(q.running, id)
		if err != nil {
			q.toRetry[id] = time.Now().Add(ltime.JitteredDuration(q.retryDelay))
		}
	}
}

// Shutdown releases parked Pop calls. It is safe to call more than once.
func (q *ReconcileQueue[T]) Shutdown() {
	select {
	case q.shutdown <- true:
	default:
	}
}
