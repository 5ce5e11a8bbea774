package app

import (
	"context"
	"io"
	"sync"
)

// Instance owns the process lifetime: a context cancelled on shutdown and the closers run after it.
type Instance struct {
	closers  []io.Closer
	lock     sync.Mutex
	failed   bool
	stop     chan struct{}
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewInstance() *Instance {
	ctx, cancel := context.WithCancel(context.Background())
	return &Instance{
		stop:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (instance *Instance) Context() context.Context {
	return instance.ctx
}

func ContextFromInstance(instance *Instance) context.Context {
	return instance.ctx
}
