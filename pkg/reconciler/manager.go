package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	ResyncFrequency time.Duration
	MaxWorkers      int
	RunMaxItems     int
	// RetryDelay is how long a failed item waits before it is pending again.
	RetryDelay time.Duration
	// NewTicker drives resyncs. Defaults to a wall-clock ticker.
	NewTicker func(time.Duration) ltime.Ticker
}

var ErrInvalidResyncFrequency = fmt.Errorf("invalid resync frequency")
var ErrInvalidMaxWorkers = fmt.Errorf("invalid max workers")
var ErrInvalidRunMaxItems = fmt.Errorf("invalid run max items")

const defaultRetryDelay = 5 * time.Second

func NewConfig(resyncFrequency time.Duration, maxWorkers, runMaxItems int) (*Config, error) {
	if resyncFrequency < 1*time.Millisecond {
		return nil, ErrInvalidResyncFrequency
	}
	if maxWorkers < 1 {
		return nil, ErrInvalidMaxWorkers
	}
	if runMaxItems < 1 {
		return nil, ErrInvalidRunMaxItems
	}
	return &Config{
		ResyncFrequency: resyncFrequency,
		MaxWorkers:      maxWorkers,
		RunMaxItems:     runMaxItems,
		RetryDelay:      defaultRetryDelay,
		NewTicker: func(d time.Duration) ltime.Ticker {
			return ltime.NewWallTicker(d)
		},
	}, nil
}

// Manager runs one resync loop and MaxWorkers reconcile workers sharing a queue.
type Manager[T Key] struct {
	reconciler Reconciler[T]
	config     *Config
	context    context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	queue      *ReconcileQueue[T]
	tracer     trace.Tracer
}

func NewManager[T Key](ctx context.Context, cfg *Config, reconciler Reconciler[T]) *Manager[T] {
	if reconciler == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)

	tracer := otel.Tracer("reconciler_" + reconciler.Name())

	func() {
		ctx, span := startSpan(ctx, tracer, reconciler.Name()+".Reboot")
		defer span.End()

		reconciler.Reboot(ctx)
	}()

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	return &Manager[T]{
		reconciler: reconciler,
		config:     cfg,
		context:    ctx,
		cancel:     cancel,
		queue:      NewReconcileQueue[T](retryDelay),
		tracer:     tracer,
	}
}

func startSpan(ctx context.Context, tracer trace.Tracer, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func (r *Manager[T]) resync() {
	ctx, span := startSpan(r.context, r.tracer, r.reconciler.Name()+".Resync")
	defer span.End()

	r.reconciler.Resync(ctx, r.queue)
}

func (r *Manager[T]) Start() {
	newTicker := r.config.NewTicker
	if newTicker == nil {
		newTicker = func(d time.Duration) ltime.Ticker { return ltime.NewWallTicker(d) }
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.resync()

		ticker := newTicker(r.config.ResyncFrequency)
		defer ticker.Close()
		for {
			select {
			case <-ticker.Channel():
				r.resync()
			case <-r.context.Done():
				log.Debugf("reconciler Resync %s shutting down", r.reconciler.Name())
				return
			}
		}
	}()

	r.wg.Add(r.config.MaxWorkers)
	for i := 0; i < r.config.MaxWorkers; i++ {
		go func() {
			defer r.wg.Done()

			for {
				select {
				case <-r.context.Done():
					log.Debugf("reconciler Reconcile %s shutting down", r.reconciler.Name())
					return
				default:
				}

				items := r.queue.Pop(r.config.RunMaxItems)
				if len(items) == 0 {
					continue
				}
				func() {
					ctx, span := startSpan(r.context, r.tracer, r.reconciler.Name()+".Reconcile",
						attribute.Int("reconciler.items", len(items)))
					defer span.End()

					r.reconciler.Reconcile(ctx, items)
				}()
			}
		}()
	}
}

// Finish stops the resync loop and the workers and waits for them to return.
func (r *Manager[T]) Finish() {
	r.queue.Shutdown()
	r.cancel()
	r.wg.Wait()
}
