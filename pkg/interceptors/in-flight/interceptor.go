package interceptors_inflight

import (
	"context"

	log "github.com/sirupsen/logrus"
	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	"golang.org/x/sync/semaphore"
	"net/http"
)

type Config struct {
	// Zero size means disabled and let everything through
	Size     uint64 `env:"INTERCEPTOR_LIMIT_INFLIGHT_SIZE" envDefault:"0"`
	Blocking bool   `env:"INTERCEPTOR_LIMIT_INFLIGHT_BLOCKING" envDefault:"true"`
}

func NewConfigFromEnv() (Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Interceptor caps the number of requests served at once. Blocking callers wait for a slot until their
// context ends; non-blocking callers are turned away with 429.
type Interceptor struct {
	cfg Config
	sem *semaphore.Weighted
}

func NewInterceptor(cfg Config) *Interceptor {
	return &Interceptor{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.Size)),
	}
}

type checkResult struct {
	allowed bool
	err     error
	done    func()
}

func (interceptor *Interceptor) check(ctx context.Context) checkResult {
	result := checkResult{
		done: func() {},
	}
	if interceptor.cfg.Size > 0 {
		if !interceptor.cfg.Blocking {
			if !interceptor.sem.TryAcquire(1) {
				return result
			}
		} else {
			if err := interceptor.sem.Acquire(ctx, 1); err != nil {
				result.err = err
				return result
			}
		}
		result.done = func() {
			interceptor.sem.Release(1)
		}
	}
	result.allowed = true
	return result
}

func (interceptor *Interceptor) ToHTTP() sbhttpbase.MiddlewareFunc {
	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		result := interceptor.check(request.Request.Context())
		defer result.done()
		if result.err != nil {
			log.Debugf("gave up waiting for a slot for %s: %s", request.Request.URL.Path, result.err)
			lhttp.NewInternalError("request abandoned while queued").WriteResponse(request.Writer)
			return
		}
		if !result.allowed {
			(&lhttp.HttpError{Code: http.StatusTooManyRequests, Message: "too many requests"}).WriteResponse(request.Writer)
			return
		}
		next(request)
	}
}
