package sbhttpserver

import (
	"net/http"

	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
	lgzip "github.infra.cloudera.com/CAI/MLOpsHub/pkg/gzip"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/http/interceptors"
	interceptors_inflight "github.infra.cloudera.com/CAI/MLOpsHub/pkg/interceptors/in-flight"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
)

type BaseInterceptorsConfig struct {
	DisableGzipRequestDecompression bool
	DisableGzipResponseCompression  bool
	DisableLimiter                  bool
	// Responses carry data scoped to the caller's session and must not be kept by shared caches
	DisableNoStore bool `env:"HUB_DISABLE_NO_STORE" envDefault:"false"`
	LogIO          interceptors.LogIOConfig
}

var baseDefault BaseInterceptorsConfig

func init() {
	lconfig.MustParse(&baseDefault)
}

// NewBaseInterceptorsConfigFromEnv returns the defaults with the body logging switches read from the environment.
func NewBaseInterceptorsConfigFromEnv() BaseInterceptorsConfig {
	return baseDefault
}

func GetBaseInterceptors(cfg BaseInterceptorsConfig, limiter *interceptors_inflight.Interceptor) []sbhttpbase.RegistrableMiddleware {
	ret := []sbhttpbase.RegistrableMiddleware{}

	if !cfg.DisableLimiter && limiter != nil {
		ret = append(ret, limiter.ToHTTP())
	}

	if cfg.LogIO.Enabled {
		logIO := cfg.LogIO
		ret = append(ret, interceptors.HttpServerLogIOInterceptor(&logIO))
	}

	if !cfg.DisableNoStore {
		ret = append(ret, interceptors.InjectHeadersInterceptor(http.Header{
			"Cache-Control":          {"no-store"},
			"X-Content-Type-Options": {"nosniff"},
		}))
	}

	if !cfg.DisableGzipRequestDecompression {
		ret = append(ret, lgzip.HttpServerDecompressRequestInterceptor())
	}

	if !cfg.DisableGzipResponseCompression {
		ret = append(ret, lgzip.HttpServerCompressResponseInterceptor())
	}
	return ret
}
