package cbhttpmiddleware

import (
	"context"

	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// BearerToken resolves a token before every request and sets it as the Authorization header. An empty token
// lets the request through unauthenticated.
func BearerToken(source TokenSource) cbhttp.MiddlewareFunc {
	return func(next cbhttp.RunnerFunc) cbhttp.RunnerFunc {
		return func(r *cbhttp.Request) (*cbhttp.Response, *lhttp.HttpError) {
			if source == nil {
				return next(r)
			}
			ctx := r.Context
			if ctx == nil {
				ctx = context.Background()
			}
			token, err := source.Token(ctx)
			if err != nil {
				return nil, lhttp.FromError(err)
			}
			if token != "" {
				r = r.Options(cbhttp.SetHeader("Authorization", "Bearer "+token))
			}
			return next(r)
		}
	}
}
