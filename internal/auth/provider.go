package auth

import (
	"context"

	"github.com/google/wire"
)

// TokenProvider yields the bearer token for outbound requests. An empty token with a nil error means the
// request goes out unauthenticated.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type NoTokenProvider struct{}

func (NoTokenProvider) Token(_ context.Context) (string, error) {
	return "", nil
}

type StaticTokenProvider string

func (s StaticTokenProvider) Token(_ context.Context) (string, error) {
	return string(s), nil
}

type contextKey struct{}

// WithToken attaches a caller's token to ctx for ContextTokenProvider.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(contextKey{}).(string)
	return token, ok && token != ""
}

// ContextTokenProvider prefers the token carried by the request context and falls back to Fallback.
type ContextTokenProvider struct {
	Fallback TokenProvider
}

func (p ContextTokenProvider) Token(ctx context.Context) (string, error) {
	if token, ok := TokenFromContext(ctx); ok {
		return token, nil
	}
	if p.Fallback == nil {
		return "", nil
	}
	return p.Fallback.Token(ctx)
}

// OptionalSession uses the session once it holds tokens. Before that requests go out unauthenticated.
type OptionalSession struct {
	Session *Session
}

func (o OptionalSession) Token(ctx context.Context) (string, error) {
	if _, ok := o.Session.Tokens(); !ok {
		return "", nil
	}
	return o.Session.Token(ctx)
}

// NewGatewayTokenProvider forwards the caller's token and falls back to the gateway's own session.
func NewGatewayTokenProvider(session *Session) TokenProvider {
	return ContextTokenProvider{Fallback: OptionalSession{Session: session}}
}

// SessionExpiry drops session after a 401, unless the rejected request carried a caller's token.
func SessionExpiry(session *Session) func(ctx context.Context) {
	return func(ctx context.Context) {
		if _, forwarded := TokenFromContext(ctx); forwarded {
			return
		}
		session.Invalidate()
	}
}

var WireSet = wire.NewSet(
	NewConfigFromEnv,
	NewSession,
)

var (
	_ TokenProvider = NoTokenProvider{}
	_ TokenProvider = OptionalSession{}
	_ TokenProvider = StaticTokenProvider("")
	_ TokenProvider = ContextTokenProvider{}
	_ TokenProvider = &Session{}
)
