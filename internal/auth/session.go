package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	cbhttpmiddleware "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http/middleware"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
	"golang.org/x/sync/singleflight"
)

var ErrNotLoggedIn = fmt.Errorf("not logged in")

// Lifetime assumed for opaque access tokens returned without expires_in.
const defaultTokenLifetime = 5 * time.Minute

// Tokens is the state of a session, persisted by the CLI between invocations.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Session holds the tokens issued by the identity broker and refreshes the access token shortly before it
// expires.
type Session struct {
	cfg    *Config
	client *cbhttp.Instance
	watch  ltime.Watch
	group  singleflight.Group
	lock   sync.Mutex
	tokens *Tokens
}

func NewSession(cfg *Config, client *cbhttp.Instance, watch ltime.Watch) *Session {
	return &Session{
		cfg:    cfg,
		client: client,
		watch:  watch,
	}
}

func (s *Session) Login(ctx context.Context, username, password string) error {
	return s.grant(ctx, url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
		"scope":      {"openid"},
	})
}

func (s *Session) LoginClientCredentials(ctx context.Context) error {
	if s.cfg.ClientSecret == "" {
		return errors.New("client credentials login requires IDENTITY_CLIENT_SECRET")
	}
	return s.grant(ctx, url.Values{"grant_type": {"client_credentials"}})
}

// Restore resumes a session from previously saved tokens.
func (s *Session) Restore(tokens Tokens) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tokens = &tokens
}

// Tokens returns the current session state, false when logged out.
func (s *Session) Tokens() (Tokens, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.tokens == nil {
		return Tokens{}, false
	}
	return *s.tokens, true
}

// Token returns the access token, refreshing it first when it expires within the lookahead. Concurrent
// callers share one refresh, which outlives any single caller's ctx.
func (s *Session) Token(ctx context.Context) (string, error) {
	if token, fresh, err := s.current(); err != nil || fresh {
		return token, err
	}

	ch := s.group.DoChan("refresh", func() (interface{}, error) {
		// Another caller may have refreshed already
		if token, fresh, err := s.current(); err != nil || fresh {
			return token, err
		}
		if err := s.refresh(context.WithoutCancel(ctx)); err != nil {
			return "", err
		}
		token, _, err := s.current()
		return token, err
	})

	select {
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) current() (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.tokens == nil {
		return "", false, ErrNotLoggedIn
	}
	fresh := s.watch.Now().Add(s.cfg.RefreshLookahead).Before(s.tokens.ExpiresAt)
	return s.tokens.AccessToken, fresh, nil
}

func (s *Session) refresh(ctx context.Context) error {
	s.lock.Lock()
	refreshToken := ""
	if s.tokens != nil {
		refreshToken = s.tokens.RefreshToken
	}
	s.lock.Unlock()

	if refreshToken == "" {
		s.Invalidate()
		return ErrNotLoggedIn
	}

	err := s.grant(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		herr := lhttp.FromError(err)
		if herr.Code == http.StatusBadRequest || herr.Code == http.StatusUnauthorized {
			log.Debugf("refresh token rejected: %s", herr.Message)
			s.Invalidate()
			return ErrNotLoggedIn
		}
		return err
	}
	return nil
}

// Invalidate drops the tokens. Later calls to Token fail with ErrNotLoggedIn.
func (s *Session) Invalidate() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tokens = nil
}

// Logout invalidates the session and ends it at the broker.
func (s *Session) Logout(ctx context.Context) error {
	s.lock.Lock()
	tokens := s.tokens
	s.tokens = nil
	s.lock.Unlock()

	if tokens == nil || tokens.RefreshToken == "" {
		return nil
	}

	values := s.clientValues(url.Values{"refresh_token": {tokens.RefreshToken}})
	herr := s.client.DoNoResponse(cbhttp.NewRequest(ctx, "POST", s.cfg.LogoutUrl(), cbhttp.FormValues(values), s.retryOptions()))
	if herr != nil {
		log.Printf("failed to end session at the identity broker: %s", herr)
		return herr
	}
	return nil
}

func (s *Session) clientValues(values url.Values) url.Values {
	values.Set("client_id", s.cfg.ClientId)
	if s.cfg.ClientSecret != "" {
		values.Set("client_secret", s.cfg.ClientSecret)
	}
	return values
}

func (s *Session) retryOptions() cbhttp.RequestOption {
	return cbhttp.ComposeOptions(
		cbhttp.RetryAttempts(s.cfg.RetryAttempts),
		cbhttp.RetryIf(cbhttp.RetryIfBaseError),
		cbhttp.RetryFixedDelay(s.cfg.RetryDelay),
		cbhttp.OnRetry(func(n uint, err *lhttp.HttpError) {
			log.Debugf("identity broker call failed (attempt %d): %s", n+1, err)
		}),
	)
}

func (s *Session) grant(ctx context.Context, values url.Values) error {
	var resp tokenResponse
	req := cbhttp.NewRequest(ctx, "POST", s.cfg.TokenUrl(), cbhttp.FormValues(s.clientValues(values)), s.retryOptions())
	if herr := s.client.DoNoResponse(req, cbhttpmiddleware.JsonDecoder(&resp)); herr != nil {
		log.Debugf("%s grant failed: %s", values.Get("grant_type"), herr)
		return herr
	}
	if resp.AccessToken == "" {
		return errors.New("identity broker returned no access token")
	}

	tokens := &Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt(resp.AccessToken, resp.ExpiresIn, s.watch.Now()),
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if tokens.RefreshToken == "" && s.tokens != nil {
		tokens.RefreshToken = s.tokens.RefreshToken
	}
	s.tokens = tokens
	return nil
}

// expiresAt reads the exp claim of a JWT access token, falling back to expires_in for opaque tokens.
func expiresAt(accessToken string, expiresIn int64, now time.Time) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	return now.Add(defaultTokenLifetime)
}
