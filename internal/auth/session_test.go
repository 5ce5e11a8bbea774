package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
)

var epoch = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type broker struct {
	t         *testing.T
	server    *httptest.Server
	grants    map[string]int32
	lock      sync.Mutex
	lifetime  time.Duration
	opaque    bool
	rejectAll bool
	dropFirst int32
	dropped   int32
	logouts   []string
	issued    int32
}

func newBroker(t *testing.T) *broker {
	b := &broker{t: t, grants: make(map[string]int32), lifetime: 5 * time.Minute}
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/hub/protocol/openid-connect/token", b.token)
	mux.HandleFunc("/realms/hub/protocol/openid-connect/logout", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		b.lock.Lock()
		b.logouts = append(b.logouts, r.PostForm.Get("refresh_token"))
		b.lock.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *broker) token(w http.ResponseWriter, r *http.Request) {
	if atomic.AddInt32(&b.dropped, 1) <= b.dropFirst {
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(b.t, err)
		conn.Close()
		return
	}

	require.NoError(b.t, r.ParseForm())
	assert.Equal(b.t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
	assert.Equal(b.t, "hub-ui", r.PostForm.Get("client_id"))

	grant := r.PostForm.Get("grant_type")
	b.lock.Lock()
	b.grants[grant]++
	b.lock.Unlock()

	switch {
	case b.rejectAll:
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	case grant == "password" && r.PostForm.Get("password") != "secret":
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	case grant == "refresh_token" && r.PostForm.Get("refresh_token") == "":
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	n := atomic.AddInt32(&b.issued, 1)
	access := "opaque-token"
	if !b.opaque {
		claims := jwt.RegisteredClaims{
			Subject:   grant,
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Duration(n) * b.lifetime)),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
		require.NoError(b.t, err)
		access = signed
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  access,
		"refresh_token": "refresh-" + grant,
		"expires_in":    60,
		"token_type":    "Bearer",
	})
}

func (b *broker) count(grant string) int32 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.grants[grant]
}

func newTestSession(t *testing.T, b *broker) (*Session, *ltime.TestingWatch) {
	client, err := cbhttp.NewInstance(&cbhttp.Config{Timeout: 5 * time.Second})
	require.NoError(t, err)

	watch := &ltime.TestingWatch{Current: epoch}
	cfg := &Config{
		IdentityUrl:      b.server.URL + "/",
		Realm:            "hub",
		ClientId:         "hub-ui",
		RefreshLookahead: 30 * time.Second,
		RetryAttempts:    3,
		RetryDelay:       time.Millisecond,
	}
	return NewSession(cfg, client, watch), watch
}

func TestConfigUrls(t *testing.T) {
	cfg := &Config{IdentityUrl: "https://sso.example.com/", Realm: "hub"}
	assert.Equal(t, "https://sso.example.com/realms/hub/protocol/openid-connect/token", cfg.TokenUrl())
	assert.Equal(t, "https://sso.example.com/realms/hub/protocol/openid-connect/logout", cfg.LogoutUrl())
}

func TestSessionLoginAndToken(t *testing.T) {
	b := newBroker(t)
	session, _ := newTestSession(t, b)

	_, err := session.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.Error(t, session.Login(context.Background(), "ana", "wrong"))
	require.NoError(t, session.Login(context.Background(), "ana", "secret"))

	first, err := session.Token(context.Background())
	require.NoError(t, err)
	second, err := session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	tokens, ok := session.Tokens()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(5*time.Minute), tokens.ExpiresAt.UTC())
	assert.Equal(t, "refresh-password", tokens.RefreshToken)
	assert.Equal(t, int32(0), b.count("refresh_token"))
}

func TestSessionRefreshWithinLookahead(t *testing.T) {
	b := newBroker(t)
	session, watch := newTestSession(t, b)
	require.NoError(t, session.Login(context.Background(), "ana", "secret"))
	old, err := session.Token(context.Background())
	require.NoError(t, err)

	// 20s before expiry, inside the 30s lookahead
	watch.Current = epoch.Add(5*time.Minute - 20*time.Second)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := session.Token(context.Background())
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), b.count("refresh_token"))
	for _, token := range tokens {
		assert.NotEqual(t, old, token)
		assert.Equal(t, tokens[0], token)
	}
}

func TestSessionRefreshSurvivesCancelledCaller(t *testing.T) {
	b := newBroker(t)
	session, watch := newTestSession(t, b)
	require.NoError(t, session.Login(context.Background(), "ana", "secret"))
	old, err := session.Token(context.Background())
	require.NoError(t, err)

	watch.Current = epoch.Add(5*time.Minute - 20*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = session.Token(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}

	token, err := session.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, old, token)
	_, ok := session.Tokens()
	assert.True(t, ok)
	assert.Equal(t, int32(1), b.count("refresh_token"))
}

func TestSessionOpaqueTokenUsesExpiresIn(t *testing.T) {
	b := newBroker(t)
	b.opaque = true
	session, watch := newTestSession(t, b)
	require.NoError(t, session.Login(context.Background(), "ana", "secret"))

	tokens, _ := session.Tokens()
	assert.Equal(t, epoch.Add(60*time.Second), tokens.ExpiresAt)

	watch.Current = epoch.Add(29 * time.Second)
	_, err := session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), b.count("refresh_token"))

	watch.Current = epoch.Add(31 * time.Second)
	_, err = session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), b.count("refresh_token"))
}

func TestSessionRejectedRefreshLogsOut(t *testing.T) {
	b := newBroker(t)
	session, watch := newTestSession(t, b)
	require.NoError(t, session.Login(context.Background(), "ana", "secret"))

	b.rejectAll = true
	watch.Current = epoch.Add(time.Hour)

	_, err := session.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, ok := session.Tokens()
	assert.False(t, ok)
}

func TestSessionInvalidateAndLogout(t *testing.T) {
	b := newBroker(t)
	session, _ := newTestSession(t, b)
	require.NoError(t, session.Login(context.Background(), "ana", "secret"))

	session.Invalidate()
	_, err := session.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	session.Restore(Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: epoch.Add(time.Hour)})
	token, err := session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", token)

	require.NoError(t, session.Logout(context.Background()))
	assert.Equal(t, []string{"r"}, b.logouts)
	_, err = session.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSessionRetriesBrokerTransportErrors(t *testing.T) {
	b := newBroker(t)
	b.dropFirst = 2
	session, _ := newTestSession(t, b)

	require.NoError(t, session.Login(context.Background(), "ana", "secret"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&b.dropped))
	assert.Equal(t, int32(1), b.count("password"))
}

func TestSessionClientCredentials(t *testing.T) {
	b := newBroker(t)
	session, _ := newTestSession(t, b)
	assert.Error(t, session.LoginClientCredentials(context.Background()))

	session.cfg.ClientSecret = "s3cr3t"
	require.NoError(t, session.LoginClientCredentials(context.Background()))
	assert.Equal(t, int32(1), b.count("client_credentials"))
}
