package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
)

const profilePath = "/home/ana/.mlopshub/config.yaml"

type harness struct {
	fs      afero.Fs
	out     *bytes.Buffer
	backend *httptest.Server
	auths   []string
}

func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	h := &harness{fs: afero.NewMemMapFs(), out: &bytes.Buffer{}}
	h.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.auths = append(h.auths, r.Header.Get("Authorization"))
		handler(w, r)
	}))
	t.Cleanup(h.backend.Close)
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	args = append([]string{"--profile", profilePath}, args...)
	return New(h.fs, h.out).Execute(context.Background(), args)
}

func (h *harness) profile(t *testing.T) Profile {
	profile, err := LoadProfile(h.fs, profilePath)
	require.NoError(t, err)
	return profile
}

func TestListPrintsIndentedJSONAndRemembersFlags(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/datasets", r.URL.Path)
		assert.Equal(t, "search=iris", r.URL.RawQuery)
		w.Write([]byte(`[{"id": "d1", "name": "iris"}]`))
	})

	require.NoError(t, h.run("--api-url", h.backend.URL, "datasets", "list", "--search", "iris"))
	assert.Contains(t, h.out.String(), "\n  {\n    \"id\": \"d1\"")
	assert.Equal(t, h.backend.URL, h.profile(t).ApiBaseUrl)

	require.NoError(t, h.run("datasets", "list", "--search", "iris"))
	assert.Len(t, h.auths, 2)
	assert.Equal(t, "", h.auths[1])
}

func TestStoredTokensAreSent(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"registered_model": {"name": "iris", "latest_versions": []}}`))
	})
	tokens := &auth.Tokens{AccessToken: "stored", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, SaveProfile(h.fs, profilePath, Profile{ApiBaseUrl: h.backend.URL, Tokens: tokens}))

	require.NoError(t, h.run("models", "get", "iris"))
	assert.Equal(t, []string{"Bearer stored"}, h.auths)

	var model map[string]interface{}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &model))
	assert.Equal(t, "iris", model["value"].(map[string]interface{})["name"])
	assert.NotNil(t, h.profile(t).Tokens)
}

func TestExpiredSessionIsForgotten(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	tokens := &auth.Tokens{AccessToken: "revoked", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, SaveProfile(h.fs, profilePath, Profile{ApiBaseUrl: h.backend.URL, Tokens: tokens}))

	err := h.run("runs", "get", "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hubctl login")
	assert.Nil(t, h.profile(t).Tokens)
	assert.Equal(t, h.backend.URL, h.profile(t).ApiBaseUrl)
}

func TestLoginStoresTokens(t *testing.T) {
	broker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realms/hub/protocol/openid-connect/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "ana", r.PostForm.Get("username"))
		assert.Equal(t, "s3cret", r.PostForm.Get("password"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "fresh", "refresh_token": "again", "expires_in": 300, "token_type": "Bearer"}`))
	}))
	defer broker.Close()

	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	cli := New(h.fs, h.out)
	root := cli.NewRootCommand()
	root.SetArgs([]string{"--profile", profilePath, "--identity-url", broker.URL, "--realm", "hub", "login", "-u", "ana"})
	root.SetIn(bytes.NewBufferString("s3cret\n"))
	root.SetOut(h.out)
	require.NoError(t, root.Execute())
	require.NoError(t, cli.persist())

	assert.Contains(t, h.out.String(), "logged in as ana")
	profile := h.profile(t)
	require.NotNil(t, profile.Tokens)
	assert.Equal(t, "fresh", profile.Tokens.AccessToken)
	assert.Equal(t, "again", profile.Tokens.RefreshToken)
	assert.Equal(t, broker.URL, profile.IdentityUrl)
	assert.Equal(t, "hub", profile.Realm)
}

func TestInvokeReadsPayloadFile(t *testing.T) {
	var received []byte
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/entrypoints/iris/predict/infer", r.URL.Path)
		received, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"predictions":[1]}`))
	})
	require.NoError(t, afero.WriteFile(h.fs, "/tmp/payload.json", []byte(`{"inputs": [[1, 2]]}`), 0600))

	require.NoError(t, h.run("--api-url", h.backend.URL, "entrypoints", "invoke", "iris/predict", "--data", "@/tmp/payload.json"))
	assert.JSONEq(t, `{"inputs": [[1, 2]]}`, string(received))
	assert.Equal(t, "{\n  \"predictions\": [\n    1\n  ]\n}\n", h.out.String())

	err := h.run("entrypoints", "invoke", "iris/predict", "--data", "{broken")
	assert.EqualError(t, err, "payload is not valid JSON")
}

func TestInvokeShowsBackendRejection(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"bad shape"}`))
	})

	err := h.run("--api-url", h.backend.URL, "entrypoints", "invoke", "iris")
	assert.EqualError(t, err, "entrypoint answered 422")
	assert.Equal(t, "{\"detail\":\"bad shape\"}\n", h.out.String())
}

func TestArtifactDownloadToFile(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0xff}
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/runs/r1/artifacts/download", r.URL.Path)
		assert.Equal(t, "plots/roc.png", r.URL.Query().Get("path"))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(payload)
	})

	require.NoError(t, h.run("--api-url", h.backend.URL, "artifacts", "get", "r1", "plots/roc.png", "-o", "/tmp/roc.png"))
	content, err := afero.ReadFile(h.fs, "/tmp/roc.png")
	require.NoError(t, err)
	assert.Equal(t, payload, content)
}

func TestEnvironmentOverridesProfile(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	require.NoError(t, SaveProfile(h.fs, profilePath, Profile{ApiBaseUrl: "http://127.0.0.1:1"}))
	t.Setenv("HUB_API_BASE_URL", h.backend.URL)

	require.NoError(t, h.run("experiments", "list"))
	assert.Len(t, h.auths, 1)
	assert.Equal(t, "http://127.0.0.1:1", h.profile(t).ApiBaseUrl)
}

func TestTokenFlagReplacesStoredSession(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	tokens := &auth.Tokens{AccessToken: "stored", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, SaveProfile(h.fs, profilePath, Profile{ApiBaseUrl: h.backend.URL, Tokens: tokens}))

	require.NoError(t, h.run("--token", "ci-token", "experiments", "list"))
	assert.Equal(t, []string{"Bearer ci-token"}, h.auths)
	require.NotNil(t, h.profile(t).Tokens)
	assert.Equal(t, "stored", h.profile(t).Tokens.AccessToken)
}

func TestRejectedTokenFlagKeepsStoredSession(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	tokens := &auth.Tokens{AccessToken: "stored", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, SaveProfile(h.fs, profilePath, Profile{ApiBaseUrl: h.backend.URL, Tokens: tokens}))

	require.Error(t, h.run("--token", "ci-token", "runs", "get", "r1"))
	assert.Equal(t, []string{"Bearer ci-token"}, h.auths)
	require.NotNil(t, h.profile(t).Tokens)
	assert.Equal(t, "stored", h.profile(t).Tokens.AccessToken)
}
