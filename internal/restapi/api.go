package restapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/loader"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/reconcilers/monitoring"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/viewmodel"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
	sbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http"
	sbhttpbase "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/base"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
)

const Prefix = "/hub/v1"

// HubAPI serves the normalized view of the hub backend.
type HubAPI struct {
	cfg        *Config
	store      datasource.HubStore
	loader     *loader.Loader
	monitoring *monitoring.Store
	query      *schema.Decoder
}

func NewHubAPI(cfg *Config, store datasource.HubStore, l *loader.Loader, snapshots *monitoring.Store) *HubAPI {
	query := schema.NewDecoder()
	query.SetAliasTag("json")
	query.IgnoreUnknownKeys(true)
	return &HubAPI{
		cfg:        cfg,
		store:      store,
		loader:     l,
		monitoring: snapshots,
		query:      query,
	}
}

// Envelope wraps every successful answer.
type Envelope struct {
	Data       interface{}              `json:"data"`
	Warnings   []viewmodel.ParseWarning `json:"warnings"`
	Incomplete bool                     `json:"incomplete"`
}

// view is what a load produces: the data plus the fallbacks applied while converting it.
type view struct {
	data     interface{}
	warnings []viewmodel.ParseWarning
}

func single[T any](result viewmodel.Result[T]) view {
	return view{data: result.Value, warnings: result.Warnings}
}

func many[T any](list datasource.List[T]) view {
	data := struct {
		Items         []T    `json:"items"`
		NextPageToken string `json:"nextPageToken,omitempty"`
	}{list.Items, list.NextPageToken}
	return view{data: data, warnings: list.Warnings}
}

func plain(data interface{}) view {
	return view{data: data}
}

type loadView func(ctx context.Context, request *sbhttpbase.Request) (view, error)

func (a *HubAPI) handle(method, path string, fn sbhttpbase.HandleFunc) sbhttpserver.HandleDescription {
	return sbhttpserver.HandleDescription{
		Path:    Prefix + path,
		Method:  method,
		Handler: fn,
	}
}

// read serves a GET through the loader. Concurrent identical requests of the same caller share one
// upstream fetch.
func (a *HubAPI) read(resource string, load loadView) sbhttpbase.HandleFunc {
	return func(request *sbhttpbase.Request) {
		ctx := withCallerToken(request)
		key := loader.Key{
			Resource: resource,
			Scope:    callerScope(request),
			Params:   requestParams(request),
		}
		result, err := loader.Load(ctx, a.loader, key, func(ctx context.Context) (view, error) {
			return load(ctx, request)
		})
		if err != nil {
			writeError(request, err)
			return
		}
		writeView(request, http.StatusOK, result)
	}
}

// write serves a mutation and drops every cached view of the affected resources.
func (a *HubAPI) write(load loadView, resources ...string) sbhttpbase.HandleFunc {
	return func(request *sbhttpbase.Request) {
		result, err := load(withCallerToken(request), request)
		for _, resource := range resources {
			a.loader.Invalidate(resource)
		}
		if err != nil {
			writeError(request, err)
			return
		}
		code := http.StatusOK
		if request.Request.Method == http.MethodPost && result.data != nil {
			code = http.StatusCreated
		}
		if result.data == nil {
			request.Writer.WriteHeader(http.StatusNoContent)
			return
		}
		writeView(request, code, result)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func withCallerToken(request *sbhttpbase.Request) context.Context {
	ctx := request.Request.Context()
	if token := bearerToken(request.Request); token != "" {
		ctx = auth.WithToken(ctx, token)
	}
	return ctx
}

// callerScope keeps the views of different credentials apart in the loader.
func callerScope(request *sbhttpbase.Request) string {
	token := bearerToken(request.Request)
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func requestParams(request *sbhttpbase.Request) map[string]interface{} {
	return map[string]interface{}{
		"path":  request.Params,
		"query": request.Request.URL.Query(),
	}
}

// param returns a path parameter, unescaped when the router left it escaped.
func param(request *sbhttpbase.Request, name string) string {
	value := request.Params[name]
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

func (a *HubAPI) decodeQuery(request *sbhttpbase.Request, target interface{}) error {
	if err := a.query.Decode(target, request.Request.URL.Query()); err != nil {
		return lhttp.NewBadRequest(err.Error())
	}
	return nil
}

func decodeBody(request *sbhttpbase.Request, target interface{}) error {
	if err := json.NewDecoder(request.Request.Body).Decode(target); err != nil {
		return lhttp.NewBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

func writeView(request *sbhttpbase.Request, code int, v view) {
	warnings := v.warnings
	if warnings == nil {
		warnings = []viewmodel.ParseWarning{}
	}
	countFallbacks(warnings)
	if err := sbhttp.WriteJson(request.Writer, code, Envelope{Data: v.data, Warnings: warnings, Incomplete: len(warnings) > 0}); err != nil {
		log.Printf("failed to write response of %s: %s", request.PathPattern, err)
	}
}

type validationBody struct {
	Error  string                  `json:"error"`
	Fields []datasource.FieldError `json:"fields"`
}

// writeError maps a failure to a status code. The backend's own status is kept; an expired session
// sends the caller back to the login page.
func writeError(request *sbhttpbase.Request, err error) {
	w := request.Writer

	var verr *datasource.ValidationError
	if errors.As(err, &verr) {
		_ = sbhttp.WriteJson(w, http.StatusBadRequest, validationBody{Error: verr.Error(), Fields: verr.Fields})
		return
	}

	if errors.Is(err, datasource.ErrSessionExpired) || errors.Is(err, auth.ErrNotLoggedIn) {
		w.Header().Set("Location", "/")
		lhttp.NewUnauthorized("session expired").WriteResponse(w)
		return
	}

	var ierr *datasource.InvocationError
	if errors.As(err, &ierr) {
		if json.Valid(ierr.Body) {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(ierr.StatusCode)
		_, _ = w.Write(ierr.Body)
		return
	}

	if errors.Is(err, context.Canceled) {
		log.Debugf("%s %s abandoned by the caller", request.Request.Method, request.Request.URL.Path)
	}

	lhttp.FromError(err).WriteResponse(w)
}
