package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	cbhttpmiddleware "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http/middleware"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
)

// Client is the single gateway to the hub backend. Every request carries the bearer token of the
// configured provider; a 401 ends the session and fails with ErrSessionExpired.
type Client struct {
	baseUrl   string
	http      *cbhttp.Instance
	watch     ltime.Watch
	lock      sync.Mutex
	onExpired []func(ctx context.Context)
}

func NewClient(cfg *Config, connections *clientbase.Connections, tokens auth.TokenProvider, watch ltime.Watch) *Client {
	c := &Client{
		baseUrl: strings.TrimSuffix(cfg.BaseUrl, "/"),
		watch:   watch,
	}
	c.http = connections.HttpClient.With(
		instrument(),
		cbhttpmiddleware.OnStatus(http.StatusUnauthorized, c.sessionExpired),
		cbhttpmiddleware.BearerToken(tokens),
	)
	return c
}

// NewGatewayClient is the client of the hub service. Callers' tokens are forwarded and the service session
// is used otherwise; a 401 drops the session only when the rejected request carried its token.
func NewGatewayClient(cfg *Config, connections *clientbase.Connections, session *auth.Session, watch ltime.Watch) *Client {
	client := NewClient(cfg, connections, auth.NewGatewayTokenProvider(session), watch)
	client.OnSessionExpired(auth.SessionExpiry(session))
	return client
}

// OnSessionExpired registers fn to run whenever the backend answers 401. fn receives the context of the
// rejected request.
func (c *Client) OnSessionExpired(fn func(ctx context.Context)) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.onExpired = append(c.onExpired, fn)
}

func (c *Client) sessionExpired(r *cbhttp.Request, herr *lhttp.HttpError) *lhttp.HttpError {
	log.Printf("backend rejected credentials for %s %s", r.Method, r.URI)

	c.lock.Lock()
	callbacks := append([]func(ctx context.Context){}, c.onExpired...)
	c.lock.Unlock()
	ctx := r.Context
	if ctx == nil {
		ctx = context.Background()
	}
	for _, fn := range callbacks {
		fn(ctx)
	}
	return &lhttp.HttpError{Code: herr.Code, Message: herr.Message, Err: ErrSessionExpired}
}

// url joins the base url with path segments, escaping each one.
func (c *Client) url(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseUrl)
	for _, segment := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(segment))
	}
	return b.String()
}

// failed logs a request failure and returns it as an error. Missing resources are expected and logged at
// debug level.
func failed(op string, herr *lhttp.HttpError) error {
	if herr.Code == http.StatusNotFound {
		log.Debugf("%s: not found", op)
	} else {
		log.Printf("%s failed: %s", op, herr)
	}
	return herr
}

func (c *Client) getJSON(ctx context.Context, op, uri string, out interface{}, options ...cbhttp.RequestOption) error {
	req := cbhttp.NewRequest(ctx, "GET", uri, options...)
	if herr := c.http.DoNoResponse(req, cbhttpmiddleware.JsonDecoder(out)); herr != nil {
		return failed(op, herr)
	}
	return nil
}

// send issues a request with an optional JSON body and decodes the JSON answer into out when out is set.
func (c *Client) send(ctx context.Context, op, method, uri string, in, out interface{}) error {
	options := make([]cbhttp.RequestOption, 0, 1)
	if in != nil {
		options = append(options, cbhttp.BodyObj(in))
	}
	req := cbhttp.NewRequest(ctx, method, uri, options...)

	var herr *lhttp.HttpError
	if out != nil {
		herr = c.http.DoNoResponse(req, cbhttpmiddleware.JsonDecoder(out))
	} else {
		herr = c.http.DoNoResponse(req)
	}
	if herr != nil {
		return failed(op, herr)
	}
	return nil
}

func (c *Client) getBytes(ctx context.Context, op, uri string, options ...cbhttp.RequestOption) ([]byte, error) {
	var content []byte
	req := cbhttp.NewRequest(ctx, "GET", uri, options...)
	if herr := c.http.DoNoResponse(req, cbhttpmiddleware.BytesDecoder(&content)); herr != nil {
		return nil, failed(op, herr)
	}
	return content, nil
}

// stream returns the raw response body. The caller closes it.
func (c *Client) stream(ctx context.Context, op, uri string, options ...cbhttp.RequestOption) (io.ReadCloser, error) {
	resp, herr := c.http.Do(cbhttp.NewRequest(ctx, "GET", uri, options...))
	if herr != nil {
		return nil, failed(op, herr)
	}
	return resp, nil
}

func (c *Client) getRaw(ctx context.Context, op, uri string, options ...cbhttp.RequestOption) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, op, uri, &raw, options...); err != nil {
		return nil, err
	}
	return raw, nil
}

func opName(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

func jsonInto(out interface{}) cbhttp.MiddlewareFunc {
	return cbhttpmiddleware.JsonDecoder(out)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rawObject keeps a JSON answer for conversion; an empty body decodes to an empty object.
type rawObject struct {
	json.RawMessage
}

func (r rawObject) message() json.RawMessage {
	if len(r.RawMessage) == 0 {
		return json.RawMessage("{}")
	}
	return r.RawMessage
}
