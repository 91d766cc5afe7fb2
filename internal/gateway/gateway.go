// Package gateway performs every call to the remote clinic API. It reads the
// credential from the token store on each request and maps failures onto the
// application error taxonomy. It never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"
	apperrors "github.com/medplus/medplus-client/internal/errors"
	obserrors "github.com/medplus/medplus-client/internal/observability/errors"
	"github.com/medplus/medplus-client/internal/observability/statsd"
	"github.com/medplus/medplus-client/internal/ports"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const (
	// RequestIDHeader correlates a client call with remote logs.
	RequestIDHeader = "X-Request-ID"

	defaultTimeout      = 30 * time.Second
	defaultMessageExpr  = "error || message"
	defaultFieldsExpr   = "validationErrors"
	maxResponseBodySize = 10 << 20
)

// Requester is the contract every API consumer depends on.
type Requester interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// File is a multipart upload part.
type File struct {
	Field       string
	FileName    string
	ContentType string
	Content     io.Reader
}

// Request describes one call relative to the base endpoint.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil. Ignored when Multipart is set.
	Body      any
	Multipart *File
	// Anonymous requests carry no credential and never trigger auth failure
	// hooks. Login and registration use it: their 401 judges the submitted
	// secret, not the current session.
	Anonymous bool
}

// Response is a successful (2xx/3xx) reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode response body")
	}
	return nil
}

// AuthFailureFunc observes credential rejections reported by the remote API.
// credential is the token the rejected request carried, or "" when it had none.
type AuthFailureFunc func(ctx context.Context, credential string, err error)

// Options groups dependencies for Gateway.
type Options struct {
	BaseURL string
	Store   ports.TokenStore
	// HTTPClient overrides the default client (cookie jar, Timeout).
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	// MessageExpr is a JMESPath expression selecting the error message from a failure payload.
	MessageExpr string
	// ValidationExpr selects the per-field validation messages from a failure payload.
	ValidationExpr string
	Logger         *slog.Logger
	Metrics        statsd.Sink
}

// Gateway is the authenticated request gateway.
type Gateway struct {
	base        *url.URL
	store       ports.TokenStore
	client      *http.Client
	userAgent   string
	messageExpr string
	fieldsExpr  string
	logger      *slog.Logger
	metrics     statsd.Sink

	mu        sync.RWMutex
	nextHook  int
	authHooks map[int]AuthFailureFunc
}

var _ Requester = (*Gateway)(nil)

// New constructs a Gateway. The base endpoint is fixed for its lifetime.
func New(opts Options) (*Gateway, error) {
	if opts.Store == nil {
		return nil, errors.New("token store is required")
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", opts.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", opts.BaseURL)
	}

	messageExpr := strings.TrimSpace(opts.MessageExpr)
	if messageExpr == "" {
		messageExpr = defaultMessageExpr
	}
	fieldsExpr := strings.TrimSpace(opts.ValidationExpr)
	if fieldsExpr == "" {
		fieldsExpr = defaultFieldsExpr
	}
	for _, expr := range []string{messageExpr, fieldsExpr} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile JMESPath %q: %w", expr, err)
		}
	}

	client := opts.HTTPClient
	if client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout, Jar: jar}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = (*statsd.Client)(nil)
	}

	return &Gateway{
		base:        base,
		store:       opts.Store,
		client:      client,
		userAgent:   strings.TrimSpace(opts.UserAgent),
		messageExpr: messageExpr,
		fieldsExpr:  fieldsExpr,
		logger:      logger.With("component", "gateway"),
		metrics:     metrics,
		authHooks:   map[int]AuthFailureFunc{},
	}, nil
}

// BaseURL returns a copy of the configured base endpoint.
func (g *Gateway) BaseURL() *url.URL {
	u := *g.base
	return &u
}

// OnAuthFailure registers fn to run whenever the remote side rejects the credential.
// Hooks run synchronously before Do returns. The returned func removes the hook.
func (g *Gateway) OnAuthFailure(fn AuthFailureFunc) (remove func()) {
	if fn == nil {
		return func() {}
	}
	g.mu.Lock()
	id := g.nextHook
	g.nextHook++
	g.authHooks[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.authHooks, id)
			g.mu.Unlock()
		})
	}
}

// Do sends req and returns the reply, or an error classified as network, auth,
// validation or server failure.
func (g *Gateway) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	requestID := uuid.NewString()
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := g.build(ctx, method, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(RequestIDHeader, requestID)

	var credential string
	if !req.Anonymous {
		token, ok, err := g.store.Get(ctx)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read credential")
		}
		if ok {
			credential = token
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(httpReq)
		}
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		mapped := transportError(ctx, err)
		g.observe(ctx, method, req.Path, requestID, 0, start, mapped)
		return nil, mapped
	}
	body, err := readBody(resp)
	if err != nil {
		mapped := apperrors.Network(fmt.Errorf("read response body: %w", err))
		g.observe(ctx, method, req.Path, requestID, resp.StatusCode, start, mapped)
		return nil, mapped
	}

	if resp.StatusCode >= http.StatusBadRequest {
		mapped := g.statusError(resp.StatusCode, resp.Header, body)
		g.observe(ctx, method, req.Path, requestID, resp.StatusCode, start, mapped)
		if apperrors.IsAuth(mapped) && !req.Anonymous {
			g.notifyAuthFailure(ctx, credential, mapped)
		}
		return nil, mapped
	}

	g.observe(ctx, method, req.Path, requestID, resp.StatusCode, start, nil)
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (g *Gateway) build(ctx context.Context, method string, req Request) (*http.Request, error) {
	path := "/" + strings.TrimLeft(req.Path, "/")
	target := g.base.JoinPath(path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Multipart != nil:
		buf, ct, err := encodeMultipart(req.Multipart)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if g.userAgent != "" {
		httpReq.Header.Set("User-Agent", g.userAgent)
	}
	return httpReq, nil
}

func encodeMultipart(f *File) (*bytes.Buffer, string, error) {
	if f.Content == nil {
		return nil, "", apperrors.ValidationField(f.Field, "multipart content is required")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.FileName))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	header.Set("Content-Type", ct)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "create multipart part")
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "copy multipart content")
	}
	if err := w.Close(); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "close multipart writer")
	}
	return &buf, w.FormDataContentType(), nil
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResponseBodySize {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseBodySize)
	}
	return data, nil
}

func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request canceled")
	}
	return apperrors.Network(err)
}

func (g *Gateway) notifyAuthFailure(ctx context.Context, credential string, err error) {
	g.mu.RLock()
	hooks := make([]AuthFailureFunc, 0, len(g.authHooks))
	for _, fn := range g.authHooks {
		hooks = append(hooks, fn)
	}
	g.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, credential, err)
	}
}

func (g *Gateway) observe(
	ctx context.Context,
	method, path, requestID string,
	status int,
	start time.Time,
	err error,
) {
	elapsed := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = obserrors.Classify(err)
	}
	tags := map[string]string{
		"method":  method,
		"status":  strconv.Itoa(status),
		"outcome": outcome,
	}
	g.metrics.Count("gateway.request", 1, tags)
	g.metrics.Timing("gateway.request.duration", elapsed, tags)

	attrs := []any{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", requestID,
	}
	switch {
	case err == nil:
		g.logger.DebugContext(ctx, "api request", attrs...)
	case apperrors.IsNetwork(err):
		g.logger.WarnContext(ctx, "api request failed", append(attrs, "error", err)...)
	default:
		g.logger.InfoContext(ctx, "api request rejected", append(attrs, "code", outcome)...)
	}
}
