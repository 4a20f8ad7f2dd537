// Package upstream is the console's client for the print proxy backend. Every
// call goes through Client.Do, which attaches credentials, correlates requests,
// de-duplicates identical in-flight calls and maps failures onto the domain
// error taxonomy.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/metrics"
	"github.com/printproxy/console/internal/core/domain"
)

// ErrDuplicateRequest is the cancel cause of a pending call superseded by an
// identical one.
var ErrDuplicateRequest = errors.New("duplicate request cancelled")

// ErrRequestsCancelled is the cancel cause used by CancelAll.
var ErrRequestsCancelled = errors.New("all pending requests cancelled")

const (
	HeaderRequestID = "X-Request-ID"
	defaultTimeout  = 30 * time.Second
)

// Request describes one backend call. Body is encoded as JSON unless it is
// url.Values (form) or *Multipart.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Body      any
	SkipAuth  bool
	SkipDedup bool
	// SkipHooks suppresses OnUnauthorized and OnError for this call.
	SkipHooks bool
}

// Response is a successful (status < 400) backend answer.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("upstream: decode response: %w", err)
	}
	return nil
}

// TokenFunc returns the bearer token for the call carried by ctx.
type TokenFunc func(ctx context.Context) string

// ScopeFunc partitions de-duplication. Identical requests only supersede each
// other inside the same scope.
type ScopeFunc func(ctx context.Context) string

// ErrorHook receives every classified failure except cancellations.
type ErrorHook func(ctx context.Context, req Request, err *domain.Error)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithTokenFunc(f TokenFunc) Option { return func(c *Client) { c.token = f } }

func WithScopeFunc(f ScopeFunc) Option { return func(c *Client) { c.scope = f } }

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// WithUnauthorizedHandler registers the hook run when the backend answers 401.
func WithUnauthorizedHandler(f func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = f }
}

func WithErrorHandler(f ErrorHook) Option { return func(c *Client) { c.onError = f } }

type pendingCall struct {
	cancel context.CancelCauseFunc
}

// Client is safe for concurrent use.
type Client struct {
	baseURL        string
	http           *http.Client
	token          TokenFunc
	scope          ScopeFunc
	log            zerolog.Logger
	onUnauthorized func(ctx context.Context)
	onError        ErrorHook

	mu      sync.Mutex
	pending map[string]*pendingCall
}

// New builds a client for baseURL (e.g. "http://localhost:8000/api"). By
// default the token and the de-duplication scope come from the session in ctx.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   sessionToken,
		scope:   sessionScope,
		log:     zerolog.Nop(),
		pending: make(map[string]*pendingCall),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sessionToken(ctx context.Context) string {
	if s := domain.SessionFrom(ctx); s != nil {
		return s.Token
	}
	return ""
}

func sessionScope(ctx context.Context) string {
	if s := domain.SessionFrom(ctx); s != nil {
		return s.ID
	}
	return ""
}

// DedupKey is METHOD_path_params with params in sorted order.
func DedupKey(method, path string, query url.Values) string {
	return strings.ToUpper(method) + "_" + path + "_" + query.Encode()
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// Pending returns the number of in-flight de-duplicated calls.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// CancelAll aborts every pending call.
func (c *Client) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, p := range c.pending {
		p.cancel(ErrRequestsCancelled)
		delete(c.pending, key)
	}
}

func (c *Client) register(key string, call *pendingCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.pending[key]; ok {
		prev.cancel(ErrDuplicateRequest)
		metrics.UpstreamDedupCancelledTotal.Inc()
	}
	c.pending[key] = call
}

func (c *Client) release(key string, call *pendingCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[key] == call {
		delete(c.pending, key)
	}
}

// Do sends req and returns the response, or a *domain.Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	req.Method = method

	callCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if !req.SkipDedup {
		key := c.scope(ctx) + "|" + DedupKey(method, req.Path, req.Query)
		call := &pendingCall{cancel: cancel}
		c.register(key, call)
		defer c.release(key, call)
	}

	httpReq, err := c.newRequest(callCtx, req)
	if err != nil {
		return nil, err
	}
	requestID := httpReq.Header.Get(HeaderRequestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportFailure(ctx, callCtx, req, requestID, start, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportFailure(ctx, callCtx, req, requestID, start, err)
	}
	elapsed := time.Since(start)
	metrics.UpstreamRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())

	if resp.StatusCode >= http.StatusBadRequest {
		derr := decodeError(resp.StatusCode, body)
		c.log.Debug().
			Str("method", method).
			Str("path", req.Path).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Str("kind", string(derr.Kind)).
			Dur("duration", elapsed).
			Msg("upstream request failed")
		c.fail(ctx, req, derr)
		return nil, derr
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(method, "ok").Inc()
	c.log.Debug().
		Str("method", method).
		Str("path", req.Path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("upstream request")

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body, RequestID: requestID}, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, domain.ValidationError("invalid request body", nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	if !req.SkipAuth {
		if token := c.token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

// transportFailure classifies a failure where no usable response arrived.
// Aborted calls (caller cancel or superseded duplicate) skip the hooks.
func (c *Client) transportFailure(ctx, callCtx context.Context, req Request, requestID string, start time.Time, err error) error {
	metrics.UpstreamRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

	cause := context.Cause(callCtx)
	switch {
	case errors.Is(cause, ErrDuplicateRequest), errors.Is(cause, ErrRequestsCancelled),
		errors.Is(ctx.Err(), context.Canceled):
		metrics.UpstreamRequestsTotal.WithLabelValues(req.Method, string(domain.KindCancelled)).Inc()
		c.log.Debug().Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).
			AnErr("cause", cause).Msg("upstream request cancelled")
		if cause == nil {
			cause = err
		}
		return domain.CancelledError(cause)
	}

	var derr *domain.Error
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		derr = domain.TimeoutError(err)
	} else {
		derr = domain.NetworkError(err)
	}
	c.log.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).
		Msg("upstream transport failure")
	c.fail(ctx, req, derr)
	return derr
}

func (c *Client) fail(ctx context.Context, req Request, derr *domain.Error) {
	metrics.UpstreamRequestsTotal.WithLabelValues(req.Method, string(derr.Kind)).Inc()
	if req.SkipHooks {
		return
	}
	if derr.Kind == domain.KindAuthentication && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	if c.onError != nil {
		c.onError(ctx, req, derr)
	}
}

// errorBody covers the shapes the backend uses: {"detail": "..."},
// {"detail": [{"loc": [...], "msg": "..."}]}, {"message": "..."} and
// {"errors": {"field": ["..."]}}.
type errorBody struct {
	Detail  json.RawMessage     `json:"detail"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

type fieldIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func decodeError(status int, body []byte) *domain.Error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return domain.Classify(status, "")
	}

	detail := eb.Message
	fields := eb.Errors
	if len(eb.Detail) > 0 {
		var s string
		var issues []fieldIssue
		switch {
		case json.Unmarshal(eb.Detail, &s) == nil:
			detail = s
		case json.Unmarshal(eb.Detail, &issues) == nil:
			msgs := make([]string, 0, len(issues))
			for _, is := range issues {
				msgs = append(msgs, is.Msg)
				if len(is.Loc) == 0 {
					continue
				}
				if fields == nil {
					fields = make(map[string][]string)
				}
				name := fmt.Sprint(is.Loc[len(is.Loc)-1])
				fields[name] = append(fields[name], is.Msg)
			}
			detail = strings.Join(msgs, "; ")
		}
	}

	derr := domain.Classify(status, detail)
	if len(fields) > 0 {
		derr.Fields = fields
	}
	return derr
}

// Multipart is a multipart/form-data body.
type Multipart struct {
	Fields []FormField
	Files  []FormFile
}

type FormField struct {
	Name  string
	Value string
}

type FormFile struct {
	Field    string
	FileName string
	Content  io.Reader
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case url.Values:
		return strings.NewReader(b.Encode()), "application/x-www-form-urlencoded", nil
	case *Multipart:
		return b.encode()
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
