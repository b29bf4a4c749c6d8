package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/version"
	"github.com/cocoonstack/orka/wire"
)

const (
	HTTPTimeout = 30 * time.Second
	MaxRetries  = 3
	BaseBackoff = 100 * time.Millisecond

	headerLicense   = "orka-licensekey"
	headerRequestID = "X-Request-Id"
	tracerName      = "github.com/cocoonstack/orka/transport"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	LicenseKey string
	// Timeout bounds a single HTTP round trip. Default: HTTPTimeout.
	Timeout time.Duration
	// MaxRetries bounds retries of GET requests. Negative disables retries.
	// Default: MaxRetries.
	MaxRetries int
	// HTTPClient overrides the underlying client; Timeout is ignored when set.
	HTTPClient *http.Client
	// Metrics is optional.
	Metrics *Metrics
	// TracerProvider defaults to the global otel provider.
	TracerProvider trace.TracerProvider
}

// Client sends authenticated JSON requests to the Orka API.
type Client struct {
	base       *url.URL
	token      string
	licenseKey string
	maxRetries int
	hc         *http.Client
	metrics    *Metrics
	tracer     trace.Tracer
}

// New creates a Client. BaseURL must be an absolute http(s) URL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) URL", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = HTTPTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	retries := opts.MaxRetries
	switch {
	case retries == 0:
		retries = MaxRetries
	case retries < 0:
		retries = 0
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Client{
		base:       base,
		token:      opts.Token,
		licenseKey: opts.LicenseKey,
		maxRetries: retries,
		hc:         hc,
		metrics:    opts.Metrics,
		tracer:     tp.Tracer(tracerName),
	}, nil
}

// Supports reports whether the client holds every credential in auth.
func (c *Client) Supports(auth AuthSet) bool {
	if auth.Has(AuthToken) && c.token == "" {
		return false
	}
	if auth.Has(AuthLicense) && c.licenseKey == "" {
		return false
	}
	return true
}

// Do sends req and returns the decoded response. GET requests are retried on
// transient failures; other methods are sent exactly once.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Auth.Has(AuthToken) && c.token == "" {
		return nil, fmt.Errorf("%s %s: %w: no token configured", req.Method, req.Path, types.ErrAuthentication)
	}
	if req.Auth.Has(AuthLicense) && c.licenseKey == "" {
		return nil, fmt.Errorf("%s %s: %w: no license key configured", req.Method, req.Path, types.ErrAuthorization)
	}
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
	}
	target := c.base.JoinPath(req.Path).String()
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "orka.request", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
			attribute.String("orka.auth", req.Auth.String()),
			attribute.String("orka.request_id", requestID),
		))
	defer span.End()

	retries := 0
	if req.Method == http.MethodGet {
		retries = c.maxRetries
	}
	logger := log.WithFunc("transport.Do")
	logger.Debugf(ctx, "%s %s (request %s, auth %s)", req.Method, req.Path, requestID, req.Auth)

	start := time.Now()
	resp, err := DoWithRetry(ctx, retries, func() (*Response, error) {
		return c.roundTrip(ctx, req, target, requestID, body)
	})
	c.metrics.observe(req.Method, resp, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var ae *types.APIError
		if errors.As(err, &ae) {
			span.SetAttributes(attribute.Int("http.response.status_code", ae.Code))
		}
		logger.Warnf(ctx, "%s %s (request %s): %v", req.Method, req.Path, requestID, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req *Request, target, requestID string, body []byte) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", req.Method, req.Path, err)
	}
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", version.UserAgent())
	hreq.Header.Set(headerRequestID, requestID)
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if req.Auth.Has(AuthToken) {
		hreq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if req.Auth.Has(AuthLicense) {
		hreq.Header.Set(headerLicense, c.licenseKey)
	}

	resp, err := c.hc.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.Path, types.ErrTransport, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s read body: %w: %w", req.Method, req.Path, types.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.APIError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("%s %s → %d: %s", req.Method, req.Path, resp.StatusCode, errorMessage(rb)),
			Kind:    KindForStatus(resp.StatusCode),
		}
	}
	payload, err := decodeBody(rb)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: payload}, nil
}

// KindForStatus maps a non-2xx HTTP status onto the error taxonomy.
func KindForStatus(code int) error {
	switch {
	case code == http.StatusNotFound:
		return types.ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return types.ErrAuthentication
	case code >= 400 && code < 500:
		return types.ErrValidation
	default:
		return types.ErrTransport
	}
}

func decodeBody(rb []byte) (wire.Payload, error) {
	if len(bytes.TrimSpace(rb)) == 0 {
		return wire.Payload{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(rb))
	dec.UseNumber()
	var payload wire.Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %w", types.ErrMalformedResponse, err)
	}
	if payload == nil {
		payload = wire.Payload{}
	}
	return payload, nil
}

// errorMessage extracts the server-described reason from an error body:
// "message", then "errors[].message", then the raw text.
func errorMessage(rb []byte) string {
	var body struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(rb, &body) == nil {
		var msgs []string
		if body.Message != "" {
			msgs = append(msgs, body.Message)
		}
		for _, e := range body.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return strings.TrimSpace(string(rb))
}
