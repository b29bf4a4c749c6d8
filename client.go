// Package orka is a client for the Orka virtualization API.
//
// A Client lists and looks up VM instances and the resources they point at.
// VM instances are immutable snapshots (see package vm); their lifecycle
// methods send requests through the same transport the Client uses.
package orka

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/cocoonstack/orka/config"
	"github.com/cocoonstack/orka/transport"
	"github.com/cocoonstack/orka/vm"
	"github.com/cocoonstack/orka/wire"
)

const pathHealthCheck = "health-check"

// Client is the entry point to the Orka API. It is safe for concurrent use.
type Client struct {
	transport vm.Transport
	identity  string
}

var _ vm.Resolver = (*Client)(nil)

// Option customizes the transport built by New.
type Option func(*transport.Options) error

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *transport.Options) error {
		o.HTTPClient = hc
		return nil
	}
}

// WithMetrics registers request metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *transport.Options) error {
		m, err := transport.NewMetrics(reg)
		if err != nil {
			return err
		}
		o.Metrics = m
		return nil
	}
}

// WithTracerProvider sets the provider for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *transport.Options) error {
		o.TracerProvider = tp
		return nil
	}
}

// New creates a Client from conf.
func New(conf *config.Config, opts ...Option) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	topts := transport.Options{
		BaseURL:    conf.BaseURL,
		Token:      conf.Token,
		LicenseKey: conf.LicenseKey,
		Timeout:    conf.Timeout(),
		MaxRetries: conf.MaxRetries,
	}
	for _, opt := range opts {
		if err := opt(&topts); err != nil {
			return nil, err
		}
	}
	t, err := transport.New(topts)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(t, conf.Identity), nil
}

// NewWithTransport creates a Client on top of an existing transport.
// identity is the email of the acting user and may be empty.
func NewWithTransport(t vm.Transport, identity string) *Client {
	return &Client{transport: t, identity: identity}
}

// Identity is the email of the acting user.
func (c *Client) Identity() string { return c.identity }

// HealthCheck reports whether the API is reachable. It needs no credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.get(ctx, pathHealthCheck, 0)
	return err
}

func (c *Client) get(ctx context.Context, path string, auth transport.AuthSet) (wire.Payload, error) {
	resp, err := c.transport.Do(ctx, &transport.Request{Method: http.MethodGet, Path: path, Auth: auth})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// list fetches path and returns the objects under key.
func (c *Client) list(ctx context.Context, path, key string, auth transport.AuthSet) ([]wire.Payload, error) {
	body, err := c.get(ctx, path, auth)
	if err != nil {
		return nil, err
	}
	objs, err := body.Objects(key)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return objs, nil
}

func (c *Client) decodeContext(admin bool) vm.DecodeContext {
	return vm.DecodeContext{Transport: c.transport, Resolver: c, Admin: admin}
}
