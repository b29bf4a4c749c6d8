package vm

import (
	"context"
	"maps"
	"sync"

	"github.com/cocoonstack/orka/transport"
	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/wire"
)

// fakeTransport records every request and answers from a per-path table.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*transport.Request
	replies  map[string]wire.Payload
	err      error
	token    bool
	license  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{replies: map[string]wire.Payload{}, token: true}
}

func (f *fakeTransport) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	cp.Body = maps.Clone(req.Body)
	f.requests = append(f.requests, &cp)
	if f.err != nil {
		return nil, f.err
	}
	body := f.replies[req.Path]
	if body == nil {
		body = wire.Payload{}
	}
	return &transport.Response{StatusCode: 200, Body: body}, nil
}

func (f *fakeTransport) Supports(auth transport.AuthSet) bool {
	if auth.Has(transport.AuthToken) && !f.token {
		return false
	}
	if auth.Has(transport.AuthLicense) && !f.license {
		return false
	}
	return true
}

func (f *fakeTransport) calls() []*transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*transport.Request(nil), f.requests...)
}

func (f *fakeTransport) last() *transport.Request {
	reqs := f.calls()
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

// fakeResolver counts lookups per kind.
type fakeResolver struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeResolver() *fakeResolver { return &fakeResolver{counts: map[string]int{}} }

func (r *fakeResolver) hit(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[kind]++
}

func (r *fakeResolver) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[kind]
}

func (r *fakeResolver) Node(_ context.Context, name string) (*types.Node, error) {
	r.hit("node")
	return &types.Node{Name: name}, nil
}

func (r *fakeResolver) Image(_ context.Context, name string) (*types.Image, error) {
	r.hit("image")
	return &types.Image{Name: name}, nil
}

func (r *fakeResolver) VMConfiguration(_ context.Context, name string) (*types.VMConfiguration, error) {
	r.hit("config")
	return &types.VMConfiguration{Name: name}, nil
}

func (r *fakeResolver) User(_ context.Context, email string) (*types.User, error) {
	r.hit("user")
	return &types.User{Email: email}, nil
}

func sampleWire() map[string]any {
	return map[string]any{
		"virtual_machine_id":     "a1b2c3d4",
		"virtual_machine_name":   "ci-runner",
		"node_location":          "macpro-1",
		"node_status":            "UP",
		"virtual_machine_ip":     "10.221.188.4",
		"vnc_port":               "6000",
		"screen_sharing_port":    "5900",
		"ssh_port":               "2222",
		"cpu":                    6,
		"vcpu":                   "6",
		"RAM":                    "16G",
		"base_image":             "sonoma-90gb.img",
		"image":                  "sonoma-cfg",
		"configuration_template": "default",
		"vm_status":              "running",
		"io_boost":               true,
		"use_saved_state":        "false",
		"reserved_ports": []any{
			map[string]any{"host_port": 8822, "guest_port": 22, "protocol": "TCP"},
			map[string]any{"host_port": "8080", "guest_port": "80", "protocol": "TCP"},
			map[string]any{"host_port": 9000, "guest_port": 9000, "protocol": "UDP"},
		},
		"creation_timestamp": "2024-03-01T10:20:30.000Z",
		"owner":              "dev@example.com",
		"some_future_field":  []any{"ignored"},
	}
}

func decodeSample(f *fakeTransport, r Resolver, admin bool) (*Instance, error) {
	return Decode(sampleWire(), DecodeContext{Transport: f, Resolver: r, Admin: admin})
}
