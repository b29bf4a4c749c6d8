package orka

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cocoonstack/orka/config"
	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/vm"
)

// fakeOrka serves canned replies per path and records request bodies.
type fakeOrka struct {
	mu      sync.Mutex
	replies map[string]any
	bodies  map[string]map[string]any
	hits    map[string]int
	total   atomic.Int32
}

func newFakeOrka() *fakeOrka {
	return &fakeOrka{replies: map[string]any{}, bodies: map[string]map[string]any{}, hits: map[string]int{}}
}

func (f *fakeOrka) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.total.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.Method + " " + r.URL.Path
	f.hits[key]++
	if r.Body != nil {
		var body map[string]any
		if json.NewDecoder(r.Body).Decode(&body) == nil {
			f.bodies[key] = body
		}
	}
	if r.URL.Path != "/health-check" && r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid token"}`))
		return
	}
	reply, ok := f.replies[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(reply)
}

func (f *fakeOrka) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeOrka) body(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func vmPayload(id, name, node string) map[string]any {
	return map[string]any{
		"virtual_machine_id":   id,
		"virtual_machine_name": name,
		"node_location":        node,
		"ssh_port":             "8822",
		"vm_status":            "running",
		"base_image":           "sonoma.img",
		"image":                name + "-cfg",
		"owner":                "dev@example.com",
		"creation_timestamp":   "2024-03-01T10:20:30Z",
	}
}

func vmList(vms ...map[string]any) map[string]any {
	var statuses []any
	for _, v := range vms {
		statuses = append(statuses, v)
	}
	return map[string]any{
		"message": "",
		"virtual_machine_resources": []any{
			map[string]any{"virtual_machine_name": "deployed", "vm_deployment_status": "Deployed", "status": statuses},
			map[string]any{"virtual_machine_name": "pending", "vm_deployment_status": "Not Deployed"},
		},
	}
}

func newTestClient(t *testing.T, f *fakeOrka, license string) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := New(&config.Config{
		BaseURL:        srv.URL,
		Token:          "tok",
		LicenseKey:     license,
		Identity:       "dev@example.com",
		TimeoutSeconds: 5,
		MaxRetries:     -1,
	}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

// --- New ---

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(&config.Config{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestNew_WithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	conf := &config.Config{BaseURL: "http://orka.local", Token: "tok"}
	if _, err := New(conf, WithMetrics(reg)); err != nil {
		t.Fatalf("first client: %v", err)
	}
	if _, err := New(conf, WithMetrics(reg)); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFakeOrka()
	f.replies["GET /health-check"] = map[string]any{"status": "pass"}
	c := newTestClient(t, f, "")
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("health check: %v", err)
	}
}

// --- VM listings ---

func TestVMInstances(t *testing.T) {
	f := newFakeOrka()
	f.replies["GET /resources/vm/list"] = vmList(vmPayload("abc111", "runner", "node-1"), vmPayload("abc222", "builder", "node-2"))
	c := newTestClient(t, f, "")

	insts, err := c.VMInstances(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(insts) != 2 {
		t.Fatalf("expected 2 instances (undeployed resources skipped), got %d", len(insts))
	}
	if insts[0].ID() != "abc111" || insts[1].Name() != "builder" || insts[0].SSHPort() != 8822 {
		t.Errorf("unexpected instances %v", insts)
	}
	if insts[0].Admin() {
		t.Error("expected non-admin instances")
	}
}

func TestAllVMInstances_RequiresLicense(t *testing.T) {
	f := newFakeOrka()
	f.replies["GET /resources/vm/list/all"] = vmList(vmPayload("abc111", "runner", "node-1"))

	c := newTestClient(t, f, "")
	if _, err := c.AllVMInstances(context.Background()); !errors.Is(err, types.ErrAuthorization) {
		t.Errorf("expected ErrAuthorization, got %v", err)
	}
	if f.total.Load() != 0 {
		t.Errorf("expected no request, got %d", f.total.Load())
	}

	c = newTestClient(t, f, "lic")
	insts, err := c.AllVMInstances(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(insts) != 1 || !insts[0].Admin() {
		t.Errorf("expected one admin instance, got %v", insts)
	}
}

func TestVMInstancesByName(t *testing.T) {
	f := newFakeOrka()
	f.replies["GET /resources/vm/status/runner"] = vmList(vmPayload("abc111", "runner", "node-1"), vmPayload("abc333", "runner", "node-2"))
	c := newTestClient(t, f, "")
	insts, err := c.VMInstancesByName(context.Background(), "runner")
	if err != nil || len(insts) != 2 {
		t.Fatalf("expected 2 instances, got %d (%v)", len(insts), err)
	}
}

func TestVMInstance_Resolution(t *testing.T) {
	f := newFakeOrka()
	f.replies["GET /resources/vm/list"] = vmList(
		vmPayload("abc111", "runner", "node-1"),
		vmPayload("abd222", "builder", "node-1"),
		vmPayload("xyz333", "builder", "node-2"),
	)
	c := newTestClient(t, f, "")
	ctx := context.Background()

	cases := []struct {
		ref    string
		wantID string
		kind   error
	}{
		{"abd222", "abd222", nil},
		{"runner", "abc111", nil},
		{"xyz", "xyz333", nil},
		{"builder", "", types.ErrValidation},
		{"ab", "", types.ErrNotFound},
		{"abx", "", types.ErrNotFound},
		{"", "", types.ErrValidation},
	}
	for _, tc := range cases {
		inst, err := c.VMInstance(ctx, tc.ref)
		if tc.kind != nil {
			if !errors.Is(err, tc.kind) {
				t.Errorf("%q: expected %v, got %v", tc.ref, tc.kind, err)
			}
			continue
		}
		if err != nil || inst.ID() != tc.wantID {
			t.Errorf("%q: expected %s, got %v (%v)", tc.ref, tc.wantID, inst, err)
		}
	}
}

func TestVMInstance_AmbiguousPrefix(t *testing.T) {
	f := newFakeOrka()
	f.replies["GET /resources/vm/list"] = vmList(vmPayload("abc111", "a", "n"), vmPayload("abc222", "b", "n"))
	c := newTestClient(t, f, "")
	if _, err := c.VMInstance(context.Background(), "abc"); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ambiguity error, got %v", err)
	}
}

func TestVMInstances_Malformed(t *testing.T) {
	f := newFakeOrka()
	bad := vmPayload("abc111", "runner", "node-1")
	delete(bad, "creation_timestamp")
	f.replies["GET /resources/vm/list"] = vmList(bad)
	c := newTestClient(t, f, "")
	if _, err := c.VMInstances(context.Background()); !errors.Is(err, types.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestVMInstances_Unauthorized(t *testing.T) {
	f := newFakeOrka()
	srv := httptest.NewServer(f)
	defer srv.Close()
	c, err := New(&config.Config{BaseURL: srv.URL, Token: "wrong", MaxRetries: -1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.VMInstances(context.Background()); !errors.Is(err, types.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

// --- End to end ---

func TestInstance_LazyRefsBoundToClient(t *testing.T) {
	f := newFakeOrka()
	f.replies["GET /resources/vm/list"] = vmList(vmPayload("abc111", "runner", "node-1"))
	f.replies["GET /resources/node/status/node-1"] = map[string]any{"nodes": []any{
		map[string]any{"name": "node-1", "total_memory": "64G", "available_cpu": 12},
	}}
	f.replies["GET /resources/image/list"] = map[string]any{"image_attributes": []any{
		map[string]any{"image": "sonoma.img", "image_size": "90G", "owner": "dev@example.com"},
	}}
	c := newTestClient(t, f, "")
	ctx := context.Background()

	inst, err := c.VMInstance(ctx, "runner")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := inst.Node().Resolve(ctx)
			if err != nil || n.Name != "node-1" || n.AvailableCPU != 12 {
				t.Errorf("resolve node: %v, %v", n, err)
			}
		}()
	}
	wg.Wait()
	if got := f.hitCount("GET /resources/node/status/node-1"); got != 1 {
		t.Errorf("expected 1 node fetch, got %d", got)
	}

	img, err := inst.BaseImage().Resolve(ctx)
	if err != nil || img.Size != "90G" {
		t.Errorf("resolve image: %v, %v", img, err)
	}
	owner, err := inst.Owner().Resolve(ctx)
	if err != nil || owner.Email != "dev@example.com" {
		t.Errorf("resolve owner: %v, %v", owner, err)
	}
	if f.hitCount("GET /users") != 0 {
		t.Error("expected the acting user to resolve without a request")
	}
	if _, err := inst.Config().Resolve(ctx); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown config endpoint, got %v", err)
	}
}

func TestInstance_ActionThroughClient(t *testing.T) {
	f := newFakeOrka()
	f.replies["GET /resources/vm/list"] = vmList(vmPayload("abc111", "runner", "node-1"))
	f.replies["POST /resources/vm/exec/stop"] = map[string]any{"message": "Successfully stopped VM"}
	c := newTestClient(t, f, "")
	ctx := context.Background()

	inst, err := c.VMInstance(ctx, "abc111")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if err := inst.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := f.body("POST /resources/vm/exec/stop"); got["orka_vm_name"] != "abc111" {
		t.Errorf("unexpected stop body %v", got)
	}
	if err := inst.Start(ctx); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound from unknown endpoint, got %v", err)
	}
}

// --- Deploy ---

func TestDeploy(t *testing.T) {
	f := newFakeOrka()
	f.replies["POST /resources/vm/deploy"] = map[string]any{"message": "Successfully deployed VM", "vm_id": "new999", "ip": "10.0.0.5"}
	f.replies["GET /resources/vm/list"] = vmList(vmPayload("new999", "runner", "node-1"))
	c := newTestClient(t, f, "")
	ctx := context.Background()

	off := false
	ref, err := c.Deploy(ctx, vm.ConfigByHandle(&types.VMConfiguration{Name: "runner-cfg"}), DeployOptions{
		Node:          vm.NodeByName("node-1"),
		VNCConsole:    &off,
		ReservedPorts: []types.PortMapping{{HostPort: 8080, GuestPort: 80}},
		Metadata:      map[string]string{"role": "ci"},
	})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if ref.Key() != "new999" || ref.Resolved() {
		t.Errorf("expected unresolved ref new999, got %q", ref.Key())
	}
	body := f.body("POST /resources/vm/deploy")
	if body["orka_vm_name"] != "runner-cfg" || body["orka_node_name"] != "node-1" || body["vnc_console"] != false {
		t.Errorf("unexpected deploy body %v", body)
	}
	if ports, _ := body["reserved_ports"].([]any); len(ports) != 1 || ports[0] != "8080:80" {
		t.Errorf("unexpected reserved ports %v", body["reserved_ports"])
	}
	if _, ok := body["replicas"]; ok {
		t.Error("expected replicas to be omitted")
	}
	if f.hitCount("GET /resources/vm/list") != 0 {
		t.Error("expected no listing before Resolve")
	}

	inst, err := ref.Resolve(ctx)
	if err != nil || inst.ID() != "new999" {
		t.Fatalf("resolve: %v, %v", inst, err)
	}
	if _, err := ref.Resolve(ctx); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if got := f.hitCount("GET /resources/vm/list"); got != 1 {
		t.Errorf("expected 1 listing, got %d", got)
	}
}

func TestDeploy_Errors(t *testing.T) {
	f := newFakeOrka()
	f.replies["POST /resources/vm/deploy"] = map[string]any{"message": "no id"}
	c := newTestClient(t, f, "")
	ctx := context.Background()
	if _, err := c.Deploy(ctx, vm.ConfigByName(""), DeployOptions{}); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := c.Deploy(ctx, vm.ConfigByName("cfg"), DeployOptions{}); !errors.Is(err, types.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}
