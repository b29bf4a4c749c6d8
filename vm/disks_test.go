package vm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/wire"
)

func TestDisks_FreshFetchPerRange(t *testing.T) {
	inst, ft, _ := newInstance(t, false)
	ft.replies["resources/vm/list-disks/a1b2c3d4"] = wire.Payload{"drives": []any{
		map[string]any{"type": "disk", "device": "vda", "target": "sda", "source": "/var/orka/a1b2c3d4/boot.img"},
		map[string]any{"type": "disk", "device": "vdb", "target": "sdb", "source": "/var/orka/data.img"},
	}}
	ctx := context.Background()

	var devices []string
	for d, err := range inst.Disks(ctx) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		devices = append(devices, d.Device)
	}
	if len(devices) != 2 || devices[0] != "vda" || devices[1] != "vdb" {
		t.Errorf("expected [vda vdb] in order, got %v", devices)
	}

	disks, err := inst.ListDisks(ctx)
	if err != nil {
		t.Fatalf("list disks: %v", err)
	}
	if disks[1] != (types.Disk{Type: "disk", Device: "vdb", Target: "sdb", Source: "/var/orka/data.img"}) {
		t.Errorf("unexpected disk %+v", disks[1])
	}

	reqs := ft.calls()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests (no caching), got %d", len(reqs))
	}
	if reqs[0].Method != http.MethodGet || reqs[0].Path != "resources/vm/list-disks/a1b2c3d4" || reqs[0].Body != nil {
		t.Errorf("unexpected request %+v", reqs[0])
	}
}

func TestDisks_EarlyBreak(t *testing.T) {
	inst, ft, _ := newInstance(t, false)
	ft.replies["resources/vm/list-disks/a1b2c3d4"] = wire.Payload{"drives": []any{
		map[string]any{"device": "vda"},
		map[string]any{"device": "vdb"},
	}}
	n := 0
	for range inst.Disks(context.Background()) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("expected 1 iteration, got %d", n)
	}
}

func TestDisks_Error(t *testing.T) {
	inst, ft, _ := newInstance(t, false)
	ft.err = &types.APIError{Code: 404, Message: "no such vm", Kind: types.ErrNotFound}
	n := 0
	for _, err := range inst.Disks(context.Background()) {
		n++
		if !errors.Is(err, types.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	}
	if n != 1 {
		t.Errorf("expected a single error element, got %d", n)
	}
}

func TestDisks_EmptyAndMalformed(t *testing.T) {
	inst, ft, _ := newInstance(t, false)
	disks, err := inst.ListDisks(context.Background())
	if err != nil || len(disks) != 0 {
		t.Errorf("expected no disks, got %v (%v)", disks, err)
	}
	ft.replies["resources/vm/list-disks/a1b2c3d4"] = wire.Payload{"drives": "vda"}
	if _, err := inst.ListDisks(context.Background()); !errors.Is(err, types.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}
