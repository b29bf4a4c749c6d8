package vm

import (
	"context"
	"iter"
	"net/http"
	"net/url"

	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/wire"
)

const pathListDisks = "resources/vm/list-disks/"

// Disks returns a sequence over the drives attached to the instance. Each
// range issues a fresh request, so the result reflects the current state. A
// failed request yields one error and ends the sequence.
func (i *Instance) Disks(ctx context.Context) iter.Seq2[types.Disk, error] {
	return func(yield func(types.Disk, error) bool) {
		disks, err := i.fetchDisks(ctx)
		if err != nil {
			yield(types.Disk{}, err)
			return
		}
		for _, d := range disks {
			if !yield(d, nil) {
				return
			}
		}
	}
}

// ListDisks collects Disks into a slice.
func (i *Instance) ListDisks(ctx context.Context) ([]types.Disk, error) {
	return i.fetchDisks(ctx)
}

func (i *Instance) fetchDisks(ctx context.Context) ([]types.Disk, error) {
	req := i.request(http.MethodGet, pathListDisks+url.PathEscape(i.id), nil)
	resp, err := i.dispatch(ctx, "Disks", req)
	if err != nil {
		return nil, err
	}
	drives, err := resp.Body.Objects("drives")
	if err != nil {
		return nil, err
	}
	disks := make([]types.Disk, 0, len(drives))
	for _, d := range drives {
		disks = append(disks, wire.DecodeDisk(d))
	}
	return disks, nil
}
