package orka

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/cocoonstack/orka/transport"
	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/vm"
)

const (
	pathVMList    = "resources/vm/list"
	pathVMListAll = "resources/vm/list/all"
	pathVMStatus  = "resources/vm/status/"

	keyVMResources = "virtual_machine_resources"
	keyVMStatus    = "status"

	// minPrefixLen is the shortest id prefix VMInstance accepts.
	minPrefixLen = 3
)

// VMInstances lists the deployed instances owned by the acting user.
func (c *Client) VMInstances(ctx context.Context) ([]*vm.Instance, error) {
	return c.vmInstances(ctx, pathVMList, transport.AuthToken, false)
}

// AllVMInstances lists the deployed instances of every user. It needs the
// license key, and so do the actions on the returned instances.
func (c *Client) AllVMInstances(ctx context.Context) ([]*vm.Instance, error) {
	return c.vmInstances(ctx, pathVMListAll, transport.AuthAdmin, true)
}

// VMInstancesByName returns the deployed instances named name.
func (c *Client) VMInstancesByName(ctx context.Context, name string) ([]*vm.Instance, error) {
	return c.vmInstances(ctx, pathVMStatus+url.PathEscape(name), transport.AuthToken, false)
}

func (c *Client) vmInstances(ctx context.Context, path string, auth transport.AuthSet, admin bool) ([]*vm.Instance, error) {
	resources, err := c.list(ctx, path, keyVMResources, auth)
	if err != nil {
		return nil, err
	}
	var out []*vm.Instance
	for _, r := range resources {
		// Resources that are not deployed carry no status entries.
		statuses, err := r.Objects(keyVMStatus)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		insts, err := vm.DecodeAll(statuses, c.decodeContext(admin))
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		out = append(out, insts...)
	}
	log.WithFunc("orka.vmInstances").Debugf(ctx, "%s: %d instances", path, len(out))
	return out, nil
}

// VMInstance finds one of the acting user's instances by exact id, then by
// unique name, then by unique id prefix of at least three characters.
func (c *Client) VMInstance(ctx context.Context, ref string) (*vm.Instance, error) {
	insts, err := c.VMInstances(ctx)
	if err != nil {
		return nil, err
	}
	return matchInstance(insts, ref)
}

func matchInstance(insts []*vm.Instance, ref string) (*vm.Instance, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty vm reference", types.ErrValidation)
	}
	for _, inst := range insts {
		if inst.ID() == ref {
			return inst, nil
		}
	}
	if inst, err := unique(insts, ref, func(i *vm.Instance) bool { return i.Name() == ref }); inst != nil || err != nil {
		return inst, err
	}
	if len(ref) >= minPrefixLen {
		if inst, err := unique(insts, ref, func(i *vm.Instance) bool { return strings.HasPrefix(i.ID(), ref) }); inst != nil || err != nil {
			return inst, err
		}
	}
	return nil, fmt.Errorf("vm %q: %w", ref, types.ErrNotFound)
}

// unique returns the only instance matching, nil if none match, or an error
// if several do.
func unique(insts []*vm.Instance, ref string, match func(*vm.Instance) bool) (*vm.Instance, error) {
	var found *vm.Instance
	for _, inst := range insts {
		if !match(inst) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: ambiguous vm reference %q: multiple matches", types.ErrValidation, ref)
		}
		found = inst
	}
	return found, nil
}

// vmByID backs the references returned by Deploy.
func (c *Client) vmByID(ctx context.Context, id string) (*vm.Instance, error) {
	insts, err := c.VMInstances(ctx)
	if err != nil {
		return nil, err
	}
	for _, inst := range insts {
		if inst.ID() == id {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("vm %s: %w", id, types.ErrNotFound)
}
