package orka

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/projecteru2/core/log"

	"github.com/cocoonstack/orka/lazy"
	"github.com/cocoonstack/orka/transport"
	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/vm"
)

const (
	pathDeploy = "resources/vm/deploy"

	keyDeployedID = "vm_id"
)

// DeployOptions are the optional parameters of Deploy. Unset fields are not
// sent.
type DeployOptions struct {
	// Node pins the instance to a node; the scheduler picks one otherwise.
	Node vm.NodeRef
	// Replicas deploys a scaled instance.
	Replicas int
	// VNCConsole toggles the VNC console.
	VNCConsole *bool
	// ReservedPorts are host-to-guest port forwards, in order.
	ReservedPorts []types.PortMapping
	// Metadata is exposed to the guest.
	Metadata map[string]string
}

// Deploy creates an instance from cfg. The returned reference is keyed by
// the new instance id and resolves by listing the acting user's instances.
func (c *Client) Deploy(ctx context.Context, cfg vm.ConfigRef, opts DeployOptions) (*lazy.Ref[*vm.Instance], error) {
	if cfg.Name() == "" {
		return nil, fmt.Errorf("deploy: %w: configuration is required", types.ErrValidation)
	}
	body := map[string]any{"orka_vm_name": cfg.Name()}
	if n := opts.Node.Name(); n != "" {
		body["orka_node_name"] = n
	}
	if opts.Replicas > 0 {
		body["replicas"] = opts.Replicas
	}
	if opts.VNCConsole != nil {
		body["vnc_console"] = *opts.VNCConsole
	}
	if len(opts.ReservedPorts) > 0 {
		ports := make([]string, 0, len(opts.ReservedPorts))
		for _, p := range opts.ReservedPorts {
			ports = append(ports, strconv.Itoa(p.HostPort)+":"+strconv.Itoa(p.GuestPort))
		}
		body["reserved_ports"] = ports
	}
	if len(opts.Metadata) > 0 {
		items := make([]map[string]string, 0, len(opts.Metadata))
		for k, v := range opts.Metadata {
			items = append(items, map[string]string{"key": k, "value": v})
		}
		body["vm_metadata"] = map[string]any{"items": items}
	}

	resp, err := c.transport.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   pathDeploy,
		Body:   body,
		Auth:   transport.AuthToken,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", cfg.Name(), err)
	}
	id, err := resp.Body.Required(keyDeployedID)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", cfg.Name(), err)
	}
	log.WithFunc("orka.Deploy").Infof(ctx, "deployed %s from %s", id, cfg.Name())
	return lazy.New[*vm.Instance](id, c.vmByID), nil
}
