package vm

import (
	"fmt"

	"github.com/cocoonstack/orka/lazy"
	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/wire"
)

// Wire keys of a VM instance object.
const (
	keyID                    = "virtual_machine_id"
	keyName                  = "virtual_machine_name"
	keyNode                  = "node_location"
	keyNodeStatus            = "node_status"
	keyIP                    = "virtual_machine_ip"
	keyVNCPort               = "vnc_port"
	keyScreenSharingPort     = "screen_sharing_port"
	keySSHPort               = "ssh_port"
	keyCPU                   = "cpu"
	keyVCPU                  = "vcpu"
	keyRAM                   = "RAM"
	keyBaseImage             = "base_image"
	keyConfig                = "image"
	keyConfigurationTemplate = "configuration_template"
	keyStatus                = "vm_status"
	keyIOBoost               = "io_boost"
	keyUseSavedState         = "use_saved_state"
	keyReservedPorts         = "reserved_ports"
	keyCreatedAt             = "creation_timestamp"
	keyOwner                 = "owner"
)

// DecodeContext carries what an Instance needs beyond its wire data.
type DecodeContext struct {
	Transport Transport
	Resolver  Resolver
	// Admin marks instances obtained through an administrative listing.
	Admin bool
}

// Decode builds an Instance from one wire object. Identifier and timestamp
// fields are strict and fail with types.ErrMalformedResponse; ports and
// counts degrade to 0; unknown keys are ignored. Nested resources become
// lazy references and are never fetched here.
func Decode(raw map[string]any, dc DecodeContext) (*Instance, error) {
	p := wire.Payload(raw)
	id, err := p.Required(keyID)
	if err != nil {
		return nil, fmt.Errorf("decode vm: %w", err)
	}
	name, err := p.Required(keyName)
	if err != nil {
		return nil, fmt.Errorf("decode vm %s: %w", id, err)
	}
	createdAt, err := p.Time(keyCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode vm %s: %w", id, err)
	}
	ports, err := wire.DecodePortMappings(p, keyReservedPorts)
	if err != nil {
		return nil, fmt.Errorf("decode vm %s: %w", id, err)
	}

	var (
		fetchNode   lazy.Fetcher[*types.Node]
		fetchImage  lazy.Fetcher[*types.Image]
		fetchConfig lazy.Fetcher[*types.VMConfiguration]
		fetchUser   lazy.Fetcher[*types.User]
	)
	if r := dc.Resolver; r != nil {
		fetchNode, fetchImage, fetchConfig, fetchUser = r.Node, r.Image, r.VMConfiguration, r.User
	}

	return &Instance{
		id:                    id,
		name:                  name,
		node:                  ref(p.String(keyNode), fetchNode),
		nodeStatus:            p.String(keyNodeStatus),
		owner:                 ref(p.String(keyOwner), fetchUser),
		ip:                    p.String(keyIP),
		vncPort:               p.LenientInt(keyVNCPort),
		screenSharingPort:     p.LenientInt(keyScreenSharingPort),
		sshPort:               p.LenientInt(keySSHPort),
		reservedPorts:         ports,
		cpu:                   p.LenientInt(keyCPU),
		vcpu:                  p.LenientInt(keyVCPU),
		ram:                   p.String(keyRAM),
		baseImage:             ref(p.String(keyBaseImage), fetchImage),
		config:                ref(p.String(keyConfig), fetchConfig),
		configurationTemplate: p.String(keyConfigurationTemplate),
		status:                p.String(keyStatus),
		ioBoost:               p.Bool(keyIOBoost),
		useSavedState:         p.Bool(keyUseSavedState),
		createdAt:             createdAt,
		transport:             dc.Transport,
		resolver:              dc.Resolver,
		admin:                 dc.Admin,
	}, nil
}

// DecodeAll decodes a list of wire objects, failing on the first bad entry.
func DecodeAll(raws []wire.Payload, dc DecodeContext) ([]*Instance, error) {
	out := make([]*Instance, 0, len(raws))
	for _, raw := range raws {
		inst, err := Decode(raw, dc)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// ref returns nil for an absent key.
func ref[T any](key string, fetch lazy.Fetcher[T]) *lazy.Ref[T] {
	if key == "" {
		return nil
	}
	return lazy.New(key, fetch)
}
