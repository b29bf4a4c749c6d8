package vm

import (
	"github.com/cocoonstack/orka/lazy"
	"github.com/cocoonstack/orka/types"
)

// NodeRef names a node either directly, through a fetched Node, or through a
// lazy reference. The zero value names no node.
type NodeRef struct {
	name string
}

func NodeByName(name string) NodeRef { return NodeRef{name: name} }

func NodeByHandle(n *types.Node) NodeRef {
	if n == nil {
		return NodeRef{}
	}
	return NodeRef{name: n.Name}
}

// NodeFromRef uses the reference key; the node is not fetched.
func NodeFromRef(r *lazy.Ref[*types.Node]) NodeRef { return NodeRef{name: r.Key()} }

// Name is the canonical node name sent on the wire.
func (r NodeRef) Name() string { return r.name }

// ImageRef names a base image the same way NodeRef names a node.
type ImageRef struct {
	name string
}

func ImageByName(name string) ImageRef { return ImageRef{name: name} }

func ImageByHandle(img *types.Image) ImageRef {
	if img == nil {
		return ImageRef{}
	}
	return ImageRef{name: img.Name}
}

func ImageFromRef(r *lazy.Ref[*types.Image]) ImageRef { return ImageRef{name: r.Key()} }

func (r ImageRef) Name() string { return r.name }

// ConfigRef names a VM configuration for deployment.
type ConfigRef struct {
	name string
}

func ConfigByName(name string) ConfigRef { return ConfigRef{name: name} }

func ConfigByHandle(c *types.VMConfiguration) ConfigRef {
	if c == nil {
		return ConfigRef{}
	}
	return ConfigRef{name: c.Name}
}

func ConfigFromRef(r *lazy.Ref[*types.VMConfiguration]) ConfigRef {
	return ConfigRef{name: r.Key()}
}

func (r ConfigRef) Name() string { return r.name }
