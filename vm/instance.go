// Package vm models a deployed Orka VM instance as an immutable snapshot.
//
// An Instance is produced only by Decode. Its nested resources (node, owner,
// base image, configuration) are lazy references bound to the Resolver that
// decoded it. Lifecycle methods send one request each through the Transport
// and never modify the snapshot; to observe a new state, fetch the instance
// again.
package vm

import (
	"context"
	"slices"
	"time"

	units "github.com/docker/go-units"

	"github.com/cocoonstack/orka/lazy"
	"github.com/cocoonstack/orka/transport"
	"github.com/cocoonstack/orka/types"
)

// Transport sends requests to the Orka API.
type Transport interface {
	Do(ctx context.Context, req *transport.Request) (*transport.Response, error)
	// Supports reports whether the transport holds every credential in auth.
	Supports(auth transport.AuthSet) bool
}

// Resolver fetches the peer resources an Instance points at. Each method has
// the lazy.Fetcher shape so it can back a lazy.Ref directly.
type Resolver interface {
	Node(ctx context.Context, name string) (*types.Node, error)
	Image(ctx context.Context, name string) (*types.Image, error)
	VMConfiguration(ctx context.Context, name string) (*types.VMConfiguration, error)
	User(ctx context.Context, email string) (*types.User, error)
}

// Instance is a point-in-time snapshot of a VM instance.
type Instance struct {
	id   string
	name string

	node       *lazy.Ref[*types.Node]
	nodeStatus string
	owner      *lazy.Ref[*types.User]

	ip                string
	vncPort           int
	screenSharingPort int
	sshPort           int
	reservedPorts     []types.PortMapping

	cpu  int
	vcpu int
	ram  string

	baseImage             *lazy.Ref[*types.Image]
	config                *lazy.Ref[*types.VMConfiguration]
	configurationTemplate string

	status        string
	ioBoost       bool
	useSavedState bool
	createdAt     time.Time

	transport Transport
	resolver  Resolver
	admin     bool
}

// ID is the server-assigned identifier.
func (i *Instance) ID() string   { return i.id }
func (i *Instance) Name() string { return i.name }

// Node is the node the instance runs on, or nil when the server did not say.
func (i *Instance) Node() *lazy.Ref[*types.Node] { return i.node }
func (i *Instance) NodeStatus() string           { return i.nodeStatus }

// Owner is the user that deployed the instance, or nil.
func (i *Instance) Owner() *lazy.Ref[*types.User] { return i.owner }

func (i *Instance) IP() string             { return i.ip }
func (i *Instance) VNCPort() int           { return i.vncPort }
func (i *Instance) ScreenSharingPort() int { return i.screenSharingPort }
func (i *Instance) SSHPort() int           { return i.sshPort }

// ReservedPorts returns the port mappings in server order. The slice is a
// copy.
func (i *Instance) ReservedPorts() []types.PortMapping { return slices.Clone(i.reservedPorts) }

func (i *Instance) CPU() int  { return i.cpu }
func (i *Instance) VCPU() int { return i.vcpu }

// RAM is the memory size as formatted by the server, e.g. "16G".
func (i *Instance) RAM() string { return i.ram }

// RAMBytes parses RAM.
func (i *Instance) RAMBytes() (int64, error) { return units.RAMInBytes(i.ram) }

// BaseImage is the image the instance was deployed from, or nil.
func (i *Instance) BaseImage() *lazy.Ref[*types.Image] { return i.baseImage }

// Config is the VM configuration the instance was deployed from, or nil.
func (i *Instance) Config() *lazy.Ref[*types.VMConfiguration] { return i.config }
func (i *Instance) ConfigurationTemplate() string             { return i.configurationTemplate }

// Status is the raw vm_status value.
func (i *Instance) Status() string { return i.status }

// State is Status as a VMState. Values outside the known set pass through.
func (i *Instance) State() types.VMState { return types.VMState(i.status) }

func (i *Instance) IOBoost() bool        { return i.ioBoost }
func (i *Instance) UseSavedState() bool  { return i.useSavedState }
func (i *Instance) CreatedAt() time.Time { return i.createdAt }

// Admin reports whether the instance came from an administrative listing.
// Actions on such instances require the license key.
func (i *Instance) Admin() bool { return i.admin }

func (i *Instance) String() string { return i.name + " (" + i.id + ")" }
