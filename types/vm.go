package types

// VMState is the logical lifecycle state of a VM instance as reported by the
// server in vm_status. The server owns the state machine; the client only
// carries the value captured when a snapshot was fetched.
type VMState string

const (
	VMStateDeploying VMState = "deploying"
	VMStateRunning   VMState = "running"
	VMStateStopped   VMState = "stopped"
	VMStateSuspended VMState = "suspended"
	VMStateReverting VMState = "reverting"
	VMStateMigrating VMState = "migrating"
	VMStateScaling   VMState = "scaling"
	VMStateDeleted   VMState = "deleted"
)

// VMConfiguration is a named deployment template. VM instances are deployed
// from a configuration and point back at it.
type VMConfiguration struct {
	Name           string `json:"orka_vm_name"`
	BaseImage      string `json:"orka_base_image"`
	Image          string `json:"orka_image"`
	CPU            int    `json:"orka_cpu_core"`
	VCPU           int    `json:"vcpu_count"`
	IOBoost        bool   `json:"io_boost"`
	UseSavedState  bool   `json:"use_saved_state"`
	GPUPassthrough bool   `json:"gpu_passthrough"`
	Tag            string `json:"tag,omitempty"`
	TagRequired    bool   `json:"tag_required"`
	Owner          string `json:"owner,omitempty"`
}
