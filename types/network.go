package types

// PortMapping forwards a host port on the node to a guest port on the VM.
// Order within a VM's reserved ports is significant and preserved.
type PortMapping struct {
	HostPort  int    `json:"host_port"`
	GuestPort int    `json:"guest_port"`
	Protocol  string `json:"protocol"`
}
