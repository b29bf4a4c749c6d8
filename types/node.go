package types

import units "github.com/docker/go-units"

// Node is a host machine that runs VM instances.
type Node struct {
	Name            string   `json:"name"`
	HostName        string   `json:"host_name"`
	Address         string   `json:"address"`
	HostIP          string   `json:"hostIP"`
	AvailableCPU    int      `json:"available_cpu"`
	AllocatableCPU  int      `json:"allocatable_cpu"`
	AvailableGPU    int      `json:"available_gpu"`
	TotalCPU        int      `json:"total_cpu"`
	TotalMemory     string   `json:"total_memory"`
	AvailableMemory string   `json:"available_memory"`
	State           string   `json:"state"`
	Tags            []string `json:"orka_tags,omitempty"`
}

// TotalMemoryBytes parses the server-formatted TotalMemory (e.g. "64G").
func (n *Node) TotalMemoryBytes() (int64, error) {
	return units.RAMInBytes(n.TotalMemory)
}

// AvailableMemoryBytes parses the server-formatted AvailableMemory.
func (n *Node) AvailableMemoryBytes() (int64, error) {
	return units.RAMInBytes(n.AvailableMemory)
}
