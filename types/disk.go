package types

// Disk describes a drive attached to a VM instance.
type Disk struct {
	Type   string `json:"type"`
	Device string `json:"device"`
	Target string `json:"target"`
	Source string `json:"source"`
}
