package types

import "time"

// Image is a base image stored by the service.
type Image struct {
	Name       string    `json:"image"`
	Size       string    `json:"image_size"`
	ModifiedAt time.Time `json:"modified"`
	AddedAt    time.Time `json:"date_added"`
	Owner      string    `json:"owner,omitempty"`
}
