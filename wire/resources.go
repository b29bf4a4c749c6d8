package wire

import (
	"fmt"

	"github.com/cocoonstack/orka/types"
)

// DecodeNode decodes one entry of resources/node/list.
func DecodeNode(p Payload) (*types.Node, error) {
	name, err := p.Required("name")
	if err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	return &types.Node{
		Name:            name,
		HostName:        p.String("host_name"),
		Address:         p.String("address"),
		HostIP:          p.String("hostIP"),
		AvailableCPU:    p.LenientInt("available_cpu"),
		AllocatableCPU:  p.LenientInt("allocatable_cpu"),
		AvailableGPU:    p.LenientInt("available_gpu"),
		TotalCPU:        p.LenientInt("total_cpu"),
		TotalMemory:     p.String("total_memory"),
		AvailableMemory: p.String("available_memory"),
		State:           p.String("state"),
		Tags:            p.Strings("orka_tags"),
	}, nil
}

// DecodeImage decodes one entry of resources/image/list. Image timestamps
// are informational and parsed leniently.
func DecodeImage(p Payload) (*types.Image, error) {
	name, err := p.Required("image")
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &types.Image{
		Name:       name,
		Size:       p.String("image_size"),
		ModifiedAt: p.LenientTime("modified"),
		AddedAt:    p.LenientTime("date_added"),
		Owner:      p.String("owner"),
	}, nil
}

// DecodeVMConfiguration decodes one entry of resources/vm/configs.
func DecodeVMConfiguration(p Payload) (*types.VMConfiguration, error) {
	name, err := p.Required("orka_vm_name")
	if err != nil {
		return nil, fmt.Errorf("decode vm configuration: %w", err)
	}
	return &types.VMConfiguration{
		Name:           name,
		BaseImage:      p.String("orka_base_image"),
		Image:          p.String("orka_image"),
		CPU:            p.LenientInt("orka_cpu_core"),
		VCPU:           p.LenientInt("vcpu_count"),
		IOBoost:        p.Bool("io_boost"),
		UseSavedState:  p.Bool("use_saved_state"),
		GPUPassthrough: p.Bool("gpu_passthrough"),
		Tag:            p.String("tag"),
		TagRequired:    p.Bool("tag_required"),
		Owner:          p.String("owner"),
	}, nil
}

// DecodeDisk decodes one entry of a list-disks "drives" array.
func DecodeDisk(p Payload) types.Disk {
	return types.Disk{
		Type:   p.String("type"),
		Device: p.String("device"),
		Target: p.String("target"),
		Source: p.String("source"),
	}
}

// DecodePortMappings decodes a reserved-ports list, preserving wire order.
func DecodePortMappings(p Payload, key string) ([]types.PortMapping, error) {
	objs, err := p.Objects(key)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, nil
	}
	ports := make([]types.PortMapping, 0, len(objs))
	for _, o := range objs {
		ports = append(ports, types.PortMapping{
			HostPort:  o.LenientInt("host_port"),
			GuestPort: o.LenientInt("guest_port"),
			Protocol:  o.String("protocol"),
		})
	}
	return ports, nil
}
