package vm

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cocoonstack/orka/lazy"
	"github.com/cocoonstack/orka/types"
)

// Action paths, relative to the API base URL.
const (
	pathDelete      = "resources/vm/delete"
	pathExec        = "resources/vm/exec/"
	pathMigrate     = "resources/vm/migrate"
	pathClone       = "resources/vm/clone"
	pathScale       = "resources/vm/scale"
	pathAttachDisk  = "resources/vm/attach-disk"
	pathImageSave   = "resources/image/save"
	pathImageCommit = "resources/image/commit"
	pathImageResize = "resources/image/resize"
)

// Delete removes the instance from its node.
func (i *Instance) Delete(ctx context.Context) error {
	body := map[string]any{bodyVMName: i.id}
	if n := i.node.Key(); n != "" {
		body[bodyNodeName] = n
	}
	_, err := i.dispatch(ctx, "Delete", i.request(http.MethodDelete, pathDelete, body))
	return err
}

func (i *Instance) Start(ctx context.Context) error   { return i.exec(ctx, "Start", "start") }
func (i *Instance) Stop(ctx context.Context) error    { return i.exec(ctx, "Stop", "stop") }
func (i *Instance) Suspend(ctx context.Context) error { return i.exec(ctx, "Suspend", "suspend") }
func (i *Instance) Resume(ctx context.Context) error  { return i.exec(ctx, "Resume", "resume") }

// Revert restarts the instance from its base image, discarding changes.
func (i *Instance) Revert(ctx context.Context) error { return i.exec(ctx, "Revert", "revert") }

// SaveState persists memory and disk so a later deploy can resume from it.
func (i *Instance) SaveState(ctx context.Context) error {
	return i.exec(ctx, "SaveState", "save-state")
}

func (i *Instance) exec(ctx context.Context, action, verb string) error {
	_, err := i.dispatch(ctx, action, i.request(http.MethodPost, pathExec+verb, map[string]any{bodyVMName: i.id}))
	return err
}

// Migrate moves the instance to dest.
func (i *Instance) Migrate(ctx context.Context, dest NodeRef) error {
	return i.relocate(ctx, "Migrate", pathMigrate, dest)
}

// Clone creates a copy of the instance on dest. The clone gets a new id that
// is only visible by listing instances again.
func (i *Instance) Clone(ctx context.Context, dest NodeRef) error {
	return i.relocate(ctx, "Clone", pathClone, dest)
}

func (i *Instance) relocate(ctx context.Context, action, path string, dest NodeRef) error {
	if dest.Name() == "" {
		return fmt.Errorf("%s vm %s: %w: destination node is required", action, i.id, types.ErrValidation)
	}
	body := map[string]any{
		bodyVMName:   i.name,
		bodyNewNodes: []string{dest.Name()},
	}
	if n := i.node.Key(); n != "" {
		body[bodyCurrentNodeName] = n
	}
	_, err := i.dispatch(ctx, action, i.request(http.MethodPost, path, body))
	return err
}

// Scale sets the number of replicas running under this instance.
func (i *Instance) Scale(ctx context.Context, replicas int) error {
	return i.scale(ctx, "Scale", replicas)
}

// Unscale is Scale(1).
func (i *Instance) Unscale(ctx context.Context) error {
	return i.scale(ctx, "Unscale", 1)
}

func (i *Instance) scale(ctx context.Context, action string, replicas int) error {
	body := map[string]any{bodyVMName: i.id, bodyReplicas: replicas}
	_, err := i.dispatch(ctx, action, i.request(http.MethodPatch, pathScale, body))
	return err
}

// AttachDiskOptions are the optional parameters of AttachDisk.
type AttachDiskOptions struct {
	// FirstBoot is sent only when set.
	FirstBoot *bool
	// MountPoint is sent only when non-empty.
	MountPoint string
}

// AttachDisk attaches img as a secondary disk.
func (i *Instance) AttachDisk(ctx context.Context, img ImageRef, opts AttachDiskOptions) error {
	if img.Name() == "" {
		return fmt.Errorf("AttachDisk vm %s: %w: image is required", i.id, types.ErrValidation)
	}
	body := map[string]any{bodyVMName: i.id, bodyImageName: img.Name()}
	if opts.FirstBoot != nil {
		body[bodyFirstBoot] = *opts.FirstBoot
	}
	if opts.MountPoint != "" {
		body[bodyMountPoint] = opts.MountPoint
	}
	_, err := i.dispatch(ctx, "AttachDisk", i.request(http.MethodPost, pathAttachDisk, body))
	return err
}

// SaveNewBaseImage saves the instance disk as a new base image named name
// and returns an unresolved reference to it.
func (i *Instance) SaveNewBaseImage(ctx context.Context, name string) (*lazy.Ref[*types.Image], error) {
	body := map[string]any{bodyVMName: i.id, bodyNewName: name}
	if _, err := i.dispatch(ctx, "SaveNewBaseImage", i.request(http.MethodPost, pathImageSave, body)); err != nil {
		return nil, err
	}
	return i.imageRef(name), nil
}

// CommitToBaseImage writes the instance disk back into its base image.
func (i *Instance) CommitToBaseImage(ctx context.Context) error {
	body := map[string]any{bodyVMName: i.id}
	_, err := i.dispatch(ctx, "CommitToBaseImage", i.request(http.MethodPost, pathImageCommit, body))
	return err
}

// ResizeImageOptions are the optional parameters of ResizeImage.
type ResizeImageOptions struct {
	// NewName saves the resized disk as a new image instead of resizing the
	// base image in place.
	NewName string
}

// ResizeImage grows the instance disk to sizeGB gigabytes. It returns a
// reference to the new image when NewName is set, otherwise to the base
// image (nil if the instance has none).
func (i *Instance) ResizeImage(ctx context.Context, sizeGB int, opts ResizeImageOptions) (*lazy.Ref[*types.Image], error) {
	body := map[string]any{bodyVMName: i.id, bodyNewImageSize: strconv.Itoa(sizeGB) + "G"}
	if opts.NewName != "" {
		body[bodyNewImageName] = opts.NewName
	}
	if _, err := i.dispatch(ctx, "ResizeImage", i.request(http.MethodPost, pathImageResize, body)); err != nil {
		return nil, err
	}
	if opts.NewName != "" {
		return i.imageRef(opts.NewName), nil
	}
	return i.baseImage, nil
}

func (i *Instance) imageRef(name string) *lazy.Ref[*types.Image] {
	var fetch lazy.Fetcher[*types.Image]
	if i.resolver != nil {
		fetch = i.resolver.Image
	}
	return lazy.New(name, fetch)
}
