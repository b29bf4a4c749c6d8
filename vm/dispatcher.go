package vm

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"

	"github.com/cocoonstack/orka/transport"
	"github.com/cocoonstack/orka/types"
)

// Wire keys of action request bodies.
const (
	bodyVMName          = "orka_vm_name"
	bodyNodeName        = "orka_node_name"
	bodyCurrentNodeName = "current_node_name"
	bodyNewNodes        = "new_nodes"
	bodyReplicas        = "replicas"
	bodyImageName       = "image_name"
	bodyFirstBoot       = "first_boot"
	bodyMountPoint      = "mount_point"
	bodyNewName         = "new_name"
	bodyNewImageSize    = "new_image_size"
	bodyNewImageName    = "new_image_name"
)

// requiredAuth is {token, license} for instances from an administrative
// listing and {token} otherwise.
func (i *Instance) requiredAuth() transport.AuthSet {
	if i.admin {
		return transport.AuthAdmin
	}
	return transport.AuthToken
}

func (i *Instance) request(method, path string, body map[string]any) *transport.Request {
	return &transport.Request{Method: method, Path: path, Body: body, Auth: i.requiredAuth()}
}

// dispatch sends req on behalf of action. Missing credentials are reported
// locally without contacting the server.
func (i *Instance) dispatch(ctx context.Context, action string, req *transport.Request) (*transport.Response, error) {
	logger := log.WithFunc("vm." + action)
	if i.transport == nil {
		return nil, fmt.Errorf("%s vm %s: %w: no transport", action, i.id, types.ErrTransport)
	}
	if !i.transport.Supports(transport.AuthToken) {
		return nil, fmt.Errorf("%s vm %s: %w: no token configured", action, i.id, types.ErrAuthentication)
	}
	if !i.transport.Supports(req.Auth) {
		return nil, fmt.Errorf("%s vm %s: %w: requires %s credentials", action, i.id, types.ErrAuthorization, req.Auth)
	}
	logger.Debugf(ctx, "%s %s for vm %s", req.Method, req.Path, i.id)
	resp, err := i.transport.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s vm %s: %w", action, i.id, err)
	}
	return resp, nil
}
