package orka

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cocoonstack/orka/lazy"
	"github.com/cocoonstack/orka/transport"
	"github.com/cocoonstack/orka/types"
	"github.com/cocoonstack/orka/wire"
)

const (
	pathNodeList   = "resources/node/list"
	pathNodeStatus = "resources/node/status/"
	pathImageList  = "resources/image/list"
	pathConfigList = "resources/vm/configs"
	pathUsers      = "users"

	keyNodes    = "nodes"
	keyImages   = "image_attributes"
	keyConfigs  = "configs"
	keyUserList = "user_list"
)

// Nodes lists the nodes visible to the acting user.
func (c *Client) Nodes(ctx context.Context) ([]*types.Node, error) {
	return decodeList(ctx, c, pathNodeList, keyNodes, transport.AuthToken, wire.DecodeNode)
}

// Node fetches one node by name.
func (c *Client) Node(ctx context.Context, name string) (*types.Node, error) {
	nodes, err := decodeList(ctx, c, pathNodeStatus+url.PathEscape(name), keyNodes, transport.AuthToken, wire.DecodeNode)
	if err != nil {
		return nil, err
	}
	return find(nodes, "node", name, func(n *types.Node) string { return n.Name })
}

// Images lists the base images.
func (c *Client) Images(ctx context.Context) ([]*types.Image, error) {
	return decodeList(ctx, c, pathImageList, keyImages, transport.AuthToken, wire.DecodeImage)
}

// Image fetches one base image by name.
func (c *Client) Image(ctx context.Context, name string) (*types.Image, error) {
	images, err := c.Images(ctx)
	if err != nil {
		return nil, err
	}
	return find(images, "image", name, func(i *types.Image) string { return i.Name })
}

// VMConfigurations lists the deployment templates.
func (c *Client) VMConfigurations(ctx context.Context) ([]*types.VMConfiguration, error) {
	return decodeList(ctx, c, pathConfigList, keyConfigs, transport.AuthToken, wire.DecodeVMConfiguration)
}

// VMConfiguration fetches one deployment template by name.
func (c *Client) VMConfiguration(ctx context.Context, name string) (*types.VMConfiguration, error) {
	configs, err := c.VMConfigurations(ctx)
	if err != nil {
		return nil, err
	}
	return find(configs, "vm configuration", name, func(v *types.VMConfiguration) string { return v.Name })
}

// Users lists every user. It needs the license key.
func (c *Client) Users(ctx context.Context) ([]*types.User, error) {
	body, err := c.get(ctx, pathUsers, transport.AuthAdmin)
	if err != nil {
		return nil, err
	}
	emails := body.Strings(keyUserList)
	users := make([]*types.User, 0, len(emails))
	for _, e := range emails {
		users = append(users, &types.User{Email: e})
	}
	return users, nil
}

// User fetches one user by email. The acting user is known without a
// request when the client holds no license key.
func (c *Client) User(ctx context.Context, email string) (*types.User, error) {
	if email != "" && email == c.identity && !c.transport.Supports(transport.AuthAdmin) {
		return &types.User{Email: email}, nil
	}
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	return find(users, "user", email, func(u *types.User) string { return u.Email })
}

// CurrentUser is an unresolved reference to the acting user.
func (c *Client) CurrentUser() *lazy.Ref[*types.User] {
	if c.identity == "" {
		return nil
	}
	return lazy.New[*types.User](c.identity, c.User)
}

func decodeList[T any](ctx context.Context, c *Client, path, key string, auth transport.AuthSet, decode func(wire.Payload) (T, error)) ([]T, error) {
	objs, err := c.list(ctx, path, key, auth)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(objs))
	for _, o := range objs {
		v, err := decode(o)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func find[T any](items []T, kind, name string, nameOf func(T) string) (T, error) {
	for _, it := range items {
		if nameOf(it) == name {
			return it, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s %q: %w", kind, name, types.ErrNotFound)
}
