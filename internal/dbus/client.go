package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client talks to a running daemon over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus and binds the daemon's control
// object. The daemon itself may not be running yet; calls will fail then.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

// Running reports whether the daemon currently owns its bus name.
func (c *Client) Running() bool {
	var owner string
	err := c.conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, DBusBusName).Store(&owner)
	return err == nil && owner != ""
}

// Reload asks the daemon to reread its configuration.
func (c *Client) Reload() error {
	if call := c.obj.Call(DBusInterface+".Reload", 0); call.Err != nil {
		return fmt.Errorf("reload failed: %w", call.Err)
	}
	return nil
}

// ListPanels returns the daemon's admitted panel names.
func (c *Client) ListPanels() ([]string, error) {
	var panels []string
	if err := c.obj.Call(DBusInterface+".ListPanels", 0).Store(&panels); err != nil {
		return nil, fmt.Errorf("list panels failed: %w", err)
	}
	return panels, nil
}

// ListBindings returns the daemon's live panel surfaces.
func (c *Client) ListBindings() ([]BindingInfo, error) {
	var bindings []BindingInfo
	if err := c.obj.Call(DBusInterface+".ListBindings", 0).Store(&bindings); err != nil {
		return nil, fmt.Errorf("list bindings failed: %w", err)
	}
	return bindings, nil
}

// ServerInformation returns the daemon's advertised identity.
func (c *Client) ServerInformation() (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.Call(DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("get server information failed: %w", err)
	}
	return info, nil
}
