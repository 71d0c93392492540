package dbus

// ServerInfo describes the daemon to control clients.
type ServerInfo struct {
	Name    string
	Vendor  string
	Version string
}

// DefaultServerInfo returns the server information advertised by default.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:    "ledge",
		Vendor:  "jmylchreest",
		Version: "dev",
	}
}

// BindingInfo is one live panel surface as reported over the bus. The field
// order is the wire order: (sssssii).
type BindingInfo struct {
	ID     string
	Panel  string
	Output string
	Anchor string
	State  string
	Width  int32
	Height int32
}
