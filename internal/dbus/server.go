package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface is the panel control interface name.
	DBusInterface = "io.github.jmylchreest.Ledge"
	// DBusPath is the control object path.
	DBusPath = "/io/github/jmylchreest/Ledge"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.Ledge"
)

// ReloadHandler is called when a Reload request arrives over the bus.
type ReloadHandler func() error

// StatusHandler supplies the current panel and binding state.
type StatusHandler func() (panels []string, bindings []BindingInfo)

// ControlServer exports the panel control interface on the session bus.
type ControlServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	reloadHandler ReloadHandler
	statusHandler StatusHandler

	mu         sync.Mutex
	serverInfo ServerInfo
	running    bool
}

// NewControlServer creates a new ControlServer.
func NewControlServer(logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		logger:     logger,
		serverInfo: DefaultServerInfo(),
	}
}

// SetReloadHandler sets the handler called for Reload requests.
func (s *ControlServer) SetReloadHandler(handler ReloadHandler) {
	s.reloadHandler = handler
}

// SetStatusHandler sets the supplier of panel and binding state.
func (s *ControlServer) SetStatusHandler(handler StatusHandler) {
	s.statusHandler = handler
}

// SetServerInfo sets the information returned by GetServerInformation.
func (s *ControlServer) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverInfo = info
}

// Start connects to the session bus and exports the control service.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: controlMethods(),
				Signals: controlSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus control server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name. The shared session connection stays open.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
	}

	s.logger.Info("D-Bus control server stopped")
	return nil
}

// Reload asks the daemon to reread its configuration.
// D-Bus method: Reload() -> nothing
func (s *ControlServer) Reload() *dbus.Error {
	s.logger.Debug("Reload called")

	if s.reloadHandler == nil {
		return dbus.MakeFailedError(fmt.Errorf("reload not available"))
	}
	if err := s.reloadHandler(); err != nil {
		return dbus.MakeFailedError(err)
	}

	if err := s.EmitConfigReloaded(); err != nil {
		s.logger.Warn("failed to emit ConfigReloaded signal", "error", err)
	}
	return nil
}

// ListPanels returns the names of the admitted panels.
// D-Bus method: ListPanels() -> as
func (s *ControlServer) ListPanels() ([]string, *dbus.Error) {
	s.logger.Debug("ListPanels called")

	if s.statusHandler == nil {
		return nil, nil
	}
	panels, _ := s.statusHandler()
	return panels, nil
}

// ListBindings returns the live panel surfaces.
// D-Bus method: ListBindings() -> a(sssssii)
func (s *ControlServer) ListBindings() ([]BindingInfo, *dbus.Error) {
	s.logger.Debug("ListBindings called")

	if s.statusHandler == nil {
		return nil, nil
	}
	_, bindings := s.statusHandler()
	return bindings, nil
}

// GetServerInformation returns information about the daemon.
// D-Bus method: GetServerInformation() -> (sss)
func (s *ControlServer) GetServerInformation() (string, string, string, *dbus.Error) {
	s.mu.Lock()
	info := s.serverInfo
	s.mu.Unlock()
	return info.Name, info.Vendor, info.Version, nil
}

// EmitConfigReloaded emits the ConfigReloaded signal.
func (s *ControlServer) EmitConfigReloaded() error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}
	if err := s.conn.Emit(DBusPath, DBusInterface+".ConfigReloaded"); err != nil {
		return fmt.Errorf("failed to emit ConfigReloaded signal: %w", err)
	}
	s.logger.Debug("emitted ConfigReloaded signal")
	return nil
}

// Connection returns the underlying D-Bus connection.
func (s *ControlServer) Connection() *dbus.Conn {
	return s.conn
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Reload",
		},
		{
			Name: "ListPanels",
			Args: []introspect.Arg{
				{Name: "panels", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "ListBindings",
			Args: []introspect.Arg{
				{Name: "bindings", Type: "a(sssssii)", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
			},
		},
	}
}

// controlSignals returns the D-Bus signal introspection data.
func controlSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "ConfigReloaded",
		},
	}
}
