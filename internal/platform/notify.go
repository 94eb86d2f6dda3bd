package platform

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/notexe/rimix/internal/engine"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = notifyDest + ".Notify"
	infoMethod   = notifyDest + ".GetServerInformation"

	notifyExpireMs = int32(10000)
)

type busCaller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DesktopNotifier posts freedesktop notifications over the session bus.
// Permission is granted once a notification server has answered a
// RequestPermission probe.
type DesktopNotifier struct {
	appName string
	logger  *log.Logger
	connect func() (busCaller, error)

	mu         sync.Mutex
	bus        busCaller
	permission engine.Permission
}

// NewDesktopNotifier creates a notifier for appName.
func NewDesktopNotifier(appName string, logger *log.Logger) *DesktopNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &DesktopNotifier{
		appName: appName,
		logger:  logger,
		connect: sessionBus,
	}
}

func sessionBus() (busCaller, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return conn.Object(notifyDest, notifyPath), nil
}

func (n *DesktopNotifier) object() (busCaller, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.bus != nil {
		return n.bus, nil
	}
	bus, err := n.connect()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to session bus: %v", engine.ErrUnavailable, err)
	}
	n.bus = bus
	return bus, nil
}

// Permission returns the result of the last RequestPermission.
func (n *DesktopNotifier) Permission() engine.Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission
}

// RequestPermission probes for a notification server.
func (n *DesktopNotifier) RequestPermission(ctx context.Context) (engine.Permission, error) {
	bus, err := n.object()
	if err != nil {
		n.setPermission(engine.PermissionDenied)
		return engine.PermissionDenied, err
	}

	var name, vendor, version, specVersion string
	err = bus.CallWithContext(ctx, infoMethod, 0).Store(&name, &vendor, &version, &specVersion)
	if err != nil {
		n.setPermission(engine.PermissionDenied)
		return engine.PermissionDenied, fmt.Errorf("failed to query notification server: %w", err)
	}

	n.logger.Printf("[notify] Notification server: %s %s (%s)", name, version, vendor)
	n.setPermission(engine.PermissionGranted)
	return engine.PermissionGranted, nil
}

func (n *DesktopNotifier) setPermission(p engine.Permission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.permission = p
}

// Notify posts a notification.
func (n *DesktopNotifier) Notify(ctx context.Context, title, body string) error {
	bus, err := n.object()
	if err != nil {
		return err
	}

	call := bus.CallWithContext(ctx, notifyMethod, 0,
		n.appName,
		uint32(0),
		"",
		title,
		body,
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))},
		notifyExpireMs,
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}
