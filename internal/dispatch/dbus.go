package dispatch

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"
)

// DBusNotifier delivers alerts through the desktop notification service on
// the session bus.
type DBusNotifier struct {
	conn *dbus.Conn
}

// NewDBusNotifier connects to the session bus. Callers should fall back to
// a LogNotifier when this fails (headless host, no session bus).
func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbus: %w", err)
	}
	return &DBusNotifier{conn: conn}, nil
}

// Close releases the bus connection.
func (d *DBusNotifier) Close() error {
	return d.conn.Close()
}

// Notify delivers the alert via org.freedesktop.Notifications.
func (d *DBusNotifier) Notify(n Notification) error {
	hints := map[string]dbus.Variant{
		"urgency":  dbus.MakeVariant(urgency(n.Importance)),
		"category": dbus.MakeVariant("reminder"),
	}
	switch {
	case n.SoundPath != "":
		hints["sound-file"] = dbus.MakeVariant(n.SoundPath)
	case n.Channel == ChannelSilent:
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	if n.DeepLink != "" {
		hints["x-remindd-link"] = dbus.MakeVariant(n.DeepLink)
	}

	obj := d.conn.Object(notifyDest, notifyPath)
	call := obj.Call(notifyMethod, 0,
		"remindd",     // app_name
		uint32(0),     // replaces_id
		"appointment", // app_icon
		n.Title,
		n.Body,
		[]string{}, // actions
		hints,
		int32(-1), // expire_timeout: server default
	)
	if call.Err != nil {
		return fmt.Errorf("dbus notify: %w", call.Err)
	}
	return nil
}

// urgency maps channel importance onto the freedesktop urgency byte.
func urgency(i Importance) byte {
	switch i {
	case ImportanceMax:
		return 2
	case ImportanceHigh:
		return 1
	default:
		return 0
	}
}
