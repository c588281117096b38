package dispatch

import (
	"github.com/remindd/remindd/pkg/logger"
)

// Importance is the delivery weight of a notification within its channel.
type Importance int

const (
	// ImportanceDefault is the silent channel baseline.
	ImportanceDefault Importance = iota
	ImportanceLow
	ImportanceHigh
	ImportanceMax
)

// String returns the lowercase name of the importance.
func (i Importance) String() string {
	switch i {
	case ImportanceLow:
		return "low"
	case ImportanceHigh:
		return "high"
	case ImportanceMax:
		return "max"
	default:
		return "default"
	}
}

// Channel buckets alerts for sound/vibration/priority policy.
type Channel string

const (
	// ChannelSound plays a reminder's custom fetched sound.
	ChannelSound Channel = "remindd.sound"
	// ChannelPriority is the standard alert channel without a custom sound.
	ChannelPriority Channel = "remindd.priority"
	// ChannelSilent delivers without sound for no-priority reminders.
	ChannelSilent Channel = "remindd.silent"
)

// Notification is a fully routed alert ready for delivery.
type Notification struct {
	Title string
	Body  string
	// DeepLink opens the reminder's edit view when the alert is tapped.
	DeepLink   string
	Channel    Channel
	Importance Importance
	// SoundPath is the local custom sound file; empty means the channel
	// default.
	SoundPath string
	Vibrate   bool
}

// Notifier renders an alert to the user.
type Notifier interface {
	Notify(n Notification) error
}

// LogNotifier writes alerts to the log. It is the fallback backend when no
// desktop notification service is reachable, and the workhorse in tests.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &LogNotifier{log: log}
}

// Notify logs the alert.
func (l *LogNotifier) Notify(n Notification) error {
	l.log.Info("notify [%s/%s] %s: %s (%s)", n.Channel, n.Importance, n.Title, n.Body, n.DeepLink)
	return nil
}
