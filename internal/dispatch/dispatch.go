// Package dispatch turns fired alarms into delivered notifications and
// keeps repeat chains alive. It is the consumer side of the timer service:
// a pure function from (payload, live record) to delivery decisions, with
// no dependency on who registered the alarm.
package dispatch

import (
	"fmt"
	"net/url"
	"time"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/pkg/logger"
	"github.com/remindd/remindd/pkg/remindlib"
)

// defaultBody is used when the reminder carries no notes.
const defaultBody = "Your reminder is due!"

// ReminderReader is the slice of the store the dispatcher needs: a live
// read to decide whether the firing is still wanted.
type ReminderReader interface {
	GetReminder(id string) (*remindlib.Reminder, error)
}

// RepeatScheduler re-arms the next link of a repeat chain.
type RepeatScheduler interface {
	ScheduleRepeat(p common.AlarmPayload, at time.Time, remaining int) error
}

// Dispatcher handles alarm firings.
type Dispatcher struct {
	store    ReminderReader
	repeats  RepeatScheduler
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher delivering through the given notifier.
func NewDispatcher(store ReminderReader, repeats RepeatScheduler, notifier Notifier, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Dispatcher{
		store:    store,
		repeats:  repeats,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// HandleAlarm processes one firing. The payload snapshot renders the alert
// (title, notes, sound choice), but completion and deletion are decided
// from the live record: a reminder deleted or completed after registration
// degrades to a silent no-op, and its repeat chain stops.
func (d *Dispatcher) HandleAlarm(p common.AlarmPayload) error {
	live, err := d.store.GetReminder(p.ReminderID)
	if err != nil {
		return fmt.Errorf("dispatch: read %s: %w", p.ReminderID, err)
	}
	if live == nil || live.Completed {
		return nil
	}

	n := buildNotification(p)
	if err := d.notifier.Notify(n); err != nil {
		// Delivery failure must not break the repeat chain.
		d.log.Error("dispatch: notify %s: %v", p.ReminderID, err)
	}

	remaining := p.EffectiveRemaining()
	if remaining > 0 {
		next := d.now().Add(time.Duration(p.RepeatIntervalMinutes) * time.Minute)
		if err := d.repeats.ScheduleRepeat(p, next, remaining-1); err != nil {
			d.log.Warning("dispatch: re-arm %s: %v", p.ReminderID, err)
		}
	}
	return nil
}

// buildNotification routes the payload to a channel and importance.
//
// A reminder with an enabled, successfully fetched custom sound goes to
// the sound channel at an importance mapped from its priority; without one
// the priority alone picks the channel. No-priority reminders land on the
// silent channel either way.
func buildNotification(p common.AlarmPayload) Notification {
	n := Notification{
		Title:    p.Title,
		Body:     p.Notes,
		DeepLink: deepLink(p.ReminderID, p.ListID),
		Vibrate:  p.VibrateEnabled,
	}
	if n.Body == "" {
		n.Body = defaultBody
	}

	customSound := p.SoundEnabled &&
		p.FetchState == int(remindlib.FetchFetched) &&
		p.LocalSoundPath != ""
	priority := remindlib.Priority(p.Priority)

	if priority == remindlib.PriorityNone {
		n.Channel = ChannelSilent
		n.Importance = ImportanceDefault
		return n
	}
	switch priority {
	case remindlib.PriorityHigh:
		n.Importance = ImportanceMax
	case remindlib.PriorityMedium:
		n.Importance = ImportanceHigh
	default:
		n.Importance = ImportanceLow
	}
	if customSound {
		n.Channel = ChannelSound
		n.SoundPath = p.LocalSoundPath
	} else {
		n.Channel = ChannelPriority
	}
	return n
}

// deepLink is the tap action target opening the reminder's edit view.
func deepLink(reminderID, listID string) string {
	link := "remindd://reminder/" + url.PathEscape(reminderID)
	if listID != "" {
		link += "?list=" + url.QueryEscape(listID)
	}
	return link
}
