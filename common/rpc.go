package common

import (
	"time"

	"github.com/remindd/remindd/pkg/remindlib"
)

// RPC method names served by the daemon.
const (
	MethodReminderCreate = "reminder.create"
	MethodReminderUpdate = "reminder.update"
	MethodReminderGet    = "reminder.get"
	MethodReminderList   = "reminder.list"
	MethodReminderToggle = "reminder.toggle"
	MethodReminderDelete = "reminder.delete"

	MethodListCreate = "list.create"
	MethodListAll    = "list.all"
	MethodListRename = "list.rename"
	MethodListDelete = "list.delete"

	MethodSoundFetch  = "sound.fetch"
	MethodSoundCancel = "sound.cancel"

	MethodVersion = "version"
)

// Server push notification names.
const (
	// EventReminder carries a remindlib.ChangeEvent.
	EventReminder = "event.reminder"
	// EventSound carries a SoundEvent.
	EventSound = "event.sound"
)

// CreateReminderParams creates a reminder in a list. Zero DueAt means no
// due date; unset notification knobs fall back to the defaults (enabled).
type CreateReminderParams struct {
	Title  string    `json:"title"`
	Notes  string    `json:"notes,omitempty"`
	DueAt  time.Time `json:"due_at,omitzero"`
	ListID string    `json:"list_id"`

	Priority              remindlib.Priority `json:"priority,omitempty"`
	AdvanceMinutes        int                `json:"advance_minutes,omitempty"`
	RepeatCount           int                `json:"repeat_count,omitempty"`
	RepeatIntervalMinutes int                `json:"repeat_interval_minutes,omitempty"`
	RecurExpr             string             `json:"recur_expr,omitempty"`
	RemoteSoundURL        string             `json:"remote_sound_url,omitempty"`

	DisableNotifications bool `json:"disable_notifications,omitempty"`
	DisableSound         bool `json:"disable_sound,omitempty"`
	DisableVibrate       bool `json:"disable_vibrate,omitempty"`
}

// UpdateReminderParams replaces every field of an existing reminder.
type UpdateReminderParams struct {
	Reminder remindlib.Reminder `json:"reminder"`
}

// ReminderIDParams addresses a single reminder.
type ReminderIDParams struct {
	ReminderID string `json:"reminder_id"`
}

// ListRemindersParams selects the reminders of one list.
type ListRemindersParams struct {
	ListID string `json:"list_id"`
}

// ListRemindersResponse is ordered soonest due first, undated last.
type ListRemindersResponse struct {
	Reminders []*remindlib.Reminder `json:"reminders"`
}

// CreateListParams creates a named reminder list.
type CreateListParams struct {
	Name string `json:"name"`
}

// ListAllResponse enumerates every list.
type ListAllResponse struct {
	Lists []*remindlib.ReminderList `json:"lists"`
}

// RenameListParams renames an existing list.
type RenameListParams struct {
	ListID string `json:"list_id"`
	Name   string `json:"name"`
}

// ListIDParams addresses a single list.
type ListIDParams struct {
	ListID string `json:"list_id"`
}

// DeleteListResponse reports how many reminders were removed with the list.
type DeleteListResponse struct {
	RemovedReminders int `json:"removed_reminders"`
}

// FetchSoundParams starts a custom sound download for a reminder.
type FetchSoundParams struct {
	ReminderID string `json:"reminder_id"`
	URL        string `json:"url"`
}

// SoundEvent is pushed to clients as a fetch progresses.
type SoundEvent struct {
	ReminderID string `json:"reminder_id"`
	// State is the lowercase fetch state name.
	State string `json:"state"`
	// Progress is 0-100, ProgressNone when not fetching.
	Progress  int    `json:"progress"`
	LocalPath string `json:"local_path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// VersionResponse reports the daemon build version.
type VersionResponse struct {
	Version string `json:"version"`
}
