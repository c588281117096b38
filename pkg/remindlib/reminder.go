// Package remindlib provides the core structures and services for managing
// reminders in remindd: the reminder/list data model, the sqlite-backed
// store with change notifications, and the custom notification sound fetch
// pipeline.
package remindlib

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority orders reminders by urgency. The zero value is PriorityNone.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

// String returns the lowercase name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "none"
	}
}

// SoundFetchState is the lifecycle stage of a reminder's custom sound
// download. All states are re-enterable; there is no terminal state.
type SoundFetchState int

const (
	// FetchIdle means no fetch has been attempted for the current URL.
	FetchIdle SoundFetchState = iota
	// FetchFetching means a download is in flight.
	FetchFetching
	// FetchFetched means the local asset exists for the current URL.
	FetchFetched
	// FetchError means the last attempt failed or was cancelled.
	FetchError
)

// String returns the lowercase name of the fetch state.
func (s SoundFetchState) String() string {
	switch s {
	case FetchFetching:
		return "fetching"
	case FetchFetched:
		return "fetched"
	case FetchError:
		return "error"
	default:
		return "idle"
	}
}

// ProgressNone marks an absent fetch progress value.
const ProgressNone = -1

// Reminder is a single scheduled reminder. A zero DueAt means the reminder
// has no due date and is never scheduled.
type Reminder struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	DueAt     time.Time `json:"due_at,omitzero"`
	Priority  Priority  `json:"priority"`
	Completed bool      `json:"completed"`
	ListID    string    `json:"list_id"`

	NotificationsEnabled bool `json:"notifications_enabled"`

	SoundEnabled   bool            `json:"sound_enabled"`
	RemoteSoundURL string          `json:"remote_sound_url,omitempty"`
	LocalSoundPath string          `json:"local_sound_path,omitempty"`
	SoundFetchState SoundFetchState `json:"sound_fetch_state"`
	// SoundFetchProgress is 0-100 while fetching, ProgressNone otherwise.
	SoundFetchProgress int `json:"sound_fetch_progress"`

	VibrateEnabled bool `json:"vibrate_enabled"`

	// AdvanceMinutes is the lead time before DueAt at which the main
	// alert fires.
	AdvanceMinutes int `json:"advance_minutes"`

	// RepeatCount is the maximum number of follow-up alerts after the
	// main one; RepeatIntervalMinutes is the gap between them.
	RepeatCount           int `json:"repeat_count"`
	RepeatIntervalMinutes int `json:"repeat_interval_minutes"`

	// RecurExpr is an optional cron expression; when set, the main alarm
	// re-arms itself at the next occurrence after firing.
	RecurExpr string `json:"recur_expr,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewReminder returns a reminder with generated id and the notification
// defaults applied (notifications, sound and vibration enabled, idle fetch
// state, five minute repeat interval).
func NewReminder(title, listID string) *Reminder {
	return &Reminder{
		ID:                    uuid.NewString(),
		Title:                 title,
		ListID:                listID,
		NotificationsEnabled:  true,
		SoundEnabled:          true,
		VibrateEnabled:        true,
		SoundFetchState:       FetchIdle,
		SoundFetchProgress:    ProgressNone,
		RepeatIntervalMinutes: 5,
		CreatedAt:             time.Now(),
	}
}

// Validate reports whether the reminder is acceptable for persisting.
// A blank title is rejected before any store mutation.
func (r *Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrBlankTitle
	}
	return nil
}

// HasDue reports whether the reminder carries a due date.
func (r *Reminder) HasDue() bool {
	return !r.DueAt.IsZero()
}

// TriggerTime is the absolute time the main alert should fire: the due
// date minus the advance-notice offset. Zero when there is no due date.
func (r *Reminder) TriggerTime() time.Time {
	if !r.HasDue() {
		return time.Time{}
	}
	return r.DueAt.Add(-time.Duration(r.AdvanceMinutes) * time.Minute)
}

// Schedulable reports whether a main alarm should be registered for the
// reminder at the given instant. Anything else means existing timers must
// be cancelled instead.
func (r *Reminder) Schedulable(now time.Time) bool {
	if !r.NotificationsEnabled || r.Completed || !r.HasDue() {
		return false
	}
	return r.TriggerTime().After(now)
}

// RepeatInterval returns the repeat gap as a duration.
func (r *Reminder) RepeatInterval() time.Duration {
	return time.Duration(r.RepeatIntervalMinutes) * time.Minute
}

// ReminderList groups reminders. Deleting a list deletes its reminders.
type ReminderList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewReminderList returns a list with a generated id.
func NewReminderList(name string) *ReminderList {
	return &ReminderList{ID: uuid.NewString(), Name: name}
}
