// Package coordinator owns the reminder lifecycle: every mutation flows
// through it so store writes, alarm registrations and sound fetches stay
// consistent with each other.
package coordinator

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/pkg/logger"
	"github.com/remindd/remindd/pkg/remindlib"
)

// AlarmScheduler is the scheduling side effect surface.
type AlarmScheduler interface {
	Schedule(r *remindlib.Reminder) error
	Cancel(reminderID string)
}

// SoundFetcher is the fetch side effect surface.
type SoundFetcher interface {
	Fetch(reminderID, remoteURL string) error
	CancelFetch(reminderID string)
}

// Coordinator applies reminder mutations with their scheduling and fetch
// side effects.
type Coordinator struct {
	store   *remindlib.Store
	alarms  AlarmScheduler
	fetcher SoundFetcher
	log     logger.Logger
}

// New creates a coordinator.
func New(store *remindlib.Store, alarms AlarmScheduler, fetcher SoundFetcher, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Coordinator{store: store, alarms: alarms, fetcher: fetcher, log: log}
}

// CreateReminder validates and persists a new reminder, schedules its main
// alert when one is warranted, and kicks off the sound fetch when a remote
// URL was supplied. The fetch is fire-and-forget: its outcome surfaces
// through the fetch state, never through this call.
func (c *Coordinator) CreateReminder(p common.CreateReminderParams) (*remindlib.Reminder, error) {
	r := remindlib.NewReminder(p.Title, p.ListID)
	r.Notes = p.Notes
	r.DueAt = p.DueAt
	r.Priority = p.Priority
	r.AdvanceMinutes = p.AdvanceMinutes
	r.RepeatCount = p.RepeatCount
	if p.RepeatIntervalMinutes > 0 {
		r.RepeatIntervalMinutes = p.RepeatIntervalMinutes
	}
	r.RecurExpr = p.RecurExpr
	r.RemoteSoundURL = p.RemoteSoundURL
	r.NotificationsEnabled = !p.DisableNotifications
	r.SoundEnabled = !p.DisableSound
	r.VibrateEnabled = !p.DisableVibrate

	if err := c.store.CreateReminder(r); err != nil {
		return nil, err
	}
	if err := c.alarms.Schedule(r); err != nil {
		c.log.Warning("coordinator: schedule %s: %v", r.ID, err)
	}
	if r.SoundEnabled && r.RemoteSoundURL != "" {
		if err := c.fetcher.Fetch(r.ID, r.RemoteSoundURL); err != nil {
			c.log.Warning("coordinator: fetch sound for %s: %v", r.ID, err)
		}
	}
	return r, nil
}

// UpdateReminder persists the new field values and recomputes scheduling:
// still-alertable reminders get their main alert replaced, everything else
// gets its timers cancelled. A changed sound URL is not fetched here; the
// fetch pipeline's own guard invalidates the stale asset on the next
// explicit fetch.
func (c *Coordinator) UpdateReminder(r *remindlib.Reminder) (*remindlib.Reminder, error) {
	if err := c.store.UpdateReminder(r); err != nil {
		return nil, err
	}
	if err := c.alarms.Schedule(r); err != nil {
		c.log.Warning("coordinator: reschedule %s: %v", r.ID, err)
	}
	return r, nil
}

// ToggleCompletion flips the completion flag. Completing cancels every
// pending alert including repeat links; re-activating reschedules the main
// alert when the due date is still ahead.
func (c *Coordinator) ToggleCompletion(id string) (*remindlib.Reminder, error) {
	r, err := c.store.GetReminder(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, remindlib.ErrReminderNotFound
	}
	r.Completed = !r.Completed
	if err := c.store.UpdateReminder(r); err != nil {
		return nil, err
	}
	if err := c.alarms.Schedule(r); err != nil {
		c.log.Warning("coordinator: reschedule %s: %v", r.ID, err)
	}
	return r, nil
}

// DeleteReminder cancels timers and any in-flight sound fetch before the
// record goes away. Deleting an unknown id is a no-op.
func (c *Coordinator) DeleteReminder(id string) error {
	c.alarms.Cancel(id)
	c.fetcher.CancelFetch(id)
	return c.store.DeleteReminder(id)
}

// FetchSound starts a custom sound download for the reminder.
func (c *Coordinator) FetchSound(id, remoteURL string) error {
	return c.fetcher.Fetch(id, remoteURL)
}

// CancelSoundFetch aborts the reminder's in-flight download, if any.
func (c *Coordinator) CancelSoundFetch(id string) {
	c.fetcher.CancelFetch(id)
}

// GetReminder reads one reminder; nil when absent.
func (c *Coordinator) GetReminder(id string) (*remindlib.Reminder, error) {
	return c.store.GetReminder(id)
}

// RemindersForList reads a list's reminders, soonest due first.
func (c *Coordinator) RemindersForList(listID string) ([]*remindlib.Reminder, error) {
	return c.store.RemindersForList(listID)
}

// CreateList creates a named list.
func (c *Coordinator) CreateList(name string) (*remindlib.ReminderList, error) {
	l := remindlib.NewReminderList(name)
	if err := c.store.CreateList(l); err != nil {
		return nil, err
	}
	return l, nil
}

// RenameList renames a list.
func (c *Coordinator) RenameList(id, name string) error {
	return c.store.RenameList(id, name)
}

// DeleteList removes a list with its reminders and tears down every timer
// and fetch the removed reminders owned. Returns how many reminders went
// with the list.
func (c *Coordinator) DeleteList(id string) (int, error) {
	orphans, err := c.store.DeleteList(id)
	if err != nil {
		return 0, err
	}
	for _, r := range orphans {
		c.alarms.Cancel(r.ID)
		c.fetcher.CancelFetch(r.ID)
	}
	return len(orphans), nil
}

// Lists reads all lists.
func (c *Coordinator) Lists() ([]*remindlib.ReminderList, error) {
	return c.store.Lists()
}

// Restore rebuilds runtime state at daemon start: every reminder is run
// through the scheduling guard (replacing or cancelling as its current
// state dictates) and fetches interrupted by the previous shutdown are
// moved to the error state so the user sees a retry affordance instead of
// a fetch that never finishes.
func (c *Coordinator) Restore() error {
	reminders, err := c.store.AllReminders()
	if err != nil {
		return fmt.Errorf("coordinator: restore: %w", err)
	}
	var merr *multierror.Error
	for _, r := range reminders {
		if r.SoundFetchState == remindlib.FetchFetching {
			if _, err := c.store.MarkSoundError(r.ID, r.RemoteSoundURL); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("fail stale fetch %s: %w", r.ID, err))
			}
		}
		if err := c.alarms.Schedule(r); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("schedule %s: %w", r.ID, err))
		}
	}
	return merr.ErrorOrNil()
}
