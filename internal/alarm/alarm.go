// Package alarm decides when a reminder's alerts are registered with the
// timer service and when existing registrations must be torn down instead.
package alarm

import (
	"errors"
	"time"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/internal/timer"
	"github.com/remindd/remindd/pkg/logger"
	"github.com/remindd/remindd/pkg/remindlib"
)

// TimerService is the slice of the timer the scheduler needs.
type TimerService interface {
	Register(timer.Registration) error
	Cancel(key timer.Key)
	CancelAll(reminderID string)
}

// Scheduler translates reminder state into timer registrations. It never
// consults the store: callers hand it the reminder they just persisted.
type Scheduler struct {
	timers TimerService
	log    logger.Logger
	now    func() time.Time
}

// NewScheduler creates a scheduler over the given timer service.
func NewScheduler(timers TimerService, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Scheduler{timers: timers, log: log, now: time.Now}
}

// BuildPayload snapshots a reminder into the payload its alarms carry.
func BuildPayload(r *remindlib.Reminder) common.AlarmPayload {
	return common.AlarmPayload{
		ReminderID:            r.ID,
		Title:                 r.Title,
		Notes:                 r.Notes,
		ListID:                r.ListID,
		Priority:              int(r.Priority),
		SoundEnabled:          r.SoundEnabled,
		RemoteSoundURL:        r.RemoteSoundURL,
		LocalSoundPath:        r.LocalSoundPath,
		FetchState:            int(r.SoundFetchState),
		FetchProgress:         r.SoundFetchProgress,
		VibrateEnabled:        r.VibrateEnabled,
		RepeatCount:           r.RepeatCount,
		RepeatIntervalMinutes: r.RepeatIntervalMinutes,
	}
}

// Schedule registers the reminder's main alert at its trigger time (due
// date minus advance notice). When the reminder must not alert (disabled
// notifications, completed, no due date, or a trigger already in the
// past) every existing registration is cancelled instead, so a toggle
// from alertable to non-alertable always cleans up after itself.
func (s *Scheduler) Schedule(r *remindlib.Reminder) error {
	if !r.Schedulable(s.now()) {
		s.timers.CancelAll(r.ID)
		return nil
	}
	err := s.timers.Register(timer.Registration{
		Key:     timer.Key{ReminderID: r.ID, Slot: common.SlotMain},
		At:      r.TriggerTime(),
		Recur:   r.RecurExpr,
		Payload: BuildPayload(r),
	})
	if errors.Is(err, timer.ErrSchedulingDenied) {
		s.log.Warning("alarm: exact scheduling denied for %s (%q)", r.ID, r.Title)
	}
	return err
}

// ScheduleRepeat registers a follow-up alert carrying the given remaining
// counter. A negative counter means the chain is exhausted and nothing is
// registered.
func (s *Scheduler) ScheduleRepeat(p common.AlarmPayload, at time.Time, remaining int) error {
	if remaining < 0 {
		return nil
	}
	p.IsRepeat = true
	p.Remaining = remaining
	err := s.timers.Register(timer.Registration{
		Key:     timer.Key{ReminderID: p.ReminderID, Slot: remaining},
		At:      at,
		Payload: p,
	})
	if errors.Is(err, timer.ErrSchedulingDenied) {
		s.log.Warning("alarm: exact scheduling denied for repeat of %s", p.ReminderID)
	}
	return err
}

// Cancel tears down the reminder's main alert and any pending repeats.
func (s *Scheduler) Cancel(reminderID string) {
	s.timers.CancelAll(reminderID)
}
