package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/pkg/logger"
	"github.com/remindd/remindd/pkg/remindlib"
)

type fakeReader struct {
	reminders map[string]*remindlib.Reminder
	err       error
}

func (f *fakeReader) GetReminder(id string) (*remindlib.Reminder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reminders[id], nil
}

type spyRepeats struct {
	payloads  []common.AlarmPayload
	ats       []time.Time
	remaining []int
}

func (s *spyRepeats) ScheduleRepeat(p common.AlarmPayload, at time.Time, remaining int) error {
	s.payloads = append(s.payloads, p)
	s.ats = append(s.ats, at)
	s.remaining = append(s.remaining, remaining)
	return nil
}

type spyNotifier struct {
	delivered []Notification
	err       error
}

func (s *spyNotifier) Notify(n Notification) error {
	s.delivered = append(s.delivered, n)
	return s.err
}

func liveReminder(id string) *remindlib.Reminder {
	r := remindlib.NewReminder("standup", "work")
	r.ID = id
	return r
}

func newTestDispatcher(reader *fakeReader, repeats *spyRepeats, notifier *spyNotifier, now time.Time) *Dispatcher {
	d := NewDispatcher(reader, repeats, notifier, logger.NewNopLogger())
	d.now = func() time.Time { return now }
	return d
}

func TestHandleAlarmDelivers(t *testing.T) {
	reader := &fakeReader{reminders: map[string]*remindlib.Reminder{"rem-1": liveReminder("rem-1")}}
	repeats := &spyRepeats{}
	notifier := &spyNotifier{}
	d := newTestDispatcher(reader, repeats, notifier, time.Now())

	p := common.AlarmPayload{
		ReminderID: "rem-1", Title: "standup", Notes: "daily sync",
		ListID: "work", Priority: int(remindlib.PriorityMedium), VibrateEnabled: true,
	}
	if err := d.HandleAlarm(p); err != nil {
		t.Fatalf("HandleAlarm: %v", err)
	}
	if len(notifier.delivered) != 1 {
		t.Fatalf("delivered %d notifications, want 1", len(notifier.delivered))
	}
	n := notifier.delivered[0]
	if n.Title != "standup" || n.Body != "daily sync" {
		t.Errorf("notification = %+v", n)
	}
	if n.DeepLink != "remindd://reminder/rem-1?list=work" {
		t.Errorf("deep link = %q", n.DeepLink)
	}
	if !n.Vibrate {
		t.Error("vibrate flag lost")
	}
}

func TestHandleAlarmDefaultBody(t *testing.T) {
	reader := &fakeReader{reminders: map[string]*remindlib.Reminder{"rem-1": liveReminder("rem-1")}}
	notifier := &spyNotifier{}
	d := newTestDispatcher(reader, &spyRepeats{}, notifier, time.Now())

	if err := d.HandleAlarm(common.AlarmPayload{ReminderID: "rem-1", Title: "standup"}); err != nil {
		t.Fatalf("HandleAlarm: %v", err)
	}
	if notifier.delivered[0].Body != defaultBody {
		t.Errorf("body = %q, want default text", notifier.delivered[0].Body)
	}
}

func TestHandleAlarmDeletedReminder(t *testing.T) {
	reader := &fakeReader{reminders: map[string]*remindlib.Reminder{}}
	repeats := &spyRepeats{}
	notifier := &spyNotifier{}
	d := newTestDispatcher(reader, repeats, notifier, time.Now())

	p := common.AlarmPayload{ReminderID: "gone", Title: "x", RepeatCount: 3, RepeatIntervalMinutes: 5}
	if err := d.HandleAlarm(p); err != nil {
		t.Fatalf("HandleAlarm: %v", err)
	}
	if len(notifier.delivered) != 0 {
		t.Error("deleted reminder must not notify")
	}
	if len(repeats.remaining) != 0 {
		t.Error("deleted reminder must not re-arm")
	}
}

func TestHandleAlarmCompletedReminder(t *testing.T) {
	r := liveReminder("rem-1")
	r.Completed = true
	reader := &fakeReader{reminders: map[string]*remindlib.Reminder{"rem-1": r}}
	repeats := &spyRepeats{}
	notifier := &spyNotifier{}
	d := newTestDispatcher(reader, repeats, notifier, time.Now())

	p := common.AlarmPayload{ReminderID: "rem-1", Title: "x", RepeatCount: 2, RepeatIntervalMinutes: 5}
	if err := d.HandleAlarm(p); err != nil {
		t.Fatalf("HandleAlarm: %v", err)
	}
	if len(notifier.delivered) != 0 || len(repeats.remaining) != 0 {
		t.Error("completed reminder must neither notify nor re-arm")
	}
}

func TestHandleAlarmStoreError(t *testing.T) {
	reader := &fakeReader{err: errors.New("db closed")}
	d := newTestDispatcher(reader, &spyRepeats{}, &spyNotifier{}, time.Now())
	if err := d.HandleAlarm(common.AlarmPayload{ReminderID: "rem-1"}); err == nil {
		t.Error("expected store error to propagate")
	}
}

func TestRepeatChain(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	reader := &fakeReader{reminders: map[string]*remindlib.Reminder{"rem-1": liveReminder("rem-1")}}

	// Main firing with a budget of 2 arms the first follow-up.
	repeats := &spyRepeats{}
	d := newTestDispatcher(reader, repeats, &spyNotifier{}, now)
	main := common.AlarmPayload{ReminderID: "rem-1", Title: "x", RepeatCount: 2, RepeatIntervalMinutes: 5}
	if err := d.HandleAlarm(main); err != nil {
		t.Fatalf("HandleAlarm(main): %v", err)
	}
	if len(repeats.remaining) != 1 || repeats.remaining[0] != 1 {
		t.Fatalf("remaining = %v, want [1]", repeats.remaining)
	}
	if want := now.Add(5 * time.Minute); !repeats.ats[0].Equal(want) {
		t.Errorf("next fire = %v, want %v", repeats.ats[0], want)
	}

	// The follow-up carrying remaining=1 arms the last link.
	repeats = &spyRepeats{}
	d = newTestDispatcher(reader, repeats, &spyNotifier{}, now)
	link := main
	link.IsRepeat = true
	link.Remaining = 1
	if err := d.HandleAlarm(link); err != nil {
		t.Fatalf("HandleAlarm(link): %v", err)
	}
	if len(repeats.remaining) != 1 || repeats.remaining[0] != 0 {
		t.Fatalf("remaining = %v, want [0]", repeats.remaining)
	}

	// remaining=0 ends the chain.
	repeats = &spyRepeats{}
	d = newTestDispatcher(reader, repeats, &spyNotifier{}, now)
	last := main
	last.IsRepeat = true
	last.Remaining = 0
	if err := d.HandleAlarm(last); err != nil {
		t.Fatalf("HandleAlarm(last): %v", err)
	}
	if len(repeats.remaining) != 0 {
		t.Errorf("exhausted chain re-armed: %v", repeats.remaining)
	}
}

func TestNotifyErrorKeepsChainAlive(t *testing.T) {
	reader := &fakeReader{reminders: map[string]*remindlib.Reminder{"rem-1": liveReminder("rem-1")}}
	repeats := &spyRepeats{}
	notifier := &spyNotifier{err: errors.New("bus gone")}
	d := newTestDispatcher(reader, repeats, notifier, time.Now())

	p := common.AlarmPayload{ReminderID: "rem-1", Title: "x", RepeatCount: 1, RepeatIntervalMinutes: 5}
	if err := d.HandleAlarm(p); err != nil {
		t.Fatalf("HandleAlarm: %v", err)
	}
	if len(repeats.remaining) != 1 {
		t.Error("delivery failure must not break the repeat chain")
	}
}

func TestChannelRouting(t *testing.T) {
	base := common.AlarmPayload{ReminderID: "rem-1", Title: "x"}
	withSound := func(p common.AlarmPayload) common.AlarmPayload {
		p.SoundEnabled = true
		p.FetchState = int(remindlib.FetchFetched)
		p.LocalSoundPath = "/sounds/chime.mp3"
		return p
	}
	tests := []struct {
		name           string
		payload        common.AlarmPayload
		wantChannel    Channel
		wantImportance Importance
		wantSoundPath  string
	}{
		{
			name: "custom sound high priority",
			payload: func() common.AlarmPayload {
				p := withSound(base)
				p.Priority = int(remindlib.PriorityHigh)
				return p
			}(),
			wantChannel:    ChannelSound,
			wantImportance: ImportanceMax,
			wantSoundPath:  "/sounds/chime.mp3",
		},
		{
			name: "custom sound medium priority",
			payload: func() common.AlarmPayload {
				p := withSound(base)
				p.Priority = int(remindlib.PriorityMedium)
				return p
			}(),
			wantChannel:    ChannelSound,
			wantImportance: ImportanceHigh,
			wantSoundPath:  "/sounds/chime.mp3",
		},
		{
			name: "custom sound low priority",
			payload: func() common.AlarmPayload {
				p := withSound(base)
				p.Priority = int(remindlib.PriorityLow)
				return p
			}(),
			wantChannel:    ChannelSound,
			wantImportance: ImportanceLow,
			wantSoundPath:  "/sounds/chime.mp3",
		},
		{
			name: "custom sound no priority goes silent",
			payload: func() common.AlarmPayload {
				p := withSound(base)
				p.Priority = int(remindlib.PriorityNone)
				return p
			}(),
			wantChannel:    ChannelSilent,
			wantImportance: ImportanceDefault,
		},
		{
			name: "no custom sound routes by priority",
			payload: func() common.AlarmPayload {
				p := base
				p.Priority = int(remindlib.PriorityHigh)
				return p
			}(),
			wantChannel:    ChannelPriority,
			wantImportance: ImportanceMax,
		},
		{
			name: "fetched sound but sound disabled",
			payload: func() common.AlarmPayload {
				p := withSound(base)
				p.SoundEnabled = false
				p.Priority = int(remindlib.PriorityHigh)
				return p
			}(),
			wantChannel:    ChannelPriority,
			wantImportance: ImportanceMax,
		},
		{
			name: "fetch errored falls back to priority channel",
			payload: func() common.AlarmPayload {
				p := withSound(base)
				p.FetchState = int(remindlib.FetchError)
				p.Priority = int(remindlib.PriorityMedium)
				return p
			}(),
			wantChannel:    ChannelPriority,
			wantImportance: ImportanceHigh,
		},
		{
			name:           "no priority no sound goes silent",
			payload:        base,
			wantChannel:    ChannelSilent,
			wantImportance: ImportanceDefault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := buildNotification(tt.payload)
			if n.Channel != tt.wantChannel {
				t.Errorf("channel = %q, want %q", n.Channel, tt.wantChannel)
			}
			if n.Importance != tt.wantImportance {
				t.Errorf("importance = %v, want %v", n.Importance, tt.wantImportance)
			}
			if n.SoundPath != tt.wantSoundPath {
				t.Errorf("sound path = %q, want %q", n.SoundPath, tt.wantSoundPath)
			}
		})
	}
}

func TestNewLogNotifierNilLogger(t *testing.T) {
	n := NewLogNotifier(nil)
	if err := n.Notify(Notification{Title: "standup", Body: "daily"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}
