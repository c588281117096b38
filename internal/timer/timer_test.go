package timer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/remindd/remindd/common"
)

func newTestService(t *testing.T, opts *Opts) (*Service, chan Registration) {
	t.Helper()
	fired := make(chan Registration, 16)
	if opts == nil {
		opts = &Opts{}
	}
	if opts.OnFire == nil {
		opts.OnFire = func(reg Registration) { fired <- reg }
	}
	s, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, fired
}

func TestRegisterFires(t *testing.T) {
	s, fired := newTestService(t, nil)

	key := Key{ReminderID: "rem-1", Slot: common.SlotMain}
	payload := common.AlarmPayload{ReminderID: "rem-1", Title: "standup", Priority: 3}
	err := s.Register(Registration{Key: key, At: time.Now().Add(50 * time.Millisecond), Payload: payload})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	select {
	case reg := <-fired:
		if reg.Key != key {
			t.Errorf("fired key = %+v, want %+v", reg.Key, key)
		}
		if reg.Payload != payload {
			t.Errorf("payload = %+v, want %+v", reg.Payload, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("registration did not fire")
	}
}

func TestRegisterReplacesKey(t *testing.T) {
	s, fired := newTestService(t, nil)

	key := Key{ReminderID: "rem-1", Slot: common.SlotMain}
	err := s.Register(Registration{
		Key: key, At: time.Now().Add(time.Hour),
		Payload: common.AlarmPayload{ReminderID: "rem-1", Title: "old"},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	err = s.Register(Registration{
		Key: key, At: time.Now().Add(50 * time.Millisecond),
		Payload: common.AlarmPayload{ReminderID: "rem-1", Title: "new"},
	})
	if err != nil {
		t.Fatalf("Register(replace): %v", err)
	}

	select {
	case reg := <-fired:
		if reg.Payload.Title != "new" {
			t.Errorf("fired payload title = %q, want the replacement", reg.Payload.Title)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("replacement did not fire")
	}

	// The hour-away original must be gone, not merely shadowed.
	waitPending(t, s, 0)
	select {
	case reg := <-fired:
		t.Errorf("unexpected second fire: %+v", reg.Key)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCancel(t *testing.T) {
	s, fired := newTestService(t, nil)

	key := Key{ReminderID: "rem-1", Slot: common.SlotMain}
	err := s.Register(Registration{Key: key, At: time.Now().Add(150 * time.Millisecond)})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Cancel(key)

	select {
	case reg := <-fired:
		t.Errorf("cancelled registration fired: %+v", reg.Key)
	case <-time.After(400 * time.Millisecond):
	}
	waitPending(t, s, 0)
}

func TestCancelAll(t *testing.T) {
	s, fired := newTestService(t, nil)

	at := time.Now().Add(150 * time.Millisecond)
	for _, slot := range []int{common.SlotMain, 3, 2, 1} {
		err := s.Register(Registration{Key: Key{ReminderID: "rem-1", Slot: slot}, At: at})
		if err != nil {
			t.Fatalf("Register slot %d: %v", slot, err)
		}
	}
	err := s.Register(Registration{Key: Key{ReminderID: "rem-2", Slot: common.SlotMain}, At: at})
	if err != nil {
		t.Fatalf("Register rem-2: %v", err)
	}

	s.CancelAll("rem-1")

	select {
	case reg := <-fired:
		if reg.Key.ReminderID != "rem-2" {
			t.Errorf("fired for cancelled reminder: %+v", reg.Key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("surviving registration did not fire")
	}
	select {
	case reg := <-fired:
		t.Errorf("unexpected extra fire: %+v", reg.Key)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCancelAfterRegisterIsOrdered(t *testing.T) {
	s, fired := newTestService(t, nil)

	// Back-to-back register/cancel pairs must be observed in issue order,
	// so none of these alarms may survive to fire.
	for i := 0; i < 50; i++ {
		key := Key{ReminderID: "rem-1", Slot: common.SlotMain}
		err := s.Register(Registration{Key: key, At: time.Now().Add(30 * time.Millisecond)})
		if err != nil {
			t.Fatalf("Register %d: %v", i, err)
		}
		s.CancelAll("rem-1")
	}

	select {
	case reg := <-fired:
		t.Errorf("cancelled registration fired: %+v", reg.Key)
	case <-time.After(300 * time.Millisecond):
	}
	waitPending(t, s, 0)
}

func TestDisableExact(t *testing.T) {
	s, _ := newTestService(t, &Opts{DisableExact: true})
	err := s.Register(Registration{
		Key: Key{ReminderID: "rem-1", Slot: common.SlotMain},
		At:  time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrSchedulingDenied) {
		t.Errorf("Register = %v, want ErrSchedulingDenied", err)
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timers.gob")

	s1, _ := newTestService(t, &Opts{Path: path})
	key := Key{ReminderID: "rem-1", Slot: common.SlotMain}
	payload := common.AlarmPayload{
		ReminderID: "rem-1", Title: "water plants", Notes: "the big one",
		Priority: 2, SoundEnabled: true, RepeatCount: 3, Remaining: 3,
	}
	err := s1.Register(Registration{Key: key, At: time.Now().Add(time.Hour), Payload: payload})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	waitPending(t, s1, 1)
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, _ := newTestService(t, &Opts{Path: path})
	pending := s2.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending after restart = %d, want 1", len(pending))
	}
	if pending[0].Key != key {
		t.Errorf("key = %+v, want %+v", pending[0].Key, key)
	}
	if pending[0].Payload != payload {
		t.Errorf("payload = %+v, want %+v", pending[0].Payload, payload)
	}
}

func TestMissedRegistrationFiresOnRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timers.gob")

	s1, _ := newTestService(t, &Opts{Path: path})
	key := Key{ReminderID: "rem-1", Slot: common.SlotMain}
	err := s1.Register(Registration{Key: key, At: time.Now().Add(150 * time.Millisecond)})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	waitPending(t, s1, 1)
	// Down before the trigger time, back up after it.
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	fired := make(chan Registration, 1)
	s2, err := New(context.Background(), &Opts{
		Path:   path,
		OnFire: func(reg Registration) { fired <- reg },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s2.Close()

	select {
	case reg := <-fired:
		if reg.Key != key {
			t.Errorf("fired key = %+v, want %+v", reg.Key, key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("missed registration did not fire on restart")
	}
	waitPending(t, s2, 0)
}

func TestRecurringReArms(t *testing.T) {
	s, fired := newTestService(t, nil)

	key := Key{ReminderID: "rem-1", Slot: common.SlotMain}
	err := s.Register(Registration{
		Key:   key,
		At:    time.Now().Add(50 * time.Millisecond),
		Recur: "* * * * *",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var firedAt time.Time
	select {
	case <-fired:
		firedAt = time.Now()
	case <-time.After(2 * time.Second):
		t.Fatal("recurring registration did not fire")
	}

	// The re-arm lands just after the fire callback; poll for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		pending := s.Pending()
		if len(pending) == 1 && pending[0].At.After(firedAt) {
			if pending[0].Key != key {
				t.Errorf("re-armed key = %+v, want %+v", pending[0].Key, key)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("registration did not re-arm: %+v", pending)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// waitPending polls until the persisted registration set reaches n entries.
func waitPending(t *testing.T, s *Service, n int) []Registration {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		pending := s.Pending()
		if len(pending) == n {
			return pending
		}
		if time.Now().After(deadline) {
			t.Fatalf("pending = %d, want %d", len(pending), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
