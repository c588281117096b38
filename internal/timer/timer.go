package timer

import (
	"bytes"
	"container/heap"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/remindd/remindd/pkg/logger"
)

const maxSleepCap = 60 * time.Second

// ErrSchedulingDenied is returned by Register when exact alarm scheduling
// has been disabled; callers degrade by not scheduling rather than
// scheduling imprecisely.
var ErrSchedulingDenied = errors.New("exact alarm scheduling denied")

// FireFunc receives a registration the moment its trigger time arrives.
// It is called from the service goroutine; long work must be handed off.
type FireFunc func(Registration)

// Opts configures New.
type Opts struct {
	// Path is the registration file. Empty disables persistence: pending
	// alarms then die with the process.
	Path string
	// DisableExact makes every Register call fail with
	// ErrSchedulingDenied, mirroring a platform that revoked the exact
	// alarm permission.
	DisableExact bool
	// Logger records persistence failures; defaults to a nop logger.
	Logger logger.Logger
	// OnFire is the trigger callback. Required.
	OnFire FireFunc
}

type cmdKind int

const (
	cmdAdd cmdKind = iota
	cmdCancel
	cmdCancelAll
)

// command is one mutation of the registration set. All mutations travel on
// a single channel so the service observes them in the order callers issued
// them: a cancel sent after a register always lands after it.
type command struct {
	kind       cmdKind
	reg        Registration
	key        Key
	reminderID string
}

// Service manages pending alarms with a min-heap and a single goroutine.
type Service struct {
	cmds chan command

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	disableExact bool
	log          logger.Logger
	onFire       FireFunc

	mu   sync.Mutex
	f    *os.File
	regs map[Key]Registration
}

// New creates and starts a timer service. Registrations persisted at
// opts.Path are reloaded: those whose trigger time has passed fire
// immediately, the rest re-enter the heap. The service goroutine exits
// when ctx is cancelled or Close is called.
func New(ctx context.Context, opts *Opts) (*Service, error) {
	if opts == nil || opts.OnFire == nil {
		return nil, errors.New("timer: OnFire callback is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &Service{
		cmds:         make(chan command, 64),
		ctx:          sctx,
		cancel:       cancel,
		done:         make(chan struct{}),
		disableExact: opts.DisableExact,
		log:          log,
		onFire:       opts.OnFire,
		regs:         make(map[Key]Registration),
	}
	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("timer: open %s: %w", opts.Path, err)
		}
		s.f = f
		if err := s.load(); err != nil {
			f.Close()
			cancel()
			return nil, err
		}
	}
	go s.run()
	return s, nil
}

// Register schedules (or replaces) the alarm for reg.Key.
func (s *Service) Register(reg Registration) error {
	if s.disableExact {
		return ErrSchedulingDenied
	}
	select {
	case s.cmds <- command{kind: cmdAdd, reg: reg}:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Cancel removes the registration for key, if any.
func (s *Service) Cancel(key Key) {
	select {
	case s.cmds <- command{kind: cmdCancel, key: key}:
	case <-s.ctx.Done():
	}
}

// CancelAll removes every registration belonging to a reminder.
func (s *Service) CancelAll(reminderID string) {
	select {
	case s.cmds <- command{kind: cmdCancelAll, reminderID: reminderID}:
	case <-s.ctx.Done():
	}
}

// Pending returns a snapshot of the persisted registration set.
func (s *Service) Pending() []Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Registration, 0, len(s.regs))
	for _, reg := range s.regs {
		out = append(out, reg)
	}
	return out
}

// Close stops the service goroutine and closes the registration file.
func (s *Service) Close() error {
	s.cancel()
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// load decodes the persisted registration set from the open file.
func (s *Service) load() error {
	var regs []Registration
	err := gob.NewDecoder(s.f).Decode(&regs)
	if err != nil && err != io.EOF {
		return fmt.Errorf("timer: decode registrations: %w", err)
	}
	for _, reg := range regs {
		s.regs[reg.Key] = reg
	}
	return nil
}

// persist writes the registration set to disk, buffer first so a failed
// encode never truncates the previous good state.
func (s *Service) persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return
	}
	regs := make([]Registration, 0, len(s.regs))
	for _, reg := range s.regs {
		regs = append(regs, reg)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(regs); err != nil {
		s.log.Error("timer: encode registrations: %v", err)
		return
	}
	if err := s.f.Truncate(0); err != nil {
		s.log.Error("timer: truncate: %v", err)
		return
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		s.log.Error("timer: seek: %v", err)
		return
	}
	if _, err := s.f.Write(buf.Bytes()); err != nil {
		s.log.Error("timer: write: %v", err)
	}
}

func (s *Service) setReg(reg Registration) {
	s.mu.Lock()
	s.regs[reg.Key] = reg
	s.mu.Unlock()
}

func (s *Service) deleteReg(key Key) {
	s.mu.Lock()
	delete(s.regs, key)
	s.mu.Unlock()
}

// run is the core goroutine. It maintains the min-heap and sleeps with a
// 60s max-sleep-cap so clock steps and system sleep are noticed within a
// bounded window.
func (s *Service) run() {
	defer close(s.done)

	h := &regHeap{}
	heap.Init(h)

	// Reload: anything overdue fires now, the rest re-enters the heap.
	now := time.Now()
	var missed []Registration
	s.mu.Lock()
	for _, reg := range s.regs {
		if reg.At.After(now) {
			heapPush(h, reg)
		} else {
			missed = append(missed, reg)
		}
	}
	s.mu.Unlock()
	for _, reg := range missed {
		s.fire(h, reg)
	}
	if len(missed) > 0 {
		s.persist()
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			// Nothing pending; block on the channels alone.
			return nil
		}
		dur := time.Until((*h)[0].At)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case cmd := <-s.cmds:
			switch cmd.kind {
			case cmdAdd:
				// Replace semantics: the key's previous alarm is gone.
				heapRemoveKey(h, cmd.reg.Key)
				heapPush(h, cmd.reg)
				s.setReg(cmd.reg)
				s.persist()

			case cmdCancel:
				if heapRemoveKey(h, cmd.key) {
					s.deleteReg(cmd.key)
					s.persist()
				}

			case cmdCancelAll:
				if heapRemoveReminder(h, cmd.reminderID) > 0 {
					s.mu.Lock()
					for key := range s.regs {
						if key.ReminderID == cmd.reminderID {
							delete(s.regs, key)
						}
					}
					s.mu.Unlock()
					s.persist()
				}
			}
			timerCh = resetTimer()

		case <-timerCh:
			now := time.Now()
			fired := false
			for h.Len() > 0 && !(*h)[0].At.After(now) {
				s.fire(h, heapPop(h))
				fired = true
			}
			if fired {
				s.persist()
			}
			timerCh = resetTimer()
		}
	}
}

// fire delivers one registration and, for recurring ones, re-arms it at
// the next cron occurrence. One-shots leave the registration set.
func (s *Service) fire(h *regHeap, reg Registration) {
	s.onFire(reg)
	if reg.Recur == "" {
		s.deleteReg(reg.Key)
		return
	}
	next, err := gronx.NextTickAfter(reg.Recur, time.Now(), false)
	if err != nil {
		s.log.Error("timer: recurrence %q for %s: %v", reg.Recur, reg.Key.ReminderID, err)
		s.deleteReg(reg.Key)
		return
	}
	reg.At = next
	heapPush(h, reg)
	s.setReg(reg)
}
