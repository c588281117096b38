// Package daemon assembles the remindd runtime: store, timer service,
// alarm scheduler, dispatcher, sound fetcher, coordinator and the RPC
// server, with graceful teardown in reverse order.
package daemon

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/internal/alarm"
	"github.com/remindd/remindd/internal/config"
	"github.com/remindd/remindd/internal/coordinator"
	"github.com/remindd/remindd/internal/dispatch"
	"github.com/remindd/remindd/internal/server"
	"github.com/remindd/remindd/internal/timer"
	"github.com/remindd/remindd/pkg/logger"
	"github.com/remindd/remindd/pkg/remindlib"
)

// timerProxy breaks the construction cycle between the alarm scheduler
// (which needs a timer) and the timer (whose fire callback needs the
// dispatcher, which needs the scheduler). The real service is attached
// once the whole graph exists.
type timerProxy struct {
	mu  sync.RWMutex
	svc *timer.Service
}

func (p *timerProxy) attach(svc *timer.Service) {
	p.mu.Lock()
	p.svc = svc
	p.mu.Unlock()
}

func (p *timerProxy) Register(reg timer.Registration) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.svc == nil {
		return timer.ErrSchedulingDenied
	}
	return p.svc.Register(reg)
}

func (p *timerProxy) Cancel(key timer.Key) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.svc != nil {
		p.svc.Cancel(key)
	}
}

func (p *timerProxy) CancelAll(reminderID string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.svc != nil {
		p.svc.CancelAll(reminderID)
	}
}

// Run starts the daemon and blocks until ctx is cancelled, then tears
// everything down gracefully.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	l, closeLog, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := os.MkdirAll(cfg.SoundDir(), 0o755); err != nil {
		return err
	}

	store, err := remindlib.OpenStore(cfg.DBPath())
	if err != nil {
		return err
	}

	notifier := server.NewRPCNotifier(l)
	notify := buildNotifier(cfg, l)

	proxy := &timerProxy{}
	alarms := alarm.NewScheduler(proxy, l)
	dispatcher := dispatch.NewDispatcher(store, alarms, notify, l)

	timers, err := timer.New(ctx, &timer.Opts{
		Path:         cfg.TimerPath(),
		DisableExact: !cfg.Alarms.Exact,
		Logger:       l,
		OnFire: func(reg timer.Registration) {
			// Fire callbacks run on the timer goroutine; delivery and
			// chain re-arming must not stall it.
			remindlib.SafeGo(l, "alarm fire "+reg.Key.ReminderID, func() {
				if err := dispatcher.HandleAlarm(reg.Payload); err != nil {
					l.Error("daemon: handle alarm: %v", err)
				}
			})
		},
	})
	if err != nil {
		store.Close()
		return err
	}
	proxy.attach(timers)

	fetcher := remindlib.NewSoundFetcher(ctx, store, &remindlib.SoundFetcherOpts{
		Dir:      cfg.SoundDir(),
		Router:   remindlib.NewSourceRouter(&http.Client{Timeout: cfg.FetchTimeout()}),
		Throttle: cfg.FetchThrottle(),
		Logger:   l,
		Handlers: soundHandlers(notifier),
	})

	coord := coordinator.New(store, alarms, fetcher, l)
	if err := coord.Restore(); err != nil {
		// Partial restore failures degrade individual reminders, not
		// the daemon.
		l.Warning("daemon: restore: %v", err)
	}

	srv := server.New(coord, notifier, &server.Opts{
		Addr:     cfg.RPC.Addr,
		HTTPAddr: cfg.HTTP.Addr,
		Version:  version,
		Logger:   l,
	})
	if err := srv.Start(); err != nil {
		fetcher.Close()
		timers.Close()
		store.Close()
		return err
	}

	// Mirror every store mutation to connected clients.
	sub := store.Subscribe(64)
	remindlib.SafeGo(l, "event fanout", func() {
		for ev := range sub.C {
			notifier.Broadcast(common.EventReminder, ev)
		}
	})

	l.Info("remindd %s up, data in %s", version, cfg.DataDir)
	<-ctx.Done()
	l.Info("shutting down")

	var merr *multierror.Error
	merr = multierror.Append(merr, srv.Close())
	merr = multierror.Append(merr, fetcher.Close())
	merr = multierror.Append(merr, timers.Close())
	sub.Close()
	merr = multierror.Append(merr, store.Close())
	if c, ok := notify.(interface{ Close() error }); ok {
		merr = multierror.Append(merr, c.Close())
	}
	return merr.ErrorOrNil()
}

// soundHandlers converts fetch callbacks into client pushes.
func soundHandlers(notifier *server.RPCNotifier) *remindlib.FetchHandlers {
	return &remindlib.FetchHandlers{
		ProgressHandler: func(reminderID string, pct int) {
			notifier.Broadcast(common.EventSound, &common.SoundEvent{
				ReminderID: reminderID,
				State:      remindlib.FetchFetching.String(),
				Progress:   pct,
			})
		},
		CompleteHandler: func(reminderID, localPath string) {
			notifier.Broadcast(common.EventSound, &common.SoundEvent{
				ReminderID: reminderID,
				State:      remindlib.FetchFetched.String(),
				Progress:   common.ProgressNone,
				LocalPath:  localPath,
			})
		},
		ErrorHandler: func(reminderID string, err error) {
			notifier.Broadcast(common.EventSound, &common.SoundEvent{
				ReminderID: reminderID,
				State:      remindlib.FetchError.String(),
				Progress:   common.ProgressNone,
				Error:      err.Error(),
			})
		},
	}
}

// buildLogger creates the daemon logger, to a file when configured and
// stderr otherwise.
func buildLogger(cfg *config.Config) (logger.Logger, func(), error) {
	if cfg.Log.File == "" {
		return logger.NewStandardLogger(log.New(os.Stderr, "remindd ", log.LstdFlags)), func() {}, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	l := logger.NewStandardLogger(log.New(f, "remindd ", log.LstdFlags))
	return l, func() { f.Close() }, nil
}

// buildNotifier picks the delivery backend. Auto mode tries the desktop
// notification service and falls back to the log.
func buildNotifier(cfg *config.Config, l logger.Logger) dispatch.Notifier {
	switch cfg.Notifier {
	case config.NotifierLog:
		return dispatch.NewLogNotifier(l)
	case config.NotifierDBus:
		n, err := dispatch.NewDBusNotifier()
		if err != nil {
			l.Error("daemon: dbus notifier: %v, falling back to log", err)
			return dispatch.NewLogNotifier(l)
		}
		return n
	default:
		if n, err := dispatch.NewDBusNotifier(); err == nil {
			return n
		}
		return dispatch.NewLogNotifier(l)
	}
}
