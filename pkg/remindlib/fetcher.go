package remindlib

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/remindd/remindd/pkg/logger"
)

type (
	// FetchProgressHandlerFunc observes throttled progress updates (0-100).
	FetchProgressHandlerFunc func(reminderID string, pct int)
	// FetchCompleteHandlerFunc observes a finished fetch and the local path.
	FetchCompleteHandlerFunc func(reminderID, localPath string)
	// FetchErrorHandlerFunc observes a failed or cancelled fetch.
	FetchErrorHandlerFunc func(reminderID string, err error)
)

// FetchHandlers are callbacks fired on fetch lifecycle events, used by the
// daemon to push progress to connected clients. All fields are optional.
type FetchHandlers struct {
	ProgressHandler FetchProgressHandlerFunc
	CompleteHandler FetchCompleteHandlerFunc
	ErrorHandler    FetchErrorHandlerFunc
}

func (h *FetchHandlers) setDefault() {
	if h.ProgressHandler == nil {
		h.ProgressHandler = func(string, int) {}
	}
	if h.CompleteHandler == nil {
		h.CompleteHandler = func(string, string) {}
	}
	if h.ErrorHandler == nil {
		h.ErrorHandler = func(string, error) {}
	}
}

// progressThrottle caps how often progress is written to the store: at
// most once per interval plus a final 100% update.
const progressThrottle = 200 * time.Millisecond

const fetchChunkSize = 32 * 1024

// SoundFetcherOpts are optional knobs for NewSoundFetcher.
type SoundFetcherOpts struct {
	// Fs is the target filesystem; defaults to the OS filesystem.
	Fs afero.Fs
	// Dir is where fetched sounds land; defaults to SoundDataDir.
	Dir string
	// Router resolves URLs to sources; defaults to NewSourceRouter(nil).
	Router *SourceRouter
	// Handlers receive fetch lifecycle callbacks.
	Handlers *FetchHandlers
	// Throttle overrides the progress throttle interval.
	Throttle time.Duration
	// Logger records fetch failures; defaults to a nop logger.
	Logger logger.Logger
}

// fetchAttempt identifies one in-flight download so a superseding attempt
// can cancel its predecessor without clobbering its own bookkeeping.
type fetchAttempt struct {
	cancel context.CancelFunc
	url    string
}

// SoundFetcher downloads reminder notification sounds to local storage.
// It owns the sound-related fields of the reminder record: every state
// transition goes through the store's conditional updates so a stale
// attempt can never overwrite a newer one.
//
// The fetcher is anchored to the application lifecycle via the context
// passed to NewSoundFetcher: an in-flight download survives whatever
// screen or request started it and only dies with the process (mapped to
// the error state, so the next launch offers a retry).
type SoundFetcher struct {
	store    *Store
	fs       afero.Fs
	dir      string
	router   *SourceRouter
	handlers *FetchHandlers
	throttle time.Duration
	log      logger.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	inflight *VMap[string, *fetchAttempt]
	wg       sync.WaitGroup
}

// NewSoundFetcher creates a fetcher bound to ctx.
func NewSoundFetcher(ctx context.Context, store *Store, opts *SoundFetcherOpts) *SoundFetcher {
	if opts == nil {
		opts = &SoundFetcherOpts{}
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Dir == "" {
		opts.Dir = SoundDataDir
	}
	if opts.Router == nil {
		opts.Router = NewSourceRouter(nil)
	}
	if opts.Handlers == nil {
		opts.Handlers = &FetchHandlers{}
	}
	opts.Handlers.setDefault()
	if opts.Throttle <= 0 {
		opts.Throttle = progressThrottle
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	fctx, cancel := context.WithCancel(ctx)
	return &SoundFetcher{
		store:    store,
		fs:       opts.Fs,
		dir:      opts.Dir,
		router:   opts.Router,
		handlers: opts.Handlers,
		throttle: opts.Throttle,
		log:      opts.Logger,
		ctx:      fctx,
		cancel:   cancel,
		inflight: NewVMap[string, *fetchAttempt](),
	}
}

// Fetch starts (or refuses to duplicate) a download of remoteURL for the
// given reminder. The guard is evaluated against the reminder's persisted
// state:
//
//   - a different URL, a previous error, or a fetched-but-missing asset
//     resets the state machine to idle and proceeds;
//   - an in-flight fetch, or a fetched asset that still exists for the
//     same URL, is a no-op;
//   - otherwise the fetch proceeds.
//
// The actual I/O runs asynchronously; Fetch itself returns after the
// state transition to fetching. Errors are returned only for conditions
// the caller got wrong (missing reminder, blank URL); transfer failures
// surface through the fetch state and the error handler.
func (f *SoundFetcher) Fetch(reminderID, remoteURL string) error {
	if remoteURL == "" {
		return ErrNoSoundURL
	}
	snap, err := f.store.GetReminder(reminderID)
	if err != nil {
		return err
	}
	if snap == nil {
		return ErrReminderNotFound
	}

	assetOK := snap.LocalSoundPath != "" && f.assetExists(snap.LocalSoundPath)
	switch {
	case remoteURL != snap.RemoteSoundURL ||
		snap.SoundFetchState == FetchError ||
		(snap.SoundFetchState == FetchFetched && !assetOK):
		// Invalidate whatever came before, including an in-flight fetch
		// for a stale URL, and start over.
		f.CancelFetch(reminderID)
		if err := f.store.ResetSound(reminderID, remoteURL); err != nil {
			return err
		}
	case snap.SoundFetchState == FetchFetching:
		return nil
	case snap.SoundFetchState == FetchFetched && assetOK:
		return nil
	}

	claimed, err := f.store.MarkSoundFetching(reminderID, remoteURL)
	if err != nil {
		return err
	}
	if !claimed {
		// A concurrent invocation won the claim; at most one fetch runs.
		return nil
	}

	actx, cancel := context.WithCancel(f.ctx)
	att := &fetchAttempt{cancel: cancel, url: remoteURL}
	f.inflight.Set(reminderID, att)
	f.wg.Add(1)
	SafeGo(f.log, "sound-fetch "+reminderID, func() {
		defer f.wg.Done()
		defer cancel()
		defer func() {
			if cur, ok := f.inflight.Lookup(reminderID); ok && cur == att {
				f.inflight.Delete(reminderID)
			}
		}()
		f.run(actx, reminderID, remoteURL)
	})
	return nil
}

// CancelFetch cooperatively aborts the reminder's in-flight fetch, if
// any. The aborted attempt lands in the error state.
func (f *SoundFetcher) CancelFetch(reminderID string) {
	if att, ok := f.inflight.Lookup(reminderID); ok {
		att.cancel()
	}
}

// Close aborts all in-flight fetches and waits for them to wind down.
func (f *SoundFetcher) Close() error {
	f.cancel()
	f.wg.Wait()
	return nil
}

func (f *SoundFetcher) assetExists(path string) bool {
	ok, err := afero.Exists(f.fs, path)
	return err == nil && ok
}

func (f *SoundFetcher) run(ctx context.Context, reminderID, remoteURL string) {
	localPath := SoundAssetPath(f.dir, reminderID, remoteURL)
	err := f.stream(ctx, reminderID, remoteURL, localPath)
	if err != nil {
		// A partial file must never become visible as fetched.
		_ = f.fs.Remove(localPath)
		if applied, _ := f.store.MarkSoundError(reminderID, remoteURL); applied {
			f.handlers.ErrorHandler(reminderID, err)
		}
		f.log.Error("sound fetch %s (%s): %v", reminderID, remoteURL, err)
		return
	}
	applied, serr := f.store.MarkSoundFetched(reminderID, remoteURL, localPath)
	if serr != nil || !applied {
		// Superseded while finishing; the asset belongs to a stale URL.
		_ = f.fs.Remove(localPath)
		return
	}
	f.handlers.CompleteHandler(reminderID, localPath)
}

func (f *SoundFetcher) stream(ctx context.Context, reminderID, remoteURL, localPath string) error {
	src, err := f.router.Open(remoteURL)
	if err != nil {
		return err
	}
	rc, size, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	file, err := f.fs.Create(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var (
		read     int64
		lastPct  int
		lastEmit time.Time
		buf      = make([]byte, fetchChunkSize)
	)
	for {
		// Cooperative cancellation between chunk writes.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, rerr := rc.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return werr
			}
			read += int64(n)
			if size > 0 {
				pct := int(read * 100 / size)
				if pct > 100 {
					pct = 100
				}
				if pct > lastPct && time.Since(lastEmit) >= f.throttle {
					f.emitProgress(reminderID, remoteURL, pct)
					lastPct, lastEmit = pct, time.Now()
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	if size > 0 && read < size {
		return ErrFetchIncomplete
	}
	// Final update so clients always see 100 before fetched.
	f.emitProgress(reminderID, remoteURL, 100)
	return nil
}

// emitProgress applies a progress update only while the store still shows
// this URL's fetch in flight, then mirrors it to the handlers.
func (f *SoundFetcher) emitProgress(reminderID, remoteURL string, pct int) {
	applied, err := f.store.SetSoundProgress(reminderID, remoteURL, pct)
	if err != nil || !applied {
		return
	}
	f.handlers.ProgressHandler(reminderID, pct)
}
