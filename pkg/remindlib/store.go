package remindlib

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ChangeOp identifies what happened to a record.
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// ChangeEvent is published to subscribers on every store mutation. Exactly
// one of Reminder and List is set.
type ChangeEvent struct {
	Op       ChangeOp      `json:"op"`
	Reminder *Reminder     `json:"reminder,omitempty"`
	List     *ReminderList `json:"list,omitempty"`
}

// Subscription is a live feed of store changes. Events are delivered on C;
// slow consumers lose events rather than block writers. Close releases the
// subscription.
type Subscription struct {
	C  <-chan ChangeEvent
	c  chan ChangeEvent
	id uint64
	s  *Store
}

// Close detaches the subscription from the store.
func (sub *Subscription) Close() {
	sub.s.unsubscribe(sub.id)
}

// Store persists reminders and lists in a sqlite database and publishes
// change events so the daemon and connected clients observe mutations
// without polling. It is created explicitly at process start and torn down
// at shutdown; there is no implicit global instance.
type Store struct {
	db *sql.DB

	subMu   sync.RWMutex
	subs    map[uint64]chan ChangeEvent
	nextSub uint64
	closed  bool
}

// OpenStore opens (and if needed creates) the reminder database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, subs: make(map[uint64]chan ChangeEvent)}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS lists (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS reminders (
	id                      TEXT PRIMARY KEY,
	title                   TEXT NOT NULL,
	notes                   TEXT NOT NULL DEFAULT '',
	due_at                  TEXT DEFAULT NULL,
	priority                INTEGER NOT NULL DEFAULT 0,
	completed               INTEGER NOT NULL DEFAULT 0,
	list_id                 TEXT NOT NULL,
	notifications_enabled   INTEGER NOT NULL DEFAULT 1,
	sound_enabled           INTEGER NOT NULL DEFAULT 1,
	remote_sound_url        TEXT NOT NULL DEFAULT '',
	local_sound_path        TEXT NOT NULL DEFAULT '',
	sound_fetch_state       INTEGER NOT NULL DEFAULT 0,
	sound_fetch_progress    INTEGER NOT NULL DEFAULT -1,
	vibrate_enabled         INTEGER NOT NULL DEFAULT 1,
	advance_minutes         INTEGER NOT NULL DEFAULT 0,
	repeat_count            INTEGER NOT NULL DEFAULT 0,
	repeat_interval_minutes INTEGER NOT NULL DEFAULT 5,
	recur_expr              TEXT NOT NULL DEFAULT '',
	created_at              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminders_list ON reminders(list_id);`
	_, err := s.db.Exec(ddl)
	return err
}

// Close tears the store down, closing all subscriptions first.
func (s *Store) Close() error {
	s.subMu.Lock()
	s.closed = true
	for id, c := range s.subs {
		close(c)
		delete(s.subs, id)
	}
	s.subMu.Unlock()
	return s.db.Close()
}

// Subscribe registers a change feed with the given buffer size.
func (s *Store) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	c := make(chan ChangeEvent, buffer)
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	id := s.nextSub
	if !s.closed {
		s.subs[id] = c
	} else {
		close(c)
	}
	return &Subscription{C: c, c: c, id: id, s: s}
}

func (s *Store) unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if c, ok := s.subs[id]; ok {
		close(c)
		delete(s.subs, id)
	}
}

func (s *Store) isClosed() bool {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return s.closed
}

// publish fans an event out to all subscribers without blocking.
func (s *Store) publish(ev ChangeEvent) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, c := range s.subs {
		select {
		case c <- ev:
		default:
		}
	}
}

const reminderCols = `id, title, notes, due_at, priority, completed, list_id,
	notifications_enabled, sound_enabled, remote_sound_url, local_sound_path,
	sound_fetch_state, sound_fetch_progress, vibrate_enabled, advance_minutes,
	repeat_count, repeat_interval_minutes, recur_expr, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*Reminder, error) {
	var r Reminder
	var due sql.NullString
	var created string
	err := row.Scan(
		&r.ID, &r.Title, &r.Notes, &due, &r.Priority, &r.Completed, &r.ListID,
		&r.NotificationsEnabled, &r.SoundEnabled, &r.RemoteSoundURL, &r.LocalSoundPath,
		&r.SoundFetchState, &r.SoundFetchProgress, &r.VibrateEnabled, &r.AdvanceMinutes,
		&r.RepeatCount, &r.RepeatIntervalMinutes, &r.RecurExpr, &created,
	)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		if t, perr := time.Parse(time.RFC3339Nano, due.String); perr == nil {
			r.DueAt = t
		}
	}
	if t, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

func dueValue(r *Reminder) any {
	if !r.HasDue() {
		return nil
	}
	return r.DueAt.Format(time.RFC3339Nano)
}

// CreateReminder persists a new reminder and publishes a created event.
func (s *Store) CreateReminder(r *Reminder) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO reminders (`+reminderCols+`) VALUES
		(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.Title, r.Notes, dueValue(r), r.Priority, r.Completed, r.ListID,
		r.NotificationsEnabled, r.SoundEnabled, r.RemoteSoundURL, r.LocalSoundPath,
		r.SoundFetchState, r.SoundFetchProgress, r.VibrateEnabled, r.AdvanceMinutes,
		r.RepeatCount, r.RepeatIntervalMinutes, r.RecurExpr,
		r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	s.publish(ChangeEvent{Op: OpCreated, Reminder: r})
	return nil
}

// UpdateReminder persists all fields of an existing reminder.
func (s *Store) UpdateReminder(r *Reminder) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	if err := r.Validate(); err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE reminders SET title=?, notes=?, due_at=?,
		priority=?, completed=?, list_id=?, notifications_enabled=?,
		sound_enabled=?, remote_sound_url=?, local_sound_path=?,
		sound_fetch_state=?, sound_fetch_progress=?, vibrate_enabled=?,
		advance_minutes=?, repeat_count=?, repeat_interval_minutes=?,
		recur_expr=? WHERE id=?`,
		r.Title, r.Notes, dueValue(r), r.Priority, r.Completed, r.ListID,
		r.NotificationsEnabled, r.SoundEnabled, r.RemoteSoundURL, r.LocalSoundPath,
		r.SoundFetchState, r.SoundFetchProgress, r.VibrateEnabled,
		r.AdvanceMinutes, r.RepeatCount, r.RepeatIntervalMinutes, r.RecurExpr, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReminderNotFound
	}
	s.publish(ChangeEvent{Op: OpUpdated, Reminder: r})
	return nil
}

// DeleteReminder removes a reminder; missing ids are a silent no-op so a
// timer firing for an already deleted reminder degrades gracefully.
func (s *Store) DeleteReminder(id string) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	r, err := s.GetReminder(id)
	if err != nil {
		return err
	}
	if r == nil {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM reminders WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	s.publish(ChangeEvent{Op: OpDeleted, Reminder: r})
	return nil
}

// GetReminder returns the reminder with the given id, or nil when absent.
func (s *Store) GetReminder(id string) (*Reminder, error) {
	row := s.db.QueryRow(`SELECT `+reminderCols+` FROM reminders WHERE id=?`, id)
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// RemindersForList returns all reminders belonging to a list, soonest due
// first with undated reminders last.
func (s *Store) RemindersForList(listID string) ([]*Reminder, error) {
	return s.queryReminders(`SELECT `+reminderCols+` FROM reminders
		WHERE list_id=? ORDER BY due_at IS NULL, due_at, created_at`, listID)
}

// AllReminders returns every reminder; used at daemon start to rebuild
// alarm state.
func (s *Store) AllReminders() ([]*Reminder, error) {
	return s.queryReminders(`SELECT ` + reminderCols + ` FROM reminders ORDER BY created_at`)
}

func (s *Store) queryReminders(query string, args ...any) ([]*Reminder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateList persists a new list.
func (s *Store) CreateList(l *ReminderList) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	if strings.TrimSpace(l.Name) == "" {
		return ErrBlankListName
	}
	if _, err := s.db.Exec(`INSERT INTO lists (id, name) VALUES (?,?)`, l.ID, l.Name); err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	s.publish(ChangeEvent{Op: OpCreated, List: l})
	return nil
}

// RenameList updates a list's display name.
func (s *Store) RenameList(id, name string) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	if strings.TrimSpace(name) == "" {
		return ErrBlankListName
	}
	res, err := s.db.Exec(`UPDATE lists SET name=? WHERE id=?`, name, id)
	if err != nil {
		return fmt.Errorf("rename list: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListNotFound
	}
	s.publish(ChangeEvent{Op: OpUpdated, List: &ReminderList{ID: id, Name: name}})
	return nil
}

// DeleteList removes a list and all of its reminders in one transaction
// and returns the deleted reminders so the caller can cancel their timers.
func (s *Store) DeleteList(id string) ([]*Reminder, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}
	l, err := s.GetList(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, nil
	}
	orphans, err := s.RemindersForList(id)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM reminders WHERE list_id=?`, id); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("delete list reminders: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM lists WHERE id=?`, id); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("delete list: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	for _, r := range orphans {
		s.publish(ChangeEvent{Op: OpDeleted, Reminder: r})
	}
	s.publish(ChangeEvent{Op: OpDeleted, List: l})
	return orphans, nil
}

// GetList returns the list with the given id, or nil when absent.
func (s *Store) GetList(id string) (*ReminderList, error) {
	var l ReminderList
	err := s.db.QueryRow(`SELECT id, name FROM lists WHERE id=?`, id).Scan(&l.ID, &l.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Lists returns all lists ordered by name.
func (s *Store) Lists() ([]*ReminderList, error) {
	rows, err := s.db.Query(`SELECT id, name FROM lists ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ReminderList
	for rows.Next() {
		var l ReminderList
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Sound fetch state transitions. These are conditional updates so a stale
// fetch attempt can never clobber the state of a newer one: every guard is
// evaluated atomically inside sqlite.

// ResetSound puts the reminder's sound machinery back to idle for the
// given URL, clearing the local path and progress. Used when the remote
// URL changes or a previously fetched asset went missing.
func (s *Store) ResetSound(id, remoteURL string) error {
	res, err := s.db.Exec(`UPDATE reminders SET remote_sound_url=?,
		local_sound_path='', sound_fetch_state=?, sound_fetch_progress=?
		WHERE id=?`, remoteURL, FetchIdle, ProgressNone, id)
	if err != nil {
		return fmt.Errorf("reset sound: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReminderNotFound
	}
	s.publishReminder(id)
	return nil
}

// MarkSoundFetching claims the fetch for this URL: it transitions to
// fetching with progress 0 unless another fetch is already in flight.
// Returns false when the claim was lost.
func (s *Store) MarkSoundFetching(id, remoteURL string) (bool, error) {
	res, err := s.db.Exec(`UPDATE reminders SET sound_fetch_state=?,
		sound_fetch_progress=0 WHERE id=? AND remote_sound_url=? AND
		sound_fetch_state<>?`, FetchFetching, id, remoteURL, FetchFetching)
	if err != nil {
		return false, fmt.Errorf("mark fetching: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.publishReminder(id)
	}
	return n > 0, nil
}

// SetSoundProgress applies a progress update only while this URL's fetch
// is still in flight and the value does not regress. Returns false when
// the update no longer targets the current attempt.
func (s *Store) SetSoundProgress(id, remoteURL string, pct int) (bool, error) {
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	res, err := s.db.Exec(`UPDATE reminders SET sound_fetch_progress=?
		WHERE id=? AND remote_sound_url=? AND sound_fetch_state=? AND
		sound_fetch_progress<=?`, pct, id, remoteURL, FetchFetching, pct)
	if err != nil {
		return false, fmt.Errorf("set progress: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.publishReminder(id)
	}
	return n > 0, nil
}

// MarkSoundFetched completes the fetch: state fetched, local path set,
// progress cleared. Only applies while this URL's fetch is in flight.
func (s *Store) MarkSoundFetched(id, remoteURL, localPath string) (bool, error) {
	res, err := s.db.Exec(`UPDATE reminders SET sound_fetch_state=?,
		local_sound_path=?, sound_fetch_progress=? WHERE id=? AND
		remote_sound_url=? AND sound_fetch_state=?`,
		FetchFetched, localPath, ProgressNone, id, remoteURL, FetchFetching)
	if err != nil {
		return false, fmt.Errorf("mark fetched: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.publishReminder(id)
	}
	return n > 0, nil
}

// MarkSoundError fails the fetch: state error, local path and progress
// cleared, remote URL preserved for retry. Only applies while this URL's
// fetch is in flight.
func (s *Store) MarkSoundError(id, remoteURL string) (bool, error) {
	res, err := s.db.Exec(`UPDATE reminders SET sound_fetch_state=?,
		local_sound_path='', sound_fetch_progress=? WHERE id=? AND
		remote_sound_url=? AND sound_fetch_state=?`,
		FetchError, ProgressNone, id, remoteURL, FetchFetching)
	if err != nil {
		return false, fmt.Errorf("mark error: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.publishReminder(id)
	}
	return n > 0, nil
}

func (s *Store) publishReminder(id string) {
	r, err := s.GetReminder(id)
	if err != nil || r == nil {
		return
	}
	s.publish(ChangeEvent{Op: OpUpdated, Reminder: r})
}
