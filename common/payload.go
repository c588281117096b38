// Package common holds the wire types shared between the remindd daemon,
// the timer service and the CLI client. Everything here must stay
// gob- and json-serializable: alarm payloads are persisted verbatim across
// daemon restarts and replayed exactly as registered.
package common

// Slot identifiers for alarm registrations. A reminder has exactly one
// main-slot registration; repeat firings are keyed by their remaining
// counter so every link of a repeat chain can be cancelled independently.
const SlotMain = -1

// ProgressNone marks an absent fetch progress value. Progress is only
// meaningful while the sound fetch state is "fetching".
const ProgressNone = -1

// AlarmPayload is the immutable payload carried by a timer registration.
// It is delivered back to the dispatcher when the alarm fires, possibly in
// a later process than the one that registered it, so it carries the full
// delivery snapshot rather than a bare reminder id.
//
// The snapshot may be stale by fire time: the dispatcher re-reads the live
// record for completion/deletion checks but renders title, notes and the
// sound choice from this payload.
type AlarmPayload struct {
	ReminderID string `json:"reminder_id"`
	Title      string `json:"title"`
	Notes      string `json:"notes,omitempty"`
	ListID     string `json:"list_id"`

	// Priority is the ordinal of the reminder's priority (0=none .. 3=high).
	Priority int `json:"priority"`

	SoundEnabled   bool   `json:"sound_enabled"`
	RemoteSoundURL string `json:"remote_sound_url,omitempty"`
	LocalSoundPath string `json:"local_sound_path,omitempty"`

	// FetchState is the ordinal of the sound fetch state at registration
	// time (0=idle, 1=fetching, 2=fetched, 3=error).
	FetchState int `json:"fetch_state"`
	// FetchProgress is 0-100 while fetching, ProgressNone otherwise.
	FetchProgress int `json:"fetch_progress"`

	VibrateEnabled bool `json:"vibrate_enabled"`

	// RepeatCount is the reminder's original follow-up budget.
	RepeatCount int `json:"repeat_count"`
	// RepeatIntervalMinutes is the gap between follow-up firings.
	RepeatIntervalMinutes int `json:"repeat_interval_minutes"`

	// Remaining is the number of follow-ups left after this firing.
	// Only meaningful when IsRepeat is true; the main firing derives its
	// counter from RepeatCount.
	Remaining int `json:"remaining,omitempty"`
	// IsRepeat marks a repeat firing as opposed to the main alert.
	IsRepeat bool `json:"is_repeat,omitempty"`
}

// EffectiveRemaining returns the follow-up counter governing this firing:
// the carried Remaining for a repeat firing, the original budget otherwise.
func (p *AlarmPayload) EffectiveRemaining() int {
	if p.IsRepeat {
		return p.Remaining
	}
	return p.RepeatCount
}
