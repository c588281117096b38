package timer

import (
	"time"

	"github.com/remindd/remindd/common"
)

// Key identifies one alarm registration. A reminder owns several slots:
// the main alert and one per pending repeat.
type Key struct {
	ReminderID string
	// Slot is common.SlotMain for the main alert or the remaining repeat
	// counter for follow-up alerts.
	Slot int
}

// Registration is a pending alarm. Registering the same Key again
// replaces the previous registration in full.
type Registration struct {
	Key Key
	// At is the wall-clock time the alarm fires.
	At time.Time
	// Recur is an optional cron expression; after firing, the
	// registration re-arms at the next occurrence. Empty means one-shot.
	Recur string
	// Payload is delivered verbatim to the fire callback, including after
	// a restart.
	Payload common.AlarmPayload
}
