// Package timer provides the alarm clock for remindd. It implements a
// single-goroutine service using a min-heap of registrations sorted by
// trigger time, with a 60-second max-sleep-cap to handle NTP steps, DST
// transitions, and system sleep.
//
// Registrations are keyed by (reminder id, slot) so re-registering a key
// replaces its predecessor, matching platform alarm semantics. Unlike the
// in-memory heap, the registration set is persisted to disk so pending
// alarms survive a daemon restart with their payloads intact; anything
// that should have fired while the daemon was down fires immediately on
// startup.
package timer
