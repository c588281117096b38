package cmd

const DESCRIPTION = `
Remindd keeps your reminders and makes sure you hear about them.
It schedules exact alarms with configurable lead times, repeats
alerts until you acknowledge them, fetches custom notification
sounds and delivers desktop notifications, all from a small
always-on daemon driven by this command line client.
`

const (
	DaemonDescription = `The daemon command runs the reminder daemon in the
foreground. It restores persisted alarms, listens for
client connections and delivers notifications until it
receives an interrupt.

Example:
        remindd daemon --config ~/.config/remindd/config.yaml

`
	AddDescription = `The add command creates a reminder in a list. The due
time accepts RFC3339, "2006-01-02 15:04" or a bare
"15:04" for today. Without a due time the reminder is
kept but never alarmed.

Example:
        remindd add "water the plants" -L chores -d "18:30" -r 2

`
	ListDescription = `The list command displays the reminders of a list,
soonest due first. Completed reminders are hidden unless
requested.

Example:
        remindd list chores

`
	ListsDescription = `The lists command shows every reminder list. The
create, rename and delete subcommands manage them;
deleting a list removes its reminders and their alarms.

Example:
        remindd lists
        remindd lists create groceries

`
	DoneDescription = `The done command toggles a reminder's completion using
its id. Completing a reminder cancels its pending alarms,
un-completing re-arms them when the trigger is still in
the future.

Example:
        remindd done <reminder id>

`
	EditDescription = `The edit command updates fields of an existing reminder
and reschedules its alarms accordingly. Only the flags
you pass are changed.

Example:
        remindd edit <reminder id> -d "2026-09-01 09:00" -p high

`
	RmDescription = `The rm command deletes a reminder, cancelling its
pending alarms and any in-flight sound download.

Example:
        remindd rm <reminder id>

`
	SoundDescription = `The sound command downloads a reminder's custom
notification sound and shows live progress. With --cancel
it aborts an in-flight download instead.

Example:
        remindd sound <reminder id> https://example.com/chime.ogg

`
	WatchDescription = `The watch command streams reminder changes and sound
fetch progress from the daemon until interrupted.

Example:
        remindd watch

`
)
