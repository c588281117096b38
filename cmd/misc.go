package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/remindd/remindd/pkg/remindcli"
	"github.com/remindd/remindd/pkg/remindlib"
)

// newClient dials the daemon, honoring the REMINDD_ADDR override.
func newClient() (*remindcli.Client, error) {
	return remindcli.NewClient(os.Getenv("REMINDD_ADDR"))
}

var dueLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDue accepts RFC3339, date-time, date-only, or a bare clock time
// which resolves to the next occurrence of that time of day.
func parseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if clock, err := time.ParseInLocation("15:04", s, time.Local); err == nil {
		now := time.Now()
		t := time.Date(now.Year(), now.Month(), now.Day(),
			clock.Hour(), clock.Minute(), 0, 0, time.Local)
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized due time %q", s)
}

func parsePriority(s string) (remindlib.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return remindlib.PriorityNone, nil
	case "low":
		return remindlib.PriorityLow, nil
	case "medium", "med":
		return remindlib.PriorityMedium, nil
	case "high":
		return remindlib.PriorityHigh, nil
	default:
		return remindlib.PriorityNone, fmt.Errorf("unknown priority %q (none|low|medium|high)", s)
	}
}

// resolveListID maps a list id or name to the list's id.
func resolveListID(client *remindcli.Client, ref string) (string, error) {
	all, err := client.Lists()
	if err != nil {
		return "", err
	}
	for _, l := range all {
		if l.ID == ref {
			return l.ID, nil
		}
	}
	for _, l := range all {
		if strings.EqualFold(l.Name, ref) {
			return l.ID, nil
		}
	}
	return "", fmt.Errorf("no list named %q", ref)
}

// shortID is the id prefix shown in tables; commands accept it back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveReminderID maps a full id or a unique id prefix to a reminder id.
func resolveReminderID(client *remindcli.Client, ref string) (string, error) {
	if r, err := client.GetReminder(ref); err != nil {
		return "", err
	} else if r != nil {
		return r.ID, nil
	}
	all, err := client.Lists()
	if err != nil {
		return "", err
	}
	var match string
	for _, l := range all {
		reminders, err := client.ListReminders(l.ID)
		if err != nil {
			return "", err
		}
		for _, r := range reminders {
			if !strings.HasPrefix(r.ID, ref) {
				continue
			}
			if match != "" && match != r.ID {
				return "", fmt.Errorf("reminder id %q is ambiguous", ref)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no reminder with id %q", ref)
	}
	return match, nil
}

func formatDue(r *remindlib.Reminder) string {
	if !r.HasDue() {
		return "no due date"
	}
	return r.DueAt.Local().Format("2006-01-02 15:04")
}
