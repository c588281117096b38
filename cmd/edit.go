package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"
)

var (
	editTitle    string
	editDue      string
	editNotes    string
	editPriority string
	editAdvance  int
	editRepeat   int
	editInterval int
	editRecur    string
	editNotify   string
	editSound    string
	editVibrate  string

	editFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "title, t",
			Usage:       "new title",
			Destination: &editTitle,
		},
		cli.StringFlag{
			Name:        "due, d",
			Usage:       "new due time, or \"none\" to clear it",
			Destination: &editDue,
		},
		cli.StringFlag{
			Name:        "notes, n",
			Usage:       "new notes",
			Destination: &editNotes,
		},
		cli.StringFlag{
			Name:        "priority, p",
			Usage:       "new priority: none, low, medium or high",
			Destination: &editPriority,
		},
		cli.IntFlag{
			Name:        "advance, b",
			Usage:       "minutes before the due time to alert",
			Destination: &editAdvance,
		},
		cli.IntFlag{
			Name:        "repeat, r",
			Usage:       "number of follow-up alerts after the main one",
			Destination: &editRepeat,
		},
		cli.IntFlag{
			Name:        "repeat-interval, i",
			Usage:       "minutes between follow-up alerts",
			Destination: &editInterval,
		},
		cli.StringFlag{
			Name:        "recur, R",
			Usage:       "cron expression for a recurring alarm, or \"none\"",
			Destination: &editRecur,
		},
		cli.StringFlag{
			Name:        "notify",
			Usage:       "turn notifications on or off",
			Destination: &editNotify,
		},
		cli.StringFlag{
			Name:        "sound-enabled",
			Usage:       "turn the notification sound on or off",
			Destination: &editSound,
		},
		cli.StringFlag{
			Name:        "vibrate",
			Usage:       "turn vibration on or off",
			Destination: &editVibrate,
		},
	}
)

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func edit(ctx *cli.Context) error {
	ref := ctx.Args().First()
	if ref == "" {
		return printErrWithCmdHelp(ctx, errors.New("no reminder id provided"))
	} else if ref == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "edit", "new_client", err)
		return nil
	}
	defer client.Close()
	id, err := resolveReminderID(client, ref)
	if err != nil {
		printRuntimeErr(ctx, "edit", "resolve_reminder", err)
		return nil
	}
	r, err := client.GetReminder(id)
	if err != nil || r == nil {
		printRuntimeErr(ctx, "edit", "get_reminder", err)
		return nil
	}
	if ctx.IsSet("title") {
		r.Title = editTitle
	}
	if ctx.IsSet("due") {
		if editDue == "none" {
			r.DueAt = time.Time{}
		} else {
			due, err := parseDue(editDue)
			if err != nil {
				return printErrWithCmdHelp(ctx, err)
			}
			r.DueAt = due
		}
	}
	if ctx.IsSet("notes") {
		r.Notes = editNotes
	}
	if ctx.IsSet("priority") {
		prio, err := parsePriority(editPriority)
		if err != nil {
			return printErrWithCmdHelp(ctx, err)
		}
		r.Priority = prio
	}
	if ctx.IsSet("advance") {
		r.AdvanceMinutes = editAdvance
	}
	if ctx.IsSet("repeat") {
		r.RepeatCount = editRepeat
	}
	if ctx.IsSet("repeat-interval") {
		r.RepeatIntervalMinutes = editInterval
	}
	if ctx.IsSet("recur") {
		if editRecur == "none" {
			r.RecurExpr = ""
		} else {
			r.RecurExpr = editRecur
		}
	}
	for _, knob := range []struct {
		flag  string
		value string
		dst   *bool
	}{
		{"notify", editNotify, &r.NotificationsEnabled},
		{"sound-enabled", editSound, &r.SoundEnabled},
		{"vibrate", editVibrate, &r.VibrateEnabled},
	} {
		if !ctx.IsSet(knob.flag) {
			continue
		}
		on, err := parseOnOff(knob.value)
		if err != nil {
			return printErrWithCmdHelp(ctx, err)
		}
		*knob.dst = on
	}
	updated, err := client.UpdateReminder(r)
	if err != nil {
		printRuntimeErr(ctx, "edit", "update_reminder", err)
		return nil
	}
	fmt.Printf("updated %q (%s)\n", updated.Title, formatDue(updated))
	return nil
}
