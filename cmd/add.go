package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/remindd/remindd/common"
)

var (
	addListRef   string
	addDue       string
	addNotes     string
	addPriority  string
	addAdvance   int
	addRepeat    int
	addInterval  int
	addRecur     string
	addSoundURL  string
	addNoNotify  bool
	addSilent    bool
	addNoVibrate bool

	addFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "list, L",
			Usage:       "list name or id to add the reminder to",
			Destination: &addListRef,
		},
		cli.StringFlag{
			Name:        "due, d",
			Usage:       "due time (RFC3339, \"2006-01-02 15:04\" or \"15:04\")",
			Destination: &addDue,
		},
		cli.StringFlag{
			Name:        "notes, n",
			Usage:       "free-form notes attached to the reminder",
			Destination: &addNotes,
		},
		cli.StringFlag{
			Name:        "priority, p",
			Usage:       "priority: none, low, medium or high",
			Destination: &addPriority,
		},
		cli.IntFlag{
			Name:        "advance, b",
			Usage:       "minutes before the due time to alert",
			Destination: &addAdvance,
		},
		cli.IntFlag{
			Name:        "repeat, r",
			Usage:       "number of follow-up alerts after the main one",
			Destination: &addRepeat,
		},
		cli.IntFlag{
			Name:        "repeat-interval, i",
			Usage:       "minutes between follow-up alerts (default: 5)",
			Destination: &addInterval,
		},
		cli.StringFlag{
			Name:        "recur, R",
			Usage:       "cron expression for a recurring alarm",
			Destination: &addRecur,
		},
		cli.StringFlag{
			Name:        "sound, s",
			Usage:       "url of a custom notification sound to fetch",
			Destination: &addSoundURL,
		},
		cli.BoolFlag{
			Name:        "no-notify",
			Usage:       "create the reminder without notifications",
			Destination: &addNoNotify,
		},
		cli.BoolFlag{
			Name:        "silent",
			Usage:       "notify without sound",
			Destination: &addSilent,
		},
		cli.BoolFlag{
			Name:        "no-vibrate",
			Usage:       "notify without vibration",
			Destination: &addNoVibrate,
		},
	}
)

func add(ctx *cli.Context) error {
	title := ctx.Args().First()
	if title == "" {
		return printErrWithCmdHelp(ctx, errors.New("no title provided"))
	} else if title == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	if addListRef == "" {
		return printErrWithCmdHelp(ctx, errors.New("no list provided, use --list"))
	}
	due, err := parseDue(addDue)
	if err != nil {
		return printErrWithCmdHelp(ctx, err)
	}
	prio, err := parsePriority(addPriority)
	if err != nil {
		return printErrWithCmdHelp(ctx, err)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "add", "new_client", err)
		return nil
	}
	defer client.Close()
	listID, err := resolveListID(client, addListRef)
	if err != nil {
		printRuntimeErr(ctx, "add", "resolve_list", err)
		return nil
	}
	r, err := client.CreateReminder(&common.CreateReminderParams{
		Title:                 title,
		Notes:                 addNotes,
		DueAt:                 due,
		ListID:                listID,
		Priority:              prio,
		AdvanceMinutes:        addAdvance,
		RepeatCount:           addRepeat,
		RepeatIntervalMinutes: addInterval,
		RecurExpr:             addRecur,
		RemoteSoundURL:        addSoundURL,
		DisableNotifications:  addNoNotify,
		DisableSound:          addSilent,
		DisableVibrate:        addNoVibrate,
	})
	if err != nil {
		printRuntimeErr(ctx, "add", "create_reminder", err)
		return nil
	}
	fmt.Printf("created %s (%s)\n", r.ID, formatDue(r))
	return nil
}
