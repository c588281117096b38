package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/remindd/remindd/pkg/remindlib"
)

var (
	lsShowCompleted bool
	lsShowAll       bool

	lsFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "show-completed, c",
			Usage:       "include completed reminders (default: false)",
			Destination: &lsShowCompleted,
		},
		cli.BoolFlag{
			Name:        "show-all, a",
			Usage:       "show every reminder regardless of state (default: false)",
			Destination: &lsShowAll,
		},
	}
)

func list(ctx *cli.Context) error {
	ref := ctx.Args().First()
	if ref == "" {
		return printErrWithCmdHelp(ctx, errors.New("no list provided"))
	} else if ref == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "list", "new_client", err)
		return nil
	}
	defer client.Close()
	listID, err := resolveListID(client, ref)
	if err != nil {
		printRuntimeErr(ctx, "list", "resolve_list", err)
		return nil
	}
	reminders, err := client.ListReminders(listID)
	if err != nil {
		printRuntimeErr(ctx, "list", "list_reminders", err)
		return nil
	}
	var shown []*remindlib.Reminder
	for _, r := range reminders {
		if r.Completed && !(lsShowCompleted || lsShowAll) {
			continue
		}
		shown = append(shown, r)
	}
	if len(shown) == 0 {
		fmt.Println("remindd: no reminders found")
		return nil
	}
	txt := "Here are your reminders:"
	txt += "\n\n------------------------------------------------------------------------------------"
	txt += "\n|Num|          Title          |       Due        | Priority |    Id    |  Status   |"
	txt += "\n|---|-------------------------|------------------|----------|----------|-----------|"
	for i, r := range shown {
		title := r.Title
		switch n := len(title); {
		case n > 23:
			title = title[:20] + "..."
		case n < 23:
			title = beaut(title, 23)
		}
		status := "pending"
		if r.Completed {
			status = "completed"
		}
		txt += fmt.Sprintf("\n| %d | %s | %s | %s | %s | %s |",
			i+1, title,
			beaut(formatDue(r), 16),
			beaut(r.Priority.String(), 8),
			shortID(r.ID),
			beaut(status, 9),
		)
	}
	txt += "\n------------------------------------------------------------------------------------"
	fmt.Println(txt)
	return nil
}
