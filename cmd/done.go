package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
)

func done(ctx *cli.Context) error {
	ref := ctx.Args().First()
	if ref == "" {
		return printErrWithCmdHelp(ctx, errors.New("no reminder id provided"))
	} else if ref == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "done", "new_client", err)
		return nil
	}
	defer client.Close()
	id, err := resolveReminderID(client, ref)
	if err != nil {
		printRuntimeErr(ctx, "done", "resolve_reminder", err)
		return nil
	}
	r, err := client.ToggleReminder(id)
	if err != nil {
		printRuntimeErr(ctx, "done", "toggle_reminder", err)
		return nil
	}
	if r.Completed {
		fmt.Printf("completed %q\n", r.Title)
	} else {
		fmt.Printf("reopened %q (%s)\n", r.Title, formatDue(r))
	}
	return nil
}
