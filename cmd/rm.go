package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
)

func remove(ctx *cli.Context) error {
	ref := ctx.Args().First()
	if ref == "" {
		return printErrWithCmdHelp(ctx, errors.New("no reminder id provided"))
	} else if ref == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "rm", "new_client", err)
		return nil
	}
	defer client.Close()
	id, err := resolveReminderID(client, ref)
	if err != nil {
		printRuntimeErr(ctx, "rm", "resolve_reminder", err)
		return nil
	}
	if err := client.DeleteReminder(id); err != nil {
		printRuntimeErr(ctx, "rm", "delete_reminder", err)
		return nil
	}
	fmt.Println("deleted", id)
	return nil
}
