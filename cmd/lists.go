package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
)

func lists(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "lists", "new_client", err)
		return nil
	}
	defer client.Close()
	all, err := client.Lists()
	if err != nil {
		printRuntimeErr(ctx, "lists", "get_lists", err)
		return nil
	}
	if len(all) == 0 {
		fmt.Println("remindd: no lists found, create one with \"remindd lists create <name>\"")
		return nil
	}
	txt := "Here are your lists:"
	txt += "\n\n------------------------------------------"
	txt += "\n|Num|          Name           |    Id    |"
	txt += "\n|---|-------------------------|----------|"
	for i, l := range all {
		name := l.Name
		switch n := len(name); {
		case n > 23:
			name = name[:20] + "..."
		case n < 23:
			name = beaut(name, 23)
		}
		txt += fmt.Sprintf("\n| %d | %s | %s |", i+1, name, shortID(l.ID))
	}
	txt += "\n------------------------------------------"
	fmt.Println(txt)
	return nil
}

func listsCreate(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" {
		return printErrWithCmdHelp(ctx, errors.New("no list name provided"))
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "lists", "new_client", err)
		return nil
	}
	defer client.Close()
	l, err := client.CreateList(name)
	if err != nil {
		printRuntimeErr(ctx, "lists", "create_list", err)
		return nil
	}
	fmt.Printf("created list %q (%s)\n", l.Name, l.ID)
	return nil
}

func listsRename(ctx *cli.Context) error {
	ref, name := ctx.Args().Get(0), ctx.Args().Get(1)
	if ref == "" || name == "" {
		return printErrWithCmdHelp(ctx, errors.New("usage: remindd lists rename <list> <new name>"))
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "lists", "new_client", err)
		return nil
	}
	defer client.Close()
	id, err := resolveListID(client, ref)
	if err != nil {
		printRuntimeErr(ctx, "lists", "resolve_list", err)
		return nil
	}
	if err := client.RenameList(id, name); err != nil {
		printRuntimeErr(ctx, "lists", "rename_list", err)
		return nil
	}
	fmt.Printf("renamed list to %q\n", name)
	return nil
}

func listsDelete(ctx *cli.Context) error {
	ref := ctx.Args().First()
	if ref == "" {
		return printErrWithCmdHelp(ctx, errors.New("no list provided"))
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "lists", "new_client", err)
		return nil
	}
	defer client.Close()
	id, err := resolveListID(client, ref)
	if err != nil {
		printRuntimeErr(ctx, "lists", "resolve_list", err)
		return nil
	}
	removed, err := client.DeleteList(id)
	if err != nil {
		printRuntimeErr(ctx, "lists", "delete_list", err)
		return nil
	}
	fmt.Printf("deleted list and %d reminder(s)\n", removed)
	return nil
}
