package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/pkg/remindlib"
)

func watch(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "watch", "new_client", err)
		return nil
	}
	defer client.Close()
	client.OnReminderEvent(func(ev remindlib.ChangeEvent) {
		stamp := time.Now().Format("15:04:05")
		switch {
		case ev.Reminder != nil:
			fmt.Printf("%s %-8s %s %q\n", stamp, ev.Op, shortID(ev.Reminder.ID), ev.Reminder.Title)
		case ev.List != nil:
			fmt.Printf("%s %-8s list %s %q\n", stamp, ev.Op, shortID(ev.List.ID), ev.List.Name)
		}
	})
	client.OnSoundEvent(func(ev common.SoundEvent) {
		stamp := time.Now().Format("15:04:05")
		switch {
		case ev.Error != "":
			fmt.Printf("%s sound    %s %s: %s\n", stamp, shortID(ev.ReminderID), ev.State, ev.Error)
		case ev.Progress >= 0:
			fmt.Printf("%s sound    %s %s %d%%\n", stamp, shortID(ev.ReminderID), ev.State, ev.Progress)
		default:
			fmt.Printf("%s sound    %s %s %s\n", stamp, shortID(ev.ReminderID), ev.State, ev.LocalPath)
		}
	})
	fmt.Println(">> Watching for events, press ^C to stop <<")
	waitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-waitCtx.Done()
	return nil
}
