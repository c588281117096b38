package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/pkg/remindlib"
)

var (
	soundCancel bool

	soundFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "cancel, x",
			Usage:       "abort an in-flight sound download",
			Destination: &soundCancel,
		},
	}
)

func initSoundBar(p *mpb.Progress) *mpb.Bar {
	barStyle := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	name := "Fetching"
	bar := p.New(100,
		barStyle,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "Done"),
		),
	)
	bar.EnableTriggerComplete()
	return bar
}

func sound(ctx *cli.Context) error {
	ref := ctx.Args().First()
	if ref == "" {
		return printErrWithCmdHelp(ctx, errors.New("no reminder id provided"))
	} else if ref == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "sound", "new_client", err)
		return nil
	}
	defer client.Close()
	id, err := resolveReminderID(client, ref)
	if err != nil {
		printRuntimeErr(ctx, "sound", "resolve_reminder", err)
		return nil
	}
	if soundCancel {
		if err := client.CancelSound(id); err != nil {
			printRuntimeErr(ctx, "sound", "cancel_sound", err)
			return nil
		}
		fmt.Println("cancelled sound download for", id)
		return nil
	}
	url := ctx.Args().Get(1)
	r, err := client.GetReminder(id)
	if err != nil || r == nil {
		printRuntimeErr(ctx, "sound", "get_reminder", err)
		return nil
	}
	if url == "" {
		url = r.RemoteSoundURL
	}
	if url == "" {
		return printErrWithCmdHelp(ctx, errors.New("reminder has no sound url, pass one as the second argument"))
	}
	if url == r.RemoteSoundURL && r.SoundFetchState == remindlib.FetchFetched {
		fmt.Println("sound already fetched:", r.LocalSoundPath)
		return nil
	}

	// Subscribe before starting the fetch so no event is missed.
	final := make(chan common.SoundEvent, 1)
	p := mpb.New(mpb.WithWidth(60))
	bar := initSoundBar(p)
	client.OnSoundEvent(func(ev common.SoundEvent) {
		if ev.ReminderID != id {
			return
		}
		switch ev.State {
		case remindlib.FetchFetching.String():
			bar.SetCurrent(int64(ev.Progress))
		case remindlib.FetchFetched.String(), remindlib.FetchError.String():
			select {
			case final <- ev:
			default:
			}
		}
	})
	if err := client.FetchSound(id, url); err != nil {
		bar.Abort(true)
		p.Wait()
		printRuntimeErr(ctx, "sound", "fetch_sound", err)
		return nil
	}
	fmt.Println(">> Fetching notification sound <<")
	select {
	case ev := <-final:
		if ev.State == remindlib.FetchError.String() {
			bar.Abort(true)
			p.Wait()
			fmt.Println("remindd: sound fetch failed:", ev.Error)
			return nil
		}
		bar.SetCurrent(100)
		p.Wait()
		fmt.Println("saved to", ev.LocalPath)
	case <-time.After(10 * time.Minute):
		bar.Abort(true)
		p.Wait()
		fmt.Println("remindd: timed out waiting for the download to finish")
	}
	return nil
}
