package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
)

// BuildArgs carries the build-time stamp injected by the linker.
type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

// Execute runs the remindd command line interface.
func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	versionCmdStr = fmt.Sprintf(
		"remindd %s (%s_%s)\nBuild: %s=%s\n",
		bArgs.Version, runtime.GOOS, runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	app := cli.App{
		Name:                  "remindd",
		HelpName:              "remindd",
		Usage:                 "A reminder daemon with alarms and notifications.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "remindd <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          usageErrorCallback,
		Commands: []cli.Command{
			{
				Name:               "daemon",
				Usage:              "run the reminder daemon in the foreground",
				Action:             runDaemon,
				OnUsageError:       usageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        DaemonDescription,
				Flags:              daemonFlags,
			},
			{
				Name:                   "add",
				Aliases:                []string{"a"},
				Usage:                  "create a reminder",
				Action:                 add,
				OnUsageError:           usageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            AddDescription,
				UseShortOptionHandling: true,
				Flags:                  addFlags,
			},
			{
				Name:                   "list",
				Aliases:                []string{"l"},
				Usage:                  "display the reminders of a list",
				Action:                 list,
				OnUsageError:           usageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            ListDescription,
				UseShortOptionHandling: true,
				Flags:                  lsFlags,
			},
			{
				Name:               "lists",
				Usage:              "manage reminder lists",
				Action:             lists,
				OnUsageError:       usageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        ListsDescription,
				Subcommands: []cli.Command{
					{
						Name:   "create",
						Usage:  "create a new list",
						Action: listsCreate,
					},
					{
						Name:   "rename",
						Usage:  "rename a list",
						Action: listsRename,
					},
					{
						Name:   "delete",
						Usage:  "delete a list and its reminders",
						Action: listsDelete,
					},
				},
			},
			{
				Name:               "done",
				Aliases:            []string{"d"},
				Usage:              "toggle a reminder's completion",
				Action:             done,
				OnUsageError:       usageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        DoneDescription,
			},
			{
				Name:                   "edit",
				Aliases:                []string{"e"},
				Usage:                  "edit an existing reminder",
				Action:                 edit,
				OnUsageError:           usageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            EditDescription,
				UseShortOptionHandling: true,
				Flags:                  editFlags,
			},
			{
				Name:               "rm",
				Usage:              "delete a reminder",
				Action:             remove,
				OnUsageError:       usageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        RmDescription,
			},
			{
				Name:                   "sound",
				Aliases:                []string{"s"},
				Usage:                  "fetch a reminder's custom notification sound",
				Action:                 sound,
				OnUsageError:           usageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            SoundDescription,
				UseShortOptionHandling: true,
				Flags:                  soundFlags,
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "stream reminder and sound events",
				Action:             watch,
				OnUsageError:       usageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        WatchDescription,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of remindd",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             getVersion,
			},
		},
		Action:      help,
		HideHelp:    true,
		HideVersion: true,
	}
	return app.Run(args)
}
