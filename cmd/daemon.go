package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/remindd/remindd/internal/config"
	"github.com/remindd/remindd/internal/daemon"
)

var (
	configPath string

	daemonFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the daemon config file",
			Destination: &configPath,
		},
	}
)

func runDaemon(ctx *cli.Context) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		printRuntimeErr(ctx, "daemon", "load_config", err)
		return nil
	}
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := daemon.Run(runCtx, cfg, currentBuildArgs.Version); err != nil {
		printRuntimeErr(ctx, "daemon", "run", err)
	}
	return nil
}
