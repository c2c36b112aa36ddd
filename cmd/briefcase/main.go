package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iago/briefcase/cmd/briefcase/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "briefcase",
		Usage: "generate team dossiers from a company's team page",
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "submit a team page and follow the job until the dossier is ready",
				ArgsUsage: "<team-page-url>",
				Flags: []cli.Flag{
					envFlag(),
					verboseFlag(),
					&cli.BoolFlag{
						Name:  "export",
						Usage: "export the dossier to Notion once it is ready",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "print the dossier as JSON instead of text",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "write the dossier to this file instead of stdout",
					},
				},
				Action: commands.GenerateAction,
			},
			{
				Name:      "status",
				Usage:     "show the current status of a job",
				ArgsUsage: "<job-id>",
				Flags:     []cli.Flag{envFlag(), verboseFlag()},
				Action:    commands.StatusAction,
			},
			{
				Name:      "export",
				Usage:     "export a completed dossier to Notion",
				ArgsUsage: "<job-id>",
				Flags:     []cli.Flag{envFlag(), verboseFlag()},
				Action:    commands.ExportAction,
			},
			{
				Name:  "devserver",
				Usage: "run a local backend that simulates the dossier pipeline",
				Flags: []cli.Flag{
					envFlag(),
					&cli.IntFlag{
						Name:  "port",
						Usage: "HTTP port (defaults to PORT or 5002)",
					},
				},
				Action: commands.DevServerAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "environment file to load before reading configuration",
		Value: ".env",
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log requests and lifecycle transitions to stderr",
	}
}
