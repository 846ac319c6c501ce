package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/CrestNiraj12/twiddle/domain"
)

// newApp creates the command tree. With no subcommand the TUI starts.
func newApp() *cli.App {
	v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
	cli.VersionPrinter = func(ctx *cli.Context) {
		fmt.Fprintf(ctx.App.Writer, "%s %s\ncommit: %s\nbuilt: %s\n", domain.AppTitle, v, c, d)
	}

	app := cli.NewApp()
	app.Name = "twiddle"
	app.Usage = "Read a Mastodon timeline in the terminal"
	app.Version = v
	app.Action = runTUI
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to the TOML config file",
		},
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "timeline to read: home, tag:<name> or account:<id>",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
	app.Commands = []*cli.Command{
		{
			Action:      runTUI,
			Name:        "run",
			Usage:       "Open the timeline viewer",
			Category:    "Timeline",
			Description: `Logs in if needed, then shows the timeline. Press r to refresh and m to load older posts.`,
		},
		{
			Action:   fetchCommand,
			Name:     "fetch",
			Usage:    "Print the timeline to stdout",
			Category: "Timeline",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "pages",
					Aliases: []string{"n"},
					Value:   1,
					Usage:   "number of pages to load",
				},
			},
		},
		{
			Action:    imageCommand,
			Name:      "image",
			Usage:     "Download an image by URL",
			ArgsUsage: "<url>",
			Category:  "Timeline",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "write to this file instead of stdout",
				},
			},
		},
		{
			Action:   loginCommand,
			Name:     "login",
			Usage:    "Authorize with the instance and store the token",
			Category: "Account",
		},
		{
			Action:   profileCommand,
			Name:     "profile",
			Usage:    "Show the logged in account",
			Category: "Account",
		},
		{
			Action:   configCommand,
			Name:     "config",
			Usage:    "Print the effective configuration as TOML",
			Category: "Settings",
		},
		{
			Action: func(ctx *cli.Context) error {
				cli.VersionPrinter(ctx)
				return nil
			},
			Name:     "version",
			Usage:    "Print version information",
			Category: "Settings",
		},
	}
	return app
}
