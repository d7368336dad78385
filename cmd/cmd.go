// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the backend and the HTTP surface until interrupted
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the refresh schedules, scrobble workers and HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port from config)",
			},
			&cli.BoolFlag{
				Name:  "no-http",
				Usage: "Run the backend without the HTTP API",
			},
		},
		Action: r.Serve,
	}
}

// refreshCommand runs refresh cycles once
func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Run a refresh cycle once and print the result",
		Commands: []*cli.Command{
			{
				Name:   "player",
				Usage:  "Refresh the player URL and signature timestamp",
				Action: r.RefreshPlayer,
			},
			{
				Name:  "catalog",
				Usage: "Reload the auto playlist sections from the home feed",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the catalog as JSON",
					},
				},
				Action: r.RefreshCatalog,
			},
			{
				Name:   "all",
				Usage:  "Refresh player and catalog concurrently",
				Action: r.RefreshAll,
			},
		},
	}
}

// scrobbleCommand sends one playback report
func scrobbleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scrobble",
		Usage: "Report playback of a video to YouTube Music history",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "videoId",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Scrobble,
	}
}

// catalogCommand shows or exports the auto playlists
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Auto playlist catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Load and print the auto playlist sections",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CatalogShow,
			},
			{
				Name:  "export",
				Usage: "Export the auto playlist sections to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown or txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: catalog.<ext>)",
					},
				},
				Action: r.CatalogExport,
			},
		},
	}
}

// historyCommand lists recorded refresh runs and scrobbles
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded refresh runs and playback reports",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent refresh runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only show runs of this kind (player or catalog)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "scrobbles",
				Usage: "List recent playback reports",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "video",
						Usage: "Only show reports for this video id",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of reports to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryScrobbles,
			},
		},
	}
}

// setupCommand handles setup operations for database and authentication.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Configure YouTube Music authentication from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for the headers file (default: credentials.youtube.headers_path)",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "youtube",
				Usage: "Sign in with the OAuth device flow and save the token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "Token file path (default: credentials.youtube.oauth_path or ~/.ytmusicd/oauth.json)",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the verification URL without opening a browser",
					},
				},
				Action: r.AuthYouTube,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials are configured and whether they load",
				Action: r.AuthStatus,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing the catalog.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse the auto playlist catalog interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/ytmusicd-tui.log",
			},
		},
		Action: r.TUI,
	}
}
