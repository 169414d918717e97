package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

const name = "recipe-backend"

// overridden during build with ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Recipe API server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML config file",
				Sources: cli.EnvVars("RECIPE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			userCmd(),
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(ctx, cmd.Root().String("config"))
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Serve(ctx)
		},
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the database schema",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(ctx, cmd.Root().String("config"))
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, "schema is up to date")
			return nil
		},
	}
}

func userCmd() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage API users",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a user and print its API token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Email address of the user"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					app, err := newApp(ctx, cmd.Root().String("config"))
					if err != nil {
						return err
					}
					defer app.Close()

					user, err := app.AddUser(ctx, cmd.String("email"))
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "created user %d <%s>\ntoken: %s\n", user.ID, user.Email, user.Token)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List users",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					app, err := newApp(ctx, cmd.Root().String("config"))
					if err != nil {
						return err
					}
					defer app.Close()

					users, err := app.Users(ctx)
					if err != nil {
						return err
					}
					for _, u := range users {
						fmt.Fprintf(cmd.Root().Writer, "%d\t%s\t%s\n", u.ID, u.Email, u.CreatedAt.Format("2006-01-02"))
					}
					return nil
				},
			},
		},
	}
}
