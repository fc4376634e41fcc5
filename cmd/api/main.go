package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cmd := &cli.Command{
		Name:   "journal-api",
		Usage:  "Trading journal API: password + one-time-code login",
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "Prepare the configured store (SQL migrations or DynamoDB tables)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "Roll back the latest SQL migration"},
				},
				Action: runMigrate,
			},
			{
				Name:  "create-user",
				Usage: "Create a user that can log in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Login email"},
					&cli.StringFlag{Name: "name", Required: true, Usage: "Display name"},
					&cli.StringFlag{Name: "password", Required: true, Usage: "Login password", Sources: cli.EnvVars("CREATE_USER_PASSWORD")},
					&cli.StringFlag{Name: "phone", Usage: "Phone number in E.164 format for SMS codes"},
				},
				Action: runCreateUser,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
