// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/provenance/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "provenance",
		Usage:   "Supply chain provenance event recorder",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP API and metrics servers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations (postgres and mysql drivers)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-key",
				Usage: "Generate a new encryption key for event envelopes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "algorithm",
						Aliases: []string{"alg"},
						Value:   "aes-gcm",
						Usage:   "Encryption algorithm to use (aes-gcm or chacha20-poly1305)",
					},
					&cli.StringFlag{
						Name:  "kms-provider",
						Usage: "KMS provider to wrap the key (gcpkms, awskms, azurekeyvault, hashivault, localsecrets)",
					},
					&cli.StringFlag{
						Name:  "kms-key-uri",
						Usage: "URI of the KMS wrapping key",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateKey(
						cmd.String("algorithm"),
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
					)
				},
			},
			{
				Name:  "record",
				Usage: "Record a provenance event under a key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Required: true,
						Usage:    "Storage key for the event",
					},
					&cli.StringFlag{
						Name:     "product-id",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "Product identifier",
					},
					&cli.StringFlag{
						Name:    "timestamp",
						Aliases: []string{"t"},
						Usage:   "RFC 3339 timestamp (defaults to now)",
					},
					&cli.StringFlag{
						Name:     "location",
						Aliases:  []string{"l"},
						Required: true,
						Usage:    "Location where the event occurred",
					},
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner of the product at this point",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRecordEvent(
						ctx,
						cmd.String("key"),
						cmd.String("product-id"),
						cmd.String("timestamp"),
						cmd.String("location"),
						cmd.String("owner"),
						cmd.String("format"),
						commands.DefaultIO(),
					)
				},
			},
			{
				Name:  "get",
				Usage: "Retrieve and decrypt the event stored under a key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Required: true,
						Usage:    "Storage key of the event",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunGetEvent(
						ctx,
						cmd.String("key"),
						cmd.String("format"),
						commands.DefaultIO(),
					)
				},
			},
			{
				Name:  "delete",
				Usage: "Delete the event stored under a key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Required: true,
						Usage:    "Storage key of the event",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunDeleteEvent(ctx, cmd.String("key"), commands.DefaultIO())
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
