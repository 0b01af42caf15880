package main

import (
	"context"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "mental-rps",
		Usage: "fair Rock-Paper-Scissors through commit and reveal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "journal",
				Usage:   "path of the journal recording settled rounds",
				Sources: cli.EnvVars("MRPS_JOURNAL"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Sources: cli.EnvVars("MRPS_DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "extended",
				Usage:   "play with lizard and spock",
				Sources: cli.EnvVars("MRPS_EXTENDED"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "hot-seat game on this terminal",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "manual-reveal",
						Usage:   "type move and secret again at reveal time",
						Sources: cli.EnvVars("MRPS_MANUAL_REVEAL"),
					},
					&cli.DurationFlag{
						Name:    "reveal-timeout",
						Sources: cli.EnvVars("MRPS_REVEAL_TIMEOUT"),
					},
				},
				Action: runPlay,
			},
			{
				Name:  "duel",
				Usage: "play against another process over the network",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Sources: cli.EnvVars("MRPS_NAME"),
					},
					&cli.StringFlag{
						Name:    "listen",
						Value:   "0.0.0.0:0",
						Sources: cli.EnvVars("MRPS_LISTEN"),
					},
					&cli.StringFlag{
						Name:    "peer",
						Usage:   "opponent address; a partial IP is completed from the listen address",
						Sources: cli.EnvVars("MRPS_PEER"),
					},
					&cli.BoolFlag{
						Name:    "discover",
						Usage:   "find the opponent on the local network",
						Sources: cli.EnvVars("MRPS_DISCOVER"),
					},
					&cli.IntFlag{
						Name:    "discovery-port",
						Value:   9999,
						Sources: cli.EnvVars("MRPS_DISCOVERY_PORT"),
					},
					&cli.DurationFlag{
						Name:    "timeout",
						Value:   60 * time.Second,
						Sources: cli.EnvVars("MRPS_TIMEOUT"),
					},
					&cli.DurationFlag{
						Name:    "reveal-timeout",
						Value:   30 * time.Second,
						Sources: cli.EnvVars("MRPS_REVEAL_TIMEOUT"),
					},
					&cli.StringFlag{
						Name:    "tls-cert",
						Sources: cli.EnvVars("MRPS_TLS_CERT"),
					},
					&cli.StringFlag{
						Name:    "tls-key",
						Sources: cli.EnvVars("MRPS_TLS_KEY"),
					},
					&cli.StringFlag{
						Name:    "tls-peer-cert",
						Sources: cli.EnvVars("MRPS_TLS_PEER_CERT"),
					},
				},
				Action: runDuel,
			},
			{
				Name:      "commit",
				Usage:     "print a fresh secret and commitment for a move",
				ArgsUsage: "<move>",
				Action:    runCommit,
			},
			{
				Name:      "verify",
				Usage:     "check a revealed move and secret against a commitment",
				ArgsUsage: "<move> <secret> <commitment>",
				Action:    runVerify,
			},
			{
				Name:   "history",
				Usage:  "print and verify the journal",
				Action: runHistory,
			},
			{
				Name:      "cert",
				Usage:     "write a self-signed certificate for duel --tls-cert",
				ArgsUsage: "<address>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "mental-rps"},
				},
				Action: runCert,
			},
		},
		DefaultCommand: "play",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
