package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"

	"github.com/luca-patrignani/mental-rps/application"
	"github.com/luca-patrignani/mental-rps/domain/rps"
)

var errNoJournal = errors.New("no journal configured, set --journal")

func runPlay(ctx context.Context, cmd *cli.Command) error {
	i := newInjector(cmd)
	logger := do.MustInvoke[*slog.Logger](i)
	defer shutdown(i, logger)
	rules := do.MustInvoke[rps.Ruleset](i)

	printBanner()
	pterm.Info.Println("The game happens in two phases: Commit and Reveal.")

	term := newTerminal(rules, !cmd.Bool("manual-reveal"), true)
	opts := []application.Option{
		application.WithLogger(logger),
		application.WithRevealTimeout(cmd.Duration("reveal-timeout")),
	}
	journal, err := journalOf(i)
	if err != nil {
		return err
	}
	if journal != nil {
		opts = append(opts, application.WithJournal(journal))
	}

	_, err = application.NewOrchestrator(rules, term, term, opts...).PlayLocal(ctx)
	return err
}
