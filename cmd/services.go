package main

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"

	"github.com/luca-patrignani/mental-rps/domain/rps"
	"github.com/luca-patrignani/mental-rps/ledger"
)

// newInjector registers the services shared by every command.
func newInjector(cmd *cli.Command) do.Injector {
	i := do.New()

	do.ProvideNamedValue(i, "journal-path", cmd.String("journal"))
	do.ProvideNamedValue(i, "debug", cmd.Bool("debug"))
	do.ProvideNamedValue(i, "extended", cmd.Bool("extended"))

	do.Provide(i, newLogger)
	do.Provide(i, newRuleset)
	do.Provide(i, newJournal)

	return i
}

func newLogger(i do.Injector) (*slog.Logger, error) {
	logger := pterm.DefaultLogger
	if do.MustInvokeNamed[bool](i, "debug") {
		logger = *logger.WithLevel(pterm.LogLevelDebug)
	}
	return slog.New(pterm.NewSlogHandler(&logger)), nil
}

func newRuleset(i do.Injector) (rps.Ruleset, error) {
	if do.MustInvokeNamed[bool](i, "extended") {
		return rps.Extended, nil
	}
	return rps.Classic, nil
}

func newJournal(i do.Injector) (*ledger.Journal, error) {
	path := do.MustInvokeNamed[string](i, "journal-path")
	if path == "" {
		return nil, errNoJournal
	}
	j, err := ledger.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return j, nil
}

// journalOf returns the configured journal, or nil when --journal is unset.
func journalOf(i do.Injector) (*ledger.Journal, error) {
	if do.MustInvokeNamed[string](i, "journal-path") == "" {
		return nil, nil
	}
	return do.Invoke[*ledger.Journal](i)
}

// shutdown releases the services, closing the journal if it was opened.
func shutdown(i do.Injector, logger *slog.Logger) {
	if report := i.Shutdown(); report != nil && !report.Succeed {
		logger.Warn("failed to release services", "report", fmt.Sprintf("%v", report))
	}
}
