package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"

	"github.com/luca-patrignani/mental-rps/domain/rps"
	"github.com/luca-patrignani/mental-rps/ledger"
	"github.com/luca-patrignani/mental-rps/network"
)

var errUsage = errors.New("wrong number of arguments")

// commitMove parses raw and commits to it with a secret drawn from entropy.
func commitMove(rules rps.Ruleset, raw string, entropy io.Reader) (rps.Opening, error) {
	m, err := rules.ParseMove(raw)
	if err != nil {
		return rps.Opening{}, err
	}
	secret, err := rps.GenerateSecretFrom(entropy, rps.SecretSize)
	if err != nil {
		return rps.Opening{}, err
	}
	return rps.Opening{Move: m, Secret: secret, Commitment: rps.Commit(m, secret)}, nil
}

// verifyReveal checks an out-of-band reveal. The error tells why it failed.
func verifyReveal(rules rps.Ruleset, move, secret, commitment string) (rps.Move, error) {
	c, err := rps.ParseCommitment(commitment)
	if err != nil {
		return "", err
	}
	m, err := rules.ParseMove(move)
	if err != nil {
		return "", errors.Join(rps.ErrMalformedReveal, err)
	}
	if err := rps.Check(m, rps.Secret(secret), c); err != nil {
		return "", err
	}
	return m, nil
}

func runCommit(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("%w: commit <move>", errUsage)
	}
	i := newInjector(cmd)
	defer shutdown(i, do.MustInvoke[*slog.Logger](i))

	o, err := commitMove(do.MustInvoke[rps.Ruleset](i), cmd.Args().First(), rand.Reader)
	if err != nil {
		return err
	}
	pterm.DefaultBox.
		WithTitle(pterm.LightYellow("|COMMITMENT|")).
		WithTitleTopCenter().
		WithHorizontalPadding(4).
		Println(pterm.Sprintfln("Send the commitment now, keep the secret until the reveal.") +
			pterm.Sprintfln("Commitment: %s", pterm.LightCyan(o.Commitment)) +
			pterm.Sprintf("Secret:     %s", o.Secret))
	return nil
}

func runVerify(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 3 {
		return fmt.Errorf("%w: verify <move> <secret> <commitment>", errUsage)
	}
	i := newInjector(cmd)
	defer shutdown(i, do.MustInvoke[*slog.Logger](i))

	args := cmd.Args().Slice()
	m, err := verifyReveal(do.MustInvoke[rps.Ruleset](i), args[0], args[1], args[2])
	if err != nil {
		pterm.Error.Printfln("The reveal does not open the commitment: %v", err)
		return err
	}
	pterm.Success.Printfln("The commitment opens to %s.", m)
	if err := rps.Secret(args[1]).Validate(); err != nil {
		pterm.Warning.Printfln("The secret is weaker than a generated one: %v", err)
	}
	return nil
}

func runHistory(_ context.Context, cmd *cli.Command) error {
	i := newInjector(cmd)
	logger := do.MustInvoke[*slog.Logger](i)
	defer shutdown(i, logger)

	journal, err := journalOf(i)
	if err != nil {
		return err
	}
	if journal == nil {
		return errNoJournal
	}
	return printHistory(journal)
}

func printHistory(journal *ledger.Journal) error {
	blocks, err := journal.Blocks()
	if err != nil {
		return err
	}
	if len(blocks) <= 1 {
		pterm.Info.Println("No rounds recorded yet.")
	} else if err := pterm.DefaultTable.WithHasHeader().WithData(historyTable(blocks)).Render(); err != nil {
		return err
	}
	if err := journal.Verify(); err != nil {
		pterm.Error.Printfln("The journal has been tampered with: %v", err)
		return err
	}
	pterm.Success.Printfln("Journal verified, %d rounds.", len(blocks)-1)
	return nil
}

func runCert(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("%w: cert <address>", errUsage)
	}
	_, certPEM, keyPEM, err := network.GenerateSelfSignedCert(cmd.Args().First())
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if err := os.WriteFile(out+".crt", certPEM, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(out+".key", keyPEM, 0o600); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote %s.crt and %s.key, give the certificate to your opponent.", out, out)
	return nil
}
