package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/luca-patrignani/mental-rps/domain/rps"
	"github.com/luca-patrignani/mental-rps/ledger"
)

func printBanner() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("M", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("ental ", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("RPS", pterm.FgRed.ToStyle()),
	).Render()
}

// terminal is both the Input and the Display of a game played on this tty.
type terminal struct {
	rules      rps.Ruleset
	autoReveal bool
	// hotSeat hides each commitment screen before the next player sits down
	hotSeat  bool
	openings map[rps.Party]rps.Opening
	names    map[rps.Party]string
}

func newTerminal(rules rps.Ruleset, autoReveal, hotSeat bool) *terminal {
	return &terminal{
		rules:      rules,
		autoReveal: autoReveal,
		hotSeat:    hotSeat,
		openings:   map[rps.Party]rps.Opening{},
		names:      map[rps.Party]string{},
	}
}

func (t *terminal) name(p rps.Party) string {
	if n, ok := t.names[p]; ok && n != "" {
		return fmt.Sprintf("%s (%s)", n, p)
	}
	return p.String()
}

func (t *terminal) Move(ctx context.Context, p rps.Party, moves []rps.Move) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.hotSeat {
		pterm.DefaultSection.Printfln("%s's Turn (look away, %s!)", p, other(p))
	}
	return pterm.DefaultInteractiveTextInput.
		WithDefaultText(fmt.Sprintf("%s, enter your move (%s)", t.name(p), movesText(moves))).
		WithMask("*").
		Show()
}

func (t *terminal) Reveal(ctx context.Context, p rps.Party) (rps.Reveal, error) {
	if err := ctx.Err(); err != nil {
		return rps.Reveal{}, err
	}
	if o, ok := t.openings[p]; ok && t.autoReveal {
		return rps.Reveal{Move: string(o.Move), Secret: string(o.Secret)}, nil
	}
	move, err := pterm.DefaultInteractiveTextInput.
		WithDefaultText(fmt.Sprintf("Enter %s's revealed move", t.name(p))).
		Show()
	if err != nil {
		return rps.Reveal{}, err
	}
	secret, err := pterm.DefaultInteractiveTextInput.
		WithDefaultText(fmt.Sprintf("Enter %s's revealed secret", t.name(p))).
		Show()
	if err != nil {
		return rps.Reveal{}, err
	}
	return rps.Reveal{Move: move, Secret: secret}, nil
}

func (t *terminal) Committed(p rps.Party, o rps.Opening) {
	t.openings[p] = o
	pterm.DefaultBox.
		WithTitle(pterm.LightYellow("|COMMITMENT|")).
		WithTitleTopCenter().
		WithHorizontalPadding(4).
		Println(commitmentText(p, o))
	if !t.hotSeat {
		return
	}
	_, _ = pterm.DefaultInteractiveTextInput.
		WithDefaultText("Press enter to hide this screen").
		Show()
	clearScreen()
}

func (t *terminal) Opponent(p rps.Party, name string, c rps.Commitment) {
	t.names[p] = name
	pterm.Info.Printfln("%s committed to %s", t.name(p), c)
}

func (t *terminal) Rejected(p rps.Party, raw string, err error) {
	pterm.Error.Printfln("Invalid move %q! Please try again.", raw)
}

func (t *terminal) Verdict(v rps.Verdict) {
	pterm.DefaultSection.Println("Verifying Proofs")
	if v.Phase == rps.CheatDetected {
		pterm.Error.Println("CHEATING DETECTED!")
		for _, f := range v.Failures {
			pterm.Error.Printfln("%s's revealed move/secret does not match their original commitment: %s", t.name(f.Party), f.Reason)
		}
		return
	}
	pterm.Success.Println("Both players are honest! Commitments are verified.")
	pterm.DefaultBox.
		WithTitle(pterm.LightGreen("|RESULT|")).
		WithTitleTopCenter().
		WithHorizontalPadding(4).
		Println(verdictText(v))
	if v.Proof != nil {
		pterm.Info.Println("The winner's revealed move and secret serve as the SUCCINCT PROOF of victory!")
	}
}

func commitmentText(p rps.Party, o rps.Opening) string {
	return pterm.Sprintfln("%s, your commitment has been generated.", p) +
		pterm.Sprintfln("Commitment: %s", pterm.LightCyan(o.Commitment)) +
		pterm.Sprintf("Secret:     %s (keep it until the reveal)", o.Secret)
}

func verdictText(v rps.Verdict) string {
	s := pterm.Sprintfln("Player A chose: %s", v.Moves[rps.PartyA]) +
		pterm.Sprintfln("Player B chose: %s", v.Moves[rps.PartyB]) +
		pterm.Sprintf("Result: %s", v.Text())
	if v.Proof != nil {
		s += pterm.Sprintf("\nProof: %s %s", v.Proof.Move, v.Proof.Secret)
	}
	return s
}

func historyTable(blocks []ledger.Block) pterm.TableData {
	data := pterm.TableData{{"#", "Round", "Result", "Commitment A", "Commitment B"}}
	for _, b := range blocks {
		if b.Index == 0 {
			continue
		}
		result := string(b.Record.Outcome)
		if b.Record.Phase == rps.CheatDetected {
			cheaters := make([]string, len(b.Record.Cheaters))
			for i, c := range b.Record.Cheaters {
				cheaters[i] = c.String()
			}
			result = "cheat: " + strings.Join(cheaters, ", ")
		}
		data = append(data, []string{
			fmt.Sprint(b.Index),
			b.Record.RoundID,
			result,
			shorten(string(b.Record.Commitments[rps.PartyA])),
			shorten(string(b.Record.Commitments[rps.PartyB])),
		})
	}
	return data
}

func movesText(moves []rps.Move) string {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func shorten(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12] + "…"
}

func other(p rps.Party) rps.Party {
	if p == rps.PartyA {
		return rps.PartyB
	}
	return rps.PartyA
}

func clearScreen() {
	pterm.Print("\033[H\033[2J")
}
