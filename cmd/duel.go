package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"

	"github.com/luca-patrignani/mental-rps/application"
	"github.com/luca-patrignani/mental-rps/discovery"
	"github.com/luca-patrignani/mental-rps/domain/rps"
	"github.com/luca-patrignani/mental-rps/network"
)

func runDuel(ctx context.Context, cmd *cli.Command) error {
	i := newInjector(cmd)
	logger := do.MustInvoke[*slog.Logger](i)
	defer shutdown(i, logger)
	rules := do.MustInvoke[rps.Ruleset](i)

	printBanner()
	name := cmd.String("name")
	if name == "" {
		var err error
		name, err = pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your username").Show()
		if err != nil {
			return err
		}
	}

	l, err := net.Listen("tcp", cmd.String("listen"))
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cmd.String("listen"), err)
	}
	local, err := advertisedAddress(l, "")
	if err != nil {
		l.Close()
		return err
	}
	pterm.Info.Printfln("Listening on %s, reachable at %s", l.Addr(), local)

	opponent, err := findOpponent(ctx, cmd, name, local, logger)
	if err != nil {
		l.Close()
		return err
	}
	if cmd.String("peer") != "" {
		// the opponent knows us by the address it dials, i.e. the route back
		if local, err = advertisedAddress(l, opponent); err != nil {
			l.Close()
			return err
		}
	}
	opts := []network.PeerOption{
		network.WithTimeout(cmd.Duration("timeout")),
		network.WithLogger(logger),
	}
	if cmd.String("tls-cert") != "" {
		tlsOpt, err := loadTLS(cmd.String("tls-cert"), cmd.String("tls-key"), cmd.String("tls-peer-cert"))
		if err != nil {
			l.Close()
			return err
		}
		opts = append(opts, tlsOpt)
	}
	p2p, rank, err := createP2P(local, []string{local, opponent}, l, opts...)
	if err != nil {
		l.Close()
		return err
	}
	defer p2p.Close()
	self := rps.Party(rank)
	pterm.Info.Printfln("You are %s, playing against %s", self, opponent)

	term := newTerminal(rules, true, false)
	term.names[self] = name
	orchestratorOpts := []application.Option{
		application.WithLogger(logger),
		application.WithRevealTimeout(cmd.Duration("reveal-timeout")),
	}
	journal, err := journalOf(i)
	if err != nil {
		return err
	}
	if journal != nil {
		orchestratorOpts = append(orchestratorOpts, application.WithJournal(journal))
	}
	_, err = application.NewOrchestrator(rules, term, term, orchestratorOpts...).
		PlayRemote(ctx, p2p, self, name)
	return err
}

// findOpponent returns the opponent's address, from --peer or from the lobby.
func findOpponent(ctx context.Context, cmd *cli.Command, name, local string, logger *slog.Logger) (string, error) {
	if peer := cmd.String("peer"); peer != "" {
		return resolvePeer(local, peer)
	}
	if !cmd.Bool("discover") {
		return "", fmt.Errorf("%w: duel needs --peer or --discover", errUsage)
	}
	lobby, err := discovery.NewLobby(discovery.Info{Name: name, Address: local}, uint16(cmd.Int("discovery-port")), time.Second)
	if err != nil {
		return "", err
	}
	lobby.WithLogger(logger)
	if err := lobby.Start(); err != nil {
		return "", fmt.Errorf("failed to join the lobby: %w", err)
	}
	defer lobby.Close()

	spinner, _ := pterm.DefaultSpinner.Start("Looking for an opponent on the local network...")
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()
	select {
	case info, ok := <-lobby.Infos:
		if !ok {
			spinner.Fail()
			return "", fmt.Errorf("lobby closed before an opponent showed up")
		}
		spinner.Success(fmt.Sprintf("Found %s at %s", info.Name, info.Address))
		return info.Address, nil
	case <-ctx.Done():
		spinner.Fail()
		return "", fmt.Errorf("no opponent found: %w", ctx.Err())
	}
}

func loadTLS(certFile, keyFile, peerCertFile string) (network.PeerOption, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	peerPEM, err := os.ReadFile(peerCertFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read opponent certificate: %w", err)
	}
	pool, err := network.NewCertPool(peerPEM)
	if err != nil {
		return nil, err
	}
	return network.WithTLS(cert, pool), nil
}
