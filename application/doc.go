// Package application drives rounds of commit-reveal Rock-Paper-Scissors.
//
// An Orchestrator owns one rps.Round per game. It gathers moves and reveals
// from an Input, reports progress to a Display and optionally records every
// settled verdict in a journal. PlayLocal runs a hot-seat game where both
// players share the same Input; PlayRemote runs one side of a duel over a
// Transport, exchanging signed messages with the opponent at every step.
package application
