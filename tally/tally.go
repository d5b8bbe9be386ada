// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally computes the leaders of a voting session.
package tally

import (
	"fmt"
	"strings"

	"github.com/voteledger/voteledger/models"
)

// Compute finds the maximum vote count and every candidate holding it in
// a single pass. A strictly greater count replaces the leader set, an
// equal count joins it. Blank (deleted) candidates are ignored.
//
// When no candidate has a vote the result has NoVotes set and no leaders.
func Compute(candidates []models.Candidate) models.Tally {
	var maxVotes uint64
	leaders := []string{}

	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		switch {
		case c.Votes > maxVotes:
			maxVotes = c.Votes
			leaders = []string{c.Name}
		case c.Votes == maxVotes:
			leaders = append(leaders, c.Name)
		}
	}

	if maxVotes == 0 {
		return models.Tally{Leaders: []string{}, NoVotes: true}
	}
	return models.Tally{MaxVotes: maxVotes, Leaders: leaders}
}

// Summary renders the one-line outcome shown on the results page.
func Summary(t models.Tally) string {
	switch {
	case t.NoVotes:
		return "No votes have been cast yet."
	case t.Tie():
		return fmt.Sprintf("Tie! Candidates: %s (%d votes each)", strings.Join(t.Leaders, ", "), t.MaxVotes)
	default:
		return fmt.Sprintf("%s with %d votes", t.Leaders[0], t.MaxVotes)
	}
}
