// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package controller

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/models"
	"github.com/voteledger/voteledger/tally"
)

// ResultsPage shows a read-only summary of one session. It keeps no state
// and needs no wallet.
type ResultsPage struct {
	reader ledger.Reader
}

func NewResultsPage(reader ledger.Reader) *ResultsPage {
	return &ResultsPage{reader: reader}
}

// Load tallies the session named by the query's session parameter.
func (p *ResultsPage) Load(ctx context.Context, query url.Values) (*models.Results, error) {
	sessionID := SessionIDFromQuery(query)
	if sessionID == "" {
		return nil, fail("No session selected. Please access this page from the voting list.", ErrNoSessionSelected)
	}

	candidates, err := ledger.ReadCandidates(ctx, p.reader, sessionID)
	if err != nil {
		slog.Error("failed to load results", "session_id", sessionID, "error", err)
		return nil, loadFailed("Failed to load results.", err)
	}

	t := tally.Compute(candidates)
	return &models.Results{
		SessionID:  sessionID,
		Candidates: candidates,
		Tally:      t,
		Summary:    tally.Summary(t),
	}, nil
}
