// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/models"
	"github.com/voteledger/voteledger/wallet"
)

// AdminPage manages the candidates of one session. Every mutation waits
// for confirmation and then re-reads the candidate list instead of
// patching local state.
type AdminPage struct {
	reader ledger.Reader
	wallet *wallet.Session
	opts   Options

	sessionID         string
	candidates        []models.Candidate
	selectedCandidate int
}

func NewAdminPage(reader ledger.Reader, session *wallet.Session, opts Options) *AdminPage {
	return &AdminPage{
		reader:            reader,
		wallet:            session,
		opts:              opts.withDefaults(),
		selectedCandidate: -1,
	}
}

// SelectSession makes id the managed session and loads its candidates.
func (p *AdminPage) SelectSession(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fail("Session ID is required.", ErrInvalidSessionID)
	}
	p.sessionID = id
	p.selectedCandidate = -1
	return p.LoadCandidates(ctx)
}

// LoadCandidates re-reads the managed session's candidates. Deleted
// candidates are not listed.
func (p *AdminPage) LoadCandidates(ctx context.Context) error {
	if p.sessionID == "" {
		return fail("Select a session first.", ErrNoSessionSelected)
	}

	candidates, err := ledger.ReadCandidates(ctx, p.reader, p.sessionID)
	if err != nil {
		p.candidates = nil
		slog.Error("failed to load candidates", "session_id", p.sessionID, "error", err)
		return loadFailed("Failed to load candidates.", err)
	}
	p.candidates = candidates
	return nil
}

// SelectCandidate marks the candidate with the 1-based admin id.
func (p *AdminPage) SelectCandidate(id int) error {
	for _, c := range p.candidates {
		if c.ID == id {
			p.selectedCandidate = id
			return nil
		}
	}
	return fail("Please enter a valid candidate ID.", ErrInvalidCandidateID)
}

// AddCandidate appends name to the managed session.
func (p *AdminPage) AddCandidate(ctx context.Context, name string) (*models.TxResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fail("Candidate name is required.", ErrBlankName)
	}
	if p.sessionID == "" {
		return nil, fail("Select a session first.", ErrNoSessionSelected)
	}

	sessionID := p.sessionID
	return p.submit(ctx, sessionID, "add candidate", fmt.Sprintf("Candidate %s added.", name),
		func(ctx context.Context, w ledger.Writer) (ledger.Tx, error) {
			return w.AddCandidate(ctx, sessionID, name)
		})
}

// DeleteCandidate deletes the candidate with the 1-based admin id given as
// raw user input. Input that is not a positive integer is rejected before
// anything is sent.
func (p *AdminPage) DeleteCandidate(ctx context.Context, rawID string) (*models.TxResponse, error) {
	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil || id <= 0 {
		return nil, fail("Please enter a valid candidate ID.", ErrInvalidCandidateID)
	}
	if p.sessionID == "" {
		return nil, fail("Select a session first.", ErrNoSessionSelected)
	}

	sessionID := p.sessionID
	index := uint64(id - 1)
	resp, err := p.submit(ctx, sessionID, "delete candidate", fmt.Sprintf("Candidate with ID %d deleted successfully!", id),
		func(ctx context.Context, w ledger.Writer) (ledger.Tx, error) {
			return w.DeleteCandidate(ctx, sessionID, index)
		})
	if err == nil && p.selectedCandidate == id {
		p.selectedCandidate = -1
	}
	return resp, err
}

// SetEndDate moves the managed session's end date.
func (p *AdminPage) SetEndDate(ctx context.Context, input string) (*models.TxResponse, error) {
	endDate, err := ParseEndDate(input, p.opts.Location)
	if err != nil {
		return nil, fail("Please enter a valid end date.", err)
	}
	if p.sessionID == "" {
		return nil, fail("Select a session first.", ErrNoSessionSelected)
	}

	sessionID := p.sessionID
	return p.submit(ctx, sessionID, "set end date", "Voting end date updated.",
		func(ctx context.Context, w ledger.Writer) (ledger.Tx, error) {
			return w.SetEndDate(ctx, sessionID, endDate)
		})
}

// CreateSession creates a session and makes it the managed one.
func (p *AdminPage) CreateSession(ctx context.Context, id, endDateInput string, names []string) (*models.TxResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fail("Session ID is required.", ErrInvalidSessionID)
	}
	endDate, err := ParseEndDate(endDateInput, p.opts.Location)
	if err != nil {
		return nil, fail("Please enter a valid end date.", err)
	}

	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}

	resp, err := p.submit(ctx, id, "create session", fmt.Sprintf("Session %s created.", id),
		func(ctx context.Context, w ledger.Writer) (ledger.Tx, error) {
			return w.CreateSession(ctx, id, endDate, cleaned)
		})
	if err != nil {
		return nil, err
	}

	if err := p.SelectSession(context.WithoutCancel(ctx), id); err != nil {
		slog.Warn("failed to load new session", "session_id", id, "error", err)
	}
	return resp, nil
}

// DeleteSession deletes a session. Deleting the managed session clears it.
func (p *AdminPage) DeleteSession(ctx context.Context, id string) (*models.TxResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fail("Session ID is required.", ErrInvalidSessionID)
	}

	managed := id == p.sessionID
	if managed {
		// Nothing left to refresh once the session is gone.
		p.sessionID = ""
	}
	resp, err := p.submit(ctx, id, "delete session", fmt.Sprintf("Session %s deleted.", id),
		func(ctx context.Context, w ledger.Writer) (ledger.Tx, error) {
			return w.DeleteSession(ctx, id)
		})
	if err != nil {
		if managed {
			p.sessionID = id
		}
		return nil, err
	}
	if managed {
		p.candidates = nil
		p.selectedCandidate = -1
	}
	return resp, nil
}

// submit sends one write, waits for it, and refreshes the candidate list.
func (p *AdminPage) submit(ctx context.Context, sessionID, action, success string, send func(context.Context, ledger.Writer) (ledger.Tx, error)) (*models.TxResponse, error) {
	if !p.wallet.Available() {
		return nil, fail("Wallet provider not found!", wallet.ErrNoProvider)
	}
	conn, ok := p.wallet.Connection()
	if !ok {
		return nil, fail("Please connect your wallet first.", wallet.ErrNotConnected)
	}

	ctx = context.WithoutCancel(ctx)
	tx, err := send(ctx, conn.Writer)
	if err == nil {
		err = tx.Wait(ctx)
	}
	if err != nil {
		slog.Warn("admin transaction failed", "action", action, "session_id", sessionID, "error", err)
		return nil, fail(fmt.Sprintf("Failed to %s. %s", action, ledger.Reason(err)), err)
	}
	slog.Info("admin transaction confirmed", "action", action, "session_id", sessionID, "tx", tx.Hash())

	if p.sessionID != "" {
		if err := p.LoadCandidates(ctx); err != nil {
			slog.Warn("refresh after admin transaction failed", "error", err)
		}
	}
	return &models.TxResponse{TxHash: tx.Hash(), Message: success}, nil
}

func (p *AdminPage) SessionID() string {
	return p.sessionID
}

func (p *AdminPage) Candidates() []models.Candidate {
	out := make([]models.Candidate, len(p.candidates))
	copy(out, p.candidates)
	return out
}

// View renders the page state.
func (p *AdminPage) View() models.AdminPageResponse {
	resp := models.AdminPageResponse{
		SessionID:  p.sessionID,
		Candidates: p.Candidates(),
	}
	if p.selectedCandidate > 0 {
		id := p.selectedCandidate
		resp.SelectedCandidate = &id
	}
	return resp
}
