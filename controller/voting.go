// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package controller

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/models"
	"github.com/voteledger/voteledger/wallet"
)

// VoteReceipt describes a confirmed vote.
type VoteReceipt struct {
	TxHash         string `json:"tx_hash"`
	SessionID      string `json:"session_id"`
	CandidateIndex int    `json:"candidate_index"`
}

// VotingPage lists active sessions, shows the selected session's
// candidates and submits votes.
type VotingPage struct {
	reader ledger.Reader
	wallet *wallet.Session
	opts   Options

	// OnStatus, when set, observes every vote state transition.
	OnStatus func(state, status string)

	sessions          []models.Session
	selectedSession   string
	selectedCandidate int
	candidates        []models.Candidate
	highlightIdx      int
	highlightUntil    time.Time
	state             string
	status            string
}

func NewVotingPage(reader ledger.Reader, session *wallet.Session, opts Options) *VotingPage {
	return &VotingPage{
		reader:            reader,
		wallet:            session,
		opts:              opts.withDefaults(),
		selectedCandidate: -1,
		highlightIdx:      -1,
		state:             models.VoteIdle,
	}
}

// LoadSessions fetches the active sessions. When query names one of them
// it is selected.
func (p *VotingPage) LoadSessions(ctx context.Context, query url.Values) error {
	sessions, err := ledger.ListSessions(ctx, p.reader)
	if err != nil {
		slog.Error("failed to load sessions", "error", err)
		return loadFailed("Failed to load sessions.", err)
	}
	p.sessions = sessions

	if id := SessionIDFromQuery(query); id != "" {
		if _, ok := p.findSession(id); ok {
			return p.SelectSession(ctx, id)
		}
	}
	return nil
}

func (p *VotingPage) findSession(id string) (models.Session, bool) {
	for _, s := range p.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return models.Session{}, false
}

// SelectSession selects a session from the last fetched list and loads its
// candidates.
func (p *VotingPage) SelectSession(ctx context.Context, id string) error {
	if _, ok := p.findSession(id); !ok {
		return fail("Session not found.", ErrSessionNotFound)
	}
	p.selectedSession = id
	p.selectedCandidate = -1
	p.highlightIdx = -1
	return p.Refresh(ctx)
}

// Refresh re-reads the selected session's candidates from the ledger.
func (p *VotingPage) Refresh(ctx context.Context) error {
	if p.selectedSession == "" {
		return fail("Select a session first.", ErrNoSessionSelected)
	}

	candidates, err := ledger.ReadCandidates(ctx, p.reader, p.selectedSession)
	if err != nil {
		p.candidates = nil
		slog.Error("failed to load candidates", "session_id", p.selectedSession, "error", err)
		return loadFailed("Failed to load candidates.", err)
	}
	p.candidates = candidates
	return nil
}

// SelectCandidate marks the candidate at the on-chain index idx.
func (p *VotingPage) SelectCandidate(idx int) error {
	for _, c := range p.candidates {
		if c.Index == idx {
			p.selectedCandidate = idx
			return nil
		}
	}
	return fail("Select a candidate first.", ErrNoCandidateSelected)
}

func (p *VotingPage) setState(state, status string) {
	p.state = state
	p.status = status
	if p.OnStatus != nil {
		p.OnStatus(state, status)
	}
}

// CastVote votes for the candidate at idx in the selected session and waits
// for confirmation, then refreshes the candidates and highlights the new
// count. Missing preconditions return before anything is sent. The write
// and its confirmation are not cancelled by ctx.
func (p *VotingPage) CastVote(ctx context.Context, idx int) (*VoteReceipt, error) {
	if !p.wallet.Available() {
		p.status = "Wallet provider not found!"
		return nil, fail(p.status, wallet.ErrNoProvider)
	}
	conn, ok := p.wallet.Connection()
	if !ok {
		p.status = "Please connect your wallet first."
		return nil, fail(p.status, wallet.ErrNotConnected)
	}
	if p.selectedSession == "" {
		p.status = "Select a session first."
		return nil, fail(p.status, ErrNoSessionSelected)
	}
	if idx < 0 {
		p.status = "Select a candidate first."
		return nil, fail(p.status, ErrNoCandidateSelected)
	}
	p.selectedCandidate = idx

	ctx = context.WithoutCancel(ctx)
	sessionID := p.selectedSession

	p.setState(models.VoteSubmitting, "Submitting your vote...")
	tx, err := conn.Writer.Vote(ctx, sessionID, uint64(idx))
	if err != nil {
		return nil, p.voteFailed(err)
	}

	p.setState(models.VoteAwaiting, "Waiting for confirmation...")
	if err := tx.Wait(ctx); err != nil {
		return nil, p.voteFailed(err)
	}

	p.setState(models.VoteConfirmed, "Your vote has been cast successfully!")
	slog.Info("vote confirmed", "session_id", sessionID, "candidate_index", idx, "tx", tx.Hash())

	p.highlightIdx = idx
	p.highlightUntil = p.opts.Now().Add(p.opts.Highlight)
	if err := p.Refresh(ctx); err != nil {
		slog.Warn("refresh after vote failed", "error", err)
	}

	return &VoteReceipt{TxHash: tx.Hash(), SessionID: sessionID, CandidateIndex: idx}, nil
}

func (p *VotingPage) voteFailed(err error) error {
	msg := "Failed to cast vote. " + ledger.Reason(err)
	slog.Warn("vote failed", "session_id", p.selectedSession, "error", err)
	p.setState(models.VoteFailed, msg)
	return fail(msg, err)
}

func (p *VotingPage) highlighted() bool {
	return p.highlightIdx >= 0 && p.opts.Now().Before(p.highlightUntil)
}

// Candidates returns the last fetched candidates with the highlight applied.
func (p *VotingPage) Candidates() []models.Candidate {
	out := make([]models.Candidate, len(p.candidates))
	copy(out, p.candidates)
	if p.highlighted() {
		for i := range out {
			out[i].Highlighted = out[i].Index == p.highlightIdx
		}
	}
	return out
}

func (p *VotingPage) State() string {
	return p.state
}

func (p *VotingPage) Status() string {
	return p.status
}

func (p *VotingPage) SelectedSession() string {
	return p.selectedSession
}

// View renders the page state.
func (p *VotingPage) View() models.VotingPageResponse {
	now := p.opts.Now()
	resp := models.VotingPageResponse{
		Sessions:       make([]models.SessionView, 0, len(p.sessions)),
		Candidates:     p.Candidates(),
		VoteState:      p.state,
		Status:         p.status,
		VotingDisabled: p.highlighted(),
	}
	for _, s := range p.sessions {
		resp.Sessions = append(resp.Sessions, models.NewSessionView(s, now))
	}
	if s, ok := p.findSession(p.selectedSession); ok {
		view := models.NewSessionView(s, now)
		resp.SelectedSession = &view
	}
	if p.selectedCandidate >= 0 {
		idx := p.selectedCandidate
		resp.SelectedCandidate = &idx
	}
	return resp
}
