package models

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Vote submission states
const (
	VoteIdle       = "idle"
	VoteSubmitting = "submitting"
	VoteAwaiting   = "awaiting_confirmation"
	VoteConfirmed  = "confirmed"
	VoteFailed     = "failed"
)

// Request types

// Passphrase is the approval handed to the wallet provider. Raw key
// providers ignore it.
type ConnectWalletRequest struct {
	Passphrase string `json:"passphrase"`
}

type SelectSessionRequest struct {
	SessionID string `json:"session_id"`
}

type CastVoteRequest struct {
	CandidateIndex *int `json:"candidate_index"`
}

type CreateSessionRequest struct {
	ID         string   `json:"id"`
	EndDate    string   `json:"end_date"`
	Candidates []string `json:"candidates"`
}

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type SetEndDateRequest struct {
	EndDate string `json:"end_date"`
}

// Response types

type CreateVisitResponse struct {
	VisitID string `json:"visit_id"`
}

type WalletResponse struct {
	Connected    bool   `json:"connected"`
	Address      string `json:"address,omitempty"`
	ShortAddress string `json:"short_address,omitempty"`
	Status       string `json:"status"`
}

type VotingPageResponse struct {
	Sessions          []SessionView `json:"sessions"`
	SelectedSession   *SessionView  `json:"selected_session,omitempty"`
	Candidates        []Candidate   `json:"candidates"`
	SelectedCandidate *int          `json:"selected_candidate,omitempty"`
	VoteState         string        `json:"vote_state"`
	Status            string        `json:"status,omitempty"`
	VotingDisabled    bool          `json:"voting_disabled"`
}

type AdminPageResponse struct {
	SessionID         string      `json:"session_id,omitempty"`
	Candidates        []Candidate `json:"candidates"`
	SelectedCandidate *int        `json:"selected_candidate,omitempty"`
	Message           string      `json:"message,omitempty"`
}

type TxResponse struct {
	TxHash  string `json:"tx_hash"`
	Message string `json:"message"`
}

type HasVotedResponse struct {
	SessionID string `json:"session_id"`
	Address   string `json:"address"`
	Voted     bool   `json:"voted"`
}

// Domain types

// Session is the read-only projection of an on-chain voting session.
type Session struct {
	ID             string `json:"id"`
	EndDate        int64  `json:"end_date"`
	CandidateCount int    `json:"candidate_count"`
}

// SessionView decorates a Session for display.
type SessionView struct {
	Session
	EndsAt     time.Time   `json:"ends_at"`
	Ends       string      `json:"ends"`
	Active     bool        `json:"active"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// NewSessionView builds the display form of s relative to now.
func NewSessionView(s Session, now time.Time) SessionView {
	endsAt := time.Unix(s.EndDate, 0).UTC()
	return SessionView{
		Session: s,
		EndsAt:  endsAt,
		Ends:    humanize.RelTime(endsAt, now, "ago", "from now"),
		Active:  now.Before(endsAt),
	}
}

// Candidate is one entry of a session's candidate list. Index is the
// on-chain position used when voting; ID is the 1-based number shown
// to admins.
type Candidate struct {
	Index       int    `json:"index"`
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Votes       uint64 `json:"votes"`
	Highlighted bool   `json:"highlighted,omitempty"`
}

// Tally is the outcome of counting one session's candidates.
type Tally struct {
	MaxVotes uint64   `json:"max_votes"`
	Leaders  []string `json:"leaders"`
	NoVotes  bool     `json:"no_votes"`
}

// Tie reports whether more than one candidate holds the maximum.
func (t Tally) Tie() bool {
	return !t.NoVotes && len(t.Leaders) > 1
}

type Results struct {
	SessionID  string      `json:"session_id"`
	Candidates []Candidate `json:"candidates"`
	Tally      Tally       `json:"tally"`
	Summary    string      `json:"summary"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
