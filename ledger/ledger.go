// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ledger is the client side of the voting contract: read and write
// interfaces, the go-ethereum implementation and helpers shared by both
// backends.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/voteledger/voteledger/models"
)

var (
	ErrNoSigner        = errors.New("signer has no transact options")
	ErrReverted        = errors.New("execution reverted")
	ErrMalformedResult = errors.New("malformed contract result")
)

// SessionInfo is the result of getSessionInfo.
type SessionInfo struct {
	CandidateCount int
	EndDate        int64
}

// Reader is the read side of the voting contract. Implementations must not
// require a signer.
type Reader interface {
	ActiveSessions(ctx context.Context) ([]string, error)
	SessionInfo(ctx context.Context, sessionID string) (SessionInfo, error)
	// Candidates returns the parallel name and vote count lists. Deleted
	// candidates keep their position with a blank name.
	Candidates(ctx context.Context, sessionID string) (names []string, votes []uint64, err error)
	HasVoted(ctx context.Context, sessionID string, voter common.Address) (bool, error)
}

// Writer issues signed contract transactions. Each call returns once the
// transaction is submitted; callers confirm it with Tx.Wait.
type Writer interface {
	CreateSession(ctx context.Context, sessionID string, endDate int64, names []string) (Tx, error)
	AddCandidate(ctx context.Context, sessionID, name string) (Tx, error)
	DeleteCandidate(ctx context.Context, sessionID string, index uint64) (Tx, error)
	DeleteSession(ctx context.Context, sessionID string) (Tx, error)
	Vote(ctx context.Context, sessionID string, candidateIndex uint64) (Tx, error)
	SetEndDate(ctx context.Context, sessionID string, endDate int64) (Tx, error)
}

// Binder produces a Writer authorized by signer.
type Binder interface {
	Bind(signer Signer) (Writer, error)
}

// Ledger is a full contract client.
type Ledger interface {
	Reader
	Binder
}

// Signer is an authenticated wallet identity. Transact is required by the
// on-chain client and ignored by the emulator.
type Signer struct {
	Address  common.Address
	Transact *bind.TransactOpts
}

// Tx is a submitted transaction.
type Tx interface {
	Hash() string
	// Wait blocks until the transaction is confirmed. A reverted
	// transaction yields a *TxError.
	Wait(ctx context.Context) error
}

// TxError describes a failed write call.
type TxError struct {
	Method string
	Hash   string
	Reason string
	Err    error
}

func (e *TxError) Error() string {
	var b strings.Builder
	b.WriteString(e.Method)
	if e.Hash != "" {
		b.WriteString(" (" + e.Hash + ")")
	}
	switch {
	case e.Reason != "":
		b.WriteString(": " + e.Reason)
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	default:
		b.WriteString(": failed")
	}
	return b.String()
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// Reason returns the revert reason carried by err when there is one,
// otherwise the error text.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var txErr *TxError
	if errors.As(err, &txErr) && txErr.Reason != "" {
		return txErr.Reason
	}
	return err.Error()
}

// SessionDetails is a session together with its candidate list.
type SessionDetails struct {
	models.Session
	Candidates []models.Candidate `json:"candidates"`
}

// Zip pairs the parallel name and vote lists of getCandidates. Blank names
// are deleted placeholders and are left out; the remaining candidates keep
// their on-chain index.
func Zip(names []string, votes []uint64) ([]models.Candidate, error) {
	if len(names) != len(votes) {
		return nil, fmt.Errorf("%w: %d names, %d vote counts", ErrMalformedResult, len(names), len(votes))
	}

	candidates := make([]models.Candidate, 0, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{
			Index: i,
			ID:    i + 1,
			Name:  name,
			Votes: votes[i],
		})
	}
	return candidates, nil
}

// ReadCandidates fetches and zips the candidates of one session.
func ReadCandidates(ctx context.Context, r Reader, sessionID string) ([]models.Candidate, error) {
	names, votes, err := r.Candidates(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Zip(names, votes)
}

// ListSessions fetches every active session and its info.
func ListSessions(ctx context.Context, r Reader) ([]models.Session, error) {
	ids, err := r.ActiveSessions(ctx)
	if err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(ids))
	for _, id := range ids {
		info, err := r.SessionInfo(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("session %q: %w", id, err)
		}
		sessions = append(sessions, models.Session{
			ID:             id,
			EndDate:        info.EndDate,
			CandidateCount: info.CandidateCount,
		})
	}
	return sessions, nil
}

// OngoingSessions fetches every active session with its candidates.
func OngoingSessions(ctx context.Context, r Reader) ([]SessionDetails, error) {
	sessions, err := ListSessions(ctx, r)
	if err != nil {
		return nil, err
	}

	details := make([]SessionDetails, 0, len(sessions))
	for _, s := range sessions {
		candidates, err := ReadCandidates(ctx, r, s.ID)
		if err != nil {
			return nil, fmt.Errorf("session %q: %w", s.ID, err)
		}
		details = append(details, SessionDetails{Session: s, Candidates: candidates})
	}
	return details, nil
}
