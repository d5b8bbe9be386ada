// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package sqlledger emulates the voting contract on a SQL database so the
// front-end can run without a chain. It enforces the rules the deployed
// contract enforces and answers reads with the same shapes.
package sqlledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/voteledger/voteledger/ledger"
)

var ErrUnknownTx = errors.New("unknown transaction")

// Revert reasons, worded as the contract's require messages.
const (
	reasonSessionRequired = "Session ID required"
	reasonSessionExists   = "Session already exists"
	reasonSessionNotFound = "Session not found"
	reasonNotCreator      = "Only session creator"
	reasonEndDatePast     = "End date must be in the future"
	reasonNameRequired    = "Name required"
	reasonBadIndex        = "Invalid candidate index"
	reasonAlreadyDeleted  = "Candidate already deleted"
	reasonVotingEnded     = "Voting has ended"
	reasonBadCandidate    = "Invalid candidate"
	reasonAlreadyVoted    = "Already voted"
)

const statusConfirmed = "confirmed"

type revert string

func (r revert) Error() string {
	return string(r)
}

// Ledger implements ledger.Reader and ledger.Binder over database/sql.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the clock used for end date checks.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New returns an emulator over db. The schema must already exist.
func New(db *sql.DB, opts ...Option) *Ledger {
	l := &Ledger{db: db, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ActiveSessions lists sessions still open for voting, oldest first.
func (l *Ledger) ActiveSessions(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id FROM ledger_session WHERE end_date > $1 ORDER BY seq
	`, l.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SessionInfo returns zero values for an unknown session, as a contract
// mapping lookup does.
func (l *Ledger) SessionInfo(ctx context.Context, sessionID string) (ledger.SessionInfo, error) {
	var info ledger.SessionInfo
	err := l.db.QueryRowContext(ctx, `
		SELECT end_date FROM ledger_session WHERE id = $1
	`, sessionID).Scan(&info.EndDate)
	if err == sql.ErrNoRows {
		return ledger.SessionInfo{}, nil
	}
	if err != nil {
		return ledger.SessionInfo{}, fmt.Errorf("failed to query session: %w", err)
	}

	err = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ledger_candidate WHERE session_id = $1
	`, sessionID).Scan(&info.CandidateCount)
	if err != nil {
		return ledger.SessionInfo{}, fmt.Errorf("failed to count candidates: %w", err)
	}
	return info, nil
}

func (l *Ledger) Candidates(ctx context.Context, sessionID string) ([]string, []uint64, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT name, votes FROM ledger_candidate
		WHERE session_id = $1
		ORDER BY idx
	`, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	names := []string{}
	votes := []uint64{}
	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		names = append(names, name)
		votes = append(votes, uint64(count))
	}
	return names, votes, rows.Err()
}

func (l *Ledger) HasVoted(ctx context.Context, sessionID string, voter common.Address) (bool, error) {
	var voted bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ledger_vote WHERE session_id = $1 AND voter = $2
		)
	`, sessionID, voter.Hex()).Scan(&voted)
	if err != nil {
		return false, fmt.Errorf("failed to query vote: %w", err)
	}
	return voted, nil
}

// Bind authorizes writes as signer.Address. Transact options are unused.
func (l *Ledger) Bind(signer ledger.Signer) (ledger.Writer, error) {
	if signer.Address == (common.Address{}) {
		return nil, ledger.ErrNoSigner
	}
	return &writer{ledger: l, sender: signer.Address.Hex()}, nil
}

type writer struct {
	ledger *Ledger
	sender string
}

// exec runs fn in one database transaction and records it as a confirmed
// emulated transaction. A revert from fn rolls everything back and is
// reported the way a failed gas estimation is: before any hash exists.
func (w *writer) exec(ctx context.Context, method string, fn func(tx *sql.Tx, now int64, hash string) error) (ledger.Tx, error) {
	hash := newHash()
	now := w.ledger.now().Unix()

	tx, err := w.ledger.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", method, err)
	}
	defer tx.Rollback()

	if err := fn(tx, now, hash); err != nil {
		var r revert
		if errors.As(err, &r) {
			return nil, &ledger.TxError{Method: method, Reason: string(r), Err: ledger.ErrReverted}
		}
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	_, err = tx.Exec(`
		INSERT INTO ledger_tx (hash, method, sender, status, reason, submitted_at)
		VALUES ($1, $2, $3, $4, '', $5)
	`, hash, method, w.sender, statusConfirmed, now)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to record transaction: %w", method, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: failed to commit: %w", method, err)
	}

	slog.Debug("emulated transaction", "method", method, "hash", hash, "sender", w.sender)
	return &emulatedTx{ledger: w.ledger, hash: hash, method: method}, nil
}

func (w *writer) CreateSession(ctx context.Context, sessionID string, endDate int64, names []string) (ledger.Tx, error) {
	return w.exec(ctx, "createSession", func(tx *sql.Tx, now int64, _ string) error {
		if strings.TrimSpace(sessionID) == "" {
			return revert(reasonSessionRequired)
		}

		var exists bool
		err := tx.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM ledger_session WHERE id = $1)
		`, sessionID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return revert(reasonSessionExists)
		}
		if endDate <= now {
			return revert(reasonEndDatePast)
		}

		var seq int64
		if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) + 1 FROM ledger_session`).Scan(&seq); err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO ledger_session (id, seq, creator, end_date, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, sessionID, seq, w.sender, endDate, now)
		if err != nil {
			return err
		}

		for i, name := range names {
			_, err := tx.Exec(`
				INSERT INTO ledger_candidate (session_id, idx, name, votes)
				VALUES ($1, $2, $3, 0)
			`, sessionID, i, name)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *writer) AddCandidate(ctx context.Context, sessionID, name string) (ledger.Tx, error) {
	return w.exec(ctx, "addCandidate", func(tx *sql.Tx, _ int64, _ string) error {
		creator, _, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if creator != w.sender {
			return revert(reasonNotCreator)
		}
		if strings.TrimSpace(name) == "" {
			return revert(reasonNameRequired)
		}

		var next int
		err = tx.QueryRow(`
			SELECT COUNT(*) FROM ledger_candidate WHERE session_id = $1
		`, sessionID).Scan(&next)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO ledger_candidate (session_id, idx, name, votes)
			VALUES ($1, $2, $3, 0)
		`, sessionID, next, name)
		return err
	})
}

// DeleteCandidate blanks the name in place. The index is never reused.
func (w *writer) DeleteCandidate(ctx context.Context, sessionID string, index uint64) (ledger.Tx, error) {
	return w.exec(ctx, "deleteCandidate", func(tx *sql.Tx, _ int64, _ string) error {
		creator, _, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if creator != w.sender {
			return revert(reasonNotCreator)
		}

		name, err := candidateName(tx, sessionID, index)
		if err == sql.ErrNoRows {
			return revert(reasonBadIndex)
		}
		if err != nil {
			return err
		}
		if name == "" {
			return revert(reasonAlreadyDeleted)
		}

		_, err = tx.Exec(`
			UPDATE ledger_candidate SET name = '' WHERE session_id = $1 AND idx = $2
		`, sessionID, int64(index))
		return err
	})
}

func (w *writer) DeleteSession(ctx context.Context, sessionID string) (ledger.Tx, error) {
	return w.exec(ctx, "deleteSession", func(tx *sql.Tx, _ int64, _ string) error {
		creator, _, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if creator != w.sender {
			return revert(reasonNotCreator)
		}

		// SQLite does not enforce foreign keys unless asked to.
		for _, stmt := range []string{
			`DELETE FROM ledger_vote WHERE session_id = $1`,
			`DELETE FROM ledger_candidate WHERE session_id = $1`,
			`DELETE FROM ledger_session WHERE id = $1`,
		} {
			if _, err := tx.Exec(stmt, sessionID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *writer) Vote(ctx context.Context, sessionID string, candidateIndex uint64) (ledger.Tx, error) {
	return w.exec(ctx, "vote", func(tx *sql.Tx, now int64, hash string) error {
		_, endDate, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if now >= endDate {
			return revert(reasonVotingEnded)
		}

		name, err := candidateName(tx, sessionID, candidateIndex)
		if err == sql.ErrNoRows || (err == nil && name == "") {
			return revert(reasonBadCandidate)
		}
		if err != nil {
			return err
		}

		var voted bool
		err = tx.QueryRow(`
			SELECT EXISTS(
				SELECT 1 FROM ledger_vote WHERE session_id = $1 AND voter = $2
			)
		`, sessionID, w.sender).Scan(&voted)
		if err != nil {
			return err
		}
		if voted {
			return revert(reasonAlreadyVoted)
		}

		_, err = tx.Exec(`
			INSERT INTO ledger_vote (session_id, voter, candidate_idx, tx_hash)
			VALUES ($1, $2, $3, $4)
		`, sessionID, w.sender, int64(candidateIndex), hash)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE ledger_candidate SET votes = votes + 1
			WHERE session_id = $1 AND idx = $2
		`, sessionID, int64(candidateIndex))
		return err
	})
}

func (w *writer) SetEndDate(ctx context.Context, sessionID string, endDate int64) (ledger.Tx, error) {
	return w.exec(ctx, "setEndDate", func(tx *sql.Tx, now int64, _ string) error {
		creator, _, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if creator != w.sender {
			return revert(reasonNotCreator)
		}
		if endDate <= now {
			return revert(reasonEndDatePast)
		}

		_, err = tx.Exec(`
			UPDATE ledger_session SET end_date = $1 WHERE id = $2
		`, endDate, sessionID)
		return err
	})
}

func loadSession(tx *sql.Tx, sessionID string) (creator string, endDate int64, err error) {
	err = tx.QueryRow(`
		SELECT creator, end_date FROM ledger_session WHERE id = $1
	`, sessionID).Scan(&creator, &endDate)
	if err == sql.ErrNoRows {
		return "", 0, revert(reasonSessionNotFound)
	}
	return creator, endDate, err
}

func candidateName(tx *sql.Tx, sessionID string, index uint64) (string, error) {
	if index > math.MaxInt32 {
		return "", sql.ErrNoRows
	}
	var name string
	err := tx.QueryRow(`
		SELECT name FROM ledger_candidate WHERE session_id = $1 AND idx = $2
	`, sessionID, int64(index)).Scan(&name)
	return name, err
}

func newHash() string {
	id := uuid.New()
	return "0x" + strings.ReplaceAll(id.String(), "-", "")
}

type emulatedTx struct {
	ledger *Ledger
	hash   string
	method string
}

func (t *emulatedTx) Hash() string {
	return t.hash
}

func (t *emulatedTx) Wait(ctx context.Context) error {
	var status, reason string
	err := t.ledger.db.QueryRowContext(ctx, `
		SELECT status, reason FROM ledger_tx WHERE hash = $1
	`, t.hash).Scan(&status, &reason)
	if err == sql.ErrNoRows {
		return &ledger.TxError{Method: t.method, Hash: t.hash, Err: ErrUnknownTx}
	}
	if err != nil {
		return &ledger.TxError{Method: t.method, Hash: t.hash, Err: err}
	}
	if status != statusConfirmed {
		return &ledger.TxError{Method: t.method, Hash: t.hash, Reason: reason, Err: ledger.ErrReverted}
	}
	return nil
}
