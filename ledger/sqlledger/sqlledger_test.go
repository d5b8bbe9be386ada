// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voteledger/voteledger/db"
	"github.com/voteledger/voteledger/ledger"
)

var (
	testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	creator = common.HexToAddress("0x1000000000000000000000000000000000000001")
	voterA  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	voterB  = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func setupLedger(t *testing.T) *Ledger {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.CreateSchema(conn))

	return New(conn, WithClock(func() time.Time { return testNow }))
}

func bind(t *testing.T, l *Ledger, addr common.Address) ledger.Writer {
	t.Helper()
	w, err := l.Bind(ledger.Signer{Address: addr})
	require.NoError(t, err)
	return w
}

func confirm(t *testing.T, tx ledger.Tx, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotEmpty(t, tx.Hash())
	require.NoError(t, tx.Wait(context.Background()))
}

func requireRevert(t *testing.T, err error, reason string) {
	t.Helper()
	var txErr *ledger.TxError
	require.True(t, errors.As(err, &txErr), "expected TxError, got %v", err)
	assert.Equal(t, reason, txErr.Reason)
	assert.ErrorIs(t, err, ledger.ErrReverted)
}

func endsIn(d time.Duration) int64 {
	return testNow.Add(d).Unix()
}

func TestSessionLifecycle(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()
	admin := bind(t, l, creator)

	tx, err := admin.CreateSession(ctx, "S1", endsIn(time.Hour), []string{"Alice", "Bob"})
	confirm(t, tx, err)
	tx, err = admin.CreateSession(ctx, "S2", endsIn(2*time.Hour), nil)
	confirm(t, tx, err)

	ids, err := l.ActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, ids)

	info, err := l.SessionInfo(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, ledger.SessionInfo{CandidateCount: 2, EndDate: endsIn(time.Hour)}, info)

	tx, err = admin.AddCandidate(ctx, "S1", "Carol")
	confirm(t, tx, err)

	names, votes, err := l.Candidates(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names)
	assert.Equal(t, []uint64{0, 0, 0}, votes)

	tx, err = admin.SetEndDate(ctx, "S1", endsIn(3*time.Hour))
	confirm(t, tx, err)
	info, err = l.SessionInfo(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, endsIn(3*time.Hour), info.EndDate)

	tx, err = admin.DeleteSession(ctx, "S1")
	confirm(t, tx, err)
	ids, err = l.ActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S2"}, ids)

	info, err = l.SessionInfo(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, ledger.SessionInfo{}, info)
}

func TestCreateSession_Reverts(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()
	admin := bind(t, l, creator)

	_, err := admin.CreateSession(ctx, " ", endsIn(time.Hour), nil)
	requireRevert(t, err, reasonSessionRequired)

	_, err = admin.CreateSession(ctx, "S1", endsIn(-time.Minute), nil)
	requireRevert(t, err, reasonEndDatePast)

	tx, err := admin.CreateSession(ctx, "S1", endsIn(time.Hour), nil)
	confirm(t, tx, err)
	_, err = admin.CreateSession(ctx, "S1", endsIn(time.Hour), nil)
	requireRevert(t, err, reasonSessionExists)
}

func TestDeleteCandidate_LeavesBlankPlaceholder(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()
	admin := bind(t, l, creator)

	tx, err := admin.CreateSession(ctx, "S1", endsIn(time.Hour), []string{"X", "Y", "Z"})
	confirm(t, tx, err)

	tx, err = admin.DeleteCandidate(ctx, "S1", 1)
	confirm(t, tx, err)

	names, _, err := l.Candidates(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "", "Z"}, names)

	candidates, err := ledger.ReadCandidates(ctx, l, "S1")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "X", candidates[0].Name)
	assert.Equal(t, 2, candidates[1].Index)

	// The index is not reused by later additions.
	tx, err = admin.AddCandidate(ctx, "S1", "W")
	confirm(t, tx, err)
	names, _, err = l.Candidates(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "", "Z", "W"}, names)

	_, err = admin.DeleteCandidate(ctx, "S1", 1)
	requireRevert(t, err, reasonAlreadyDeleted)
	_, err = admin.DeleteCandidate(ctx, "S1", 9)
	requireRevert(t, err, reasonBadIndex)
}

func TestCreatorOnlyMutations(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()

	tx, err := bind(t, l, creator).CreateSession(ctx, "S1", endsIn(time.Hour), []string{"X"})
	confirm(t, tx, err)

	other := bind(t, l, voterA)
	_, err = other.AddCandidate(ctx, "S1", "Y")
	requireRevert(t, err, reasonNotCreator)
	_, err = other.DeleteCandidate(ctx, "S1", 0)
	requireRevert(t, err, reasonNotCreator)
	_, err = other.DeleteSession(ctx, "S1")
	requireRevert(t, err, reasonNotCreator)
	_, err = other.SetEndDate(ctx, "S1", endsIn(2*time.Hour))
	requireRevert(t, err, reasonNotCreator)
	_, err = other.AddCandidate(ctx, "missing", "Y")
	requireRevert(t, err, reasonSessionNotFound)
}

func TestVote(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()

	tx, err := bind(t, l, creator).CreateSession(ctx, "S1", endsIn(time.Hour), []string{"Alice", "Bob"})
	confirm(t, tx, err)

	a := bind(t, l, voterA)
	b := bind(t, l, voterB)

	voted, err := l.HasVoted(ctx, "S1", voterA)
	require.NoError(t, err)
	assert.False(t, voted)

	tx, err = a.Vote(ctx, "S1", 1)
	confirm(t, tx, err)
	tx, err = b.Vote(ctx, "S1", 1)
	confirm(t, tx, err)

	_, votes, err := l.Candidates(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, votes)

	voted, err = l.HasVoted(ctx, "S1", voterA)
	require.NoError(t, err)
	assert.True(t, voted)

	_, err = a.Vote(ctx, "S1", 0)
	requireRevert(t, err, reasonAlreadyVoted)
	_, err = bind(t, l, creator).Vote(ctx, "S1", 5)
	requireRevert(t, err, reasonBadCandidate)
	_, err = bind(t, l, creator).Vote(ctx, "nope", 0)
	requireRevert(t, err, reasonSessionNotFound)
}

func TestVote_AfterEndDate(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()

	tx, err := bind(t, l, creator).CreateSession(ctx, "S1", endsIn(time.Minute), []string{"Alice"})
	confirm(t, tx, err)

	l.now = func() time.Time { return testNow.Add(2 * time.Minute) }
	_, err = bind(t, l, voterA).Vote(ctx, "S1", 0)
	requireRevert(t, err, reasonVotingEnded)
}

func TestActiveSessions_DropsEndedSessions(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()
	admin := bind(t, l, creator)

	tx, err := admin.CreateSession(ctx, "S1", endsIn(time.Hour), []string{"Alice"})
	confirm(t, tx, err)
	tx, err = admin.CreateSession(ctx, "S2", endsIn(3*time.Hour), []string{"Bob"})
	confirm(t, tx, err)

	l.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	ids, err := l.ActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S2"}, ids)

	// The creator can still reopen an ended session.
	tx, err = admin.SetEndDate(ctx, "S1", endsIn(4*time.Hour))
	confirm(t, tx, err)
	ids, err = l.ActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, ids)
}

func TestVote_DeletedCandidate(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()
	admin := bind(t, l, creator)

	tx, err := admin.CreateSession(ctx, "S1", endsIn(time.Hour), []string{"Alice", "Bob"})
	confirm(t, tx, err)
	tx, err = admin.DeleteCandidate(ctx, "S1", 0)
	confirm(t, tx, err)

	_, err = bind(t, l, voterA).Vote(ctx, "S1", 0)
	requireRevert(t, err, reasonBadCandidate)
}

func TestBind_ZeroAddress(t *testing.T) {
	l := setupLedger(t)
	_, err := l.Bind(ledger.Signer{})
	require.ErrorIs(t, err, ledger.ErrNoSigner)
}

func TestWait_UnknownTx(t *testing.T) {
	l := setupLedger(t)
	tx := &emulatedTx{ledger: l, hash: "0xdead", method: "vote"}
	err := tx.Wait(context.Background())
	require.ErrorIs(t, err, ErrUnknownTx)
}
