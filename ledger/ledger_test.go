// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voteledger/voteledger/models"
)

type mapReader struct {
	ids   []string
	info  map[string]SessionInfo
	names map[string][]string
	votes map[string][]uint64
	err   error
}

func (m *mapReader) ActiveSessions(ctx context.Context) ([]string, error) {
	return m.ids, m.err
}

func (m *mapReader) SessionInfo(ctx context.Context, id string) (SessionInfo, error) {
	return m.info[id], m.err
}

func (m *mapReader) Candidates(ctx context.Context, id string) ([]string, []uint64, error) {
	return m.names[id], m.votes[id], m.err
}

func (m *mapReader) HasVoted(ctx context.Context, id string, voter common.Address) (bool, error) {
	return false, m.err
}

func TestZip_SkipsBlankPlaceholders(t *testing.T) {
	got, err := Zip([]string{"Alice", "", "  ", "Dave"}, []uint64{1, 0, 0, 4})
	require.NoError(t, err)

	assert.Equal(t, []models.Candidate{
		{Index: 0, ID: 1, Name: "Alice", Votes: 1},
		{Index: 3, ID: 4, Name: "Dave", Votes: 4},
	}, got)
}

func TestZip_LengthMismatch(t *testing.T) {
	_, err := Zip([]string{"Alice"}, []uint64{1, 2})
	require.ErrorIs(t, err, ErrMalformedResult)
}

func TestOngoingSessions(t *testing.T) {
	r := &mapReader{
		ids: []string{"S1", "S2"},
		info: map[string]SessionInfo{
			"S1": {CandidateCount: 2, EndDate: 100},
			"S2": {CandidateCount: 1, EndDate: 200},
		},
		names: map[string][]string{"S1": {"Alice", "Bob"}, "S2": {"Carol"}},
		votes: map[string][]uint64{"S1": {3, 3}, "S2": {0}},
	}

	got, err := OngoingSessions(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Session{ID: "S1", EndDate: 100, CandidateCount: 2}, got[0].Session)
	assert.Len(t, got[0].Candidates, 2)
	assert.Equal(t, "Carol", got[1].Candidates[0].Name)
}

func TestListSessions_Error(t *testing.T) {
	boom := errors.New("rpc down")
	_, err := ListSessions(context.Background(), &mapReader{err: boom})
	require.ErrorIs(t, err, boom)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "Already voted", Reason(&TxError{Method: "vote", Reason: "Already voted"}))
	assert.Equal(t, "vote: nonce too low", Reason(&TxError{Method: "vote", Err: errors.New("nonce too low")}))
	assert.Equal(t, "boom", Reason(errors.New("boom")))
}
