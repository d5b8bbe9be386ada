// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/ledger/sqlledger"
	"github.com/voteledger/voteledger/testutil"
	"github.com/voteledger/voteledger/wallet"
)

type testEnv struct {
	ledger  *sqlledger.Ledger
	store   *VisitStore
	address common.Address
}

// setupTestEnv returns a visit store over an in-memory ledger whose wallet
// holds a fresh key.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	l, _ := testutil.SetupTestLedger(t)
	connector, addr := testutil.NewTestWallet(t, l)
	opts := controller.Options{
		Now:      func() time.Time { return testutil.TestNow },
		Location: time.UTC,
	}

	return &testEnv{
		ledger:  l,
		store:   NewVisitStore(l, connector, time.Minute, opts),
		address: addr,
	}
}

// setupNoWalletEnv is setupTestEnv without a wallet provider.
func setupNoWalletEnv(t *testing.T) *testEnv {
	t.Helper()

	l, _ := testutil.SetupTestLedger(t)
	return &testEnv{
		ledger: l,
		store:  NewVisitStore(l, wallet.NewConnector(nil, l), time.Minute, controller.Options{}),
	}
}

func signer(addr common.Address) ledger.Signer {
	return ledger.Signer{Address: addr}
}
