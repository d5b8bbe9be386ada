// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/voteledger/voteledger/cliparse"
	"github.com/voteledger/voteledger/db"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/ledger/sqlledger"
	"github.com/voteledger/voteledger/wallet"
)

// TestNow is the ledger clock used by every test ledger.
var TestNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// TestChainID is the chain ID test signers use.
var TestChainID = big.NewInt(1337)

// SetupTestLedger creates a fresh in-memory ledger emulator with the full
// schema and a clock fixed at TestNow
func SetupTestLedger(t *testing.T) (*sqlledger.Ledger, *sql.DB) {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return sqlledger.New(conn, sqlledger.WithClock(func() time.Time { return TestNow })), conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:        3318,
		Backend:     cliparse.BackendSQLite,
		DatabaseURL: ":memory:",
		ChainID:     TestChainID.Int64(),
		Highlight:   1200 * time.Millisecond,
		VisitTTL:    time.Minute,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// NewTestWallet returns a connector backed by a freshly generated key and
// the key's address
func NewTestWallet(t *testing.T, binder ledger.Binder) (*wallet.Connector, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	provider, err := wallet.NewKeyProvider(hex.EncodeToString(crypto.FromECDSA(key)), TestChainID)
	if err != nil {
		t.Fatalf("Failed to create key provider: %v", err)
	}

	return wallet.NewConnector(provider, binder), crypto.PubkeyToAddress(key.PublicKey)
}

// NewAddress returns a fresh random address
func NewAddress(t *testing.T) common.Address {
	t.Helper()
	id := uuid.New()
	return common.BytesToAddress(id[:])
}

func confirm(t *testing.T, what string, tx ledger.Tx, err error) {
	t.Helper()
	if err == nil {
		err = tx.Wait(context.Background())
	}
	if err != nil {
		t.Fatalf("Failed to %s: %v", what, err)
	}
}

// CreateTestSession creates a session owned by creator that ends d after
// TestNow
func CreateTestSession(t *testing.T, l *sqlledger.Ledger, creator common.Address, sessionID string, d time.Duration, names ...string) {
	t.Helper()

	w, err := l.Bind(ledger.Signer{Address: creator})
	if err != nil {
		t.Fatalf("Failed to bind creator: %v", err)
	}
	tx, err := w.CreateSession(context.Background(), sessionID, TestNow.Add(d).Unix(), names)
	confirm(t, "create test session", tx, err)
}

// CastTestVotes casts n votes for the candidate at index, each from a new
// address
func CastTestVotes(t *testing.T, l *sqlledger.Ledger, sessionID string, index uint64, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		w, err := l.Bind(ledger.Signer{Address: NewAddress(t)})
		if err != nil {
			t.Fatalf("Failed to bind voter: %v", err)
		}
		tx, err := w.Vote(context.Background(), sessionID, index)
		confirm(t, "cast test vote", tx, err)
	}
}

// CountTransactions returns how many writes reached the ledger
func CountTransactions(t *testing.T, conn *sql.DB) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM ledger_tx`).Scan(&n); err != nil {
		t.Fatalf("Failed to count transactions: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
