// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/models"
)

// Wallet status lines
const (
	StatusDisconnected = "Wallet not connected"
	StatusConnected    = "Wallet Connected"
	StatusFailed       = "Failed to connect wallet"
	StatusNotInstalled = "Wallet provider not installed"
)

// Connection is an authenticated identity with a contract handle that can
// issue writes on its behalf.
type Connection struct {
	Address common.Address
	Writer  ledger.Writer
}

// Connector turns provider approval into a Connection.
type Connector struct {
	provider Provider
	binder   ledger.Binder
}

// NewConnector returns a Connector. A nil provider means no wallet is
// installed.
func NewConnector(provider Provider, binder ledger.Binder) *Connector {
	return &Connector{provider: provider, binder: binder}
}

// Available reports whether a wallet provider is installed.
func (c *Connector) Available() bool {
	return c != nil && c.provider != nil
}

func (c *Connector) Connect(ctx context.Context, approval string) (*Connection, error) {
	if !c.Available() {
		return nil, ErrNoProvider
	}

	accts, err := c.provider.RequestAccounts(ctx, approval)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if len(accts) == 0 {
		return nil, ErrNoAccounts
	}

	opts, err := c.provider.Signer(ctx, accts[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get signer: %w", err)
	}

	w, err := c.binder.Bind(ledger.Signer{Address: accts[0], Transact: opts})
	if err != nil {
		return nil, fmt.Errorf("failed to authorize contract: %w", err)
	}

	return &Connection{Address: accts[0], Writer: w}, nil
}

// ShortAddress abbreviates an address as 0x1234...abcd.
func ShortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}

// Session holds the wallet state of one page visit.
type Session struct {
	connector *Connector

	mu     sync.Mutex
	conn   *Connection
	status string
}

func NewSession(connector *Connector) *Session {
	return &Session{connector: connector, status: StatusDisconnected}
}

func (s *Session) Available() bool {
	return s.connector.Available()
}

// Connect requests account access. On failure the previous connection,
// if any, is kept and the status line reports the failure.
func (s *Session) Connect(ctx context.Context, approval string) (*Connection, error) {
	conn, err := s.connector.Connect(ctx, approval)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case errors.Is(err, ErrNoProvider):
		s.status = StatusNotInstalled
		return nil, err
	case err != nil:
		slog.Warn("wallet connection failed", "error", err)
		s.status = StatusFailed
		return nil, err
	}

	s.conn = conn
	s.status = StatusConnected
	slog.Info("wallet connected", "address", conn.Address.Hex())
	return conn, nil
}

// Connection returns the current connection, if any.
func (s *Session) Connection() (*Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn, s.conn != nil
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) View() models.WalletResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := models.WalletResponse{Status: s.status}
	if s.conn != nil {
		resp.Connected = true
		resp.Address = s.conn.Address.Hex()
		resp.ShortAddress = ShortAddress(s.conn.Address)
	}
	return resp
}
