// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/voteledger/voteledger/cliparse"
	"github.com/voteledger/voteledger/db"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/ledger/sqlledger"
	"github.com/voteledger/voteledger/wallet"
)

// openLedger connects to the configured ledger backend. The returned
// function releases it.
func openLedger(ctx context.Context, cfg cliparse.Config) (ledger.Ledger, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.Backend {
	case cliparse.BackendEth:
		l, err := ledger.Dial(ctx, cfg.RPCURL, common.HexToAddress(cfg.ContractAddress))
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Connected to contract", "rpc", cfg.RPCURL, "contract", l.Address().Hex())
		return l, l.Close, nil

	case cliparse.BackendSQLite, cliparse.BackendPostgres:
		conn, err := db.Open(cfg.Backend, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		// Create schema (tables)
		if err := db.CreateSchema(conn); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("schema creation failed: %w", err)
		}
		slog.Info("Database schema ready", "backend", cfg.Backend)
		return sqlledger.New(conn), func() { conn.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
}

// openProvider builds the configured wallet provider. Without a key or
// keystore there is no provider, as when no wallet is installed.
func openProvider(cfg cliparse.Config) (wallet.Provider, error) {
	chainID := big.NewInt(cfg.ChainID)
	switch {
	case cfg.WalletKey != "":
		return wallet.NewKeyProvider(cfg.WalletKey, chainID)
	case cfg.KeystoreDir != "":
		return wallet.NewKeystoreProvider(cfg.KeystoreDir, chainID), nil
	}
	return nil, nil
}

func openConnector(cfg cliparse.Config, binder ledger.Binder) (*wallet.Connector, error) {
	provider, err := openProvider(cfg)
	if err != nil {
		return nil, err
	}
	return wallet.NewConnector(provider, binder), nil
}
