// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package wallet connects a user wallet and turns it into an authorized
// ledger writer.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrNoProvider   = errors.New("wallet provider not installed")
	ErrRejected     = errors.New("wallet request rejected")
	ErrNoAccounts   = errors.New("wallet has no accounts")
	ErrNotConnected = errors.New("wallet not connected")
)

// Provider stands in for a browser wallet extension: it grants account
// access and produces transaction signers.
type Provider interface {
	// RequestAccounts asks for account access. approval is whatever the
	// provider needs from the user to agree, such as a passphrase.
	RequestAccounts(ctx context.Context, approval string) ([]common.Address, error)
	Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error)
}

// KeyProvider signs with a single raw private key. It never asks for
// approval.
type KeyProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

func NewKeyProvider(hexKey string, chainID *big.Int) (*KeyProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet key: %w", err)
	}
	return &KeyProvider{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}, nil
}

func (p *KeyProvider) RequestAccounts(ctx context.Context, approval string) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *KeyProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	if account != p.address {
		return nil, fmt.Errorf("%w: unknown account %s", ErrRejected, account.Hex())
	}
	return bind.NewKeyedTransactorWithChainID(p.key, p.chainID)
}

// KeystoreProvider unlocks the first account of an encrypted keystore. The
// approval is the account passphrase; a wrong passphrase counts as the
// user rejecting the request.
type KeystoreProvider struct {
	ks      *keystore.KeyStore
	chainID *big.Int
}

// NewKeystoreProvider opens the keystore directory dir.
func NewKeystoreProvider(dir string, chainID *big.Int) *KeystoreProvider {
	return FromKeyStore(keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP), chainID)
}

func FromKeyStore(ks *keystore.KeyStore, chainID *big.Int) *KeystoreProvider {
	return &KeystoreProvider{ks: ks, chainID: chainID}
}

func (p *KeystoreProvider) RequestAccounts(ctx context.Context, approval string) ([]common.Address, error) {
	accts := p.ks.Accounts()
	if len(accts) == 0 {
		return nil, ErrNoAccounts
	}
	if err := p.ks.Unlock(accts[0], approval); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return []common.Address{accts[0].Address}, nil
}

func (p *KeystoreProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	acct, err := p.ks.Find(accounts.Account{Address: account})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return bind.NewKeyStoreTransactorWithChainID(p.ks, acct, p.chainID)
}
