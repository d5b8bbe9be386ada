// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultContractAddress is the deployed voting contract on Polygon mainnet.
const DefaultContractAddress = "0xd2C1833b5fE068f96e038Bfdef4ee02001dbF0A3"

//go:embed voting.abi.json
var votingABI string

// ContractABI parses the voting contract ABI.
func ContractABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(votingABI))
}

// Backend is what EthLedger needs from a node connection. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EthLedger talks to the deployed voting contract over JSON-RPC.
type EthLedger struct {
	address  common.Address
	backend  Backend
	contract *bind.BoundContract
}

// Dial connects to rpcURL. A public endpoint is enough for reads.
func Dial(ctx context.Context, rpcURL string, address common.Address) (*EthLedger, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	return NewEthLedger(client, address)
}

func NewEthLedger(backend Backend, address common.Address) (*EthLedger, error) {
	parsed, err := ContractABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	return &EthLedger{
		address:  address,
		backend:  backend,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the contract address.
func (l *EthLedger) Address() common.Address {
	return l.address
}

// Close releases the underlying client when it supports closing.
func (l *EthLedger) Close() {
	if c, ok := l.backend.(interface{ Close() }); ok {
		c.Close()
	}
}

func (l *EthLedger) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return out, nil
}

func (l *EthLedger) ActiveSessions(ctx context.Context) ([]string, error) {
	out, err := l.call(ctx, "getActiveSessions")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]string)).(*[]string), nil
}

func (l *EthLedger) SessionInfo(ctx context.Context, sessionID string) (SessionInfo, error) {
	out, err := l.call(ctx, "getSessionInfo", sessionID)
	if err != nil {
		return SessionInfo{}, err
	}

	count := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	endDate := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	if !count.IsInt64() || !endDate.IsInt64() {
		return SessionInfo{}, fmt.Errorf("%w: session info out of range", ErrMalformedResult)
	}
	return SessionInfo{CandidateCount: int(count.Int64()), EndDate: endDate.Int64()}, nil
}

func (l *EthLedger) Candidates(ctx context.Context, sessionID string) ([]string, []uint64, error) {
	out, err := l.call(ctx, "getCandidates", sessionID)
	if err != nil {
		return nil, nil, err
	}

	names := *abi.ConvertType(out[0], new([]string)).(*[]string)
	raw := *abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int)
	votes := make([]uint64, len(raw))
	for i, v := range raw {
		if !v.IsUint64() {
			return nil, nil, fmt.Errorf("%w: vote count %s out of range", ErrMalformedResult, v)
		}
		votes[i] = v.Uint64()
	}
	return names, votes, nil
}

func (l *EthLedger) HasVoted(ctx context.Context, sessionID string, voter common.Address) (bool, error) {
	out, err := l.call(ctx, "hasVoted", sessionID, voter)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// Bind returns a Writer that signs with signer.Transact.
func (l *EthLedger) Bind(signer Signer) (Writer, error) {
	if signer.Transact == nil {
		return nil, ErrNoSigner
	}
	return &ethWriter{ledger: l, opts: signer.Transact}, nil
}

type ethWriter struct {
	ledger *EthLedger
	opts   *bind.TransactOpts
}

func (w *ethWriter) transact(ctx context.Context, method string, params ...interface{}) (Tx, error) {
	opts := *w.opts
	opts.Context = ctx

	tx, err := w.ledger.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, &TxError{Method: method, Reason: revertReason(err), Err: err}
	}
	return &ethTx{backend: w.ledger.backend, tx: tx, method: method}, nil
}

func (w *ethWriter) CreateSession(ctx context.Context, sessionID string, endDate int64, names []string) (Tx, error) {
	return w.transact(ctx, "createSession", sessionID, big.NewInt(endDate), names)
}

func (w *ethWriter) AddCandidate(ctx context.Context, sessionID, name string) (Tx, error) {
	return w.transact(ctx, "addCandidate", sessionID, name)
}

func (w *ethWriter) DeleteCandidate(ctx context.Context, sessionID string, index uint64) (Tx, error) {
	return w.transact(ctx, "deleteCandidate", sessionID, new(big.Int).SetUint64(index))
}

func (w *ethWriter) DeleteSession(ctx context.Context, sessionID string) (Tx, error) {
	return w.transact(ctx, "deleteSession", sessionID)
}

func (w *ethWriter) Vote(ctx context.Context, sessionID string, candidateIndex uint64) (Tx, error) {
	return w.transact(ctx, "vote", sessionID, new(big.Int).SetUint64(candidateIndex))
}

func (w *ethWriter) SetEndDate(ctx context.Context, sessionID string, endDate int64) (Tx, error) {
	return w.transact(ctx, "setEndDate", sessionID, big.NewInt(endDate))
}

type ethTx struct {
	backend bind.DeployBackend
	tx      *types.Transaction
	method  string
}

func (t *ethTx) Hash() string {
	return t.tx.Hash().Hex()
}

func (t *ethTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, t.backend, t.tx)
	if err != nil {
		return &TxError{Method: t.method, Hash: t.Hash(), Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return &TxError{Method: t.method, Hash: t.Hash(), Reason: "transaction reverted", Err: ErrReverted}
	}
	return nil
}

// revertReason decodes an Error(string) payload attached to a JSON-RPC
// error, as returned by gas estimation of a reverting call.
func revertReason(err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return ""
	}
	data, err := hexutil.Decode(hexData)
	if err != nil {
		return ""
	}
	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return ""
	}
	return reason
}
