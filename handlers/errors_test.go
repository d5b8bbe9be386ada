// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/wallet"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"no provider", wallet.ErrNoProvider, http.StatusServiceUnavailable},
		{"empty keystore", wallet.ErrNoAccounts, http.StatusServiceUnavailable},
		{"not connected", &controller.Failure{Message: "connect", Err: wallet.ErrNotConnected}, http.StatusUnauthorized},
		{"rejected", fmt.Errorf("%w: bad passphrase", wallet.ErrRejected), http.StatusForbidden},
		{"unknown session", &controller.Failure{Message: "x", Err: controller.ErrSessionNotFound}, http.StatusNotFound},
		{"bad input", &controller.Failure{Message: "x", Err: controller.ErrInvalidCandidateID}, http.StatusBadRequest},
		{"revert", &ledger.TxError{Method: "vote", Reason: "Already voted", Err: ledger.ErrReverted}, http.StatusConflict},
		{"ledger failure", &controller.Failure{Message: "x", Err: errors.New("rpc down")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, got)
			}
		})
	}
}
