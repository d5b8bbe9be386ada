// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/middleware"
	"github.com/voteledger/voteledger/wallet"
)

// statusFor maps a page error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrNoProvider), errors.Is(err, wallet.ErrNoAccounts):
		return http.StatusServiceUnavailable
	case errors.Is(err, wallet.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.Is(err, wallet.ErrRejected):
		return http.StatusForbidden
	case errors.Is(err, controller.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrNoSessionSelected),
		errors.Is(err, controller.ErrNoCandidateSelected),
		errors.Is(err, controller.ErrInvalidCandidateID),
		errors.Is(err, controller.ErrInvalidSessionID),
		errors.Is(err, controller.ErrBlankName),
		errors.Is(err, controller.ErrInvalidEndDate):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrReverted):
		return http.StatusConflict
	}

	// Anything else that reached the user went wrong talking to the ledger.
	var f *controller.Failure
	if errors.As(err, &f) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// pageError writes err with its user-facing message.
func pageError(w http.ResponseWriter, err error) {
	middleware.ErrorResponse(w, statusFor(err), controller.UserMessage(err))
}
