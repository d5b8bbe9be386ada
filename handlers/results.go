// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/middleware"
)

type ResultsHandler struct {
	page *controller.ResultsPage
}

func NewResultsHandler(reader ledger.Reader) *ResultsHandler {
	return &ResultsHandler{page: controller.NewResultsPage(reader)}
}

// GetResults handles GET /results?session=
// Tallies the session's current counts; no wallet is needed
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.page.Load(r.Context(), r.URL.Query())
	if err != nil {
		pageError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}
