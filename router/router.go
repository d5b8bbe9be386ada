// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/voteledger/voteledger/cliparse"
	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/handlers"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/middleware"
	"github.com/voteledger/voteledger/wallet"
)

func NewRouter(reader ledger.Reader, connector *wallet.Connector, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	store := handlers.NewVisitStore(reader, connector, cfg.VisitTTL, controller.Options{
		Highlight: cfg.Highlight,
	})

	// Initialize handlers
	sessionsHandler := handlers.NewSessionsHandler(reader, nil)
	resultsHandler := handlers.NewResultsHandler(reader)
	visitHandler := handlers.NewVisitHandler(store)
	adminHandler := handlers.NewAdminHandler(store)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Ledger reads (public, no wallet)
	mux.HandleFunc("GET /sessions", middleware.WithLogging(sessionsHandler.ListSessions))
	mux.HandleFunc("GET /sessions/{id}", middleware.WithLogging(sessionsHandler.GetSession))
	mux.HandleFunc("GET /sessions/{id}/candidates", middleware.WithLogging(sessionsHandler.GetCandidates))
	mux.HandleFunc("GET /sessions/{id}/voters/{address}", middleware.WithLogging(sessionsHandler.HasVoted))
	mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.GetResults))

	// Page visits (wallet + voting page)
	mux.HandleFunc("POST /visits", middleware.WithLogging(visitHandler.CreateVisit))
	mux.HandleFunc("GET /visits/{visit}/wallet", middleware.WithLogging(visitHandler.GetWallet))
	mux.HandleFunc("POST /visits/{visit}/wallet", middleware.WithLogging(visitHandler.ConnectWallet))
	mux.HandleFunc("GET /visits/{visit}/vote", middleware.WithLogging(visitHandler.GetVotingPage))
	mux.HandleFunc("POST /visits/{visit}/vote/session", middleware.WithLogging(visitHandler.SelectSession))
	mux.HandleFunc("POST /visits/{visit}/vote", middleware.WithLogging(visitHandler.CastVote))

	// Admin page (authorization is enforced by the ledger)
	mux.HandleFunc("GET /visits/{visit}/admin", middleware.WithLogging(adminHandler.GetAdminPage))
	mux.HandleFunc("POST /visits/{visit}/admin/session", middleware.WithLogging(adminHandler.SelectSession))
	mux.HandleFunc("POST /visits/{visit}/admin/sessions", middleware.WithLogging(adminHandler.CreateSession))
	mux.HandleFunc("DELETE /visits/{visit}/admin/sessions/{id}", middleware.WithLogging(adminHandler.DeleteSession))
	mux.HandleFunc("POST /visits/{visit}/admin/candidates", middleware.WithLogging(adminHandler.AddCandidate))
	mux.HandleFunc("DELETE /visits/{visit}/admin/candidates/{id}", middleware.WithLogging(adminHandler.DeleteCandidate))
	mux.HandleFunc("PUT /visits/{visit}/admin/end-date", middleware.WithLogging(adminHandler.SetEndDate))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("voteledger API v1"))
	})

	return mux
}
