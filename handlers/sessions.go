// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/middleware"
	"github.com/voteledger/voteledger/models"
)

// SessionsHandler serves read-only ledger data. No wallet is involved.
type SessionsHandler struct {
	reader ledger.Reader
	now    func() time.Time
}

func NewSessionsHandler(reader ledger.Reader, now func() time.Time) *SessionsHandler {
	if now == nil {
		now = time.Now
	}
	return &SessionsHandler{reader: reader, now: now}
}

// ListSessions handles GET /sessions
// With ?expand=candidates each session carries its candidates
func (h *SessionsHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	views := []models.SessionView{}

	if r.URL.Query().Get("expand") == "candidates" {
		details, err := ledger.OngoingSessions(r.Context(), h.reader)
		if err != nil {
			slog.Error("failed to load sessions", "error", err)
			middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to load sessions.")
			return
		}
		for _, d := range details {
			view := models.NewSessionView(d.Session, now)
			view.Candidates = d.Candidates
			views = append(views, view)
		}
	} else {
		sessions, err := ledger.ListSessions(r.Context(), h.reader)
		if err != nil {
			slog.Error("failed to load sessions", "error", err)
			middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to load sessions.")
			return
		}
		for _, s := range sessions {
			views = append(views, models.NewSessionView(s, now))
		}
	}

	middleware.JSONResponse(w, http.StatusOK, views)
}

// GetSession handles GET /sessions/{id}
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	info, err := h.reader.SessionInfo(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to load session", "session_id", sessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to load session.")
		return
	}

	// The ledger answers unknown IDs with zero values
	if info.EndDate == 0 && info.CandidateCount == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found.")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewSessionView(models.Session{
		ID:             sessionID,
		EndDate:        info.EndDate,
		CandidateCount: info.CandidateCount,
	}, h.now()))
}

// GetCandidates handles GET /sessions/{id}/candidates
// Deleted candidates are left out
func (h *SessionsHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	candidates, err := ledger.ReadCandidates(r.Context(), h.reader, sessionID)
	if err != nil {
		slog.Error("failed to load candidates", "session_id", sessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to load candidates.")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// HasVoted handles GET /sessions/{id}/voters/{address}
func (h *SessionsHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	address := r.PathValue("address")
	if !common.IsHexAddress(address) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid address")
		return
	}
	voter := common.HexToAddress(address)

	voted, err := h.reader.HasVoted(r.Context(), sessionID, voter)
	if err != nil {
		slog.Error("failed to query vote", "session_id", sessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to load vote status.")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.HasVotedResponse{
		SessionID: sessionID,
		Address:   voter.Hex(),
		Voted:     voted,
	})
}
