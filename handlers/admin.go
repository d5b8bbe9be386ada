// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/middleware"
	"github.com/voteledger/voteledger/models"
)

// AdminHandler serves the admin page of a visit. Authorization is left to
// the ledger: a write from anyone but the session creator reverts.
type AdminHandler struct {
	store *VisitStore
}

func NewAdminHandler(store *VisitStore) *AdminHandler {
	return &AdminHandler{store: store}
}

// txResult writes the outcome of an admin write.
func txResult(w http.ResponseWriter, resp *models.TxResponse, err error) {
	if err != nil {
		pageError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetAdminPage handles GET /visits/{visit}/admin
func (h *AdminHandler) GetAdminPage(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		if v.Admin.SessionID() != "" {
			if err := v.Admin.LoadCandidates(r.Context()); err != nil {
				pageError(w, err)
				return
			}
		}
		middleware.JSONResponse(w, http.StatusOK, v.Admin.View())
	})(w, r)
}

// SelectSession handles POST /visits/{visit}/admin/session
func (h *AdminHandler) SelectSession(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		var req models.SelectSessionRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := v.Admin.SelectSession(r.Context(), req.SessionID); err != nil {
			pageError(w, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, v.Admin.View())
	})(w, r)
}

// CreateSession handles POST /visits/{visit}/admin/sessions
func (h *AdminHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		var req models.CreateSessionRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		resp, err := v.Admin.CreateSession(r.Context(), req.ID, req.EndDate, req.Candidates)
		txResult(w, resp, err)
	})(w, r)
}

// DeleteSession handles DELETE /visits/{visit}/admin/sessions/{id}
func (h *AdminHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		resp, err := v.Admin.DeleteSession(r.Context(), r.PathValue("id"))
		txResult(w, resp, err)
	})(w, r)
}

// AddCandidate handles POST /visits/{visit}/admin/candidates
func (h *AdminHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		var req models.AddCandidateRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		resp, err := v.Admin.AddCandidate(r.Context(), req.Name)
		txResult(w, resp, err)
	})(w, r)
}

// DeleteCandidate handles DELETE /visits/{visit}/admin/candidates/{id}
// {id} is the 1-based candidate ID shown on the admin page
func (h *AdminHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		resp, err := v.Admin.DeleteCandidate(r.Context(), r.PathValue("id"))
		txResult(w, resp, err)
	})(w, r)
}

// SetEndDate handles PUT /visits/{visit}/admin/end-date
func (h *AdminHandler) SetEndDate(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		var req models.SetEndDateRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		resp, err := v.Admin.SetEndDate(r.Context(), req.EndDate)
		txResult(w, resp, err)
	})(w, r)
}
