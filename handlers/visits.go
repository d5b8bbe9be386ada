// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/voteledger/voteledger/controller"
	"github.com/voteledger/voteledger/ledger"
	"github.com/voteledger/voteledger/middleware"
	"github.com/voteledger/voteledger/models"
	"github.com/voteledger/voteledger/wallet"
)

// VisitStore keeps page visits in memory. A visit expires after sitting
// idle for the store's TTL; every lookup restarts the clock.
type VisitStore struct {
	visits    *cache.Cache
	reader    ledger.Reader
	connector *wallet.Connector
	opts      controller.Options
}

func NewVisitStore(reader ledger.Reader, connector *wallet.Connector, ttl time.Duration, opts controller.Options) *VisitStore {
	visits := cache.New(ttl, ttl/2)
	visits.OnEvicted(func(id string, _ interface{}) {
		slog.Debug("visit expired", "visit_id", id)
	})
	return &VisitStore{
		visits:    visits,
		reader:    reader,
		connector: connector,
		opts:      opts,
	}
}

// Create starts a new visit.
func (s *VisitStore) Create() *controller.Visit {
	v := controller.NewVisit(uuid.NewString(), s.reader, s.connector, s.opts)
	s.visits.SetDefault(v.ID, v)
	return v
}

// Get returns a live visit and extends its lifetime.
func (s *VisitStore) Get(id string) (*controller.Visit, bool) {
	x, ok := s.visits.Get(id)
	if !ok {
		return nil, false
	}
	s.visits.SetDefault(id, x)
	return x.(*controller.Visit), true
}

// Len returns the number of live visits.
func (s *VisitStore) Len() int {
	return s.visits.ItemCount()
}

type visitHandlerFunc func(w http.ResponseWriter, r *http.Request, v *controller.Visit)

// withVisit resolves {visit} and runs fn holding the visit's lock.
func (s *VisitStore) withVisit(fn visitHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := s.Get(r.PathValue("visit"))
		if !ok {
			middleware.ErrorResponse(w, http.StatusNotFound, "Visit not found or expired.")
			return
		}

		v.Lock()
		defer v.Unlock()
		fn(w, r, v)
	}
}

// VisitHandler serves the wallet and voting page of a visit.
type VisitHandler struct {
	store *VisitStore
}

func NewVisitHandler(store *VisitStore) *VisitHandler {
	return &VisitHandler{store: store}
}

// CreateVisit handles POST /visits
func (h *VisitHandler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	v := h.store.Create()
	slog.Info("visit created", "visit_id", v.ID, "request_id", middleware.RequestID(r.Context()))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateVisitResponse{VisitID: v.ID})
}

// GetWallet handles GET /visits/{visit}/wallet
func (h *VisitHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		middleware.JSONResponse(w, http.StatusOK, v.Wallet.View())
	})(w, r)
}

// ConnectWallet handles POST /visits/{visit}/wallet
// The body is optional and carries the approval passphrase
func (h *VisitHandler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		var req models.ConnectWalletRequest
		if r.Body != nil && r.Body != http.NoBody {
			// Chunked requests report no length; an empty body is io.EOF.
			if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
				middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
				return
			}
		}

		if _, err := v.Wallet.Connect(r.Context(), req.Passphrase); err != nil {
			middleware.ErrorResponse(w, statusFor(err), v.Wallet.Status())
			return
		}

		middleware.JSONResponse(w, http.StatusOK, v.Wallet.View())
	})(w, r)
}

// GetVotingPage handles GET /visits/{visit}/vote?session=
// Reloads the active sessions and preselects the named one
func (h *VisitHandler) GetVotingPage(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		if err := v.Voting.LoadSessions(r.Context(), r.URL.Query()); err != nil {
			pageError(w, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, v.Voting.View())
	})(w, r)
}

// SelectSession handles POST /visits/{visit}/vote/session
func (h *VisitHandler) SelectSession(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		var req models.SelectSessionRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := v.Voting.LoadSessions(r.Context(), nil); err != nil {
			pageError(w, err)
			return
		}
		if err := v.Voting.SelectSession(r.Context(), req.SessionID); err != nil {
			pageError(w, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, v.Voting.View())
	})(w, r)
}

// CastVote handles POST /visits/{visit}/vote
// Responds once the vote is confirmed or has failed
func (h *VisitHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	h.store.withVisit(func(w http.ResponseWriter, r *http.Request, v *controller.Visit) {
		var req models.CastVoteRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		idx := -1
		if req.CandidateIndex != nil {
			idx = *req.CandidateIndex
		}

		receipt, err := v.Voting.CastVote(r.Context(), idx)
		if err != nil {
			pageError(w, err)
			return
		}

		middleware.JSONResponse(w, http.StatusOK, models.TxResponse{
			TxHash:  receipt.TxHash,
			Message: v.Voting.Status(),
		})
	})(w, r)
}
