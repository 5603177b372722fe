package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"

	"github.com/flameborn/validator/internal/apperr"
	"github.com/flameborn/validator/internal/auth"
	"github.com/flameborn/validator/internal/directory"
	"github.com/flameborn/validator/internal/models"
	"github.com/flameborn/validator/internal/review"
)

// principal resolves who is acting. An authenticated principal wins and a
// conflicting claimed wallet is rejected; without credentials the claimed
// wallet is used unless tokens are mandatory.
func (s *Server) principal(r *http.Request, claimed string) (models.Principal, error) {
	claimed = strings.TrimSpace(claimed)
	if p, ok := auth.FromContext(r.Context()); ok {
		if claimed != "" && claimed != p.Wallet {
			return models.Principal{}, errPrincipalMismatch
		}
		return p, nil
	}
	if s.verifier.TokenRequired() {
		return models.Principal{}, errTokenRequired
	}
	if claimed == "" {
		return models.Principal{}, errMissingPrincipal
	}
	return models.Principal{Wallet: claimed, Source: auth.SourceClaimed}, nil
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	var req review.SubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	sub, err := s.engine.CreateSubmission(r.Context(), req)
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "submission": sub})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	q := r.URL.Query()
	query := review.SubmissionQuery{
		Status:          models.SubmissionStatus(q.Get("status")),
		ValidatorWallet: q.Get("validator"),
		SubmitterID:     q.Get("submitter"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer")
			return
		}
		query.Limit = limit
	}
	subs, err := s.engine.GetSubmissions(r.Context(), query)
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"submissions": subs})
}

func (s *Server) handleSubmissionCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.engine.GetSubmissionCounts(r.Context())
	if err != nil {
		respondServiceError(httplog.LogEntry(r.Context()), w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"counts": counts})
}

func (s *Server) handleSubmissionsByPriority(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.engine.GetSubmissionsByPriority(r.Context())
	if err != nil {
		respondServiceError(httplog.LogEntry(r.Context()), w, err)
		return
	}
	respondJSON(w, http.StatusOK, buckets)
}

type reviewRequest struct {
	SubmissionID    string          `json:"submissionId"`
	SubmissionIDs   []string        `json:"submissionIds"`
	ValidatorWallet string          `json:"validatorWallet"`
	Decision        models.Decision `json:"decision"`
	Notes           *string         `json:"notes"`
	AdjustedFLB     *float64        `json:"adjustedFLB"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	p, err := s.principal(r, req.ValidatorWallet)
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	if req.Decision == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing decision")
		return
	}

	// A present submissionIds array selects the batch path, even when empty.
	if req.SubmissionIDs != nil {
		if req.AdjustedFLB != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "adjustedFLB is not supported for batch review")
			return
		}
		count, err := s.engine.BatchReviewSubmissions(r.Context(), review.BatchReviewRequest{
			SubmissionIDs: req.SubmissionIDs,
			Principal:     p,
			Decision:      req.Decision,
			Notes:         req.Notes,
		})
		if err != nil {
			respondServiceError(logger, w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":        true,
			"reviewedCount":  count,
			"requestedCount": len(req.SubmissionIDs),
		})
		return
	}

	if req.SubmissionID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "submissionId or submissionIds required")
		return
	}
	sub, err := s.engine.ReviewSubmission(r.Context(), review.ReviewRequest{
		SubmissionID: req.SubmissionID,
		Principal:    p,
		Decision:     req.Decision,
		Notes:        req.Notes,
		AdjustedFLB:  req.AdjustedFLB,
	})
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "submission": sub})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	wallet := strings.TrimSpace(r.URL.Query().Get("wallet"))
	if wallet == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "wallet parameter required")
		return
	}

	var profile *models.ValidatorProfile
	p, err := s.directory.GetValidatorProfile(r.Context(), wallet)
	switch {
	case err == nil:
		profile = &p
	case !errors.Is(err, apperr.ErrNotFound):
		respondServiceError(logger, w, err)
		return
	}
	stats, err := s.engine.GetValidatorStats(r.Context(), wallet)
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"profile": profile, "stats": stats})
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	var req directory.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if s.verifier.TokenRequired() {
		actor, err := s.principal(r, "")
		if err != nil {
			respondServiceError(logger, w, err)
			return
		}
		if _, err := s.directory.RequireAdmin(r.Context(), actor); err != nil {
			respondServiceError(logger, w, err)
			return
		}
	}
	validator, err := s.directory.CreateValidator(r.Context(), req)
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "validator": validator})
}

type activeRequest struct {
	IsActive    *bool  `json:"isActive"`
	ActorWallet string `json:"actorWallet"`
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	var req activeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.IsActive == nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing isActive")
		return
	}
	actor, err := s.principal(r, req.ActorWallet)
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	validator, err := s.directory.SetActive(r.Context(), actor, chi.URLParam(r, "wallet"), *req.IsActive)
	if err != nil {
		respondServiceError(logger, w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "validator": validator})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.engine.GetValidatorAnalytics(r.Context(), models.Timeframe(r.URL.Query().Get("timeframe")))
	if err != nil {
		respondServiceError(httplog.LogEntry(r.Context()), w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"analytics": analytics})
}
