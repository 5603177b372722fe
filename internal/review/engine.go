// Package review implements the submission lifecycle: creation with priority
// classification, single and batch review decisions, and the aggregate views
// validators work from.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flameborn/validator/internal/apperr"
	"github.com/flameborn/validator/internal/models"
	"github.com/flameborn/validator/internal/store"
)

// CourseLookup resolves course-linked submissions.
type CourseLookup interface {
	GetCourse(ctx context.Context, id string) (models.Course, error)
}

// Authorizer gates review operations on an authenticated principal.
type Authorizer interface {
	Authorize(ctx context.Context, principal models.Principal) (models.ValidatorProfile, error)
	GetValidatorProfile(ctx context.Context, wallet string) (models.ValidatorProfile, error)
}

type Engine struct {
	subs       store.SubmissionRepository
	courses    CourseLookup
	validators Authorizer
	logger     *slog.Logger
	now        func() time.Time
}

func New(subs store.SubmissionRepository, courses CourseLookup, validators Authorizer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		subs:       subs,
		courses:    courses,
		validators: validators,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type SubmissionRequest struct {
	SubmitterID    string                `json:"submitterId"`
	SubmissionType models.SubmissionType `json:"submissionType"`
	CourseID       string                `json:"courseId"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	EvidenceURL    string                `json:"evidenceUrl"`
	EvidenceType   models.EvidenceType   `json:"evidenceType"`
	RequestedFLB   *float64              `json:"requestedFLB"`
	IdempotencyKey string                `json:"idempotencyKey"`
}

func (e *Engine) CreateSubmission(ctx context.Context, req SubmissionRequest) (models.Submission, error) {
	in := store.SubmissionInput{
		SubmitterID:    strings.TrimSpace(req.SubmitterID),
		SubmissionType: req.SubmissionType,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
	}
	if req.RequestedFLB != nil {
		in.RequestedFLB = *req.RequestedFLB
	}
	if in.SubmitterID == "" {
		return models.Submission{}, apperr.Validation("submitterId is required")
	}
	if !in.SubmissionType.Valid() {
		return models.Submission{}, apperr.Validation("unknown submissionType %q", req.SubmissionType)
	}
	if in.Title == "" {
		return models.Submission{}, apperr.Validation("title is required")
	}
	if in.Description == "" {
		return models.Submission{}, apperr.Validation("description is required")
	}
	if url := strings.TrimSpace(req.EvidenceURL); url != "" {
		in.EvidenceURL = &url
	}
	if req.EvidenceType != "" {
		if !req.EvidenceType.Valid() {
			return models.Submission{}, apperr.Validation("unknown evidenceType %q", req.EvidenceType)
		}
		if in.EvidenceURL == nil {
			return models.Submission{}, apperr.Validation("evidenceType requires evidenceUrl")
		}
		et := req.EvidenceType
		in.EvidenceType = &et
	}

	if courseID := strings.TrimSpace(req.CourseID); courseID != "" {
		if in.SubmissionType != models.SubmissionCourseCompletion {
			return models.Submission{}, apperr.Validation("courseId is only allowed on %s submissions", models.SubmissionCourseCompletion)
		}
		course, err := e.lookupCourse(ctx, courseID)
		if err != nil {
			return models.Submission{}, err
		}
		// Only an omitted amount falls back to the course reward.
		if req.RequestedFLB == nil {
			in.RequestedFLB = course.RewardAmount
		}
		in.CourseID = &course.ID
		in.Course = &models.CourseSummary{Name: course.Name, RewardAmount: course.RewardAmount}
	}

	if math.IsNaN(in.RequestedFLB) || math.IsInf(in.RequestedFLB, 0) || in.RequestedFLB <= 0 {
		return models.Submission{}, apperr.Validation("requestedFLB must be greater than 0")
	}
	in.Priority = PriorityFor(in.RequestedFLB)
	in.SubmittedAt = e.now()

	sub, err := e.subs.CreateSubmission(ctx, in)
	if err != nil {
		return models.Submission{}, fmt.Errorf("create submission: %w", err)
	}
	e.logger.Info("submission created",
		"submission_id", sub.ID,
		"submitter", sub.SubmitterID,
		"type", sub.SubmissionType,
		"priority", sub.Priority,
	)
	return sub, nil
}

func (e *Engine) lookupCourse(ctx context.Context, id string) (models.Course, error) {
	if e.courses == nil {
		return models.Course{}, apperr.NotFound("course %s", id)
	}
	course, err := e.courses.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Course{}, apperr.NotFound("course %s", id)
		}
		return models.Course{}, err
	}
	if !course.Active {
		return models.Course{}, apperr.Validation("course %s is not active", id)
	}
	return course, nil
}

type ReviewRequest struct {
	SubmissionID string
	Principal    models.Principal
	Decision     models.Decision
	Notes        *string
	AdjustedFLB  *float64
}

// ReviewSubmission moves one PENDING submission to a terminal status. If two
// reviewers race, exactly one succeeds and the other gets ErrInvalidState.
func (e *Engine) ReviewSubmission(ctx context.Context, req ReviewRequest) (models.Submission, error) {
	if strings.TrimSpace(req.SubmissionID) == "" {
		return models.Submission{}, apperr.Validation("submissionId is required")
	}
	if !req.Decision.Valid() {
		return models.Submission{}, apperr.Validation("decision must be APPROVED or REJECTED")
	}
	if req.Decision == models.DecisionApproved && req.AdjustedFLB != nil {
		if v := *req.AdjustedFLB; math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return models.Submission{}, apperr.Validation("adjustedFLB must be greater than 0")
		}
	}
	if _, err := e.validators.Authorize(ctx, req.Principal); err != nil {
		return models.Submission{}, err
	}

	sub, err := e.pending(ctx, req.SubmissionID)
	if err != nil {
		return models.Submission{}, err
	}
	reviewed, err := e.apply(ctx, sub, req.Principal.Wallet, req.Decision, cleanNotes(req.Notes), req.AdjustedFLB)
	if err != nil {
		return models.Submission{}, err
	}
	return reviewed, nil
}

type BatchReviewRequest struct {
	SubmissionIDs []string
	Principal     models.Principal
	Decision      models.Decision
	Notes         *string
}

// BatchReviewSubmissions applies one decision to many submissions. Each item
// commits on its own; ids that are unknown or no longer PENDING are skipped.
// The returned count is the number of submissions actually transitioned.
func (e *Engine) BatchReviewSubmissions(ctx context.Context, req BatchReviewRequest) (int, error) {
	if !req.Decision.Valid() {
		return 0, apperr.Validation("decision must be APPROVED or REJECTED")
	}
	if len(req.SubmissionIDs) == 0 {
		return 0, nil
	}
	if _, err := e.validators.Authorize(ctx, req.Principal); err != nil {
		return 0, err
	}
	notes := cleanNotes(req.Notes)

	reviewed := 0
	for _, id := range req.SubmissionIDs {
		if err := ctx.Err(); err != nil {
			return reviewed, err
		}
		sub, err := e.pending(ctx, id)
		if err == nil {
			_, err = e.apply(ctx, sub, req.Principal.Wallet, req.Decision, notes, nil)
		}
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidState) {
				e.logger.Warn("batch review skipped submission", "submission_id", id, "reason", err.Error())
				continue
			}
			return reviewed, err
		}
		reviewed++
	}
	e.logger.Info("batch review completed",
		"validator", req.Principal.Wallet,
		"decision", req.Decision,
		"requested", len(req.SubmissionIDs),
		"reviewed", reviewed,
	)
	return reviewed, nil
}

func (e *Engine) pending(ctx context.Context, id string) (models.Submission, error) {
	sub, err := e.subs.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Submission{}, apperr.NotFound("submission %s", id)
		}
		return models.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	if sub.Status != models.StatusPending {
		return models.Submission{}, apperr.InvalidState("submission %s is %s", id, sub.Status)
	}
	return sub, nil
}

func (e *Engine) apply(ctx context.Context, sub models.Submission, wallet string, decision models.Decision, notes *string, adjusted *float64) (models.Submission, error) {
	var granted *float64
	if decision == models.DecisionApproved {
		amount := sub.RequestedFLB
		if adjusted != nil {
			amount = *adjusted
		}
		granted = &amount
	}
	reviewed, err := e.subs.ApplyReview(ctx, store.ReviewInput{
		SubmissionID:    sub.ID,
		ValidatorWallet: wallet,
		Decision:        decision,
		Notes:           notes,
		GrantedFLB:      granted,
		ReviewedAt:      e.now(),
		EventID:         uuid.New().String(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotPending):
			return models.Submission{}, apperr.InvalidState("submission %s was reviewed concurrently", sub.ID)
		case errors.Is(err, store.ErrNotFound):
			return models.Submission{}, apperr.NotFound("submission %s", sub.ID)
		case errors.Is(err, store.ErrInactive):
			return models.Submission{}, apperr.Unauthorized("validator %s is not active", wallet)
		case errors.Is(err, store.ErrUnknownValidator):
			return models.Submission{}, apperr.Unauthorized("%s is not a registered validator", wallet)
		}
		return models.Submission{}, fmt.Errorf("apply review: %w", err)
	}
	attrs := []any{
		"submission_id", reviewed.ID,
		"validator", wallet,
		"decision", decision,
		"requested_flb", reviewed.RequestedFLB,
	}
	if granted != nil {
		attrs = append(attrs, "granted_flb", *granted)
	}
	e.logger.Info("submission reviewed", attrs...)
	return reviewed, nil
}

func cleanNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
