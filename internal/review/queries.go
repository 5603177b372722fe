package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/flameborn/validator/internal/apperr"
	"github.com/flameborn/validator/internal/models"
	"github.com/flameborn/validator/internal/store"
)

type SubmissionQuery struct {
	Status          models.SubmissionStatus
	ValidatorWallet string
	SubmitterID     string
	Limit           int
}

func (e *Engine) GetSubmissions(ctx context.Context, q SubmissionQuery) ([]models.Submission, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", q.Status)
	}
	if q.Limit < 0 {
		return nil, apperr.Validation("limit must not be negative")
	}
	return e.subs.ListSubmissions(ctx, storeFilter(q))
}

func (e *Engine) GetSubmissionCounts(ctx context.Context) (models.SubmissionCounts, error) {
	counts, err := e.subs.CountSubmissionsByStatus(ctx, time.Time{})
	if err != nil {
		return models.SubmissionCounts{}, fmt.Errorf("count submissions: %w", err)
	}
	return counts, nil
}

// GetSubmissionsByPriority buckets the PENDING queue by priority, newest first
// within each bucket.
func (e *Engine) GetSubmissionsByPriority(ctx context.Context) (models.PrioritizedSubmissions, error) {
	var (
		pending []models.Submission
		seen    = map[string]bool{}
	)
	for offset := 0; ; offset += store.MaxPageSize {
		page, err := e.subs.ListSubmissions(ctx, store.SubmissionFilter{
			Status: models.StatusPending,
			Limit:  store.MaxPageSize,
			Offset: offset,
		})
		if err != nil {
			return models.PrioritizedSubmissions{}, fmt.Errorf("list pending: %w", err)
		}
		for _, sub := range page {
			// A submission created between pages pushes rows onto the next one.
			if !seen[sub.ID] {
				seen[sub.ID] = true
				pending = append(pending, sub)
			}
		}
		if len(page) < store.MaxPageSize {
			break
		}
	}
	return Partition(pending), nil
}

func (e *Engine) GetValidatorStats(ctx context.Context, wallet string) (models.ValidatorStats, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return models.ValidatorStats{}, apperr.Validation("wallet is required")
	}
	now := e.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	summary, err := e.subs.ReviewerSummary(ctx, wallet, todayStart)
	if err != nil {
		return models.ValidatorStats{}, fmt.Errorf("reviewer summary: %w", err)
	}
	counts, err := e.subs.CountSubmissionsByStatus(ctx, time.Time{})
	if err != nil {
		return models.ValidatorStats{}, fmt.Errorf("count submissions: %w", err)
	}

	stats := models.ValidatorStats{
		TotalReviewed: summary.Reviewed,
		AvgReviewTime: round2(summary.AvgReviewHours),
		PendingCount:  counts.Pending,
		TodayReviewed: summary.ReviewedSince,
	}
	if summary.Reviewed > 0 {
		stats.ApprovalRate = float64(summary.Approved) * 100 / float64(summary.Reviewed)
	}

	// The profile counters are authoritative when the wallet is registered.
	profile, err := e.validators.GetValidatorProfile(ctx, wallet)
	switch {
	case err == nil:
		stats.TotalReviewed = profile.TotalReviewed
		stats.ApprovalRate = profile.ApprovalRate
	case errors.Is(err, apperr.ErrNotFound):
	default:
		return models.ValidatorStats{}, err
	}
	return stats, nil
}

func (e *Engine) GetValidatorAnalytics(ctx context.Context, timeframe models.Timeframe) (models.ValidatorAnalytics, error) {
	if timeframe == "" {
		timeframe = models.TimeframeWeek
	}
	window, ok := timeframe.Duration()
	if !ok {
		return models.ValidatorAnalytics{}, apperr.Validation("timeframe must be day, week or month")
	}
	since := e.now().Add(-window)

	counts, err := e.subs.CountSubmissionsByStatus(ctx, since)
	if err != nil {
		return models.ValidatorAnalytics{}, fmt.Errorf("count submissions: %w", err)
	}
	perf, err := e.subs.ReviewerPerformance(ctx, since)
	if err != nil {
		return models.ValidatorAnalytics{}, fmt.Errorf("reviewer performance: %w", err)
	}
	for i := range perf {
		perf[i].AvgReviewHours = round2(perf[i].AvgReviewHours)
	}
	rewards, err := e.subs.RewardTotals(ctx, since)
	if err != nil {
		return models.ValidatorAnalytics{}, fmt.Errorf("reward totals: %w", err)
	}

	return models.ValidatorAnalytics{
		Timeframe: timeframe,
		Since:     since,
		SubmissionStats: []models.StatusCount{
			{Status: models.StatusPending, Count: counts.Pending},
			{Status: models.StatusUnderReview, Count: counts.UnderReview},
			{Status: models.StatusApproved, Count: counts.Approved},
			{Status: models.StatusRejected, Count: counts.Rejected},
		},
		ValidatorPerformance: perf,
		RewardDistribution:   rewards,
	}, nil
}

func storeFilter(q SubmissionQuery) store.SubmissionFilter {
	return store.SubmissionFilter{
		Status:      q.Status,
		ReviewedBy:  strings.TrimSpace(q.ValidatorWallet),
		SubmitterID: strings.TrimSpace(q.SubmitterID),
		Limit:       q.Limit,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
