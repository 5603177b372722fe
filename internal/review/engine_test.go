package review

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flameborn/validator/internal/apperr"
	"github.com/flameborn/validator/internal/catalog"
	"github.com/flameborn/validator/internal/directory"
	"github.com/flameborn/validator/internal/models"
	"github.com/flameborn/validator/internal/store"
)

type fixture struct {
	engine *Engine
	store  *store.MemoryStore
	dir    *directory.Directory
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	dir := directory.New(st, 0, nil)
	cat := catalog.New(st, nil)
	f := &fixture{
		store: st,
		dir:   dir,
		now:   time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	}
	f.engine = New(st, cat, dir, nil)
	f.engine.now = func() time.Time { return f.now }

	ctx := context.Background()
	_, err := dir.CreateValidator(ctx, directory.RegisterRequest{Wallet: "0xval", Role: models.RoleValidator, Specializations: []string{"health"}})
	require.NoError(t, err)
	_, err = cat.CreateCourse(ctx, catalog.CourseRequest{ID: "course_3", Name: "Malaria Prevention", Description: "Evidence-based prevention strategies", RewardAmount: 50, Duration: 30})
	require.NoError(t, err)
	inactive := false
	_, err = cat.CreateCourse(ctx, catalog.CourseRequest{ID: "course_old", Name: "Old", Description: "Retired", RewardAmount: 10, Duration: 5, Active: &inactive})
	require.NoError(t, err)
	return f
}

func (f *fixture) submit(t *testing.T, flb float64) models.Submission {
	t.Helper()
	sub, err := f.engine.CreateSubmission(context.Background(), SubmissionRequest{
		SubmitterID:    "0xlearner",
		SubmissionType: models.SubmissionProjectSubmission,
		Title:          "Clinic map",
		Description:    "Mapped clinics in the district",
		RequestedFLB:   &flb,
	})
	require.NoError(t, err)
	return sub
}

var validator = models.Principal{Wallet: "0xval", Source: "claimed"}

func ptr[T any](v T) *T { return &v }

func TestPriorityFor(t *testing.T) {
	cases := []struct {
		flb  float64
		want models.Priority
	}{
		{0.01, models.PriorityLow},
		{50, models.PriorityLow},
		{50.01, models.PriorityMedium},
		{100, models.PriorityMedium},
		{100.5, models.PriorityHigh},
		{150, models.PriorityHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PriorityFor(tc.flb), "requestedFLB=%v", tc.flb)
	}
}

func TestCreateSubmissionHighPriorityPending(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 150)
	assert.Equal(t, models.PriorityHigh, sub.Priority)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Equal(t, f.now, sub.SubmittedAt)
	assert.Nil(t, sub.ReviewedAt)
	assert.Nil(t, sub.ReviewedBy)
	assert.NotEmpty(t, sub.ID)
}

func TestCreateSubmissionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := SubmissionRequest{
		SubmitterID:    "0xlearner",
		SubmissionType: models.SubmissionCommunityAction,
		Title:          "Cleanup",
		Description:    "Cleaned the market",
		RequestedFLB:   ptr(10.0),
	}

	cases := map[string]func(r *SubmissionRequest){
		"empty title":          func(r *SubmissionRequest) { r.Title = "" },
		"blank description":    func(r *SubmissionRequest) { r.Description = "   " },
		"zero reward":          func(r *SubmissionRequest) { r.RequestedFLB = ptr(0.0) },
		"negative reward":      func(r *SubmissionRequest) { r.RequestedFLB = ptr(-5.0) },
		"missing reward":       func(r *SubmissionRequest) { r.RequestedFLB = nil },
		"unknown type":         func(r *SubmissionRequest) { r.SubmissionType = "BOUNTY" },
		"missing submitter":    func(r *SubmissionRequest) { r.SubmitterID = "" },
		"bad evidence type":    func(r *SubmissionRequest) { r.EvidenceURL = "https://x"; r.EvidenceType = "AUDIO" },
		"evidence without url": func(r *SubmissionRequest) { r.EvidenceType = models.EvidenceImage },
		"course on non-course": func(r *SubmissionRequest) { r.CourseID = "course_3" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := base
			mutate(&req)
			_, err := f.engine.CreateSubmission(ctx, req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	subs, err := f.store.ListSubmissions(ctx, store.SubmissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestCreateCourseCompletionDefaultsReward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub, err := f.engine.CreateSubmission(ctx, SubmissionRequest{
		SubmitterID:    "0xlearner",
		SubmissionType: models.SubmissionCourseCompletion,
		CourseID:       "course_3",
		Title:          "Finished malaria course",
		Description:    "Completed all modules",
		EvidenceURL:    "https://example.org/cert.pdf",
		EvidenceType:   models.EvidenceDocument,
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, sub.RequestedFLB)
	assert.Equal(t, models.PriorityLow, sub.Priority)
	require.NotNil(t, sub.Course)
	assert.Equal(t, "Malaria Prevention", sub.Course.Name)
	require.NotNil(t, sub.EvidenceType)
	assert.Equal(t, models.EvidenceDocument, *sub.EvidenceType)

	_, err = f.engine.CreateSubmission(ctx, SubmissionRequest{
		SubmitterID: "0xlearner", SubmissionType: models.SubmissionCourseCompletion, CourseID: "course_missing",
		Title: "t", Description: "d",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.CreateSubmission(ctx, SubmissionRequest{
		SubmitterID: "0xlearner", SubmissionType: models.SubmissionCourseCompletion, CourseID: "course_old",
		Title: "t", Description: "d",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateCourseCompletionRejectsNonPositiveReward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, flb := range []float64{-500, 0} {
		_, err := f.engine.CreateSubmission(ctx, SubmissionRequest{
			SubmitterID:    "0xlearner",
			SubmissionType: models.SubmissionCourseCompletion,
			CourseID:       "course_3",
			Title:          "Finished malaria course",
			Description:    "Completed all modules",
			RequestedFLB:   ptr(flb),
		})
		assert.ErrorIs(t, err, apperr.ErrValidation, "requestedFLB=%v", flb)
	}

	subs, err := f.store.ListSubmissions(ctx, store.SubmissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, subs)

	sub, err := f.engine.CreateSubmission(ctx, SubmissionRequest{
		SubmitterID:    "0xlearner",
		SubmissionType: models.SubmissionCourseCompletion,
		CourseID:       "course_3",
		Title:          "Finished malaria course",
		Description:    "Completed all modules",
		RequestedFLB:   ptr(120.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 120.0, sub.RequestedFLB)
	assert.Equal(t, models.PriorityHigh, sub.Priority)
}

func TestCreateSubmissionIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	req := SubmissionRequest{
		SubmitterID:    "0xlearner",
		SubmissionType: models.SubmissionPeerReview,
		Title:          "Peer review",
		Description:    "Reviewed a project",
		RequestedFLB:   ptr(20.0),
		IdempotencyKey: "client-42",
	}
	first, err := f.engine.CreateSubmission(context.Background(), req)
	require.NoError(t, err)
	second, err := f.engine.CreateSubmission(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestReviewSubmissionAdjustedReward(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 50)
	f.now = f.now.Add(90 * time.Minute)

	reviewed, err := f.engine.ReviewSubmission(context.Background(), ReviewRequest{
		SubmissionID: sub.ID,
		Principal:    validator,
		Decision:     models.DecisionApproved,
		Notes:        ptr("good work"),
		AdjustedFLB:  ptr(30.0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.GrantedFLB)
	assert.Equal(t, 30.0, *reviewed.GrantedFLB)
	assert.Equal(t, 50.0, reviewed.RequestedFLB)
	assert.Equal(t, models.PriorityLow, reviewed.Priority)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "0xval", *reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, f.now, *reviewed.ReviewedAt)
	require.NotNil(t, reviewed.ReviewerNotes)
	assert.Equal(t, "good work", *reviewed.ReviewerNotes)
}

func TestReviewSubmissionAdjustedRewardMayExceedRequest(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 50)
	reviewed, err := f.engine.ReviewSubmission(context.Background(), ReviewRequest{
		SubmissionID: sub.ID, Principal: validator, Decision: models.DecisionApproved, AdjustedFLB: ptr(80.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, *reviewed.GrantedFLB)

	other := f.submit(t, 50)
	_, err = f.engine.ReviewSubmission(context.Background(), ReviewRequest{
		SubmissionID: other.ID, Principal: validator, Decision: models.DecisionApproved, AdjustedFLB: ptr(0.0),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRejectionIgnoresAdjustment(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 60)
	reviewed, err := f.engine.ReviewSubmission(context.Background(), ReviewRequest{
		SubmissionID: sub.ID,
		Principal:    validator,
		Decision:     models.DecisionRejected,
		AdjustedFLB:  ptr(-1.0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, reviewed.Status)
	assert.Nil(t, reviewed.GrantedFLB)

	events, err := f.store.ListPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].GrantedFLB)
	assert.Equal(t, models.EventSubmissionRejected, events[0].EventType)
}

func TestReviewTwiceFailsWithoutChangingRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.submit(t, 20)
	first, err := f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: sub.ID, Principal: validator, Decision: models.DecisionApproved})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	_, err = f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: sub.ID, Principal: validator, Decision: models.DecisionRejected, Notes: ptr("changed my mind")})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	stored, err := f.store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	p, err := f.dir.GetValidatorProfile(ctx, "0xval")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalReviewed)
}

func TestReviewPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.submit(t, 20)

	_, err := f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: "missing", Principal: validator, Decision: models.DecisionApproved})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: sub.ID, Principal: validator, Decision: "MAYBE"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: sub.ID, Principal: models.Principal{Wallet: "0xstranger"}, Decision: models.DecisionApproved})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.store.SetValidatorActive(ctx, "0xval", false)
	require.NoError(t, err)
	_, err = f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: sub.ID, Principal: validator, Decision: models.DecisionApproved})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	stored, err := f.store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.ReviewedAt)
	assert.Nil(t, stored.ReviewedBy)
}

func TestBatchReviewPartialSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t, 20)
	b := f.submit(t, 30)
	_, err := f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: b.ID, Principal: validator, Decision: models.DecisionApproved})
	require.NoError(t, err)

	ids := []string{a.ID, b.ID, "ghost"}
	count, err := f.engine.BatchReviewSubmissions(ctx, BatchReviewRequest{
		SubmissionIDs: ids,
		Principal:     validator,
		Decision:      models.DecisionRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Less(t, count, len(ids))

	gotA, err := f.store.GetSubmission(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, gotA.Status)
	gotB, err := f.store.GetSubmission(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, gotB.Status)

	p, err := f.dir.GetValidatorProfile(ctx, "0xval")
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalReviewed)
}

func TestBatchApprovalGrantsRequestedAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t, 20)
	b := f.submit(t, 120)

	count, err := f.engine.BatchReviewSubmissions(ctx, BatchReviewRequest{
		SubmissionIDs: []string{a.ID, b.ID},
		Principal:     validator,
		Decision:      models.DecisionApproved,
		Notes:         ptr("batch ok"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, want := range []models.Submission{a, b} {
		got, err := f.store.GetSubmission(ctx, want.ID)
		require.NoError(t, err)
		require.NotNil(t, got.GrantedFLB)
		assert.Equal(t, want.RequestedFLB, *got.GrantedFLB)
	}

	count, err = f.engine.BatchReviewSubmissions(ctx, BatchReviewRequest{Principal: validator, Decision: models.DecisionApproved})
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = f.engine.BatchReviewSubmissions(ctx, BatchReviewRequest{SubmissionIDs: []string{a.ID}, Principal: models.Principal{Wallet: "0xnobody"}, Decision: models.DecisionApproved})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

// deactivateAfterFirst turns the reviewer off once its first review lands.
type deactivateAfterFirst struct {
	*store.MemoryStore
	applied int
}

func (d *deactivateAfterFirst) ApplyReview(ctx context.Context, in store.ReviewInput) (models.Submission, error) {
	sub, err := d.MemoryStore.ApplyReview(ctx, in)
	if err != nil {
		return sub, err
	}
	d.applied++
	if d.applied == 1 {
		if _, err := d.MemoryStore.SetValidatorActive(ctx, in.ValidatorWallet, false); err != nil {
			return sub, err
		}
	}
	return sub, nil
}

func TestBatchStopsWhenReviewerDeactivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t, 20)
	b := f.submit(t, 30)
	c := f.submit(t, 40)

	repo := &deactivateAfterFirst{MemoryStore: f.store}
	engine := New(repo, f.engine.courses, f.dir, nil)
	engine.now = f.engine.now

	count, err := engine.BatchReviewSubmissions(ctx, BatchReviewRequest{
		SubmissionIDs: []string{a.ID, b.ID, c.ID},
		Principal:     validator,
		Decision:      models.DecisionApproved,
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 1, count)

	for id, want := range map[string]models.SubmissionStatus{a.ID: models.StatusApproved, b.ID: models.StatusPending, c.ID: models.StatusPending} {
		got, err := f.store.GetSubmission(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, id)
	}
	p, err := f.dir.GetValidatorProfile(ctx, "0xval")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalReviewed)
	assert.False(t, p.IsActive)
}

func TestApprovalRateRecomputation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	decisions := []models.Decision{
		models.DecisionApproved, models.DecisionRejected, models.DecisionApproved,
		models.DecisionApproved, models.DecisionRejected, models.DecisionApproved, models.DecisionApproved,
	}
	approved := 0
	for _, d := range decisions {
		sub := f.submit(t, 10)
		_, err := f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: sub.ID, Principal: validator, Decision: d})
		require.NoError(t, err)
		if d == models.DecisionApproved {
			approved++
		}
	}
	p, err := f.dir.GetValidatorProfile(ctx, "0xval")
	require.NoError(t, err)
	assert.Equal(t, len(decisions), p.TotalReviewed)
	assert.InDelta(t, float64(approved)/float64(len(decisions))*100, p.ApprovalRate, 1e-9)
	assert.Equal(t, models.DefaultReputation+len(decisions), p.Reputation)
}

func TestConcurrentReviewersOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.dir.CreateValidator(ctx, directory.RegisterRequest{Wallet: "0xother", Role: models.RoleSeniorValidator, Specializations: []string{}})
	require.NoError(t, err)
	sub := f.submit(t, 80)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, wallet := range []string{"0xval", "0xother"} {
		wg.Add(1)
		go func(i int, wallet string) {
			defer wg.Done()
			_, errs[i] = f.engine.ReviewSubmission(ctx, ReviewRequest{
				SubmissionID: sub.ID,
				Principal:    models.Principal{Wallet: wallet},
				Decision:     models.DecisionApproved,
			})
		}(i, wallet)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperr.ErrInvalidState)
			failures++
		}
	}
	assert.Equal(t, 1, failures)
}

func TestAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	high := f.submit(t, 150)
	f.submit(t, 75)
	low := f.submit(t, 10)
	f.submit(t, 5)

	f.now = f.now.Add(3 * time.Hour)
	_, err := f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: high.ID, Principal: validator, Decision: models.DecisionApproved})
	require.NoError(t, err)
	f.now = f.now.Add(2 * time.Hour)
	_, err = f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: low.ID, Principal: validator, Decision: models.DecisionRejected})
	require.NoError(t, err)

	counts, err := f.engine.GetSubmissionCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionCounts{Pending: 2, Approved: 1, Rejected: 1, Total: 4}, counts)

	buckets, err := f.engine.GetSubmissionsByPriority(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets.High)
	assert.Len(t, buckets.Medium, 1)
	assert.Len(t, buckets.Low, 1)

	stats, err := f.engine.GetValidatorStats(ctx, "0xval")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReviewed)
	assert.InDelta(t, 50.0, stats.ApprovalRate, 1e-9)
	assert.Equal(t, 4.0, stats.AvgReviewTime)
	assert.Equal(t, 2, stats.PendingCount)
	assert.Equal(t, 2, stats.TodayReviewed)

	unknown, err := f.engine.GetValidatorStats(ctx, "0xnobody")
	require.NoError(t, err)
	assert.Equal(t, models.ValidatorStats{PendingCount: 2}, unknown)

	_, err = f.engine.GetValidatorStats(ctx, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPriorityBucketsCoverWholeQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const total = store.MaxPageSize + 1
	for i := 0; i < total; i++ {
		flb := 10.0
		if i%2 == 0 {
			flb = 150
		}
		_, err := f.store.CreateSubmission(ctx, store.SubmissionInput{
			SubmitterID:    "0xlearner",
			SubmissionType: models.SubmissionCommunityAction,
			Title:          "Outreach",
			Description:    "Door to door screening",
			RequestedFLB:   flb,
			Priority:       PriorityFor(flb),
			SubmittedAt:    f.now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	buckets, err := f.engine.GetSubmissionsByPriority(ctx)
	require.NoError(t, err)
	assert.Len(t, buckets.High, 251)
	assert.Len(t, buckets.Low, 250)
	assert.Empty(t, buckets.Medium)
	assert.Equal(t, total, len(buckets.High)+len(buckets.Medium)+len(buckets.Low))
	assert.True(t, buckets.High[0].SubmittedAt.After(buckets.High[1].SubmittedAt))
}

func TestGetSubmissionsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t, 10)
	f.submit(t, 10)
	_, err := f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: a.ID, Principal: validator, Decision: models.DecisionApproved})
	require.NoError(t, err)

	mine, err := f.engine.GetSubmissions(ctx, SubmissionQuery{ValidatorWallet: "0xval"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	underReview, err := f.engine.GetSubmissions(ctx, SubmissionQuery{Status: models.StatusUnderReview})
	require.NoError(t, err)
	assert.Empty(t, underReview)

	_, err = f.engine.GetSubmissions(ctx, SubmissionQuery{Status: "DONE"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestValidatorAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.submit(t, 40)
	f.now = f.now.Add(10 * 24 * time.Hour)
	recent := f.submit(t, 60)
	f.now = f.now.Add(time.Hour)
	_, err := f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: recent.ID, Principal: validator, Decision: models.DecisionApproved, AdjustedFLB: ptr(55.0)})
	require.NoError(t, err)
	_, err = f.engine.ReviewSubmission(ctx, ReviewRequest{SubmissionID: old.ID, Principal: validator, Decision: models.DecisionRejected})
	require.NoError(t, err)

	week, err := f.engine.GetValidatorAnalytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.TimeframeWeek, week.Timeframe)
	assert.Contains(t, week.SubmissionStats, models.StatusCount{Status: models.StatusApproved, Count: 1})
	assert.Contains(t, week.SubmissionStats, models.StatusCount{Status: models.StatusRejected, Count: 0})
	assert.Equal(t, models.RewardDistribution{ApprovedFLB: 55, Count: 1}, week.RewardDistribution)
	require.Len(t, week.ValidatorPerformance, 1)
	assert.Equal(t, 2, week.ValidatorPerformance[0].Count)

	month, err := f.engine.GetValidatorAnalytics(ctx, models.TimeframeMonth)
	require.NoError(t, err)
	assert.Contains(t, month.SubmissionStats, models.StatusCount{Status: models.StatusRejected, Count: 1})

	_, err = f.engine.GetValidatorAnalytics(ctx, "year")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
