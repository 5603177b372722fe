package review

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flameborn/validator/internal/apperr"
	"github.com/flameborn/validator/internal/models"
	"github.com/flameborn/validator/internal/store"
)

type MockSubmissions struct {
	mock.Mock
}

func (m *MockSubmissions) CreateSubmission(ctx context.Context, in store.SubmissionInput) (models.Submission, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Submission), args.Error(1)
}
func (m *MockSubmissions) GetSubmission(ctx context.Context, id string) (models.Submission, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Submission), args.Error(1)
}
func (m *MockSubmissions) ListSubmissions(ctx context.Context, filter store.SubmissionFilter) ([]models.Submission, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Submission), args.Error(1)
}
func (m *MockSubmissions) CountSubmissionsByStatus(ctx context.Context, since time.Time) (models.SubmissionCounts, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(models.SubmissionCounts), args.Error(1)
}
func (m *MockSubmissions) ApplyReview(ctx context.Context, in store.ReviewInput) (models.Submission, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Submission), args.Error(1)
}
func (m *MockSubmissions) ReviewerSummary(ctx context.Context, wallet string, todayStart time.Time) (store.ReviewerSummary, error) {
	args := m.Called(ctx, wallet, todayStart)
	return args.Get(0).(store.ReviewerSummary), args.Error(1)
}
func (m *MockSubmissions) ReviewerPerformance(ctx context.Context, since time.Time) ([]models.ValidatorPerformance, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]models.ValidatorPerformance), args.Error(1)
}
func (m *MockSubmissions) RewardTotals(ctx context.Context, since time.Time) (models.RewardDistribution, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(models.RewardDistribution), args.Error(1)
}

type allowAll struct{}

func (allowAll) Authorize(ctx context.Context, p models.Principal) (models.ValidatorProfile, error) {
	return models.ValidatorProfile{Wallet: p.Wallet, Role: models.RoleValidator, IsActive: true}, nil
}

func (allowAll) GetValidatorProfile(ctx context.Context, wallet string) (models.ValidatorProfile, error) {
	return models.ValidatorProfile{}, apperr.NotFound("validator %s", wallet)
}

func pending(id string, flb float64) models.Submission {
	return models.Submission{ID: id, RequestedFLB: flb, Status: models.StatusPending, Priority: PriorityFor(flb)}
}

func TestReviewLostRaceMapsToInvalidState(t *testing.T) {
	subs := new(MockSubmissions)
	engine := New(subs, nil, allowAll{}, nil)

	subs.On("GetSubmission", mock.Anything, "sub-1").Return(pending("sub-1", 40), nil)
	subs.On("ApplyReview", mock.Anything, mock.MatchedBy(func(in store.ReviewInput) bool {
		return in.SubmissionID == "sub-1" && in.GrantedFLB != nil && *in.GrantedFLB == 40 && in.EventID != ""
	})).Return(models.Submission{}, store.ErrNotPending)

	_, err := engine.ReviewSubmission(context.Background(), ReviewRequest{
		SubmissionID: "sub-1",
		Principal:    models.Principal{Wallet: "0xval"},
		Decision:     models.DecisionApproved,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	subs.AssertExpectations(t)
}

func TestBatchStopsOnUnexpectedError(t *testing.T) {
	subs := new(MockSubmissions)
	engine := New(subs, nil, allowAll{}, nil)
	boom := errors.New("connection reset")

	subs.On("GetSubmission", mock.Anything, "a").Return(pending("a", 10), nil)
	subs.On("GetSubmission", mock.Anything, "b").Return(models.Submission{}, store.ErrNotFound)
	subs.On("GetSubmission", mock.Anything, "c").Return(pending("c", 10), nil)
	subs.On("ApplyReview", mock.Anything, mock.MatchedBy(func(in store.ReviewInput) bool { return in.SubmissionID == "a" })).
		Return(models.Submission{ID: "a", Status: models.StatusRejected}, nil)
	subs.On("ApplyReview", mock.Anything, mock.MatchedBy(func(in store.ReviewInput) bool { return in.SubmissionID == "c" })).
		Return(models.Submission{}, boom)

	count, err := engine.BatchReviewSubmissions(context.Background(), BatchReviewRequest{
		SubmissionIDs: []string{"a", "b", "c", "d"},
		Principal:     models.Principal{Wallet: "0xval"},
		Decision:      models.DecisionRejected,
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count)
	subs.AssertNotCalled(t, "GetSubmission", mock.Anything, "d")
}

func TestReviewerRejectedAtWriteIsUnauthorized(t *testing.T) {
	for name, storeErr := range map[string]error{
		"inactive":     fmt.Errorf("validator 0xval: %w", store.ErrInactive),
		"unregistered": fmt.Errorf("validator 0xval: %w", store.ErrUnknownValidator),
	} {
		t.Run(name, func(t *testing.T) {
			subs := new(MockSubmissions)
			engine := New(subs, nil, allowAll{}, nil)
			subs.On("GetSubmission", mock.Anything, "a").Return(pending("a", 10), nil)
			subs.On("GetSubmission", mock.Anything, "b").Return(pending("b", 10), nil)
			subs.On("ApplyReview", mock.Anything, mock.Anything).Return(models.Submission{}, storeErr)

			_, err := engine.ReviewSubmission(context.Background(), ReviewRequest{
				SubmissionID: "a",
				Principal:    models.Principal{Wallet: "0xval"},
				Decision:     models.DecisionApproved,
			})
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			assert.NotErrorIs(t, err, apperr.ErrNotFound)

			count, err := engine.BatchReviewSubmissions(context.Background(), BatchReviewRequest{
				SubmissionIDs: []string{"a", "b"},
				Principal:     models.Principal{Wallet: "0xval"},
				Decision:      models.DecisionApproved,
			})
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			assert.Equal(t, 0, count)
			subs.AssertNotCalled(t, "GetSubmission", mock.Anything, "b")
		})
	}
}

func TestRejectedReviewCarriesNoGrant(t *testing.T) {
	subs := new(MockSubmissions)
	engine := New(subs, nil, allowAll{}, nil)

	subs.On("GetSubmission", mock.Anything, "sub-9").Return(pending("sub-9", 90), nil)
	subs.On("ApplyReview", mock.Anything, mock.MatchedBy(func(in store.ReviewInput) bool {
		return in.GrantedFLB == nil && in.Decision == models.DecisionRejected && in.Notes == nil
	})).Return(models.Submission{ID: "sub-9", Status: models.StatusRejected}, nil)

	_, err := engine.ReviewSubmission(context.Background(), ReviewRequest{
		SubmissionID: "sub-9",
		Principal:    models.Principal{Wallet: "0xval"},
		Decision:     models.DecisionRejected,
		Notes:        ptr("   "),
		AdjustedFLB:  ptr(500.0),
	})
	require.NoError(t, err)
	subs.AssertExpectations(t)
}

func TestPriorityBucketsPageThroughPending(t *testing.T) {
	subs := new(MockSubmissions)
	engine := New(subs, nil, allowAll{}, nil)

	first := make([]models.Submission, store.MaxPageSize)
	for i := range first {
		first[i] = pending(fmt.Sprintf("sub-%d", i), 20)
	}
	first[0] = pending("sub-0", 200)
	subs.On("ListSubmissions", mock.Anything, store.SubmissionFilter{Status: models.StatusPending, Limit: store.MaxPageSize}).
		Return(first, nil).Once()
	subs.On("ListSubmissions", mock.Anything, store.SubmissionFilter{Status: models.StatusPending, Limit: store.MaxPageSize, Offset: store.MaxPageSize}).
		Return([]models.Submission{first[store.MaxPageSize-1], pending("sub-last", 75)}, nil).Once()

	buckets, err := engine.GetSubmissionsByPriority(context.Background())
	require.NoError(t, err)
	assert.Len(t, buckets.High, 1)
	assert.Len(t, buckets.Medium, 1)
	assert.Len(t, buckets.Low, store.MaxPageSize-1)
	subs.AssertExpectations(t)
}
