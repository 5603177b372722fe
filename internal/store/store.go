package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/flameborn/validator/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNotPending = errors.New("submission is not pending")
	ErrConflict   = errors.New("already exists")

	// ApplyReview re-checks the reviewer inside the write.
	ErrUnknownValidator = errors.New("validator not registered")
	ErrInactive         = errors.New("validator is not active")
)

// SubmissionRepository persists submissions. ApplyReview is the only way a
// submission leaves PENDING.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, in SubmissionInput) (models.Submission, error)
	GetSubmission(ctx context.Context, id string) (models.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	CountSubmissionsByStatus(ctx context.Context, since time.Time) (models.SubmissionCounts, error)
	ApplyReview(ctx context.Context, in ReviewInput) (models.Submission, error)

	ReviewerSummary(ctx context.Context, wallet string, todayStart time.Time) (ReviewerSummary, error)
	ReviewerPerformance(ctx context.Context, since time.Time) ([]models.ValidatorPerformance, error)
	RewardTotals(ctx context.Context, since time.Time) (models.RewardDistribution, error)
}

type ValidatorRepository interface {
	CreateValidator(ctx context.Context, in ValidatorInput) (models.ValidatorProfile, error)
	GetValidator(ctx context.Context, wallet string) (models.ValidatorProfile, error)
	SetValidatorActive(ctx context.Context, wallet string, active bool) (models.ValidatorProfile, error)
}

type CourseRepository interface {
	CreateCourse(ctx context.Context, in CourseInput) (models.Course, error)
	GetCourse(ctx context.Context, id string) (models.Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]models.Course, error)
}

// EventOutbox exposes review events that have not yet been delivered downstream.
type EventOutbox interface {
	ListPendingEvents(ctx context.Context, limit int) ([]models.ReviewEvent, error)
	MarkEventDelivered(ctx context.Context, id, archiveKey string, deliveredAt time.Time) error
	MarkEventFailed(ctx context.Context, id, msg string) error
}

type Store interface {
	SubmissionRepository
	ValidatorRepository
	CourseRepository
	EventOutbox
	Ping(ctx context.Context) error
}

type SubmissionInput struct {
	ID             string
	SubmitterID    string
	SubmissionType models.SubmissionType
	CourseID       *string
	Course         *models.CourseSummary
	Title          string
	Description    string
	EvidenceURL    *string
	EvidenceType   *models.EvidenceType
	RequestedFLB   float64
	Priority       models.Priority
	SubmittedAt    time.Time
	IdempotencyKey string
}

type SubmissionFilter struct {
	Status      models.SubmissionStatus
	ReviewedBy  string
	SubmitterID string
	Since       time.Time
	Limit       int
	Offset      int
}

// ReviewInput describes one review decision. GrantedFLB is nil on rejection.
type ReviewInput struct {
	SubmissionID    string
	ValidatorWallet string
	Decision        models.Decision
	Notes           *string
	GrantedFLB      *float64
	ReviewedAt      time.Time
	EventID         string
}

// ReviewerSummary aggregates the submissions a single validator has reviewed.
type ReviewerSummary struct {
	Reviewed       int
	Approved       int
	AvgReviewHours float64
	ReviewedSince  int
}

type ValidatorInput struct {
	Wallet          string
	Name            *string
	Role            models.ValidatorRole
	Specializations []string
	Reputation      int
	JoinedAt        time.Time
}

type CourseInput struct {
	ID           string
	Name         string
	Description  string
	RewardAmount float64
	Active       bool
	ContentHash  *string
	Language     string
	Duration     int
	Difficulty   models.Difficulty
	CreatedAt    time.Time
}

type CourseFilter struct {
	Language   string
	Difficulty models.Difficulty
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// MaxPageSize caps a single list call.
const MaxPageSize = 500

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func eventTypeFor(d models.Decision) string {
	if d == models.DecisionApproved {
		return models.EventSubmissionApproved
	}
	return models.EventSubmissionRejected
}

func nextReputation(current int) int {
	if current+1 > models.MaxReputation {
		return models.MaxReputation
	}
	return current + 1
}
