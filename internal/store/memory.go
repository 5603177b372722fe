package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flameborn/validator/internal/models"
)

type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]models.Submission
	idempotency map[string]string
	validators  map[string]models.ValidatorProfile
	courses     map[string]models.Course
	events      []models.ReviewEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: map[string]models.Submission{},
		idempotency: map[string]string{},
		validators:  map[string]models.ValidatorProfile{},
		courses:     map[string]models.Course{},
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) CreateSubmission(ctx context.Context, in SubmissionInput) (models.Submission, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.SubmittedAt.IsZero() {
		in.SubmittedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.IdempotencyKey != "" {
		if id, ok := m.idempotency[in.IdempotencyKey]; ok {
			return m.submissions[id], nil
		}
	}
	if _, ok := m.submissions[in.ID]; ok {
		return models.Submission{}, ErrConflict
	}
	sub := models.Submission{
		ID:             in.ID,
		SubmitterID:    in.SubmitterID,
		SubmissionType: in.SubmissionType,
		CourseID:       in.CourseID,
		Course:         in.Course,
		Title:          in.Title,
		Description:    in.Description,
		EvidenceURL:    in.EvidenceURL,
		EvidenceType:   in.EvidenceType,
		RequestedFLB:   in.RequestedFLB,
		Status:         models.StatusPending,
		Priority:       in.Priority,
		SubmittedAt:    in.SubmittedAt,
		IdempotencyKey: in.IdempotencyKey,
		Version:        1,
	}
	m.submissions[sub.ID] = sub
	if in.IdempotencyKey != "" {
		m.idempotency[in.IdempotencyKey] = sub.ID
	}
	return sub, nil
}

func (m *MemoryStore) GetSubmission(ctx context.Context, id string) (models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, ErrNotFound
	}
	return sub, nil
}

func (m *MemoryStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subs := []models.Submission{}
	for _, sub := range m.submissions {
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		if filter.ReviewedBy != "" && (sub.ReviewedBy == nil || *sub.ReviewedBy != filter.ReviewedBy) {
			continue
		}
		if filter.SubmitterID != "" && sub.SubmitterID != filter.SubmitterID {
			continue
		}
		if !filter.Since.IsZero() && sub.SubmittedAt.Before(filter.Since) {
			continue
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(subs) {
			return []models.Submission{}, nil
		}
		subs = subs[filter.Offset:]
	}
	if limit := normalizeLimit(filter.Limit); len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (m *MemoryStore) CountSubmissionsByStatus(ctx context.Context, since time.Time) (models.SubmissionCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var counts models.SubmissionCounts
	for _, sub := range m.submissions {
		if sub.SubmittedAt.Before(since) {
			continue
		}
		counts.Add(sub.Status, 1)
	}
	return counts, nil
}

func (m *MemoryStore) ApplyReview(ctx context.Context, in ReviewInput) (models.Submission, error) {
	if in.EventID == "" {
		in.EventID = uuid.New().String()
	}
	if in.ReviewedAt.IsZero() {
		in.ReviewedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submissions[in.SubmissionID]
	if !ok {
		return models.Submission{}, ErrNotFound
	}
	if sub.Status != models.StatusPending {
		return models.Submission{}, ErrNotPending
	}
	profile, ok := m.validators[in.ValidatorWallet]
	if !ok {
		return models.Submission{}, ErrUnknownValidator
	}
	if !profile.IsValidator() {
		return models.Submission{}, ErrInactive
	}

	reviewedAt := in.ReviewedAt
	reviewer := in.ValidatorWallet
	sub.Status = in.Decision.Status()
	sub.ReviewedAt = &reviewedAt
	sub.ReviewedBy = &reviewer
	sub.ReviewerNotes = in.Notes
	sub.GrantedFLB = in.GrantedFLB
	sub.Version++

	profile.TotalReviewed++
	if in.Decision == models.DecisionApproved {
		profile.ApprovedCount++
	}
	profile.ApprovalRate = float64(profile.ApprovedCount) * 100 / float64(profile.TotalReviewed)
	profile.Reputation = nextReputation(profile.Reputation)

	m.submissions[sub.ID] = sub
	m.validators[profile.Wallet] = profile
	m.events = append(m.events, newReviewEvent(sub, in))
	return sub, nil
}

func (m *MemoryStore) reviewedBy(pred func(models.Submission) bool) []models.Submission {
	var out []models.Submission
	for _, sub := range m.submissions {
		if sub.ReviewedAt == nil || sub.ReviewedBy == nil {
			continue
		}
		if pred(sub) {
			out = append(out, sub)
		}
	}
	return out
}

func reviewHours(sub models.Submission) float64 {
	return sub.ReviewedAt.Sub(sub.SubmittedAt).Hours()
}

func (m *MemoryStore) ReviewerSummary(ctx context.Context, wallet string, todayStart time.Time) (ReviewerSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		sum   ReviewerSummary
		hours float64
	)
	for _, sub := range m.reviewedBy(func(s models.Submission) bool { return *s.ReviewedBy == wallet }) {
		sum.Reviewed++
		if sub.Status == models.StatusApproved {
			sum.Approved++
		}
		if !sub.ReviewedAt.Before(todayStart) {
			sum.ReviewedSince++
		}
		hours += reviewHours(sub)
	}
	if sum.Reviewed > 0 {
		sum.AvgReviewHours = hours / float64(sum.Reviewed)
	}
	return sum, nil
}

func (m *MemoryStore) ReviewerPerformance(ctx context.Context, since time.Time) ([]models.ValidatorPerformance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byReviewer := map[string]*models.ValidatorPerformance{}
	hours := map[string]float64{}
	for _, sub := range m.reviewedBy(func(s models.Submission) bool { return !s.ReviewedAt.Before(since) }) {
		p, ok := byReviewer[*sub.ReviewedBy]
		if !ok {
			p = &models.ValidatorPerformance{ReviewedBy: *sub.ReviewedBy}
			byReviewer[*sub.ReviewedBy] = p
		}
		p.Count++
		hours[*sub.ReviewedBy] += reviewHours(sub)
	}
	perf := make([]models.ValidatorPerformance, 0, len(byReviewer))
	for wallet, p := range byReviewer {
		p.AvgReviewHours = hours[wallet] / float64(p.Count)
		perf = append(perf, *p)
	}
	sort.Slice(perf, func(i, j int) bool {
		if perf[i].Count == perf[j].Count {
			return perf[i].ReviewedBy < perf[j].ReviewedBy
		}
		return perf[i].Count > perf[j].Count
	})
	return perf, nil
}

func (m *MemoryStore) RewardTotals(ctx context.Context, since time.Time) (models.RewardDistribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var dist models.RewardDistribution
	for _, sub := range m.reviewedBy(func(s models.Submission) bool {
		return s.Status == models.StatusApproved && !s.ReviewedAt.Before(since)
	}) {
		dist.Count++
		if sub.GrantedFLB != nil {
			dist.ApprovedFLB += *sub.GrantedFLB
		}
	}
	return dist, nil
}

func (m *MemoryStore) CreateValidator(ctx context.Context, in ValidatorInput) (models.ValidatorProfile, error) {
	if in.JoinedAt.IsZero() {
		in.JoinedAt = time.Now().UTC()
	}
	if in.Reputation <= 0 {
		in.Reputation = models.DefaultReputation
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.validators[in.Wallet]; ok {
		return models.ValidatorProfile{}, ErrConflict
	}
	specs := append([]string{}, in.Specializations...)
	p := models.ValidatorProfile{
		Wallet:          in.Wallet,
		Name:            in.Name,
		Role:            in.Role,
		Specializations: specs,
		Reputation:      in.Reputation,
		IsActive:        true,
		JoinedAt:        in.JoinedAt,
	}
	m.validators[p.Wallet] = p
	return p, nil
}

func (m *MemoryStore) GetValidator(ctx context.Context, wallet string) (models.ValidatorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.validators[wallet]
	if !ok {
		return models.ValidatorProfile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) SetValidatorActive(ctx context.Context, wallet string, active bool) (models.ValidatorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.validators[wallet]
	if !ok {
		return models.ValidatorProfile{}, ErrNotFound
	}
	p.IsActive = active
	m.validators[wallet] = p
	return p, nil
}

func (m *MemoryStore) CreateCourse(ctx context.Context, in CourseInput) (models.Course, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[in.ID]; ok {
		return models.Course{}, ErrConflict
	}
	c := models.Course{
		ID:           in.ID,
		Name:         in.Name,
		Description:  in.Description,
		RewardAmount: in.RewardAmount,
		Active:       in.Active,
		ContentHash:  in.ContentHash,
		Language:     in.Language,
		Duration:     in.Duration,
		Difficulty:   in.Difficulty,
		CreatedAt:    in.CreatedAt,
	}
	m.courses[c.ID] = c
	return c, nil
}

func (m *MemoryStore) GetCourse(ctx context.Context, id string) (models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return models.Course{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryStore) ListCourses(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	courses := []models.Course{}
	for _, c := range m.courses {
		if filter.Language != "" && c.Language != filter.Language {
			continue
		}
		if filter.Difficulty != "" && c.Difficulty != filter.Difficulty {
			continue
		}
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].ID < courses[j].ID
		}
		return courses[i].CreatedAt.Before(courses[j].CreatedAt)
	})
	return courses, nil
}

func (m *MemoryStore) ListPendingEvents(ctx context.Context, limit int) ([]models.ReviewEvent, error) {
	limit = normalizeLimit(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := []models.ReviewEvent{}
	for _, ev := range m.events {
		if ev.DeliveredAt != nil {
			continue
		}
		events = append(events, ev)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MemoryStore) MarkEventDelivered(ctx context.Context, id, archiveKey string, deliveredAt time.Time) error {
	return m.updateEvent(id, func(ev *models.ReviewEvent) {
		ev.Attempts++
		ev.LastError = nil
		ev.DeliveredAt = &deliveredAt
		if archiveKey != "" {
			ev.ArchiveKey = &archiveKey
		}
	})
}

func (m *MemoryStore) MarkEventFailed(ctx context.Context, id, msg string) error {
	return m.updateEvent(id, func(ev *models.ReviewEvent) {
		ev.Attempts++
		ev.LastError = &msg
	})
}

func (m *MemoryStore) updateEvent(id string, fn func(*models.ReviewEvent)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID == id {
			fn(&m.events[i])
			return nil
		}
	}
	return ErrNotFound
}
