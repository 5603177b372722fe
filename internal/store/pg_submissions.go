package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flameborn/validator/internal/models"
)

const submissionColumns = `id, submitter_id, submission_type, course_id, course_name, course_reward, title, description,
		evidence_url, evidence_type, requested_flb, granted_flb, status, priority, submitted_at,
		reviewed_at, reviewed_by, reviewer_notes, idempotency_key, version`

func scanSubmission(row rowScanner) (models.Submission, error) {
	var (
		sub            models.Submission
		courseID       sql.NullString
		courseName     sql.NullString
		courseReward   sql.NullFloat64
		evidenceURL    sql.NullString
		evidenceType   sql.NullString
		grantedFLB     sql.NullFloat64
		reviewedAt     sql.NullTime
		reviewedBy     sql.NullString
		reviewerNotes  sql.NullString
		idempotencyKey sql.NullString
	)
	if err := row.Scan(
		&sub.ID,
		&sub.SubmitterID,
		&sub.SubmissionType,
		&courseID,
		&courseName,
		&courseReward,
		&sub.Title,
		&sub.Description,
		&evidenceURL,
		&evidenceType,
		&sub.RequestedFLB,
		&grantedFLB,
		&sub.Status,
		&sub.Priority,
		&sub.SubmittedAt,
		&reviewedAt,
		&reviewedBy,
		&reviewerNotes,
		&idempotencyKey,
		&sub.Version,
	); err != nil {
		return models.Submission{}, err
	}
	if courseID.Valid {
		v := courseID.String
		sub.CourseID = &v
	}
	if courseName.Valid {
		sub.Course = &models.CourseSummary{Name: courseName.String, RewardAmount: courseReward.Float64}
	}
	if evidenceURL.Valid {
		v := evidenceURL.String
		sub.EvidenceURL = &v
	}
	if evidenceType.Valid {
		v := models.EvidenceType(evidenceType.String)
		sub.EvidenceType = &v
	}
	if grantedFLB.Valid {
		v := grantedFLB.Float64
		sub.GrantedFLB = &v
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		sub.ReviewedAt = &t
	}
	if reviewedBy.Valid {
		v := reviewedBy.String
		sub.ReviewedBy = &v
	}
	if reviewerNotes.Valid {
		v := reviewerNotes.String
		sub.ReviewerNotes = &v
	}
	sub.IdempotencyKey = idempotencyKey.String
	return sub, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *PGStore) CreateSubmission(ctx context.Context, in SubmissionInput) (models.Submission, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.SubmittedAt.IsZero() {
		in.SubmittedAt = time.Now().UTC()
	}
	var (
		courseName   sql.NullString
		courseReward sql.NullFloat64
		evidenceType sql.NullString
	)
	if in.Course != nil {
		courseName = sql.NullString{String: in.Course.Name, Valid: true}
		courseReward = sql.NullFloat64{Float64: in.Course.RewardAmount, Valid: true}
	}
	if in.EvidenceType != nil {
		evidenceType = sql.NullString{String: string(*in.EvidenceType), Valid: true}
	}
	query := `
		INSERT INTO submissions (id, submitter_id, submission_type, course_id, course_name, course_reward, title, description,
			evidence_url, evidence_type, requested_flb, status, priority, submitted_at, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'PENDING',$12,$13,$14)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING ` + submissionColumns
	row := s.db.QueryRowContext(ctx, query,
		in.ID, in.SubmitterID, in.SubmissionType, in.CourseID, courseName, courseReward, in.Title, in.Description,
		in.EvidenceURL, evidenceType, in.RequestedFLB, in.Priority, in.SubmittedAt, nullString(in.IdempotencyKey))
	sub, err := scanSubmission(row)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, sql.ErrNoRows) || in.IdempotencyKey == "" {
		return models.Submission{}, fmt.Errorf("insert submission: %w", err)
	}

	// The key already exists: hand back the submission it created.
	existing, err := scanSubmission(s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE idempotency_key=$1`, in.IdempotencyKey))
	if err != nil {
		return models.Submission{}, fmt.Errorf("get submission by idempotency key: %w", err)
	}
	return existing, nil
}

func (s *PGStore) GetSubmission(ctx context.Context, id string) (models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id=$1`
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Submission{}, ErrNotFound
		}
		return models.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (s *PGStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.ReviewedBy != "" {
		query += fmt.Sprintf(" AND reviewed_by = $%d", argPos)
		args = append(args, filter.ReviewedBy)
		argPos++
	}
	if filter.SubmitterID != "" {
		query += fmt.Sprintf(" AND submitter_id = $%d", argPos)
		args = append(args, filter.SubmitterID)
		argPos++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND submitted_at >= $%d", argPos)
		args = append(args, filter.Since)
		argPos++
	}
	query += " ORDER BY submitted_at DESC, id"
	query += fmt.Sprintf(" LIMIT $%d", argPos)
	args = append(args, normalizeLimit(filter.Limit))
	if filter.Offset > 0 {
		argPos++
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

func (s *PGStore) CountSubmissionsByStatus(ctx context.Context, since time.Time) (models.SubmissionCounts, error) {
	const query = `SELECT status, COUNT(*) FROM submissions WHERE submitted_at >= $1 GROUP BY status`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return models.SubmissionCounts{}, fmt.Errorf("count submissions: %w", err)
	}
	defer rows.Close()

	var counts models.SubmissionCounts
	for rows.Next() {
		var (
			status models.SubmissionStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return models.SubmissionCounts{}, fmt.Errorf("scan count: %w", err)
		}
		counts.Add(status, n)
	}
	if err := rows.Err(); err != nil {
		return models.SubmissionCounts{}, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// ApplyReview transitions a PENDING submission, updates the reviewer's
// aggregates and enqueues a review event in one transaction. The conditional
// update makes concurrent reviewers race on the row: exactly one wins and the
// rest see ErrNotPending.
func (s *PGStore) ApplyReview(ctx context.Context, in ReviewInput) (models.Submission, error) {
	if in.EventID == "" {
		in.EventID = uuid.New().String()
	}
	if in.ReviewedAt.IsZero() {
		in.ReviewedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Submission{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updateSubmission := `
		UPDATE submissions
		SET status=$2, reviewed_at=$3, reviewed_by=$4, reviewer_notes=$5, granted_flb=$6, version=version+1
		WHERE id=$1 AND status='PENDING'
		RETURNING ` + submissionColumns
	sub, err := scanSubmission(tx.QueryRowContext(ctx, updateSubmission,
		in.SubmissionID, in.Decision.Status(), in.ReviewedAt, in.ValidatorWallet, in.Notes, in.GrantedFLB))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Submission{}, fmt.Errorf("update submission: %w", err)
		}
		var status string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM submissions WHERE id=$1`, in.SubmissionID).Scan(&status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.Submission{}, ErrNotFound
			}
			return models.Submission{}, fmt.Errorf("get submission status: %w", err)
		}
		return models.Submission{}, ErrNotPending
	}

	approved := 0
	if in.Decision == models.DecisionApproved {
		approved = 1
	}
	const updateValidator = `
		UPDATE validators
		SET total_reviewed = total_reviewed + 1,
		    approved_count = approved_count + $2,
		    approval_rate = (approved_count + $2) * 100.0 / (total_reviewed + 1),
		    reputation = LEAST(reputation + 1, $3)
		WHERE wallet=$1 AND is_active
	`
	res, err := tx.ExecContext(ctx, updateValidator, in.ValidatorWallet, approved, models.MaxReputation)
	if err != nil {
		return models.Submission{}, fmt.Errorf("update validator aggregates: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Submission{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var active bool
		err := tx.QueryRowContext(ctx, `SELECT is_active FROM validators WHERE wallet=$1`, in.ValidatorWallet).Scan(&active)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Submission{}, fmt.Errorf("validator %s: %w", in.ValidatorWallet, ErrUnknownValidator)
		case err != nil:
			return models.Submission{}, fmt.Errorf("get validator status: %w", err)
		}
		return models.Submission{}, fmt.Errorf("validator %s: %w", in.ValidatorWallet, ErrInactive)
	}

	ev := newReviewEvent(sub, in)
	payload, err := json.Marshal(ev)
	if err != nil {
		return models.Submission{}, fmt.Errorf("marshal review event: %w", err)
	}
	const insertEvent = `
		INSERT INTO review_events (id, event_type, submission_id, payload, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`
	if _, err := tx.ExecContext(ctx, insertEvent, ev.ID, ev.EventType, ev.SubmissionID, payload, ev.CreatedAt); err != nil {
		return models.Submission{}, fmt.Errorf("insert review event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Submission{}, fmt.Errorf("commit review: %w", err)
	}
	return sub, nil
}

func (s *PGStore) ReviewerSummary(ctx context.Context, wallet string, todayStart time.Time) (ReviewerSummary, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'APPROVED'),
		       COALESCE(AVG(EXTRACT(EPOCH FROM (reviewed_at - submitted_at))) / 3600.0, 0),
		       COUNT(*) FILTER (WHERE reviewed_at >= $2)
		FROM submissions
		WHERE reviewed_by = $1 AND reviewed_at IS NOT NULL
	`
	var sum ReviewerSummary
	if err := s.db.QueryRowContext(ctx, query, wallet, todayStart).Scan(
		&sum.Reviewed, &sum.Approved, &sum.AvgReviewHours, &sum.ReviewedSince,
	); err != nil {
		return ReviewerSummary{}, fmt.Errorf("reviewer summary: %w", err)
	}
	return sum, nil
}

func (s *PGStore) ReviewerPerformance(ctx context.Context, since time.Time) ([]models.ValidatorPerformance, error) {
	const query = `
		SELECT reviewed_by, COUNT(*), COALESCE(AVG(EXTRACT(EPOCH FROM (reviewed_at - submitted_at))) / 3600.0, 0)
		FROM submissions
		WHERE reviewed_at >= $1 AND reviewed_by IS NOT NULL
		GROUP BY reviewed_by
		ORDER BY COUNT(*) DESC, reviewed_by
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("reviewer performance: %w", err)
	}
	defer rows.Close()

	perf := []models.ValidatorPerformance{}
	for rows.Next() {
		var p models.ValidatorPerformance
		if err := rows.Scan(&p.ReviewedBy, &p.Count, &p.AvgReviewHours); err != nil {
			return nil, fmt.Errorf("scan reviewer performance: %w", err)
		}
		perf = append(perf, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviewer performance: %w", err)
	}
	return perf, nil
}

func (s *PGStore) RewardTotals(ctx context.Context, since time.Time) (models.RewardDistribution, error) {
	const query = `
		SELECT COALESCE(SUM(granted_flb), 0), COUNT(*)
		FROM submissions
		WHERE status = 'APPROVED' AND reviewed_at >= $1
	`
	var dist models.RewardDistribution
	if err := s.db.QueryRowContext(ctx, query, since).Scan(&dist.ApprovedFLB, &dist.Count); err != nil {
		return models.RewardDistribution{}, fmt.Errorf("reward totals: %w", err)
	}
	return dist, nil
}

func newReviewEvent(sub models.Submission, in ReviewInput) models.ReviewEvent {
	return models.ReviewEvent{
		ID:              in.EventID,
		EventType:       eventTypeFor(in.Decision),
		SubmissionID:    sub.ID,
		SubmitterID:     sub.SubmitterID,
		ValidatorWallet: in.ValidatorWallet,
		Decision:        in.Decision,
		RequestedFLB:    sub.RequestedFLB,
		GrantedFLB:      sub.GrantedFLB,
		Notes:           sub.ReviewerNotes,
		SubmittedAt:     sub.SubmittedAt,
		ReviewedAt:      in.ReviewedAt,
		CreatedAt:       in.ReviewedAt,
	}
}
