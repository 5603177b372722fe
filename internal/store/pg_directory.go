package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/flameborn/validator/internal/models"
)

const validatorColumns = `wallet, name, role, specializations, total_reviewed, approved_count, approval_rate, reputation, is_active, joined_at`

func scanValidator(row rowScanner) (models.ValidatorProfile, error) {
	var (
		p    models.ValidatorProfile
		name sql.NullString
	)
	if err := row.Scan(
		&p.Wallet,
		&name,
		&p.Role,
		pq.Array(&p.Specializations),
		&p.TotalReviewed,
		&p.ApprovedCount,
		&p.ApprovalRate,
		&p.Reputation,
		&p.IsActive,
		&p.JoinedAt,
	); err != nil {
		return models.ValidatorProfile{}, err
	}
	if name.Valid {
		v := name.String
		p.Name = &v
	}
	if p.Specializations == nil {
		p.Specializations = []string{}
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *PGStore) CreateValidator(ctx context.Context, in ValidatorInput) (models.ValidatorProfile, error) {
	if in.JoinedAt.IsZero() {
		in.JoinedAt = time.Now().UTC()
	}
	if in.Reputation <= 0 {
		in.Reputation = models.DefaultReputation
	}
	query := `
		INSERT INTO validators (wallet, name, role, specializations, reputation, is_active, joined_at)
		VALUES ($1,$2,$3,$4,$5,true,$6)
		RETURNING ` + validatorColumns
	row := s.db.QueryRowContext(ctx, query, in.Wallet, in.Name, in.Role, pq.Array(in.Specializations), in.Reputation, in.JoinedAt)
	p, err := scanValidator(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ValidatorProfile{}, ErrConflict
		}
		return models.ValidatorProfile{}, fmt.Errorf("insert validator: %w", err)
	}
	return p, nil
}

func (s *PGStore) GetValidator(ctx context.Context, wallet string) (models.ValidatorProfile, error) {
	query := `SELECT ` + validatorColumns + ` FROM validators WHERE wallet=$1`
	p, err := scanValidator(s.db.QueryRowContext(ctx, query, wallet))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ValidatorProfile{}, ErrNotFound
		}
		return models.ValidatorProfile{}, fmt.Errorf("get validator: %w", err)
	}
	return p, nil
}

func (s *PGStore) SetValidatorActive(ctx context.Context, wallet string, active bool) (models.ValidatorProfile, error) {
	query := `UPDATE validators SET is_active=$2 WHERE wallet=$1 RETURNING ` + validatorColumns
	p, err := scanValidator(s.db.QueryRowContext(ctx, query, wallet, active))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ValidatorProfile{}, ErrNotFound
		}
		return models.ValidatorProfile{}, fmt.Errorf("update validator: %w", err)
	}
	return p, nil
}

const courseColumns = `id, name, description, reward_amount, active, content_hash, language, duration, difficulty, created_at`

func scanCourse(row rowScanner) (models.Course, error) {
	var (
		c    models.Course
		hash sql.NullString
	)
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.RewardAmount,
		&c.Active,
		&hash,
		&c.Language,
		&c.Duration,
		&c.Difficulty,
		&c.CreatedAt,
	); err != nil {
		return models.Course{}, err
	}
	if hash.Valid {
		v := hash.String
		c.ContentHash = &v
	}
	return c, nil
}

func (s *PGStore) CreateCourse(ctx context.Context, in CourseInput) (models.Course, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO courses (id, name, description, reward_amount, active, content_hash, language, duration, difficulty, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING ` + courseColumns
	row := s.db.QueryRowContext(ctx, query, in.ID, in.Name, in.Description, in.RewardAmount, in.Active, in.ContentHash,
		in.Language, in.Duration, in.Difficulty, in.CreatedAt)
	c, err := scanCourse(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Course{}, ErrConflict
		}
		return models.Course{}, fmt.Errorf("insert course: %w", err)
	}
	return c, nil
}

func (s *PGStore) GetCourse(ctx context.Context, id string) (models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id=$1`
	c, err := scanCourse(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Course{}, ErrNotFound
		}
		return models.Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func (s *PGStore) ListCourses(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if filter.Language != "" {
		query += fmt.Sprintf(" AND language = $%d", argPos)
		args = append(args, filter.Language)
		argPos++
	}
	if filter.Difficulty != "" {
		query += fmt.Sprintf(" AND difficulty = $%d", argPos)
		args = append(args, filter.Difficulty)
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}
