// Package catalog is the course catalog consulted when course completions are
// submitted. It has no business rules beyond field validation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/flameborn/validator/internal/apperr"
	"github.com/flameborn/validator/internal/models"
	"github.com/flameborn/validator/internal/store"
)

const (
	defaultLanguage   = "en"
	defaultDifficulty = models.DifficultyBeginner
)

type Catalog struct {
	repo   store.CourseRepository
	logger *slog.Logger
}

func New(repo store.CourseRepository, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{repo: repo, logger: logger}
}

type CourseRequest struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Description  string            `json:"description" yaml:"description"`
	RewardAmount float64           `json:"rewardAmount" yaml:"rewardAmount"`
	Active       *bool             `json:"active" yaml:"active"`
	ContentHash  *string           `json:"contentHash" yaml:"contentHash"`
	Language     string            `json:"language" yaml:"language"`
	Duration     int               `json:"duration" yaml:"duration"`
	Difficulty   models.Difficulty `json:"difficulty" yaml:"difficulty"`
}

func (c *Catalog) GetCourses(ctx context.Context, language string, difficulty models.Difficulty) ([]models.Course, error) {
	if difficulty != "" && !difficulty.Valid() {
		return nil, apperr.Validation("unknown difficulty %q", difficulty)
	}
	return c.repo.ListCourses(ctx, store.CourseFilter{
		Language:   strings.TrimSpace(language),
		Difficulty: difficulty,
	})
}

func (c *Catalog) GetCourse(ctx context.Context, id string) (models.Course, error) {
	course, err := c.repo.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Course{}, apperr.NotFound("course %s", id)
		}
		return models.Course{}, err
	}
	return course, nil
}

func (c *Catalog) CreateCourse(ctx context.Context, req CourseRequest) (models.Course, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.RewardAmount <= 0 {
		missing = append(missing, "rewardAmount")
	}
	if req.Duration <= 0 {
		missing = append(missing, "duration")
	}
	if len(missing) > 0 {
		return models.Course{}, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	if req.Difficulty == "" {
		req.Difficulty = defaultDifficulty
	}
	if !req.Difficulty.Valid() {
		return models.Course{}, apperr.Validation("unknown difficulty %q", req.Difficulty)
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = defaultLanguage
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	course, err := c.repo.CreateCourse(ctx, store.CourseInput{
		ID:           strings.TrimSpace(req.ID),
		Name:         req.Name,
		Description:  req.Description,
		RewardAmount: req.RewardAmount,
		Active:       active,
		ContentHash:  req.ContentHash,
		Language:     strings.TrimSpace(req.Language),
		Duration:     req.Duration,
		Difficulty:   req.Difficulty,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.Course{}, apperr.Conflict("course %s already exists", req.ID)
		}
		return models.Course{}, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

type seedFile struct {
	Courses []CourseRequest `yaml:"courses"`
}

// LoadSeed creates the courses listed in a YAML file. Courses that already
// exist are left untouched, so the same file can be applied on every start.
func (c *Catalog) LoadSeed(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read course seed: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("parse course seed %s: %w", path, err)
	}
	created := 0
	for i, req := range seed.Courses {
		if req.ID == "" {
			return created, fmt.Errorf("course seed entry %d: id required", i)
		}
		if _, err := c.CreateCourse(ctx, req); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				continue
			}
			return created, fmt.Errorf("course seed %s: %w", req.ID, err)
		}
		created++
	}
	c.logger.Info("course seed applied", "path", path, "created", created, "total", len(seed.Courses))
	return created, nil
}
