package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flameborn/validator/internal/apperr"
	"github.com/flameborn/validator/internal/models"
	"github.com/flameborn/validator/internal/store"
)

// Directory holds validator profiles and decides who may review.
type Directory struct {
	repo              store.ValidatorRepository
	defaultReputation int
	logger            *slog.Logger
}

func New(repo store.ValidatorRepository, defaultReputation int, logger *slog.Logger) *Directory {
	if defaultReputation <= 0 {
		defaultReputation = models.DefaultReputation
	}
	if defaultReputation > models.MaxReputation {
		defaultReputation = models.MaxReputation
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{repo: repo, defaultReputation: defaultReputation, logger: logger}
}

type RegisterRequest struct {
	Wallet          string               `json:"wallet"`
	Name            *string              `json:"name"`
	Role            models.ValidatorRole `json:"role"`
	Specializations []string             `json:"specializations"`
}

func (d *Directory) GetValidatorProfile(ctx context.Context, wallet string) (models.ValidatorProfile, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return models.ValidatorProfile{}, apperr.Validation("wallet is required")
	}
	p, err := d.repo.GetValidator(ctx, wallet)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ValidatorProfile{}, apperr.NotFound("validator %s", wallet)
		}
		return models.ValidatorProfile{}, err
	}
	return p, nil
}

func (d *Directory) CreateValidator(ctx context.Context, req RegisterRequest) (models.ValidatorProfile, error) {
	wallet := strings.TrimSpace(req.Wallet)
	var missing []string
	if wallet == "" {
		missing = append(missing, "wallet")
	}
	if req.Role == "" {
		missing = append(missing, "role")
	}
	if req.Specializations == nil {
		missing = append(missing, "specializations")
	}
	if len(missing) > 0 {
		return models.ValidatorProfile{}, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !req.Role.Valid() {
		return models.ValidatorProfile{}, apperr.Validation("unknown role %q", req.Role)
	}
	var name *string
	if req.Name != nil {
		if trimmed := strings.TrimSpace(*req.Name); trimmed != "" {
			name = &trimmed
		}
	}

	p, err := d.repo.CreateValidator(ctx, store.ValidatorInput{
		Wallet:          wallet,
		Name:            name,
		Role:            req.Role,
		Specializations: normalizeTags(req.Specializations),
		Reputation:      d.defaultReputation,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.ValidatorProfile{}, apperr.Conflict("validator %s already registered", wallet)
		}
		return models.ValidatorProfile{}, fmt.Errorf("create validator: %w", err)
	}
	d.logger.Info("validator registered", "wallet", p.Wallet, "role", p.Role)
	return p, nil
}

// IsValidator reports whether wallet belongs to an active validator. Unknown
// wallets are not validators.
func (d *Directory) IsValidator(ctx context.Context, wallet string) (bool, error) {
	p, err := d.repo.GetValidator(ctx, wallet)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.IsValidator(), nil
}

// Authorize resolves the principal to a profile allowed to review.
func (d *Directory) Authorize(ctx context.Context, principal models.Principal) (models.ValidatorProfile, error) {
	if principal.Wallet == "" {
		return models.ValidatorProfile{}, apperr.Unauthorized("no principal")
	}
	p, err := d.repo.GetValidator(ctx, principal.Wallet)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ValidatorProfile{}, apperr.Unauthorized("%s is not a registered validator", principal.Wallet)
		}
		return models.ValidatorProfile{}, err
	}
	if !p.IsValidator() {
		return models.ValidatorProfile{}, apperr.Unauthorized("validator %s is not active", principal.Wallet)
	}
	return p, nil
}

// RequireAdmin resolves actor to an active ADMIN profile.
func (d *Directory) RequireAdmin(ctx context.Context, actor models.Principal) (models.ValidatorProfile, error) {
	admin, err := d.Authorize(ctx, actor)
	if err != nil {
		return models.ValidatorProfile{}, err
	}
	if admin.Role != models.RoleAdmin {
		return models.ValidatorProfile{}, apperr.Unauthorized("%s is not an admin", actor.Wallet)
	}
	return admin, nil
}

// EnsureAdmin registers wallet as an ADMIN unless it is already known.
// It returns true when a profile was created.
func (d *Directory) EnsureAdmin(ctx context.Context, wallet string) (bool, error) {
	_, err := d.CreateValidator(ctx, RegisterRequest{Wallet: wallet, Role: models.RoleAdmin, Specializations: []string{}})
	if errors.Is(err, apperr.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetActive toggles isActive on wallet. Only active admins may do this.
func (d *Directory) SetActive(ctx context.Context, actor models.Principal, wallet string, active bool) (models.ValidatorProfile, error) {
	if _, err := d.RequireAdmin(ctx, actor); err != nil {
		return models.ValidatorProfile{}, err
	}
	p, err := d.repo.SetValidatorActive(ctx, strings.TrimSpace(wallet), active)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ValidatorProfile{}, apperr.NotFound("validator %s", wallet)
		}
		return models.ValidatorProfile{}, fmt.Errorf("set validator active: %w", err)
	}
	d.logger.Info("validator activation changed", "wallet", p.Wallet, "active", active, "by", actor.Wallet)
	return p, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
