package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/repository"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

type profileStore interface {
	Provision(ctx context.Context, userID, fullName string, role models.SchoolRole) (repository.ProfileResult, error)
}

// ProvisionProfileRequest is sent by user management whenever a user is
// created or changes school role.
type ProvisionProfileRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	FullName string `json:"full_name" validate:"max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=teacher student"`
}

// ProfileService keeps teacher and student profiles in line with user roles.
type ProfileService struct {
	store     profileStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(store profileStore, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{store: store, validator: validate, logger: logger}
}

// Provision creates the profile the role calls for and removes the other one.
// An empty role removes both.
func (s *ProfileService) Provision(ctx context.Context, req ProvisionProfileRequest) (*repository.ProfileResult, error) {
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	result, err := s.store.Provision(ctx, req.UserID, strings.TrimSpace(req.FullName), models.SchoolRole(req.Role))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision profile")
	}
	s.logger.Info("profile provisioned",
		zap.String("user_id", req.UserID),
		zap.String("role", req.Role),
		zap.Bool("created", result.Created),
		zap.Int("removed", result.Removed),
	)
	return &result, nil
}
