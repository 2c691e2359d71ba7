package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/repository"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

type stubProfileStore struct {
	userID   string
	fullName string
	role     models.SchoolRole
	result   repository.ProfileResult
	err      error
}

func (s *stubProfileStore) Provision(ctx context.Context, userID, fullName string, role models.SchoolRole) (repository.ProfileResult, error) {
	s.userID, s.fullName, s.role = userID, fullName, role
	return s.result, s.err
}

func TestProvisionNormalisesRole(t *testing.T) {
	store := &stubProfileStore{result: repository.ProfileResult{TeacherID: ptr("t-9"), Created: true, Removed: 1}}
	svc := NewProfileService(store, nil, nil)

	result, err := svc.Provision(context.Background(), ProvisionProfileRequest{UserID: "u1", FullName: " Tom Flat ", Role: " Teacher "})
	require.NoError(t, err)
	assert.Equal(t, models.SchoolRole("teacher"), store.role)
	assert.Equal(t, "Tom Flat", store.fullName)
	assert.True(t, result.Created)
	assert.Equal(t, "t-9", *result.TeacherID)
}

func TestProvisionWithoutRoleRemovesProfiles(t *testing.T) {
	store := &stubProfileStore{result: repository.ProfileResult{Removed: 2}}
	svc := NewProfileService(store, nil, nil)

	result, err := svc.Provision(context.Background(), ProvisionProfileRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, models.SchoolRole(""), store.role)
	assert.Equal(t, 2, result.Removed)
}

func TestProvisionErrors(t *testing.T) {
	store := &stubProfileStore{}
	svc := NewProfileService(store, nil, nil)

	_, err := svc.Provision(context.Background(), ProvisionProfileRequest{UserID: "u1", Role: "admin"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.userID)

	_, err = svc.Provision(context.Background(), ProvisionProfileRequest{Role: "student"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	store.err = errors.New("deadlock")
	_, err = svc.Provision(context.Background(), ProvisionProfileRequest{UserID: "u1", Role: "student"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
