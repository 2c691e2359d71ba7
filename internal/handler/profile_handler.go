package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-billing/internal/repository"
	"github.com/noah-isme/lms-billing/internal/service"
	"github.com/noah-isme/lms-billing/pkg/response"
)

type profileService interface {
	Provision(ctx context.Context, req service.ProvisionProfileRequest) (*repository.ProfileResult, error)
}

// ProfileHandler receives user role changes from user management.
type ProfileHandler struct {
	profiles profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(profiles profileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Provision godoc
// @Summary Sync teacher/student profile with a user's role
// @Tags Profiles
// @Accept json
// @Produce json
// @Param payload body service.ProvisionProfileRequest true "User role"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /profiles [put]
func (h *ProfileHandler) Provision(c *gin.Context) {
	var req service.ProvisionProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err, "invalid profile payload"))
		return
	}
	result, err := h.profiles.Provision(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.JSON(c, status, result)
}
