package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-billing/internal/service"
	"github.com/noah-isme/lms-billing/pkg/response"
)

type lessonBillingService interface {
	SetLessonStatus(ctx context.Context, change service.LessonStatusChange) (*service.LessonBillingResult, error)
	PaybackLesson(ctx context.Context, lessonID string) (*service.LessonBillingResult, error)
}

type lessonStatusRequest struct {
	Status    string `json:"status" binding:"required"`
	TeacherID string `json:"teacher_id"`
}

// LessonHandler exposes the lesson status state machine.
type LessonHandler struct {
	billing lessonBillingService
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(billing lessonBillingService) *LessonHandler {
	return &LessonHandler{billing: billing}
}

// UpdateStatus godoc
// @Summary Change lesson status
// @Description Finishing a planned lesson bills it; returning it to planned pays it back.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body lessonStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/status [put]
func (h *LessonHandler) UpdateStatus(c *gin.Context) {
	var req lessonStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err, "invalid lesson status payload"))
		return
	}
	result, err := h.billing.SetLessonStatus(c.Request.Context(), service.LessonStatusChange{
		TeacherID: req.TeacherID,
		LessonID:  c.Param("id"),
		Status:    req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Payback godoc
// @Summary Pay a lesson back
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/payback [post]
func (h *LessonHandler) Payback(c *gin.Context) {
	result, err := h.billing.PaybackLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
