package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/elearning-api/internal/models"
	"github.com/noah-isme/elearning-api/internal/service"
	appErrors "github.com/noah-isme/elearning-api/pkg/errors"
	"github.com/noah-isme/elearning-api/pkg/middleware/requestid"
	"github.com/noah-isme/elearning-api/pkg/response"
)

type submissionService interface {
	SubmitAnswers(ctx context.Context, actor *models.JWTClaims, courseID, lessonID string, req service.SelectAnswersRequest) (*models.SubmissionResult, error)
}

// SubmissionHandler exposes the answer submission endpoint.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler builds a new handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// SelectAnswers godoc
// @Summary Submit answers for a lesson
// @Description Replaces the caller's previous submission, scores it and reports approval.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body service.SelectAnswersRequest true "Selected answer ids"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{courseId}/lessons/{lessonId}/select-answers [post]
func (h *SubmissionHandler) SelectAnswers(c *gin.Context) {
	var req service.SelectAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answers payload"))
		return
	}
	req.RequestID = requestid.Value(c)
	req.IP = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	result, err := h.service.SubmitAnswers(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	typ := response.TypeWarning
	if result.Approved {
		typ = response.TypeSuccess
	}
	response.JSON(c, http.StatusOK, typ, result.Message, result)
}
