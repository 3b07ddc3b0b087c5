package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/elearning-api/internal/models"
	"github.com/noah-isme/elearning-api/internal/service"
	"github.com/noah-isme/elearning-api/pkg/response"
)

type gradebookService interface {
	OwnResult(ctx context.Context, actor *models.JWTClaims, courseID, lessonID string) (*models.StudentLessonResult, error)
	LessonResults(ctx context.Context, actor *models.JWTClaims, courseID, lessonID string) (*models.LessonResults, error)
	Export(ctx context.Context, actor *models.JWTClaims, courseID, lessonID, format string, meta service.ExportMeta) (*service.ExportFile, error)
}

// GradebookHandler exposes lesson result endpoints.
type GradebookHandler struct {
	service gradebookService
}

// NewGradebookHandler builds a new handler.
func NewGradebookHandler(service gradebookService) *GradebookHandler {
	return &GradebookHandler{service: service}
}

// OwnResult godoc
// @Summary Get my latest result for a lesson
// @Tags Lessons
// @Produce json
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{courseId}/lessons/{lessonId}/result [get]
func (h *GradebookHandler) OwnResult(c *gin.Context) {
	result, err := h.service.OwnResult(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "lesson result", result)
}

// LessonResults godoc
// @Summary List every student's result for a lesson
// @Tags Lessons
// @Produce json
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{courseId}/lessons/{lessonId}/results [get]
func (h *GradebookHandler) LessonResults(c *gin.Context) {
	summary, err := h.service.LessonResults(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, response.TypeSuccess, "lesson results", summary.Results, map[string]interface{}{
		"lesson_id":      summary.LessonID,
		"title":          summary.Title,
		"required_score": summary.RequiredScore,
		"total":          summary.Total,
		"approved":       summary.Approved,
	})
}

// Export godoc
// @Summary Export lesson results
// @Tags Lessons
// @Produce text/csv
// @Produce application/pdf
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{courseId}/lessons/{lessonId}/results/export [get]
func (h *GradebookHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), c.Param("lessonId"), c.Query("format"), service.ExportMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
