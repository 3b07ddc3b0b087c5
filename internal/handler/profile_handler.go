package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/elearning-api/internal/models"
	"github.com/noah-isme/elearning-api/pkg/response"
)

type profileService interface {
	Me(ctx context.Context, actor *models.JWTClaims) (*models.UserInfo, error)
}

// ProfileHandler serves the current user's profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler builds a new handler.
func NewProfileHandler(service profileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Me godoc
// @Summary Current user info
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /me [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	info, err := h.service.Me(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "current user", info)
}
