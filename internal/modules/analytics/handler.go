package analytics

import (
	"net/http"

	"cleanservice/internal/middleware"
	"cleanservice/internal/pkg/response"
	"cleanservice/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, sessions *session.Manager) {
	api.GET("/analytics", middleware.RequireAdmin(sessions), h.Overview)
}

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Internal(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=60")
	response.Success(c, http.StatusOK, overview)
}
