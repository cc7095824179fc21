package catalog

import (
	"errors"
	"net/http"

	"cleanservice/internal/middleware"
	"cleanservice/internal/pkg/response"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/pkg/utils"
	"cleanservice/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, sessions *session.Manager) {
	services := api.Group("/services")
	{
		services.GET("", h.List)
		services.GET("/:id", h.Get)
	}

	admin := services.Group("", middleware.RequireAdmin(sessions))
	{
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

// List handles GET /api/services.
func (h *Handler) List(c *gin.Context) {
	services, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Internal(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	response.Success(c, http.StatusOK, services)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
		return
	}
	svc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, svc)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ValidationError(c, fields)
		return
	}

	svc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, svc)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
		return
	}
	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ValidationError(c, fields)
		return
	}

	svc, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, svc)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Service deleted")
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
	case errors.Is(err, ErrDuplicateTitle):
		response.Error(c, http.StatusConflict, "DUPLICATE_TITLE", "A service with this title already exists")
	default:
		response.Internal(c, err)
	}
}
