package user

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
	service  *Service
	sessions *session.Manager
}

func NewHandler(service *Service, sessions *session.Manager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	me := api.Group("/users/me", middleware.RequireCustomer(h.sessions))
	{
		me.GET("", h.GetMe)
		me.PUT("", h.UpdateMe)
		me.PUT("/password", h.ChangePassword)
		me.DELETE("", h.DeleteMe)
	}

	admin := api.Group("/users", middleware.RequireAdmin(h.sessions))
	{
		admin.GET("", h.List)
		admin.GET("/:id", h.Get)
	}
}

func (h *Handler) GetMe(c *gin.Context) {
	u, err := h.service.Get(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

// UpdateMe also reissues the session so the token carries the new name.
func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		handleError(c, err)
		return
	}
	if _, err := h.sessions.Login(c, session.RoleCustomer, session.Payload{ID: u.ID, Email: u.Email, Name: u.Name}); err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), c.GetInt64("user_id"), req); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Password updated")
}

func (h *Handler) DeleteMe(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.GetInt64("user_id")); err != nil {
		handleError(c, err)
		return
	}
	h.sessions.ClearCookie(c, session.RoleCustomer)
	response.Message(c, http.StatusOK, "Account deleted")
}

func (h *Handler) List(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	users, total, err := h.service.List(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Users: users, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}
	u, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if fields := validator.Validate(req); fields != nil {
		response.ValidationError(c, fields)
		return false
	}
	return true
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, ErrWrongPassword):
		response.Error(c, http.StatusBadRequest, "WRONG_PASSWORD", "Current password is incorrect")
	default:
		response.Internal(c, err)
	}
}
