package booking

import (
	"errors"
	"net/http"
	"strings"

	"cleanservice/internal/domain"
	"cleanservice/internal/middleware"
	"cleanservice/internal/pkg/response"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/pkg/utils"
	"cleanservice/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service  *Service
	sessions *session.Manager
}

func NewHandler(service *Service, sessions *session.Manager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	public := api.Group("/bookings")
	{
		public.POST("", middleware.OptionalCustomer(h.sessions), h.Create)
		public.GET("/verify", h.Verify)
		public.POST("/verify", h.Verify)
		public.POST("/set-password", h.SetPassword)
	}

	admin := api.Group("/bookings", middleware.RequireAdmin(h.sessions))
	{
		admin.GET("", h.List)
		admin.GET("/:id", h.Get)
		admin.PUT("/:id", h.Update)
		admin.PUT("/:id/status", h.UpdateStatus)
		admin.POST("/:id/confirm", h.Confirm)
		admin.DELETE("/:id", h.Delete)
	}

	mine := api.Group("/users/me/bookings", middleware.RequireCustomer(h.sessions))
	{
		mine.GET("", h.ListMine)
		mine.POST("/:id/cancel", h.CancelMine)
	}
}

// Create handles POST /api/bookings for guests and signed-in customers.
func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if !bind(c, &req) {
		return
	}

	customer, _ := middleware.Identity(c)
	b, err := h.service.Create(c.Request.Context(), req, customer)
	if err != nil {
		handleError(c, err)
		return
	}

	message := "Booking received. Please check your email to verify it."
	if customer != nil {
		message = "Booking received and awaiting confirmation."
	}
	response.Success(c, http.StatusCreated, gin.H{
		"booking":              b,
		"requiresVerification": b.Status == domain.BookingPendingVerification,
		"message":              message,
	})
}

func (h *Handler) Verify(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" && c.Request.Method == http.MethodPost {
		var req VerifyRequest
		_ = c.ShouldBindJSON(&req)
		token = req.Token
	}

	res, err := h.service.Verify(c.Request.Context(), token)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// SetPassword creates the customer account and signs the customer in.
func (h *Handler) SetPassword(c *gin.Context) {
	var req SetPasswordRequest
	if !bind(c, &req) {
		return
	}

	user, b, err := h.service.SetPassword(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	token, err := h.sessions.Login(c, session.RoleCustomer, session.Payload{ID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		// The account exists; the customer can still sign in normally.
		zap.L().Error("issue customer token", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	response.Success(c, http.StatusCreated, gin.H{
		"user":    user,
		"booking": b,
		"token":   token,
	})
}

/* ---------- ADMIN ---------- */

func (h *Handler) List(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	status := domain.BookingStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown booking status")
		return
	}
	items, total, err := h.service.List(c.Request.Context(), ListQuery{
		Status: status,
		Email:  c.Query("email"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Bookings: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}
	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}
	var req UpdateBookingRequest
	if !bind(c, &req) {
		return
	}
	b, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	b, err := h.service.UpdateStatus(c.Request.Context(), id, domain.BookingStatus(req.Status))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) Confirm(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}
	b, err := h.service.Confirm(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Booking deleted")
}

/* ---------- CUSTOMER ---------- */

func (h *Handler) ListMine(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	items, total, err := h.service.ListForUser(c.Request.Context(), c.GetInt64("user_id"), limit, offset)
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Bookings: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) CancelMine(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}
	b, err := h.service.CancelForUser(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
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
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You can only manage your own bookings")
	case errors.Is(err, ErrInvalidToken):
		response.Error(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or already used verification link")
	case errors.Is(err, ErrTokenExpired):
		response.Error(c, http.StatusBadRequest, "TOKEN_EXPIRED", "Verification link has expired")
	case errors.Is(err, ErrPastDate):
		response.ValidationError(c, map[string]string{"preferred_date": "must not be in the past"})
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", "Booking cannot move to that status")
	case errors.Is(err, ErrStatusConflict):
		response.Error(c, http.StatusConflict, "STATUS_CONFLICT", "Booking was changed by another request, please retry")
	case errors.Is(err, ErrEmailExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "An account with this email already exists. Please sign in.")
	case errors.Is(err, ErrEmailDelivery):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "EMAIL_FAILED", "Failed to send verification email. Please try again later.")
	default:
		response.Internal(c, err)
	}
}
