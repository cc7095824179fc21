package assignment

import (
	"errors"
	"net/http"
	"strconv"

	"cleanservice/internal/domain"
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
	admin := api.Group("/assignments", middleware.RequireAdmin(sessions))
	{
		admin.GET("", h.List)
		admin.POST("", h.Create)
		admin.GET("/:id", h.Get)
		admin.POST("/:id/cancel", h.Cancel)
		admin.DELETE("/:id", h.Delete)
	}
	api.GET("/bookings/:id/assignments", middleware.RequireAdmin(sessions), h.ForBooking)

	staff := api.Group("/staff/assignments", middleware.RequireStaff(sessions))
	{
		staff.GET("", h.Mine)
		staff.POST("/:id/accept", h.Accept)
		staff.POST("/:id/start", h.Start)
		staff.POST("/:id/complete", h.Complete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ValidationError(c, fields)
		return
	}

	a, err := h.service.Create(c.Request.Context(), req, c.GetInt64("user_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, a)
}

func (h *Handler) List(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	q := ListQuery{
		Status: domain.AssignmentStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("booking_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
			return
		}
		q.BookingID = &id
	}

	items, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Assignments: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) ForBooking(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}
	items, err := h.service.ForBooking(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) Get(c *gin.Context) {
	h.withID(c, func(id int64) (*domain.Assignment, error) {
		return h.service.Get(c.Request.Context(), id)
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	h.withID(c, func(id int64) (*domain.Assignment, error) {
		return h.service.Cancel(c.Request.Context(), id)
	})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid assignment ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Assignment deleted")
}

func (h *Handler) Mine(c *gin.Context) {
	items, err := h.service.ForStaff(c.Request.Context(), c.GetInt64("user_id"), domain.AssignmentStatus(c.Query("status")))
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) Accept(c *gin.Context) {
	h.withID(c, func(id int64) (*domain.Assignment, error) {
		return h.service.Accept(c.Request.Context(), id, c.GetInt64("user_id"))
	})
}

func (h *Handler) Start(c *gin.Context) {
	h.withID(c, func(id int64) (*domain.Assignment, error) {
		return h.service.Start(c.Request.Context(), id, c.GetInt64("user_id"))
	})
}

func (h *Handler) Complete(c *gin.Context) {
	h.withID(c, func(id int64) (*domain.Assignment, error) {
		return h.service.Complete(c.Request.Context(), id, c.GetInt64("user_id"))
	})
}

func (h *Handler) withID(c *gin.Context, fn func(id int64) (*domain.Assignment, error)) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid assignment ID")
		return
	}
	a, err := fn(id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Assignment not found")
	case errors.Is(err, ErrBookingNotFound):
		response.Error(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrTeamNotFound):
		response.Error(c, http.StatusNotFound, "TEAM_NOT_FOUND", "Team not found")
	case errors.Is(err, ErrStaffNotFound):
		response.Error(c, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found")
	case errors.Is(err, ErrTarget),
		errors.Is(err, ErrBookingNotConfirmed),
		errors.Is(err, ErrTeamInactive),
		errors.Is(err, ErrTeamEmpty),
		errors.Is(err, ErrStaffUnavailable):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", "Assignment cannot move to that status")
	case errors.Is(err, ErrStatusConflict):
		response.Error(c, http.StatusConflict, "STATUS_CONFLICT", "Assignment was changed by another request, please retry")
	case errors.Is(err, ErrNotAssignee):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "This assignment is not yours")
	default:
		response.Internal(c, err)
	}
}
