package team

import (
	"errors"
	"net/http"

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
	teams := api.Group("/teams", middleware.RequireAdmin(sessions))
	{
		teams.GET("", h.List)
		teams.POST("", h.Create)
		teams.GET("/:id", h.Get)
		teams.PUT("/:id", h.Update)
		teams.DELETE("/:id", h.Delete)

		teams.GET("/:id/members", h.ListMembers)
		teams.POST("/:id/members", h.AddMember)
		teams.PUT("/:id/members/:memberId", h.UpdateMember)
		teams.DELETE("/:id/members/:memberId", h.RemoveMember)
	}
}

func (h *Handler) List(c *gin.Context) {
	teams, err := h.service.List(c.Request.Context(), domain.TeamStatus(c.Query("status")))
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, teams)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid team ID")
		return
	}
	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, t)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateTeamRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, t)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid team ID")
		return
	}
	var req UpdateTeamRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, t)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid team ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Team deleted")
}

func (h *Handler) ListMembers(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid team ID")
		return
	}
	members, err := h.service.ListMembers(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

func (h *Handler) AddMember(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid team ID")
		return
	}
	var req AddMemberRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.service.AddMember(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

func (h *Handler) UpdateMember(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	memberID, okMember := utils.ParamID(c, "memberId")
	if !ok || !okMember {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid team or member ID")
		return
	}
	var req UpdateMemberRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.service.UpdateMember(c.Request.Context(), id, memberID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

func (h *Handler) RemoveMember(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	memberID, okMember := utils.ParamID(c, "memberId")
	if !ok || !okMember {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid team or member ID")
		return
	}
	if err := h.service.RemoveMember(c.Request.Context(), id, memberID); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Member removed from team")
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
	case errors.Is(err, ErrTeamNotFound):
		response.Error(c, http.StatusNotFound, "TEAM_NOT_FOUND", "Team not found")
	case errors.Is(err, ErrStaffNotFound):
		response.Error(c, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found")
	case errors.Is(err, ErrMemberNotFound):
		response.Error(c, http.StatusNotFound, "MEMBER_NOT_FOUND", "Team member not found")
	case errors.Is(err, ErrStaffInactive):
		response.Error(c, http.StatusBadRequest, "STAFF_INACTIVE", "Staff member is not active")
	case errors.Is(err, ErrAlreadyMember):
		response.Error(c, http.StatusBadRequest, "ALREADY_MEMBER", "Staff member is already a member of this team")
	case errors.Is(err, ErrMemberOfOtherTeam):
		response.Error(c, http.StatusBadRequest, "MEMBER_OF_OTHER_TEAM", "Staff member is already a member of another team")
	case errors.Is(err, ErrInvalidLeader):
		response.Error(c, http.StatusBadRequest, "INVALID_LEADER", "Team leader must be a supervisor or manager")
	case errors.Is(err, ErrDuplicateName):
		response.Error(c, http.StatusConflict, "DUPLICATE_NAME", "A team with this name already exists")
	case errors.Is(err, ErrHasAssignments):
		response.Error(c, http.StatusConflict, "HAS_ASSIGNMENTS", "Team has assignments; deactivate it instead")
	default:
		response.Internal(c, err)
	}
}
