package staff

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
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, sessions *session.Manager) {
	public := api.Group("/staff")
	{
		public.POST("/register", h.Register)
		public.GET("/verify-email", h.VerifyEmail)
		public.POST("/verify-email", h.VerifyEmail)
		public.POST("/resend-verification", h.ResendVerification)
		public.POST("/complete-profile", h.CompleteProfile)
	}

	self := api.Group("/staff/me", middleware.RequireStaff(sessions))
	{
		self.GET("", h.GetMe)
		self.PUT("", h.UpdateMe)
		self.PUT("/password", h.ChangePassword)
	}

	admin := api.Group("/staff", middleware.RequireAdmin(sessions))
	{
		admin.GET("", h.List)
		admin.POST("", h.Create)
		admin.GET("/:id", h.Get)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
		admin.PUT("/:id/approval", h.SetApproval)
		admin.PUT("/:id/status", h.SetStatus)
	}
}

/* ---------- ADMIN ---------- */

func (h *Handler) List(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	q := ListQuery{
		Role:           domain.StaffRole(c.Query("role")),
		Status:         domain.StaffStatus(c.Query("status")),
		ApprovalStatus: domain.ApprovalStatus(c.Query("approval_status")),
		Search:         c.Query("search"),
		Limit:          limit,
		Offset:         offset,
	}
	items, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Staff: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid staff ID")
		return
	}
	st, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateStaffRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, st)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid staff ID")
		return
	}
	var req UpdateStaffRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid staff ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Staff member deleted")
}

func (h *Handler) SetApproval(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid staff ID")
		return
	}
	var req ApprovalRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.SetApproval(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid staff ID")
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.SetStatus(c.Request.Context(), id, domain.StaffStatus(req.Status))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

/* ---------- SELF-SERVICE ---------- */

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"staff":   st,
		"message": "Registration received. Please check your email to verify your address.",
	})
}

// VerifyEmail accepts the token from the query string or a JSON body.
func (h *Handler) VerifyEmail(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" && c.Request.Method == http.MethodPost {
		var body struct {
			Token string `json:"token"`
		}
		_ = c.ShouldBindJSON(&body)
		token = strings.TrimSpace(body.Token)
	}

	st, err := h.service.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"staff":          st,
		"approvalStatus": st.ApprovalStatus,
		"message":        "Email verified. Your application is awaiting admin approval.",
	})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req ResendRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.ResendVerification(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "If the account exists, a verification email has been sent")
}

func (h *Handler) CompleteProfile(c *gin.Context) {
	var req CompleteProfileRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.CompleteProfile(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"staff":          st,
		"approvalStatus": st.ApprovalStatus,
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	st, err := h.service.Get(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.UpdateMe(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
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
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Staff member not found")
	case errors.Is(err, ErrEmailExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
	case errors.Is(err, ErrHasAssignments):
		response.Error(c, http.StatusConflict, "HAS_ASSIGNMENTS", "Staff member has assignments; deactivate instead")
	case errors.Is(err, ErrInvalidToken):
		response.Error(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or already used token")
	case errors.Is(err, ErrTokenExpired):
		response.Error(c, http.StatusBadRequest, "TOKEN_EXPIRED", "Verification link has expired")
	case errors.Is(err, ErrAlreadyVerified):
		response.Error(c, http.StatusBadRequest, "ALREADY_VERIFIED", "Email is already verified")
	case errors.Is(err, ErrProfileNotPending):
		response.Error(c, http.StatusBadRequest, "PROFILE_COMPLETED", "Profile has already been completed")
	case errors.Is(err, ErrInvalidApproval), errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrWrongPassword):
		response.Error(c, http.StatusBadRequest, "WRONG_PASSWORD", "Current password is incorrect")
	case errors.Is(err, ErrPasswordUnavailable):
		response.Error(c, http.StatusBadRequest, "NO_PASSWORD", "This account signs in with Google")
	case errors.Is(err, ErrEmailDelivery):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "EMAIL_FAILED", "Failed to send verification email. Please try again later.")
	default:
		response.Internal(c, err)
	}
}
