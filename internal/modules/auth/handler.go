package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"cleanservice/internal/config"
	"cleanservice/internal/middleware"
	"cleanservice/internal/pkg/response"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	stateCookie = "oauth_state"
	stateMaxAge = 10 * 60
)

type HandlerConfig struct {
	Sessions  *session.Manager
	Google    GoogleProvider
	Limiter   middleware.Limiter
	RateLimit config.RateLimitConfig
	Secure    bool
	Log       *zap.Logger
}

type Handler struct {
	service *Service
	cfg     HandlerConfig
	log     *zap.Logger
}

func NewHandler(service *Service, cfg HandlerConfig) *Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, cfg: cfg, log: log}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	throttle := func(scope string) gin.HandlerFunc {
		return middleware.RateLimit(h.cfg.Limiter, scope, h.cfg.RateLimit.LoginPerMinute, h.cfg.RateLimit.LoginBurst)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/admin-login", throttle("admin-login"), h.AdminLogin)
		auth.POST("/admin-logout", h.logout(session.RoleAdmin))
		auth.POST("/staff-login", throttle("staff-login"), h.StaffLogin)
		auth.POST("/staff-logout", h.logout(session.RoleStaff))
		auth.POST("/register", throttle("register"), h.Register)
		auth.POST("/login", throttle("login"), h.Login)
		auth.POST("/logout", h.logout(session.RoleCustomer))
		auth.POST("/logout-all", h.LogoutAll)
		auth.GET("/me", h.Me)

		auth.GET("/google", h.GoogleRedirect)
		auth.GET("/google/callback", h.GoogleCallback)
	}
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.service.AdminLogin(req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	if _, err := h.cfg.Sessions.Login(c, session.RoleAdmin, *p); err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": p})
}

func (h *Handler) StaffLogin(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.service.StaffLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	if _, err := h.cfg.Sessions.Login(c, session.RoleStaff, StaffPayload(st)); err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"staff": st})
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	if _, err := h.cfg.Sessions.Login(c, session.RoleCustomer, CustomerPayload(u)); err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": u})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	if _, err := h.cfg.Sessions.Login(c, session.RoleCustomer, CustomerPayload(u)); err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) logout(role session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.cfg.Sessions.ClearCookie(c, role)
		response.Message(c, http.StatusOK, "Logged out")
	}
}

func (h *Handler) LogoutAll(c *gin.Context) {
	for _, role := range session.Precedence {
		h.cfg.Sessions.ClearCookie(c, role)
	}
	response.Message(c, http.StatusOK, "Logged out")
}

func (h *Handler) Me(c *gin.Context) {
	p, ok := h.cfg.Sessions.Resolve(c.Request)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
		return
	}
	c.Header("Cache-Control", "no-store")
	response.Success(c, http.StatusOK, MeResponse{Role: p.Role, User: p})
}

/* ---------- GOOGLE ---------- */

func (h *Handler) GoogleRedirect(c *gin.Context) {
	if h.cfg.Google == nil {
		handleError(c, ErrGoogleDisabled)
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, stateMaxAge, "/", "", h.cfg.Secure, true)
	c.Redirect(http.StatusFound, h.cfg.Google.AuthCodeURL(state))
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.cfg.Google == nil {
		handleError(c, ErrGoogleDisabled)
		return
	}

	expected, _ := c.Cookie(stateCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, "", -1, "/", "", h.cfg.Secure, true)

	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		h.failGoogle(c, ErrInvalidOAuthState)
		return
	}
	if errParam := c.Query("error"); errParam != "" {
		h.log.Info("google sign-in declined", zap.String("error", errParam))
		h.redirectLoginError(c, "google_denied")
		return
	}
	code := c.Query("code")
	if code == "" {
		h.failGoogle(c, ErrMissingAuthCode)
		return
	}

	id, err := h.cfg.Google.Identify(c.Request.Context(), code)
	if err != nil {
		h.failGoogle(c, err)
		return
	}
	out, err := h.service.GoogleLogin(c.Request.Context(), id)
	if err != nil {
		h.failGoogle(c, err)
		return
	}
	if out.Payload != nil {
		if _, err := h.cfg.Sessions.Login(c, out.Role, *out.Payload); err != nil {
			h.failGoogle(c, err)
			return
		}
	}
	c.Redirect(http.StatusFound, out.Redirect)
}

func (h *Handler) failGoogle(c *gin.Context, err error) {
	code := "google_failed"
	switch {
	case errors.Is(err, ErrInvalidOAuthState):
		code = "invalid_state"
	case errors.Is(err, ErrMissingAuthCode):
		code = "missing_code"
	case errors.Is(err, ErrInvalidGoogleToken):
		code = "invalid_token"
	case errors.Is(err, ErrGoogleUnverified):
		code = "email_not_verified"
	default:
		_ = c.Error(err)
	}
	h.log.Warn("google sign-in failed", zap.String("reason", code), zap.Error(err))
	h.redirectLoginError(c, code)
}

func (h *Handler) redirectLoginError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, h.service.cfg.FrontendURL+"/staff/login?error="+code)
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
	var approval *ApprovalError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrEmailExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
	case errors.Is(err, ErrEmailNotVerified):
		response.ErrorWithDetails(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED",
			"Please verify your email before signing in", gin.H{"requiresVerification": true})
	case errors.As(err, &approval):
		details := gin.H{"approvalStatus": approval.Status}
		if approval.Reason != "" {
			details["rejectionReason"] = approval.Reason
		}
		response.ErrorWithDetails(c, http.StatusForbidden, approval.Code(), approval.Message(), details)
	case errors.Is(err, ErrAccountInactive):
		response.Error(c, http.StatusForbidden, "ACCOUNT_INACTIVE", "Your account is not active")
	case errors.Is(err, ErrGoogleDisabled):
		response.Error(c, http.StatusServiceUnavailable, "GOOGLE_DISABLED", "Google sign-in is not configured")
	default:
		response.Internal(c, err)
	}
}
