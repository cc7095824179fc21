package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/url"
	"strings"

	"cleanservice/internal/database"
	"cleanservice/internal/domain"
	"cleanservice/internal/mail"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/pkg/utils"
	"cleanservice/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Config struct {
	AdminEmail    string
	AdminPassword string
	FrontendURL   string
}

type Service struct {
	users    *repository.UserRepository
	staff    *repository.StaffRepository
	bookings *repository.BookingRepository
	mailer   mail.Mailer
	cfg      Config
	log      *zap.Logger
}

func NewService(
	users *repository.UserRepository,
	staff *repository.StaffRepository,
	bookings *repository.BookingRepository,
	mailer mail.Mailer,
	cfg Config,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &Service{
		users:    users,
		staff:    staff,
		bookings: bookings,
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
	}
}

/* ---------- ADMIN ---------- */

// AdminLogin checks the configured admin credentials. Both comparisons run
// in constant time and an unset password disables admin login.
func (s *Service) AdminLogin(email, password string) (*session.Payload, error) {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		return nil, ErrInvalidCredentials
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(s.cfg.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	if !emailOK || !passOK {
		return nil, ErrInvalidCredentials
	}
	return s.adminPayload(), nil
}

func (s *Service) adminPayload() *session.Payload {
	return &session.Payload{Email: s.cfg.AdminEmail, Name: "Administrator", Role: session.RoleAdmin}
}

/* ---------- STAFF ---------- */

// StaffLogin applies the approval gate before looking at the password, so an
// unverified account learns it must verify regardless of what it typed.
func (s *Service) StaffLogin(ctx context.Context, email, password string) (*domain.Staff, error) {
	st, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := Gate(st); err != nil {
		return nil, err
	}
	if st.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return st, nil
}

// Gate checks email verification, then approval, then status.
func Gate(st *domain.Staff) error {
	if !st.EmailVerified {
		return ErrEmailNotVerified
	}
	if st.ApprovalStatus != domain.ApprovalApproved {
		return &ApprovalError{Status: st.ApprovalStatus, Reason: st.RejectionReason}
	}
	if st.Status != domain.StaffActive {
		return ErrAccountInactive
	}
	return nil
}

func StaffPayload(st *domain.Staff) session.Payload {
	return session.Payload{ID: st.ID, Email: st.Email, Name: st.Name, Role: session.RoleStaff}
}

/* ---------- CUSTOMER ---------- */

// Register creates a customer account and claims earlier guest bookings
// placed with the same email.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		PasswordHash: string(hash),
	}

	err = s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, u); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailExists
			}
			return err
		}
		return s.bookings.WithTx(tx).LinkUser(ctx, u.Email, u.ID)
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.AdminEmail == "" {
		return u, nil
	}
	if msg, err := mail.NewCustomerAlert(s.cfg.AdminEmail, u); err == nil {
		s.mailer.BestEffort(ctx, msg)
	} else {
		s.log.Error("render new customer alert", zap.Error(err))
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func CustomerPayload(u *domain.User) session.Payload {
	return session.Payload{ID: u.ID, Email: u.Email, Name: u.Name, Role: session.RoleCustomer}
}

/* ---------- GOOGLE ---------- */

// GoogleOutcome says where the browser goes after the callback and which
// session, if any, to set on the way.
type GoogleOutcome struct {
	Role     session.Role
	Payload  *session.Payload
	Redirect string
}

// GoogleLogin signs in the admin by email match, otherwise upserts staff.
// New staff start in pending_info and are sent to complete their profile.
func (s *Service) GoogleLogin(ctx context.Context, id *GoogleIdentity) (*GoogleOutcome, error) {
	if !id.EmailVerified {
		return nil, ErrGoogleUnverified
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))

	if s.cfg.AdminEmail != "" && subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.AdminEmail)) == 1 {
		return &GoogleOutcome{Role: session.RoleAdmin, Payload: s.adminPayload(), Redirect: s.cfg.FrontendURL + "/admin"}, nil
	}

	st, err := s.staff.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.createGoogleStaff(ctx, id, email)
	case err != nil:
		return nil, err
	}

	fields := map[string]any{}
	if st.GoogleID == "" {
		fields["google_id"] = id.Subject
	}
	if !st.EmailVerified {
		fields["email_verified"] = true
		fields["verification_token"] = ""
		st.EmailVerified = true
	}
	if st.ApprovalStatus == domain.ApprovalPendingInfo && st.ProfileToken == "" {
		st.ProfileToken = utils.NewToken()
		fields["profile_token"] = st.ProfileToken
	}
	if len(fields) > 0 {
		if err := s.staff.Updates(ctx, st.ID, fields); err != nil {
			return nil, err
		}
	}

	if err := Gate(st); err != nil {
		var approval *ApprovalError
		if errors.As(err, &approval) && approval.Status == domain.ApprovalPendingInfo {
			return &GoogleOutcome{Redirect: s.profileURL(st.ProfileToken)}, nil
		}
		return &GoogleOutcome{Redirect: s.loginErrorURL(err)}, nil
	}

	p := StaffPayload(st)
	return &GoogleOutcome{Role: session.RoleStaff, Payload: &p, Redirect: s.cfg.FrontendURL + "/staff/dashboard"}, nil
}

func (s *Service) createGoogleStaff(ctx context.Context, id *GoogleIdentity, email string) (*GoogleOutcome, error) {
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	st := &domain.Staff{
		Name:           name,
		Email:          email,
		GoogleID:       id.Subject,
		Role:           domain.StaffCleaner,
		Status:         domain.StaffActive,
		ApprovalStatus: domain.ApprovalPendingInfo,
		EmailVerified:  true,
		ProfileToken:   utils.NewToken(),
	}
	if err := s.staff.Create(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info("staff signed up with google", zap.Int64("staff_id", st.ID))
	return &GoogleOutcome{Redirect: s.profileURL(st.ProfileToken)}, nil
}

func (s *Service) profileURL(token string) string {
	return s.cfg.FrontendURL + "/staff/complete-profile?token=" + url.QueryEscape(token)
}

func (s *Service) loginErrorURL(err error) string {
	code := "login_failed"
	var approval *ApprovalError
	switch {
	case errors.As(err, &approval):
		code = strings.ToLower(approval.Code())
	case errors.Is(err, ErrAccountInactive):
		code = "account_inactive"
	case errors.Is(err, ErrGoogleUnverified):
		code = "email_not_verified"
	}
	return s.cfg.FrontendURL + "/staff/login?error=" + url.QueryEscape(code)
}
