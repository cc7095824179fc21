package staff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cleanservice/internal/database"
	"cleanservice/internal/domain"
	"cleanservice/internal/mail"
	"cleanservice/internal/pkg/utils"
	"cleanservice/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const verificationTTL = 24 * time.Hour

type Service struct {
	staff       *repository.StaffRepository
	mailer      mail.Mailer
	frontendURL string
	log         *zap.Logger
}

func NewService(staff *repository.StaffRepository, mailer mail.Mailer, frontendURL string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		staff:       staff,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

/* ---------- ADMIN ---------- */

func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Staff, int64, error) {
	return s.staff.List(ctx, repository.StaffFilter{
		Role:           q.Role,
		Status:         q.Status,
		ApprovalStatus: q.ApprovalStatus,
		Search:         q.Search,
	}, repository.Page{Limit: q.Limit, Offset: q.Offset})
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Staff, error) {
	st, err := s.staff.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return st, err
}

// Create adds staff on behalf of an admin. Such accounts skip verification and approval.
func (s *Service) Create(ctx context.Context, req CreateStaffRequest) (*domain.Staff, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	st := &domain.Staff{
		Name:            strings.TrimSpace(req.Name),
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		PasswordHash:    hash,
		Role:            domain.StaffCleaner,
		Status:          domain.StaffActive,
		ApprovalStatus:  domain.ApprovalApproved,
		EmailVerified:   true,
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      req.HourlyRate,
	}
	if req.Role != "" {
		st.Role = domain.StaffRole(req.Role)
	}
	if req.Status != "" {
		st.Status = domain.StaffStatus(req.Status)
	}

	if err := s.staff.Create(ctx, st); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return st, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateStaffRequest) (*domain.Staff, error) {
	fields := map[string]any{}
	setString(fields, "name", req.Name)
	setString(fields, "phone", req.Phone)
	setString(fields, "address", req.Address)
	setString(fields, "specialization", req.Specialization)
	if req.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		fields["role"] = domain.StaffRole(*req.Role)
	}
	if req.Status != nil {
		fields["status"] = domain.StaffStatus(*req.Status)
	}
	if req.ExperienceYears != nil {
		fields["experience_years"] = *req.ExperienceYears
	}
	if req.HourlyRate != nil {
		fields["hourly_rate"] = *req.HourlyRate
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	if err := s.updates(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the staff member with their memberships and notifications.
// Staff with individual assignments are kept; deactivate them instead.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.staff.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assigned int64
		if err := tx.Model(&domain.Assignment{}).Where("staff_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return ErrHasAssignments
		}
		if err := tx.Where("staff_id = ?", id).Delete(&domain.AssignmentNotification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("staff_id = ?", id).Delete(&domain.TeamMember{}).Error; err != nil {
			return err
		}
		if err := s.staff.WithTx(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
}

// SetApproval records the admin decision and notifies the applicant best-effort.
func (s *Service) SetApproval(ctx context.Context, id int64, req ApprovalRequest) (*domain.Staff, error) {
	decision := domain.ApprovalStatus(req.ApprovalStatus)
	if decision != domain.ApprovalApproved && decision != domain.ApprovalRejected {
		return nil, ErrInvalidApproval
	}

	fields := map[string]any{"approval_status": decision, "rejection_reason": ""}
	if decision == domain.ApprovalRejected {
		fields["rejection_reason"] = strings.TrimSpace(req.Reason)
	}
	if err := s.updates(ctx, id, fields); err != nil {
		return nil, err
	}

	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg, err := mail.StaffApprovalDecision(st); err == nil {
		s.mailer.BestEffort(ctx, msg)
	} else {
		s.log.Error("render approval email", zap.Error(err))
	}
	return st, nil
}

func (s *Service) SetStatus(ctx context.Context, id int64, status domain.StaffStatus) (*domain.Staff, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.updates(ctx, id, map[string]any{"status": status}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

/* ---------- SELF-SERVICE ---------- */

// Register creates an unverified applicant. The verification email must go out,
// otherwise the account is not kept.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.Staff, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(verificationTTL)
	st := &domain.Staff{
		Name:                  strings.TrimSpace(req.Name),
		Email:                 req.Email,
		Phone:                 req.Phone,
		Address:               req.Address,
		PasswordHash:          hash,
		Role:                  domain.StaffCleaner,
		Status:                domain.StaffActive,
		ApprovalStatus:        domain.ApprovalPendingApproval,
		Specialization:        req.Specialization,
		ExperienceYears:       req.ExperienceYears,
		HourlyRate:            req.HourlyRate,
		VerificationToken:     utils.NewToken(),
		VerificationExpiresAt: &expires,
	}

	if err := s.staff.Create(ctx, st); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	if err := s.sendVerification(ctx, st); err != nil {
		if delErr := s.staff.Delete(context.WithoutCancel(ctx), st.ID); delErr != nil {
			s.log.Error("failed to discard unverified applicant", zap.Int64("staff_id", st.ID), zap.Error(delErr))
		}
		return nil, err
	}
	return st, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) (*domain.Staff, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	st, err := s.staff.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if st.VerificationExpiresAt != nil && time.Now().After(*st.VerificationExpiresAt) {
		return nil, ErrTokenExpired
	}

	err = s.staff.Updates(ctx, st.ID, map[string]any{
		"email_verified":          true,
		"verification_token":      "",
		"verification_expires_at": nil,
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, st.ID)
}

// ResendVerification issues a fresh token. Unknown emails are ignored silently.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	st, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if st.EmailVerified {
		return ErrAlreadyVerified
	}

	expires := time.Now().Add(verificationTTL)
	st.VerificationToken = utils.NewToken()
	st.VerificationExpiresAt = &expires
	if err := s.staff.Updates(ctx, st.ID, map[string]any{
		"verification_token":      st.VerificationToken,
		"verification_expires_at": expires,
	}); err != nil {
		return err
	}
	return s.sendVerification(ctx, st)
}

// CompleteProfile finishes a Google sign-up and submits it for approval.
func (s *Service) CompleteProfile(ctx context.Context, req CompleteProfileRequest) (*domain.Staff, error) {
	st, err := s.staff.GetByProfileToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if st.ApprovalStatus != domain.ApprovalPendingInfo {
		return nil, ErrProfileNotPending
	}

	fields := map[string]any{
		"phone":            req.Phone,
		"address":          req.Address,
		"specialization":   req.Specialization,
		"experience_years": req.ExperienceYears,
		"hourly_rate":      req.HourlyRate,
		"approval_status":  domain.ApprovalPendingApproval,
		"profile_token":    "",
	}
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if err := s.staff.Updates(ctx, st.ID, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, st.ID)
}

func (s *Service) UpdateMe(ctx context.Context, id int64, req UpdateMeRequest) (*domain.Staff, error) {
	fields := map[string]any{}
	setString(fields, "name", req.Name)
	setString(fields, "phone", req.Phone)
	setString(fields, "address", req.Address)
	setString(fields, "specialization", req.Specialization)
	if err := s.updates(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if st.PasswordHash == "" {
		return ErrPasswordUnavailable
	}
	if bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.updates(ctx, id, map[string]any{"password_hash": hash})
}

func (s *Service) sendVerification(ctx context.Context, st *domain.Staff) error {
	link := fmt.Sprintf("%s/staff/verify-email?token=%s", s.frontendURL, url.QueryEscape(st.VerificationToken))
	msg, err := mail.StaffVerification(st, link)
	if err != nil {
		return err
	}
	if err := s.mailer.Required(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

func (s *Service) updates(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		_, err := s.Get(ctx, id)
		return err
	}
	if err := s.staff.Updates(ctx, id, fields); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrNotFound
		case database.IsUniqueViolation(err):
			return ErrEmailExists
		}
		return err
	}
	return nil
}

func setString(fields map[string]any, column string, v *string) {
	if v != nil {
		fields[column] = strings.TrimSpace(*v)
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
