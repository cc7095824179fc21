package booking

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
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/pkg/utils"
	"cleanservice/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const verificationTTL = 24 * time.Hour

// confirmable are the states an admin may confirm a booking from.
var confirmable = []domain.BookingStatus{
	domain.BookingPendingVerification,
	domain.BookingPendingPassword,
	domain.BookingPending,
}

// customerCancellable are the states a customer may cancel from.
var customerCancellable = []domain.BookingStatus{
	domain.BookingPendingVerification,
	domain.BookingPendingPassword,
	domain.BookingPending,
	domain.BookingConfirmed,
}

type Config struct {
	FrontendURL string
	AdminEmail  string
}

type Service struct {
	bookings *repository.BookingRepository
	users    *repository.UserRepository
	mailer   mail.Mailer
	metrics  Recorder
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	bookings *repository.BookingRepository,
	users *repository.UserRepository,
	mailer mail.Mailer,
	recorder Recorder,
	cfg Config,
	log *zap.Logger,
) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &Service{
		bookings: bookings,
		users:    users,
		mailer:   mailer,
		metrics:  recorder,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Create books a service. A signed-in customer's booking goes straight to
// pending; a guest must verify the email first, and the booking only
// persists if the verification email was sent.
func (s *Service) Create(ctx context.Context, req CreateBookingRequest, customer *session.Payload) (*domain.Booking, error) {
	if req.PreferredDate < s.today() {
		return nil, ErrPastDate
	}

	b := &domain.Booking{
		Name:          strings.TrimSpace(req.Name),
		Email:         req.Email,
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		PreferredDate: req.PreferredDate,
		PreferredTime: req.PreferredTime,
		Notes:         req.Notes,
	}

	if customer != nil {
		// Signed-in bookings always belong to the account's address.
		b.Email = customer.Email
		b.UserID = &customer.ID
		b.Status = domain.BookingPending
		if err := s.bookings.Create(ctx, b); err != nil {
			return nil, err
		}
		s.metrics.BookingCreated("customer")
		s.alertAdmin(ctx, b)
		return b, nil
	}

	expires := s.now().Add(verificationTTL)
	b.Status = domain.BookingPendingVerification
	b.VerificationToken = utils.NewToken()
	b.VerificationExpiresAt = &expires

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	if err := s.sendVerification(ctx, b); err != nil {
		s.discard(ctx, b.ID)
		return nil, err
	}
	s.metrics.BookingCreated("guest")
	return b, nil
}

func (s *Service) sendVerification(ctx context.Context, b *domain.Booking) error {
	link := fmt.Sprintf("%s/booking/verify?token=%s", s.cfg.FrontendURL, url.QueryEscape(b.VerificationToken))
	msg, err := mail.BookingVerification(b, link)
	if err != nil {
		return err
	}
	if err := s.mailer.Required(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// discard removes a guest booking whose verification email never went out.
func (s *Service) discard(ctx context.Context, id int64) {
	ctx = context.WithoutCancel(ctx)
	err := s.bookings.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.bookings.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		s.log.Error("failed to discard unverified booking", zap.Int64("booking_id", id), zap.Error(err))
	}
}

// Verify consumes a booking verification token. Known customers are linked
// right away; everyone else is asked to set a password.
func (s *Service) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	b, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}

	switch b.Status {
	case domain.BookingPendingPassword:
		return &VerifyResult{Booking: b, RequiresPassword: true}, nil
	case domain.BookingPendingVerification:
	default:
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByEmail(ctx, b.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if user == nil {
		ok, err := s.bookings.TransitionStatus(ctx, b.ID, []domain.BookingStatus{domain.BookingPendingVerification},
			domain.BookingPendingPassword, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrStatusConflict
		}
		s.metrics.BookingTransition(string(domain.BookingPendingPassword))
		b.Status = domain.BookingPendingPassword
		return &VerifyResult{Booking: b, RequiresPassword: true}, nil
	}

	ok, err := s.bookings.TransitionStatus(ctx, b.ID, []domain.BookingStatus{domain.BookingPendingVerification},
		domain.BookingPending, map[string]any{
			"user_id":                 user.ID,
			"verification_token":      "",
			"verification_expires_at": nil,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStatusConflict
	}
	s.metrics.BookingTransition(string(domain.BookingPending))

	b, err = s.Get(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.alertAdmin(ctx, b)
	return &VerifyResult{Booking: b}, nil
}

// SetPassword creates the customer account for a verified guest booking and
// links every booking placed with that email.
func (s *Service) SetPassword(ctx context.Context, req SetPasswordRequest) (*domain.User, *domain.Booking, error) {
	b, err := s.byToken(ctx, req.Token)
	if err != nil {
		return nil, nil, err
	}
	if b.Status != domain.BookingPendingPassword {
		return nil, nil, ErrInvalidTransition
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	user := &domain.User{
		Name:          b.Name,
		Email:         b.Email,
		Phone:         b.Phone,
		Address:       b.Address,
		PasswordHash:  string(hash),
		EmailVerified: true,
	}

	err = s.bookings.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailExists
			}
			return err
		}
		bookings := s.bookings.WithTx(tx)
		ok, err := bookings.TransitionStatus(ctx, b.ID, []domain.BookingStatus{domain.BookingPendingPassword},
			domain.BookingPending, map[string]any{
				"verification_token":      "",
				"verification_expires_at": nil,
			})
		if err != nil {
			return err
		}
		if !ok {
			return ErrStatusConflict
		}
		return bookings.LinkUser(ctx, user.Email, user.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	s.metrics.BookingTransition(string(domain.BookingPending))

	b, err = s.Get(ctx, b.ID)
	if err != nil {
		return nil, nil, err
	}
	if msg, err := mail.NewCustomerAlert(s.cfg.AdminEmail, user); err == nil {
		s.mailer.BestEffort(ctx, msg)
	}
	s.alertAdmin(ctx, b)
	return user, b, nil
}

/* ---------- ADMIN ---------- */

func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Booking, int64, error) {
	return s.bookings.List(ctx, repository.BookingFilter{Status: q.Status, Email: q.Email},
		repository.Page{Limit: q.Limit, Offset: q.Offset})
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateBookingRequest) (*domain.Booking, error) {
	date := req.PreferredDate
	if date == "" {
		date = s.today()
	}
	clock := req.PreferredTime
	if clock == "" {
		clock = domain.DefaultPreferredTime
	}

	fields := map[string]any{
		"preferred_date": date,
		"preferred_time": clock,
	}
	setString(fields, "name", req.Name)
	setString(fields, "phone", req.Phone)
	setString(fields, "address", req.Address)
	setString(fields, "service_type", req.ServiceType)
	if req.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	if err := s.bookings.Updates(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateStatus applies an admin status change. Cancelling also cancels the
// booking's active assignments.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next domain.BookingStatus) (*domain.Booking, error) {
	if !next.Valid() {
		return nil, ErrInvalidTransition
	}
	if next == domain.BookingConfirmed {
		return s.Confirm(ctx, id)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	extra := map[string]any{}
	if next == domain.BookingCancelled {
		extra["cancelled_at"] = now
	}

	err = s.bookings.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookings.WithTx(tx).TransitionStatus(ctx, id, []domain.BookingStatus{current.Status}, next, extra)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStatusConflict
		}
		if next != domain.BookingCancelled {
			return nil
		}
		return tx.Model(&domain.Assignment{}).
			Where("booking_id = ? AND status IN ?", id, []domain.AssignmentStatus{
				domain.AssignmentAssigned, domain.AssignmentAccepted, domain.AssignmentInProgress,
			}).
			Updates(map[string]any{"status": domain.AssignmentCancelled, "cancelled_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	s.metrics.BookingTransition(string(next))
	return s.Get(ctx, id)
}

// Confirm moves a pending booking to confirmed and emails the customer best-effort.
func (s *Service) Confirm(ctx context.Context, id int64) (*domain.Booking, error) {
	ok, err := s.bookings.TransitionStatus(ctx, id, confirmable, domain.BookingConfirmed, map[string]any{
		"confirmed_at":            s.now(),
		"verification_token":      "",
		"verification_expires_at": nil,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}
	s.metrics.BookingTransition(string(domain.BookingConfirmed))

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg, err := mail.BookingConfirmation(b); err == nil {
		s.mailer.BestEffort(ctx, msg)
	} else {
		s.log.Error("render confirmation email", zap.Int64("booking_id", id), zap.Error(err))
	}
	return b, nil
}

// Delete removes the booking together with its assignments and their notifications.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.bookings.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookings.WithTx(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
}

/* ---------- CUSTOMER ---------- */

func (s *Service) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, int64, error) {
	return s.bookings.List(ctx, repository.BookingFilter{UserID: &userID}, repository.Page{Limit: limit, Offset: offset})
}

func (s *Service) CancelForUser(ctx context.Context, userID, id int64) (*domain.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID == nil || *b.UserID != userID {
		return nil, ErrForbidden
	}
	ok, err := s.bookings.TransitionStatus(ctx, id, customerCancellable, domain.BookingCancelled, map[string]any{
		"cancelled_at": s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	s.metrics.BookingTransition(string(domain.BookingCancelled))
	return s.Get(ctx, id)
}

func (s *Service) byToken(ctx context.Context, token string) (*domain.Booking, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	b, err := s.bookings.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if b.VerificationExpiresAt != nil && s.now().After(*b.VerificationExpiresAt) {
		return nil, ErrTokenExpired
	}
	return b, nil
}

func (s *Service) alertAdmin(ctx context.Context, b *domain.Booking) {
	if s.cfg.AdminEmail == "" {
		return
	}
	msg, err := mail.NewBookingAlert(s.cfg.AdminEmail, b)
	if err != nil {
		s.log.Error("render booking alert", zap.Int64("booking_id", b.ID), zap.Error(err))
		return
	}
	s.mailer.BestEffort(ctx, msg)
}

func (s *Service) today() string {
	return s.now().Format(domain.DateLayout)
}

func setString(fields map[string]any, column string, v *string) {
	if v != nil {
		fields[column] = strings.TrimSpace(*v)
	}
}
