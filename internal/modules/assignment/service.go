package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanservice/internal/domain"
	"cleanservice/internal/mail"
	"cleanservice/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// bookingSources lists the booking states each reconciled booking status may
// be reached from when an assignment changes.
var bookingSources = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingAssigned:   {domain.BookingConfirmed},
	domain.BookingInProgress: {domain.BookingAssigned},
	domain.BookingCompleted:  {domain.BookingAssigned, domain.BookingInProgress},
	domain.BookingConfirmed:  {domain.BookingAssigned, domain.BookingInProgress},
}

// timestampColumn is the column stamped when an assignment enters a status.
var timestampColumn = map[domain.AssignmentStatus]string{
	domain.AssignmentAccepted:   "accepted_at",
	domain.AssignmentInProgress: "started_at",
	domain.AssignmentCompleted:  "completed_at",
	domain.AssignmentCancelled:  "cancelled_at",
}

type Service struct {
	assignments   *repository.AssignmentRepository
	bookings      *repository.BookingRepository
	teams         *repository.TeamRepository
	staff         *repository.StaffRepository
	notifications *repository.NotificationRepository
	mailer        mail.Mailer
	notifier      Notifier
	metrics       Recorder
	log           *zap.Logger
	now           func() time.Time
}

type Deps struct {
	Assignments   *repository.AssignmentRepository
	Bookings      *repository.BookingRepository
	Teams         *repository.TeamRepository
	Staff         *repository.StaffRepository
	Notifications *repository.NotificationRepository
	Mailer        mail.Mailer
	Notifier      Notifier
	Recorder      Recorder
	Logger        *zap.Logger
}

func NewService(d Deps) *Service {
	s := &Service{
		assignments:   d.Assignments,
		bookings:      d.Bookings,
		teams:         d.Teams,
		staff:         d.Staff,
		notifications: d.Notifications,
		mailer:        d.Mailer,
		notifier:      d.Notifier,
		metrics:       d.Recorder,
		log:           d.Logger,
		now:           time.Now,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

/* ---------- ADMIN ---------- */

// Create assigns a confirmed booking to a team or a single staff member and
// moves the booking to assigned.
func (s *Service) Create(ctx context.Context, req CreateAssignmentRequest, assignedBy int64) (*domain.Assignment, error) {
	if (req.TeamID == nil) == (req.StaffID == nil) {
		return nil, ErrTarget
	}

	a := &domain.Assignment{
		BookingID:  req.BookingID,
		TeamID:     req.TeamID,
		StaffID:    req.StaffID,
		Status:     domain.AssignmentAssigned,
		Notes:      req.Notes,
		AssignedAt: s.now(),
	}
	if assignedBy > 0 {
		a.AssignedBy = &assignedBy
	}

	var (
		booking    *domain.Booking
		recipients []domain.Staff
		notes      []*domain.AssignmentNotification
	)
	err := s.assignments.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = s.bookings.WithTx(tx).GetByID(ctx, req.BookingID)
		if err != nil {
			return notFound(err, ErrBookingNotFound)
		}
		if booking.Status != domain.BookingConfirmed {
			return ErrBookingNotConfirmed
		}

		if req.TeamID != nil {
			a.AssignmentType = domain.AssignmentTeam
			recipients, err = s.teamRecipients(ctx, tx, *req.TeamID)
		} else {
			a.AssignmentType = domain.AssignmentIndividual
			recipients, err = s.staffRecipient(ctx, tx, *req.StaffID)
		}
		if err != nil {
			return err
		}

		if err := s.assignments.WithTx(tx).Create(ctx, a); err != nil {
			return err
		}
		moved, err := s.bookings.WithTx(tx).TransitionStatus(ctx, booking.ID,
			bookingSources[domain.BookingAssigned], domain.BookingAssigned, nil)
		if err != nil {
			return err
		}
		if !moved {
			return ErrBookingNotConfirmed
		}

		notes = buildNotifications(a, recipients, "New assignment",
			fmt.Sprintf("%s on %s at %s, %s", booking.ServiceType, booking.PreferredDate, booking.PreferredTime, booking.Address))
		return s.notifications.WithTx(tx).CreateBatch(ctx, notes)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AssignmentTransition(string(domain.AssignmentAssigned))
	s.notifier.Push(notes)
	for i := range recipients {
		s.sendNotice(ctx, recipients[i].Email, booking)
	}
	return s.Get(ctx, a.ID)
}

func (s *Service) teamRecipients(ctx context.Context, tx *gorm.DB, teamID int64) ([]domain.Staff, error) {
	team, err := s.teams.WithTx(tx).GetByID(ctx, teamID)
	if err != nil {
		return nil, notFound(err, ErrTeamNotFound)
	}
	if team.Status != domain.TeamActive {
		return nil, ErrTeamInactive
	}
	members, err := s.teams.WithTx(tx).ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrTeamEmpty
	}
	out := make([]domain.Staff, 0, len(members))
	for _, m := range members {
		if m.Staff != nil {
			out = append(out, *m.Staff)
		}
	}
	return out, nil
}

func (s *Service) staffRecipient(ctx context.Context, tx *gorm.DB, staffID int64) ([]domain.Staff, error) {
	st, err := s.staff.WithTx(tx).GetByID(ctx, staffID)
	if err != nil {
		return nil, notFound(err, ErrStaffNotFound)
	}
	if st.Status != domain.StaffActive || st.ApprovalStatus != domain.ApprovalApproved {
		return nil, ErrStaffUnavailable
	}
	return []domain.Staff{*st}, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Assignment, int64, error) {
	items, total, err := s.assignments.List(ctx,
		repository.AssignmentFilter{BookingID: q.BookingID, Status: q.Status},
		repository.Page{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []domain.Assignment{}
	}
	return items, total, nil
}

// ForBooking lists every assignment a booking has had.
func (s *Service) ForBooking(ctx context.Context, bookingID int64) ([]domain.Assignment, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return nil, notFound(err, ErrBookingNotFound)
	}
	items, _, err := s.List(ctx, ListQuery{BookingID: &bookingID})
	return items, err
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Assignment, error) {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return a, nil
}

// Cancel stops an active assignment and hands the booking back to confirmed.
func (s *Service) Cancel(ctx context.Context, id int64) (*domain.Assignment, error) {
	var notes []*domain.AssignmentNotification
	err := s.assignments.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.assignments.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if err := s.transition(ctx, tx, a, domain.AssignmentCancelled); err != nil {
			return err
		}

		recipients, err := s.recipientsOf(ctx, tx, a)
		if err != nil {
			return err
		}
		notes = buildNotifications(a, recipients, "Assignment cancelled",
			fmt.Sprintf("Booking #%d has been cancelled", a.BookingID))
		return s.notifications.WithTx(tx).CreateBatch(ctx, notes)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AssignmentTransition(string(domain.AssignmentCancelled))
	s.notifier.Push(notes)
	return s.Get(ctx, id)
}

// Delete removes an assignment. An active one releases its booking first.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.assignments.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.assignments.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if err := s.assignments.WithTx(tx).Delete(ctx, id); err != nil {
			return notFound(err, ErrNotFound)
		}
		if !a.Status.Active() {
			return nil
		}
		return s.reconcileBooking(ctx, tx, a.BookingID, domain.AssignmentCancelled)
	})
}

/* ---------- STAFF ---------- */

// ForStaff lists assignments given to the staff member directly or to their team.
func (s *Service) ForStaff(ctx context.Context, staffID int64, status domain.AssignmentStatus) ([]domain.Assignment, error) {
	var teamID *int64
	m, err := s.teams.MembershipOf(ctx, staffID)
	switch {
	case err == nil:
		teamID = &m.TeamID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	items, err := s.assignments.ListForStaff(ctx, staffID, teamID, status)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Assignment{}
	}
	return items, nil
}

func (s *Service) Accept(ctx context.Context, id, staffID int64) (*domain.Assignment, error) {
	return s.advance(ctx, id, staffID, domain.AssignmentAccepted)
}

func (s *Service) Start(ctx context.Context, id, staffID int64) (*domain.Assignment, error) {
	return s.advance(ctx, id, staffID, domain.AssignmentInProgress)
}

func (s *Service) Complete(ctx context.Context, id, staffID int64) (*domain.Assignment, error) {
	return s.advance(ctx, id, staffID, domain.AssignmentCompleted)
}

func (s *Service) advance(ctx context.Context, id, staffID int64, to domain.AssignmentStatus) (*domain.Assignment, error) {
	err := s.assignments.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.assignments.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if err := s.checkAssignee(ctx, tx, a, staffID); err != nil {
			return err
		}
		return s.transition(ctx, tx, a, to)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AssignmentTransition(string(to))
	return s.Get(ctx, id)
}

func (s *Service) checkAssignee(ctx context.Context, tx *gorm.DB, a *domain.Assignment, staffID int64) error {
	if a.StaffID != nil && *a.StaffID == staffID {
		return nil
	}
	if a.TeamID == nil {
		return ErrNotAssignee
	}
	m, err := s.teams.WithTx(tx).MembershipOf(ctx, staffID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotAssignee
	}
	if err != nil {
		return err
	}
	if m.TeamID != *a.TeamID {
		return ErrNotAssignee
	}
	return nil
}

// transition moves a to status `to`, stamps its timestamp and reconciles the
// booking. Callers count the transition once the transaction commits.
func (s *Service) transition(ctx context.Context, tx *gorm.DB, a *domain.Assignment, to domain.AssignmentStatus) error {
	if !a.Status.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	extra := map[string]any{}
	if col, ok := timestampColumn[to]; ok {
		extra[col] = s.now()
	}
	moved, err := s.assignments.WithTx(tx).TransitionStatus(ctx, a.ID, a.Status, to, extra)
	if err != nil {
		return err
	}
	if !moved {
		return ErrStatusConflict
	}
	return s.reconcileBooking(ctx, tx, a.BookingID, to)
}

// reconcileBooking applies the booking status implied by an assignment
// entering `to`. A cancelled assignment only releases the booking when no
// other assignment on it is still active.
func (s *Service) reconcileBooking(ctx context.Context, tx *gorm.DB, bookingID int64, to domain.AssignmentStatus) error {
	next, ok := to.BookingStatusFor()
	if !ok {
		return nil
	}
	if to == domain.AssignmentCancelled {
		active, err := s.assignments.WithTx(tx).HasActiveForBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if active {
			return nil
		}
	}
	moved, err := s.bookings.WithTx(tx).TransitionStatus(ctx, bookingID, bookingSources[next], next, nil)
	if err != nil {
		return err
	}
	if !moved {
		s.log.Debug("booking left unchanged by assignment transition",
			zap.Int64("booking_id", bookingID), zap.String("assignment_status", string(to)))
	}
	return nil
}

func (s *Service) recipientsOf(ctx context.Context, tx *gorm.DB, a *domain.Assignment) ([]domain.Staff, error) {
	if a.StaffID != nil {
		st, err := s.staff.WithTx(tx).GetByID(ctx, *a.StaffID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []domain.Staff{*st}, nil
	}
	if a.TeamID == nil {
		return nil, nil
	}
	members, err := s.teams.WithTx(tx).ListMembers(ctx, *a.TeamID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Staff, 0, len(members))
	for _, m := range members {
		if m.Staff != nil {
			out = append(out, *m.Staff)
		}
	}
	return out, nil
}

func (s *Service) sendNotice(ctx context.Context, to string, b *domain.Booking) {
	msg, err := mail.AssignmentNotice(to, b)
	if err != nil {
		s.log.Error("render assignment notice", zap.Error(err))
		return
	}
	s.mailer.BestEffort(ctx, msg)
}

func buildNotifications(a *domain.Assignment, recipients []domain.Staff, title, message string) []*domain.AssignmentNotification {
	out := make([]*domain.AssignmentNotification, 0, len(recipients))
	for i := range recipients {
		staffID := recipients[i].ID
		out = append(out, &domain.AssignmentNotification{
			AssignmentID: a.ID,
			StaffID:      &staffID,
			TeamID:       a.TeamID,
			Title:        title,
			Message:      message,
		})
	}
	return out
}

func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
