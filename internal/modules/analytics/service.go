package analytics

import (
	"context"
	"math"
	"time"

	"cleanservice/internal/domain"

	"gorm.io/gorm"
)

// DailyWindow is how many days the per-day booking series covers, today included.
const DailyWindow = 30

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

type groupRow struct {
	Label string
	Count int64
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	db := s.db.WithContext(ctx)
	out := &Overview{GeneratedAt: s.now().UTC()}

	var err error
	if out.Bookings.ByStatus, out.Bookings.Total, err = countBy(db, &domain.Booking{}, "status"); err != nil {
		return nil, err
	}
	if out.Bookings.ByServiceType, err = s.byServiceType(db); err != nil {
		return nil, err
	}
	if out.Bookings.Daily, err = s.daily(db); err != nil {
		return nil, err
	}

	if out.Staff.ByStatus, out.Staff.Total, err = countBy(db, &domain.Staff{}, "status"); err != nil {
		return nil, err
	}
	if out.Staff.ByApprovalStatus, _, err = countBy(db, &domain.Staff{}, "approval_status"); err != nil {
		return nil, err
	}

	teams, _, err := countBy(db, &domain.Team{}, "status")
	if err != nil {
		return nil, err
	}
	for status, n := range teams {
		out.Teams.Total += n
		if status == string(domain.TeamActive) {
			out.Teams.Active = n
		}
	}

	if out.Assignments.ByStatus, out.Assignments.Total, err = countBy(db, &domain.Assignment{}, "status"); err != nil {
		return nil, err
	}
	out.Assignments.CompletionRate = completionRate(out.Assignments)

	out.Revenue.CompletedBookings = out.Bookings.ByStatus[string(domain.BookingCompleted)]
	if out.Revenue.Estimated, err = s.estimatedRevenue(db); err != nil {
		return nil, err
	}
	return out, nil
}

func countBy(db *gorm.DB, model any, column string) (map[string]int64, int64, error) {
	var rows []groupRow
	err := db.Model(model).
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Label] = r.Count
		total += r.Count
	}
	return out, total, nil
}

func (s *Service) byServiceType(db *gorm.DB) ([]LabelCount, error) {
	var rows []groupRow
	err := db.Model(&domain.Booking{}).
		Select("service_type AS label, COUNT(*) AS count").
		Group("service_type").
		Order("count DESC, label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]LabelCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, LabelCount{Label: r.Label, Count: r.Count})
	}
	return out, nil
}

// daily buckets bookings by creation day in Go so the query stays portable
// between sqlite and postgres.
func (s *Service) daily(db *gorm.DB) ([]DailyCount, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(DailyWindow - 1))

	var created []time.Time
	err := db.Model(&domain.Booking{}).
		Where("created_at >= ?", start).
		Pluck("created_at", &created).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, DailyWindow)
	for _, t := range created {
		counts[t.In(now.Location()).Format(domain.DateLayout)]++
	}
	out := make([]DailyCount, 0, DailyWindow)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(domain.DateLayout)
		out = append(out, DailyCount{Date: key, Count: counts[key]})
	}
	return out, nil
}

// estimatedRevenue prices completed bookings by the catalog entry whose
// title matches the booking's service type.
func (s *Service) estimatedRevenue(db *gorm.DB) (float64, error) {
	var total float64
	err := db.Table("bookings").
		Select("COALESCE(SUM(services.price), 0)").
		Joins("JOIN services ON services.title = bookings.service_type").
		Where("bookings.status = ?", domain.BookingCompleted).
		Scan(&total).Error
	return total, err
}

func completionRate(a AssignmentStats) float64 {
	assignable := a.Total - a.ByStatus[string(domain.AssignmentCancelled)]
	if assignable <= 0 {
		return 0
	}
	rate := float64(a.ByStatus[string(domain.AssignmentCompleted)]) / float64(assignable)
	return math.Round(rate*1000) / 1000
}
