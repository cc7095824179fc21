package main

import (
	"log"
	"time"

	"cleanservice/internal/config"
	"cleanservice/internal/database"
	"cleanservice/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const demoPassword = "cleaner123"

var catalog = []domain.Service{
	{Title: "Standard Cleaning", Icon: "broom", Price: 80, Description: "Dusting, vacuuming, mopping and kitchen and bathroom surfaces."},
	{Title: "Deep Cleaning", Icon: "sparkles", Price: 160, Description: "Everything in standard plus inside appliances, baseboards and grout."},
	{Title: "Move In/Out Cleaning", Icon: "box", Price: 220, Description: "Empty-home clean for handovers, including cabinets and closets."},
	{Title: "Office Cleaning", Icon: "building", Price: 140, Description: "Workspaces, meeting rooms and shared kitchens after hours."},
	{Title: "Window Cleaning", Icon: "window", Price: 60, Description: "Interior and reachable exterior glass, frames and sills."},
	{Title: "Carpet Cleaning", Icon: "droplet", Price: 90, Description: "Hot-water extraction for carpets and rugs."},
}

type demoStaff struct {
	name  string
	email string
	role  domain.StaffRole
	years int
	rate  float64
}

var staffRoster = []demoStaff{
	{"Maria Lopez", "maria@cleanservice.local", domain.StaffSupervisor, 8, 28},
	{"James Carter", "james@cleanservice.local", domain.StaffCleaner, 3, 20},
	{"Aisha Khan", "aisha@cleanservice.local", domain.StaffCleaner, 2, 19},
	{"Tom Becker", "tom@cleanservice.local", domain.StaffManager, 12, 35},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.Database.URL, database.Silent())
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		log.Println("Seeding catalog...")
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "icon", "price", "updated_at"}),
		}).Create(&catalog).Error; err != nil {
			return err
		}

		log.Println("Seeding staff...")
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(staffRoster))
		for _, s := range staffRoster {
			st := domain.Staff{
				Name:            s.name,
				Email:           s.email,
				PasswordHash:    string(hash),
				Role:            s.role,
				Status:          domain.StaffActive,
				ApprovalStatus:  domain.ApprovalApproved,
				EmailVerified:   true,
				Specialization:  "Residential",
				ExperienceYears: s.years,
				HourlyRate:      s.rate,
			}
			if err := tx.Where(domain.Staff{Email: s.email}).Attrs(st).FirstOrCreate(&st).Error; err != nil {
				return err
			}
			ids = append(ids, st.ID)
		}

		log.Println("Seeding team...")
		leader := ids[0]
		team := domain.Team{Name: "Downtown Crew", Description: "Residential jobs in the city centre", TeamLeaderID: &leader, Status: domain.TeamActive}
		if err := tx.Omit(clause.Associations).Where(domain.Team{Name: team.Name}).Attrs(team).FirstOrCreate(&team).Error; err != nil {
			return err
		}
		for i, id := range ids[:3] {
			role := domain.TeamRoleMember
			if i == 0 {
				role = domain.TeamRoleLeader
			}
			m := domain.TeamMember{TeamID: team.ID, StaffID: id, RoleInTeam: role, JoinedAt: time.Now()}
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error; err != nil {
				return err
			}
		}

		log.Println("Seeding bookings...")
		var count int64
		if err := tx.Model(&domain.Booking{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		now := time.Now()
		bookings := []domain.Booking{
			{Name: "Olivia Grant", Email: "olivia@example.com", Phone: "+15550100", Address: "12 Elm St", ServiceType: "Deep Cleaning",
				PreferredDate: now.AddDate(0, 0, 3).Format("2006-01-02"), PreferredTime: "09:00", Status: domain.BookingConfirmed, ConfirmedAt: &now},
			{Name: "Noah Reed", Email: "noah@example.com", Phone: "+15550101", Address: "4 Pine Ave", ServiceType: "Standard Cleaning",
				PreferredDate: now.AddDate(0, 0, 5).Format("2006-01-02"), PreferredTime: "13:00", Status: domain.BookingPendingPassword},
			{Name: "Emma Stone", Email: "emma@example.com", Phone: "+15550102", Address: "88 Oak Rd", ServiceType: "Window Cleaning",
				PreferredDate: now.AddDate(0, 0, -4).Format("2006-01-02"), PreferredTime: "10:30", Status: domain.BookingCompleted, ConfirmedAt: &now},
		}
		return tx.Omit(clause.Associations).Create(&bookings).Error
	})
	if err != nil {
		log.Fatal("seed failed:", err)
	}

	log.Println("Seed completed!")
	log.Printf("Staff: %s ... / %s", staffRoster[0].email, demoPassword)
	log.Println("Admin: ADMIN_EMAIL / ADMIN_PASSWORD from the environment")
}
