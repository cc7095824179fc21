package domain

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&User{},
		&Staff{},
		&Team{},
		&TeamMember{},
		&Service{},
		&Booking{},
		&Assignment{},
		&AssignmentNotification{},
	}
}
