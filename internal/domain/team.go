package domain

import "time"

type TeamStatus string

const (
	TeamActive   TeamStatus = "active"
	TeamInactive TeamStatus = "inactive"
)

func (s TeamStatus) Valid() bool {
	return s == TeamActive || s == TeamInactive
}

type Team struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"uniqueIndex;not null"`
	Description  string     `json:"description,omitempty"`
	TeamLeaderID *int64     `json:"team_leader_id,omitempty"`
	Status       TeamStatus `json:"status" gorm:"not null;default:active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	TeamLeader *Staff        `json:"team_leader,omitempty" gorm:"foreignKey:TeamLeaderID;constraint:OnDelete:SET NULL"`
	Members    []*TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
	// MemberCount is filled by list queries only.
	MemberCount int64 `json:"member_count" gorm:"-"`
}

type TeamRole string

const (
	TeamRoleLeader     TeamRole = "leader"
	TeamRoleMember     TeamRole = "member"
	TeamRoleSpecialist TeamRole = "specialist"
)

func (r TeamRole) Valid() bool {
	switch r {
	case TeamRoleLeader, TeamRoleMember, TeamRoleSpecialist:
		return true
	}
	return false
}

// TeamMember links a staff member to a team. The unique index on StaffID
// keeps a staff member in at most one team.
type TeamMember struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	TeamID     int64     `json:"team_id" gorm:"not null;index"`
	StaffID    int64     `json:"staff_id" gorm:"not null;uniqueIndex"`
	RoleInTeam TeamRole  `json:"role_in_team" gorm:"not null;default:member"`
	JoinedAt   time.Time `json:"joined_at"`

	Team  *Team  `json:"-" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	Staff *Staff `json:"staff,omitempty" gorm:"foreignKey:StaffID;constraint:OnDelete:CASCADE"`
}
