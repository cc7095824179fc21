package team

type CreateTeamRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Description  string `json:"description" validate:"max=1000"`
	TeamLeaderID *int64 `json:"team_leader_id" validate:"omitempty,gt=0"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateTeamRequest keeps the stored value for every nil field.
type UpdateTeamRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	TeamLeaderID *int64  `json:"team_leader_id" validate:"omitempty,gt=0"`
	Status       *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type AddMemberRequest struct {
	StaffID    int64  `json:"staff_id" validate:"required,gt=0"`
	RoleInTeam string `json:"role_in_team" validate:"omitempty,oneof=leader member specialist"`
}

// UpdateMemberRequest with a null role_in_team leaves the role unchanged.
type UpdateMemberRequest struct {
	RoleInTeam *string `json:"role_in_team" validate:"omitempty,oneof=leader member specialist"`
}
