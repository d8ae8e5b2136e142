package domain

import "time"

// Role classifies what an actor may see and mutate.
type Role string

const (
	// RoleAdmin is the programme office: full visibility, final grant sign-off.
	RoleAdmin Role = "admin"
	// RoleCoach advises assigned projects and writes coaching records.
	RoleCoach Role = "coach"
	// RoleOperator runs a community unit and files its monthly reports.
	RoleOperator Role = "operator"
)

// User is an actor account.
type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               Role      `json:"role"`
	UnitID             string    `json:"unitId,omitempty"`
	AssignedProjectIDs []string  `json:"assignedProjectIds,omitempty"`
	PasswordHash       string    `json:"-"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Is reports whether the user holds the given role.
func (u User) Is(role Role) bool {
	return u.Role == role
}
