package models

import "github.com/google/uuid"

// Role values recognized by the scope resolver.
const (
	RoleAdmin      = "admin"
	RoleTeamLead   = "team_lead"
	RoleConsultant = "consultant"
)

// Actor is the caller identity threaded into every core operation.
// It is built once by the JWT middleware; services never read ambient
// session state.
type Actor struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	TeamName string    `json:"team_name"`
}

// IsValidRole reports whether role is one of the three known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeamLead, RoleConsultant:
		return true
	}
	return false
}
