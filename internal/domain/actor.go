package domain

import "github.com/google/uuid"

type Role string

const (
	RoleContributor Role = "contributor"
	RoleReviewer    Role = "reviewer"
	RoleAdmin       Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleContributor, RoleReviewer, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor is the authenticated caller behind a request.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (a Actor) HasRole(required Role) bool {
	switch required {
	case RoleAdmin:
		return a.Role == RoleAdmin
	case RoleReviewer:
		return a.Role == RoleReviewer || a.Role == RoleAdmin
	case RoleContributor:
		return a.Role == RoleContributor || a.Role == RoleReviewer || a.Role == RoleAdmin
	default:
		return false
	}
}
