package models

// Roles recognized by the API. Admins see every base; the other two roles are
// scoped to their own base.
const (
	RoleAdmin            = "admin"
	RoleBaseCommander    = "base_commander"
	RoleLogisticsOfficer = "logistics_officer"
)

// ValidRole reports whether the role string is one the system recognizes.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBaseCommander, RoleLogisticsOfficer:
		return true
	}
	return false
}

// Actor is the authenticated identity workflows use for role and base
// scoping. Built by the auth middleware from JWT claims.
type Actor struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	BaseID int    `json:"base_id"`
}

// IsAdmin reports whether the actor bypasses base scoping.
func (a *Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccessBase reports whether the actor may operate on the base.
func (a *Actor) CanAccessBase(baseID int) bool {
	return a.IsAdmin() || a.BaseID == baseID
}
