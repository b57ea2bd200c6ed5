package models

// Role is the account role carried in a session.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// Viewer identifies who is looking at (or acting on) the feed.
type Viewer struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

// IsAdmin reports whether the viewer holds the admin role.
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}
