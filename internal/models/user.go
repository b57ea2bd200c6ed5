package models

import "strings"

// User is an account as returned by the reports API.
type User struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Role      string `json:"role,omitempty"`
	UserType  string `json:"userType,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AccountRole normalizes role/userType, defaulting to citizen.
func (u User) AccountRole() Role {
	role := strings.ToLower(strings.TrimSpace(u.Role))
	if role == "" {
		role = strings.ToLower(strings.TrimSpace(u.UserType))
	}
	if role == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleCitizen
}

// DisplayName picks the best available name, then the e-mail local part.
func (u User) DisplayName() string {
	for _, name := range []string{u.FirstName, u.FullName} {
		if n := strings.TrimSpace(name); n != "" {
			return n
		}
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return strings.ToUpper(local[:1]) + local[1:]
	}
	return "Citizen"
}

// Credentials is the body of POST /api/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of POST /api/signup.
type Registration struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Phone           string `json:"phone,omitempty"`
	Address         string `json:"address,omitempty"`
}

// PasswordChange is the body of PUT /api/change-password.
type PasswordChange struct {
	UserID          uint   `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
