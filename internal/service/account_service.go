package service

import (
	"context"
	"strings"

	"smartbarangay/internal/models"
	"smartbarangay/internal/validation"
)

// Login checks credentials against the reports API for the given login page.
// Accounts of the other role and accounts still awaiting approval are refused.
func (s *PortalService) Login(ctx context.Context, kind models.Role, creds models.Credentials) (models.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	creds.Password = strings.TrimSpace(creds.Password)
	if creds.Email == "" || creds.Password == "" {
		return models.User{}, models.NewValidationError("Please enter email and password")
	}
	if kind != models.RoleAdmin {
		kind = models.RoleCitizen
	}

	user, err := s.api.Login(ctx, creds)
	if err != nil {
		return models.User{}, err
	}

	if role := user.AccountRole(); role != kind {
		if role == models.RoleAdmin {
			return models.User{}, models.NewUnauthorizedError("This is an admin account. Please use the Admin Login page.")
		}
		return models.User{}, models.NewUnauthorizedError("Unauthorized access. This account is not registered as an admin.")
	}

	switch strings.ToLower(strings.TrimSpace(user.Status)) {
	case "pending":
		return models.User{}, models.NewUnauthorizedError("Your account is awaiting admin approval")
	case "reject", "rejected":
		return models.User{}, models.NewUnauthorizedError("Your registration was rejected")
	}
	return user, nil
}

// Signup registers a citizen account for approval.
func (s *PortalService) Signup(ctx context.Context, reg models.Registration) (string, error) {
	reg.FullName = strings.TrimSpace(reg.FullName)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)
	if err := validation.ValidateRegistration(reg); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	release, err := s.guard.begin("registration", strings.ToLower(reg.Email))
	if err != nil {
		return "", err
	}
	defer release()

	return s.api.Signup(ctx, reg)
}

type PasswordChangeInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword replaces the viewer's password.
func (s *PortalService) ChangePassword(ctx context.Context, viewer models.Viewer, in PasswordChangeInput) error {
	if viewer.ID == 0 {
		return models.NewUnauthorizedError("Please log in first")
	}
	change := models.PasswordChange{
		UserID:          viewer.ID,
		CurrentPassword: in.CurrentPassword,
		NewPassword:     in.NewPassword,
	}
	if err := validation.ValidatePasswordChange(change, in.ConfirmPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	release, err := s.guard.begin("password change", viewer.ID)
	if err != nil {
		return err
	}
	defer release()

	return s.api.ChangePassword(ctx, change)
}
