package service

import (
	"context"
	"testing"

	"smartbarangay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	creds := models.Credentials{Email: " juan@barangay.ph ", Password: "secret1"}
	trimmed := models.Credentials{Email: "juan@barangay.ph", Password: "secret1"}

	tests := []struct {
		name    string
		kind    models.Role
		user    models.User
		code    string
		message string
	}{
		{"citizen on citizen page", models.RoleCitizen, models.User{ID: 7, Role: "citizen", Status: "approve"}, "", ""},
		{"admin on admin page", models.RoleAdmin, models.User{ID: 1, UserType: "admin"}, "", ""},
		{"admin on citizen page", models.RoleCitizen, models.User{ID: 1, Role: "admin"}, models.CodeUnauthorized, "admin account"},
		{"citizen on admin page", models.RoleAdmin, models.User{ID: 7, Role: "citizen"}, models.CodeUnauthorized, "not registered as an admin"},
		{"awaiting approval", models.RoleCitizen, models.User{ID: 7, Role: "citizen", Status: "pending"}, models.CodeUnauthorized, "awaiting"},
		{"rejected", models.RoleCitizen, models.User{ID: 7, Role: "citizen", Status: "rejected"}, models.CodeUnauthorized, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api, _ := newTestService(t)
			api.On("Login", mock.Anything, trimmed).Return(tt.user, nil)

			user, err := svc.Login(context.Background(), tt.kind, creds)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.user.ID, user.ID)
				return
			}
			assert.Equal(t, tt.code, models.ErrorCode(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), models.RoleCitizen, models.Credentials{Email: "juan@barangay.ph"})
	assertValidationError(t, err)
}

func TestSignup(t *testing.T) {
	svc, api, _ := newTestService(t)
	ctx := context.Background()

	api.On("Signup", mock.Anything, mock.MatchedBy(func(reg models.Registration) bool {
		return reg.FullName == "Juan Dela Cruz" && reg.Email == "juan@barangay.ph"
	})).Return("Registration submitted", nil)

	msg, err := svc.Signup(ctx, models.Registration{
		FullName: " Juan Dela Cruz ", Email: "juan@barangay.ph", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Registration submitted", msg)

	_, err = svc.Signup(ctx, models.Registration{
		FullName: "Juan", Email: "juan@barangay.ph", Password: "secret1", ConfirmPassword: "secret2",
	})
	assertValidationError(t, err)

	_, err = svc.Signup(ctx, models.Registration{
		FullName: "Juan", Email: "juan@barangay.ph", Password: "secret1", ConfirmPassword: "secret1", Phone: "call me",
	})
	assertValidationError(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, api, _ := newTestService(t)
	ctx := context.Background()

	api.On("ChangePassword", mock.Anything, models.PasswordChange{
		UserID: 7, CurrentPassword: "oldpass", NewPassword: "newpass",
	}).Return(nil)

	require.NoError(t, svc.ChangePassword(ctx, citizen7, PasswordChangeInput{
		CurrentPassword: "oldpass", NewPassword: "newpass", ConfirmPassword: "newpass",
	}))

	assertValidationError(t, svc.ChangePassword(ctx, citizen7, PasswordChangeInput{
		CurrentPassword: "oldpass", NewPassword: "oldpass", ConfirmPassword: "oldpass",
	}))
	assertValidationError(t, svc.ChangePassword(ctx, citizen7, PasswordChangeInput{
		CurrentPassword: "oldpass", NewPassword: "abc", ConfirmPassword: "abc",
	}))
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(svc.ChangePassword(ctx, models.Viewer{}, PasswordChangeInput{})))
}
