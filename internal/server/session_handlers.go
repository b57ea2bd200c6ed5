package server

import (
	"log/slog"
	"strings"

	"smartbarangay/internal/middleware"
	"smartbarangay/internal/models"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	models.Credentials
	Kind string `json:"kind"`
}

type signupRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

// SessionResponse is returned by a successful login.
type SessionResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
	Role  models.Role `json:"role"`
}

// SessionUser is the account summary the portal keeps for the signed-in user.
type SessionUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Login handles POST /api/session/login. The login page is chosen by the
// "kind" field or query parameter ("admin" or "citizen").
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	kind := models.Role(strings.ToLower(strings.TrimSpace(c.Query("kind", req.Kind))))

	user, err := s.portal.Login(c.UserContext(), kind, req.Credentials)
	if err != nil {
		return s.fail(c, err)
	}

	role := user.AccountRole()
	token, err := s.sessions.Issue(models.Viewer{ID: user.ID, Role: role}, user.DisplayName())
	if err != nil {
		return s.fail(c, models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "session started",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", string(role)),
	)
	return c.JSON(SessionResponse{
		Token: token,
		Role:  role,
		User: SessionUser{
			ID:    user.ID,
			Name:  user.DisplayName(),
			Email: user.Email,
		},
	})
}

// Signup handles POST /api/session/signup.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	message, err := s.portal.Signup(c.UserContext(), models.Registration{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Phone:           req.Phone,
		Address:         req.Address,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}
