package server

import (
	"smartbarangay/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ChangePassword handles PUT /api/account/password.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	var in service.PasswordChangeInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}

	if err := s.portal.ChangePassword(c.UserContext(), v, in); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}
