package server

import (
	"context"

	"smartbarangay/internal/feed"
	"smartbarangay/internal/models"
	"smartbarangay/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostAnnouncement handles POST /api/admin/announcements.
func (s *Server) PostAnnouncement(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	var in service.AnnouncementInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}

	post, err := s.portal.PostAnnouncement(c.UserContext(), v, in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(feed.Decorate([]models.Post{post}, v)[0])
}

// GetAdminReports handles GET /api/admin/reports.
func (s *Server) GetAdminReports(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	reports, err := s.portal.Reports(c.UserContext(), v)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(reports)
}

// UpdateReportStatus handles PUT /api/admin/reports/:reportId/status.
func (s *Server) UpdateReportStatus(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	reportID, err := parseID(c, "reportId")
	if err != nil {
		return nil
	}
	var in service.StatusInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	in.ReportID = reportID

	if err := s.portal.UpdateReportStatus(c.UserContext(), v, in); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Report status updated"})
}

// GetPendingUsers handles GET /api/admin/pending-users.
func (s *Server) GetPendingUsers(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	users, err := s.portal.PendingUsers(c.UserContext(), v)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(users)
}

// ApproveUser handles POST /api/admin/pending-users/:userId/approve.
func (s *Server) ApproveUser(c *fiber.Ctx) error {
	return s.decideUser(c, s.portal.ApproveUser)
}

// RejectUser handles POST /api/admin/pending-users/:userId/reject.
func (s *Server) RejectUser(c *fiber.Ctx) error {
	return s.decideUser(c, s.portal.RejectUser)
}

func (s *Server) decideUser(c *fiber.Ctx, decide func(ctx context.Context, v models.Viewer, userID uint) (string, error)) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	userID, err := parseUserID(c, "userId")
	if err != nil {
		return nil
	}

	message, err := decide(c.UserContext(), v, userID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}
