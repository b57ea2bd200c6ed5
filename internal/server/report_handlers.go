package server

import (
	"errors"

	"smartbarangay/internal/feed"
	"smartbarangay/internal/models"
	"smartbarangay/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed: the merged feed, newest first, with the
// posts the caller may modify marked editable.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	return c.JSON(s.portal.Feed(c.UserContext(), v))
}

// submitFailure answers a refused submission together with the post kept for retry.
type submitFailure struct {
	models.ErrorResponse
	Post feed.Item `json:"post"`
}

// SubmitReport handles POST /api/reports. A report the reports API refused is
// still answered with the failed post so the client can retry it.
func (s *Server) SubmitReport(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	var in service.SubmitReportInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}

	post, err := s.portal.SubmitReport(c.UserContext(), v, in)
	if err != nil {
		if post.ID == 0 {
			return s.fail(c, err)
		}
		failure := submitFailure{
			ErrorResponse: models.ErrorResponse{Error: err.Error(), Code: models.ErrorCode(err)},
			Post:          feed.Decorate([]models.Post{post}, v)[0],
		}
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			failure.Error = appErr.Message
		}
		return c.Status(models.StatusFor(err)).JSON(failure)
	}
	return c.Status(fiber.StatusCreated).JSON(feed.Decorate([]models.Post{post}, v)[0])
}

// RetryReport handles POST /api/reports/pending/:postId/retry.
func (s *Server) RetryReport(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.portal.RetrySync(c.UserContext(), v, postID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(feed.Decorate([]models.Post{post}, v)[0])
}

// UpdateReport handles PUT /api/reports/:reportId.
func (s *Server) UpdateReport(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	reportID, err := parseID(c, "reportId")
	if err != nil {
		return nil
	}
	var patch models.PostPatch
	if err := bindJSON(c, &patch); err != nil {
		return nil
	}

	items, err := s.portal.EditReport(c.UserContext(), v, service.EditReportInput{ReportID: reportID, Patch: patch})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(items)
}

// DeleteReport handles DELETE /api/reports/:reportId.
func (s *Server) DeleteReport(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	reportID, err := parseID(c, "reportId")
	if err != nil {
		return nil
	}

	items, err := s.portal.DeleteReport(c.UserContext(), v, reportID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(items)
}

// GetMyReports handles GET /api/reports/mine.
func (s *Server) GetMyReports(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	reports, err := s.portal.MyReports(c.UserContext(), v)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(reports)
}

// SyncMyReports handles POST /api/reports/sync.
func (s *Server) SyncMyReports(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return nil
	}
	result, err := s.portal.SyncMyReports(c.UserContext(), v)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"updated": result.Updated,
		"dropped": result.Dropped,
		"posts":   feed.Decorate(result.Feed, v),
	})
}
