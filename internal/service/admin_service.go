package service

import (
	"context"
	"strings"

	"smartbarangay/internal/models"
	"smartbarangay/internal/validation"
)

const (
	announcementCategory = "General"
	announcementRisk     = "Medium"
	announcementAuthor   = "Barangay Admin OFFICIAL"
	announcementLocation = "Admin Office"
)

type AnnouncementInput struct {
	Content         string `json:"content"`
	Location        string `json:"location"`
	AttachmentImage string `json:"attachmentImage"`
}

// PostAnnouncement classifies and publishes an admin announcement.
func (s *PortalService) PostAnnouncement(ctx context.Context, viewer models.Viewer, in AnnouncementInput) (models.Post, error) {
	if err := requireAdmin(viewer); err != nil {
		return models.Post{}, err
	}
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateDescription(content); err != nil {
		return models.Post{}, models.NewValidationError("Please write something before posting")
	}

	release, err := s.guard.begin("announcement", viewer.ID)
	if err != nil {
		return models.Post{}, err
	}
	defer release()

	pred, err := s.api.Predict(ctx, content)
	if err != nil {
		return models.Post{}, err
	}

	adminID := viewer.ID
	post, _, err := s.applier.CreateAdminPost(ctx, models.Post{
		AuthorID:        &adminID,
		AuthorName:      announcementAuthor,
		Content:         content,
		Location:        orDefault(in.Location, announcementLocation),
		ContactPhone:    defaultPhone,
		Category:        orDefault(pred.Category, announcementCategory),
		RiskLevel:       orDefault(pred.RiskLevel, announcementRisk),
		AttachmentImage: in.AttachmentImage,
	})
	return post, err
}

// Reports lists every report for admin review.
func (s *PortalService) Reports(ctx context.Context, viewer models.Viewer) ([]models.Report, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	return s.api.AdminReports(ctx, viewer.ID)
}

type StatusInput struct {
	ReportID int64
	Status   models.ReportStatus `json:"response_status"`
	Notes    string              `json:"admin_notes"`
}

// UpdateReportStatus records the admin's response on a report.
func (s *PortalService) UpdateReportStatus(ctx context.Context, viewer models.Viewer, in StatusInput) error {
	if err := requireAdmin(viewer); err != nil {
		return err
	}
	if in.ReportID <= 0 {
		return models.NewValidationError("Invalid report ID")
	}
	if err := validation.ValidateStatus(in.Status); err != nil {
		return models.NewValidationError(err.Error())
	}

	release, err := s.guard.begin("status update", in.ReportID)
	if err != nil {
		return err
	}
	defer release()

	return s.api.UpdateReportStatus(ctx, in.ReportID, models.StatusUpdate{
		AdminID:        viewer.ID,
		ResponseStatus: in.Status,
		AdminNotes:     strings.TrimSpace(in.Notes),
	})
}

// PendingUsers lists registrations awaiting approval.
func (s *PortalService) PendingUsers(ctx context.Context, viewer models.Viewer) ([]models.User, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	return s.api.PendingUsers(ctx)
}

// ApproveUser activates a pending registration.
func (s *PortalService) ApproveUser(ctx context.Context, viewer models.Viewer, userID uint) (string, error) {
	return s.decide(ctx, viewer, userID, s.api.ApproveUser)
}

// RejectUser declines a pending registration.
func (s *PortalService) RejectUser(ctx context.Context, viewer models.Viewer, userID uint) (string, error) {
	return s.decide(ctx, viewer, userID, s.api.RejectUser)
}

func (s *PortalService) decide(ctx context.Context, viewer models.Viewer, userID uint, call func(context.Context, uint) (string, error)) (string, error) {
	if err := requireAdmin(viewer); err != nil {
		return "", err
	}
	if userID == 0 {
		return "", models.NewValidationError("Invalid user ID")
	}

	release, err := s.guard.begin("account decision", userID)
	if err != nil {
		return "", err
	}
	defer release()

	return call(ctx, userID)
}
