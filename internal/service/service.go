// Package service holds the portal's use cases: report submission and
// maintenance, announcements, the approval workflow and accounts. Every
// operation takes the acting viewer and enforces its own access rules.
package service

import (
	"context"

	"smartbarangay/internal/feed"
	"smartbarangay/internal/models"
)

// ReportsAPI is the part of the reports API the portal calls.
type ReportsAPI interface {
	Predict(ctx context.Context, text string) (models.Prediction, error)
	SubmitReport(ctx context.Context, sub models.ReportSubmission) (int64, error)
	MyReports(ctx context.Context, userID uint) ([]models.Report, error)
	UpdateReport(ctx context.Context, reportID int64, upd models.ReportUpdate) error
	DeleteReport(ctx context.Context, reportID int64, userID uint) error
	AdminReports(ctx context.Context, adminID uint) ([]models.Report, error)
	UpdateReportStatus(ctx context.Context, reportID int64, upd models.StatusUpdate) error
	Login(ctx context.Context, creds models.Credentials) (models.User, error)
	Signup(ctx context.Context, reg models.Registration) (string, error)
	PendingUsers(ctx context.Context) ([]models.User, error)
	ApproveUser(ctx context.Context, userID uint) (string, error)
	RejectUser(ctx context.Context, userID uint) (string, error)
	ChangePassword(ctx context.Context, change models.PasswordChange) error
}

type PortalService struct {
	api     ReportsAPI
	applier *feed.Applier
	guard   *inflight
}

func NewPortalService(api ReportsAPI, applier *feed.Applier) *PortalService {
	return &PortalService{
		api:     api,
		applier: applier,
		guard:   newInflight(),
	}
}

// Feed returns the merged feed with the entries viewer may change marked editable.
func (s *PortalService) Feed(ctx context.Context, viewer models.Viewer) []feed.Item {
	return feed.Decorate(s.applier.Feed(ctx), viewer)
}

func requireCitizen(viewer models.Viewer) error {
	if viewer.ID == 0 {
		return models.NewUnauthorizedError("Please log in first")
	}
	if viewer.IsAdmin() {
		return models.NewForbiddenError("This action is for citizen accounts")
	}
	return nil
}

func requireAdmin(viewer models.Viewer) error {
	if viewer.ID == 0 {
		return models.NewUnauthorizedError("Please log in first")
	}
	if !viewer.IsAdmin() {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}
