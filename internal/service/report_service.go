package service

import (
	"context"
	"log/slog"
	"strings"

	"smartbarangay/internal/feed"
	"smartbarangay/internal/middleware"
	"smartbarangay/internal/models"
	"smartbarangay/internal/validation"
)

const (
	unknownCategory   = "Unknown"
	unknownRisk       = "Unknown"
	defaultIncident   = "Citizen Report"
	defaultPriority   = "Medium"
	defaultLocation   = "Barangay"
	defaultPhone      = "N/A"
	defaultAuthorName = "Citizen"
)

type SubmitReportInput struct {
	Description     string `json:"description"`
	Location        string `json:"location"`
	AuthorName      string `json:"authorName"`
	ContactPhone    string `json:"contactPhone"`
	AttachmentImage string `json:"attachmentImage"`
}

// SubmitReport classifies the description, records a pending citizen post and
// submits the report. On success the post is linked to the new report id. On
// failure the post stays in the feed marked failed, is returned with the error,
// and RetrySync can resend it.
func (s *PortalService) SubmitReport(ctx context.Context, viewer models.Viewer, in SubmitReportInput) (models.Post, error) {
	if err := requireCitizen(viewer); err != nil {
		return models.Post{}, err
	}
	description := strings.TrimSpace(in.Description)
	if err := validation.ValidateDescription(description); err != nil {
		return models.Post{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePhone(strings.TrimSpace(in.ContactPhone)); err != nil {
		return models.Post{}, models.NewValidationError(err.Error())
	}

	release, err := s.guard.begin("report submission", viewer.ID)
	if err != nil {
		return models.Post{}, err
	}
	defer release()

	pred, err := s.api.Predict(ctx, description)
	if err != nil {
		return models.Post{}, err
	}

	authorID := viewer.ID
	post, _, err := s.applier.CreateCitizenPost(ctx, models.Post{
		AuthorID:        &authorID,
		AuthorName:      orDefault(in.AuthorName, defaultAuthorName),
		Content:         description,
		Location:        orDefault(in.Location, defaultLocation),
		ContactPhone:    orDefault(in.ContactPhone, defaultPhone),
		Category:        orDefault(pred.Category, unknownCategory),
		RiskLevel:       orDefault(pred.Level(), unknownRisk),
		AttachmentImage: in.AttachmentImage,
		SyncState:       models.SyncPending,
	})
	if err != nil {
		return models.Post{}, err
	}

	return s.confirm(ctx, viewer, post, strings.TrimSpace(in.Location))
}

// RetrySync resends a citizen post whose submission failed or never finished.
func (s *PortalService) RetrySync(ctx context.Context, viewer models.Viewer, postID int64) (models.Post, error) {
	if err := requireCitizen(viewer); err != nil {
		return models.Post{}, err
	}

	release, err := s.guard.begin("report submission", viewer.ID)
	if err != nil {
		return models.Post{}, err
	}
	defer release()

	post, err := s.applier.CitizenPost(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	if !post.IsOwnedBy(viewer.ID) {
		return models.Post{}, models.NewForbiddenError("You can only retry your own reports")
	}
	if post.HasReport() {
		return models.Post{}, models.NewValidationError("Report is already synced")
	}

	if post, err = s.applier.MarkSync(ctx, post.ID, models.SyncPending, nil); err != nil {
		return models.Post{}, err
	}
	location := post.Location
	if location == defaultLocation {
		location = ""
	}
	return s.confirm(ctx, viewer, post, location)
}

// confirm submits a pending post and records the outcome on it. A refused
// submission returns the failed post together with the error.
func (s *PortalService) confirm(ctx context.Context, viewer models.Viewer, post models.Post, location string) (models.Post, error) {
	reportID, err := s.api.SubmitReport(ctx, models.ReportSubmission{
		UserID:       viewer.ID,
		IncidentType: incidentType(post.Category),
		Description:  post.Content,
		Location:     location,
		Priority:     priority(post.RiskLevel),
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "report submission failed, post kept for retry",
			slog.Int64("post_id", post.ID),
			slog.String("error", err.Error()),
		)
		failed, markErr := s.applier.MarkSync(ctx, post.ID, models.SyncFailed, nil)
		if markErr != nil {
			middleware.Logger.ErrorContext(ctx, "failed to mark post as failed",
				slog.Int64("post_id", post.ID),
				slog.String("error", markErr.Error()),
			)
			return models.Post{}, err
		}
		return failed, err
	}

	return s.applier.MarkSync(ctx, post.ID, models.SyncSynced, &reportID)
}

type EditReportInput struct {
	ReportID int64
	Patch    models.PostPatch
}

// EditReport changes the viewer's own report on the server, then in the feed.
// Nothing changes locally when the server refuses.
func (s *PortalService) EditReport(ctx context.Context, viewer models.Viewer, in EditReportInput) ([]feed.Item, error) {
	if err := validation.ValidatePatch(in.Patch); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	release, err := s.guard.begin("report update", in.ReportID)
	if err != nil {
		return nil, err
	}
	defer release()

	post, err := s.applier.Authorize(ctx, viewer, in.ReportID)
	if err != nil {
		return nil, err
	}

	next := post
	in.Patch.Apply(&next)
	next.Content = strings.TrimSpace(next.Content)

	if err := s.api.UpdateReport(ctx, in.ReportID, models.ReportUpdate{
		UserID:       viewer.ID,
		IncidentType: incidentType(post.Category),
		Description:  next.Content,
		Location:     next.Location,
	}); err != nil {
		return nil, err
	}

	posts, err := s.applier.EditPost(ctx, in.ReportID, models.PostPatch{Content: &next.Content, Location: &next.Location})
	if err != nil {
		return nil, err
	}
	return feed.Decorate(posts, viewer), nil
}

// DeleteReport deletes the viewer's own report on the server, then from the feed.
func (s *PortalService) DeleteReport(ctx context.Context, viewer models.Viewer, reportID int64) ([]feed.Item, error) {
	release, err := s.guard.begin("report update", reportID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.applier.Authorize(ctx, viewer, reportID); err != nil {
		return nil, err
	}
	if err := s.api.DeleteReport(ctx, reportID, viewer.ID); err != nil {
		return nil, err
	}

	posts, err := s.applier.DeletePost(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return feed.Decorate(posts, viewer), nil
}

// MyReports lists the viewer's reports as the server has them.
func (s *PortalService) MyReports(ctx context.Context, viewer models.Viewer) ([]models.Report, error) {
	if err := requireCitizen(viewer); err != nil {
		return nil, err
	}
	return s.api.MyReports(ctx, viewer.ID)
}

// SyncMyReports pulls the viewer's reports and aligns their feed posts with them.
func (s *PortalService) SyncMyReports(ctx context.Context, viewer models.Viewer) (feed.ReconcileResult, error) {
	if err := requireCitizen(viewer); err != nil {
		return feed.ReconcileResult{}, err
	}

	release, err := s.guard.begin("report sync", viewer.ID)
	if err != nil {
		return feed.ReconcileResult{}, err
	}
	defer release()

	reports, err := s.api.MyReports(ctx, viewer.ID)
	if err != nil {
		return feed.ReconcileResult{}, err
	}
	return s.applier.Reconcile(ctx, viewer.ID, reports)
}

func incidentType(category string) string {
	if category == "" || category == unknownCategory {
		return defaultIncident
	}
	return category
}

func priority(risk string) string {
	if risk == "" || risk == unknownRisk {
		return defaultPriority
	}
	return risk
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
