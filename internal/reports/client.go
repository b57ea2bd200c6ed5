// Package reports is the client for the barangay reports API: the classifier,
// report storage, accounts and the approval workflow.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smartbarangay/internal/models"
	"smartbarangay/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorText     = 200
)

type Client struct {
	cli     *http.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cli:     &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL is the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Ping checks that the API answers on its root path.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/", nil, nil)
}

// Predict classifies report text.
func (c *Client) Predict(ctx context.Context, text string) (models.Prediction, error) {
	var out models.Prediction
	err := c.do(ctx, "predict", http.MethodPost, "/predict", map[string]string{"text": text}, &out)
	return out, err
}

// SubmitReport stores a report and returns the id the server assigned.
func (c *Client) SubmitReport(ctx context.Context, sub models.ReportSubmission) (int64, error) {
	var out struct {
		ReportID      int64 `json:"reportId"`
		ReportIDSnake int64 `json:"report_id"`
	}
	if err := c.do(ctx, "submit_report", http.MethodPost, "/api/reports", sub, &out); err != nil {
		return 0, err
	}
	id := out.ReportID
	if id == 0 {
		id = out.ReportIDSnake
	}
	if id <= 0 {
		return 0, models.NewServerError(http.StatusBadGateway, "reports API did not return a report id")
	}
	return id, nil
}

// MyReports lists the reports userID submitted.
func (c *Client) MyReports(ctx context.Context, userID uint) ([]models.Report, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "my_reports", http.MethodGet, fmt.Sprintf("/api/reports/my/%d", userID), nil, &raw); err != nil {
		return nil, err
	}
	return decodeReports(raw)
}

// UpdateReport changes a report the caller owns.
func (c *Client) UpdateReport(ctx context.Context, reportID int64, upd models.ReportUpdate) error {
	return c.do(ctx, "update_report", http.MethodPut, fmt.Sprintf("/api/reports/%d", reportID), upd, nil)
}

// DeleteReport removes a report the caller owns.
func (c *Client) DeleteReport(ctx context.Context, reportID int64, userID uint) error {
	body := map[string]uint{"user_id": userID}
	return c.do(ctx, "delete_report", http.MethodDelete, fmt.Sprintf("/api/reports/%d", reportID), body, nil)
}

// AdminReports lists every report for review.
func (c *Client) AdminReports(ctx context.Context, adminID uint) ([]models.Report, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "admin_reports", http.MethodGet, fmt.Sprintf("/api/admin/reports?admin_id=%d", adminID), nil, &raw); err != nil {
		return nil, err
	}
	return decodeReports(raw)
}

// UpdateReportStatus records an admin response on a report.
func (c *Client) UpdateReportStatus(ctx context.Context, reportID int64, upd models.StatusUpdate) error {
	return c.do(ctx, "update_status", http.MethodPut, fmt.Sprintf("/api/admin/reports/%d/status", reportID), upd, nil)
}

// Login checks credentials and returns the account. A {success:false} answer
// is reported as UNAUTHORIZED.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	var out struct {
		Success *bool        `json:"success"`
		Error   string       `json:"error"`
		User    *models.User `json:"user"`
		Admin   *models.User `json:"admin"`
		Citizen *models.User `json:"citizen"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/api/login", creds, &out); err != nil {
		if status := models.UpstreamStatus(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			var appErr *models.AppError
			errors.As(err, &appErr)
			return models.User{}, models.NewUnauthorizedError(appErr.Message)
		}
		return models.User{}, err
	}
	if out.Success != nil && !*out.Success {
		return models.User{}, models.NewUnauthorizedError(firstNonEmpty(out.Error, "Login failed"))
	}
	for _, u := range []*models.User{out.User, out.Admin, out.Citizen} {
		if u != nil && u.ID != 0 {
			return *u, nil
		}
	}
	return models.User{}, models.NewServerError(http.StatusBadGateway, "Invalid server response")
}

// Signup registers a citizen account; it stays pending until an admin approves it.
func (c *Client) Signup(ctx context.Context, reg models.Registration) (string, error) {
	return c.action(ctx, "signup", http.MethodPost, "/api/signup", reg, "Registration submitted")
}

// PendingUsers lists accounts awaiting approval.
func (c *Client) PendingUsers(ctx context.Context) ([]models.User, error) {
	var out struct {
		Success *bool         `json:"success"`
		Error   string        `json:"error"`
		Users   []models.User `json:"users"`
	}
	if err := c.do(ctx, "pending_users", http.MethodGet, "/api/pending-users", nil, &out); err != nil {
		return nil, err
	}
	if out.Success != nil && !*out.Success {
		return nil, models.NewServerError(http.StatusBadGateway, firstNonEmpty(out.Error, "Failed to fetch pending users"))
	}
	if out.Users == nil {
		out.Users = []models.User{}
	}
	return out.Users, nil
}

// ApproveUser activates a pending account.
func (c *Client) ApproveUser(ctx context.Context, userID uint) (string, error) {
	return c.action(ctx, "approve_user", http.MethodPost, "/api/approve-user",
		map[string]uint{"userId": userID}, "User approved successfully!")
}

// RejectUser declines a pending account.
func (c *Client) RejectUser(ctx context.Context, userID uint) (string, error) {
	return c.action(ctx, "reject_user", http.MethodPost, "/api/reject-user",
		map[string]uint{"userId": userID}, "User rejected successfully!")
}

// ChangePassword replaces a user's password.
func (c *Client) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	_, err := c.action(ctx, "change_password", http.MethodPut, "/api/change-password", change, "")
	return err
}

// action calls an endpoint answering {success, message, error}.
func (c *Client) action(ctx context.Context, endpoint, method, path string, body any, fallback string) (string, error) {
	var out struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := c.do(ctx, endpoint, method, path, body, &out); err != nil {
		return "", err
	}
	if out.Success != nil && !*out.Success {
		return "", models.NewServerError(http.StatusBadGateway, firstNonEmpty(out.Error, out.Message, "Request failed"))
	}
	return firstNonEmpty(out.Message, fallback), nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out any) (err error) {
	defer observability.TrackReportsCall(endpoint)(&err)

	ctx, span := observability.StartClientSpan(ctx, "reports."+endpoint,
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)
	defer func() { observability.EndSpan(span, err) }()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return models.NewInternalError(err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return models.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.cli.Do(req)
	if err != nil {
		return models.NewNetworkError(c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.NewNetworkError(c.baseURL, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.NewServerError(resp.StatusCode, errorMessage(raw))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return models.NewServerError(http.StatusBadGateway, "Invalid server response")
	}
	return nil
}

// errorMessage pulls a human-readable message out of an error body: the
// error or message field of a JSON object, else the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := firstNonEmpty(body.Error, body.Message); msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorText {
		text = text[:maxErrorText]
	}
	return text
}

// decodeReports accepts a bare array or an object with a reports field.
// Anything else is an invalid answer, never an empty list: callers drop
// local posts whose report is missing from the result.
func decodeReports(raw json.RawMessage) ([]models.Report, error) {
	invalid := models.NewServerError(http.StatusBadGateway, "Invalid server response")
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, invalid
	}

	reports := []models.Report{}
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &reports); err != nil {
			return nil, invalid
		}
		return reports, nil
	case '{':
	default:
		return nil, invalid
	}

	var wrapped struct {
		Success *bool            `json:"success"`
		Error   string           `json:"error"`
		Reports *json.RawMessage `json:"reports"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, invalid
	}
	if wrapped.Success != nil && !*wrapped.Success {
		return nil, models.NewServerError(http.StatusBadGateway, firstNonEmpty(wrapped.Error, "Invalid server response"))
	}
	if wrapped.Reports == nil {
		return nil, invalid
	}
	list := bytes.TrimSpace(*wrapped.Reports)
	if len(list) == 0 || list[0] != '[' {
		return nil, invalid
	}
	if err := json.Unmarshal(list, &reports); err != nil {
		return nil, invalid
	}
	return reports, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
