package models

import "time"

// ReportStatus is the admin-assigned response status of a report.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusInProgress ReportStatus = "in_progress"
	ReportStatusResponded  ReportStatus = "responded"
	ReportStatusResolved   ReportStatus = "resolved"
	ReportStatusRejected   ReportStatus = "rejected"
)

// Valid reports whether s is one of the known response statuses.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusInProgress, ReportStatusResponded,
		ReportStatusResolved, ReportStatusRejected:
		return true
	}
	return false
}

// Report is the server-side record behind a citizen post.
type Report struct {
	ID             int64        `json:"id"`
	UserID         uint         `json:"user_id,omitempty"`
	IncidentType   string       `json:"incident_type"`
	Description    string       `json:"description"`
	Location       string       `json:"location"`
	Priority       string       `json:"priority,omitempty"`
	ResponseStatus ReportStatus `json:"response_status,omitempty"`
	AdminNotes     string       `json:"admin_notes,omitempty"`
	RespondedAt    *time.Time   `json:"responded_at,omitempty"`
}

// Prediction is the classifier's verdict for a piece of report text.
type Prediction struct {
	Category  string `json:"category"`
	RiskLevel string `json:"risk_level"`
	// Risk is an older spelling some classifier builds still return.
	Risk string `json:"risk,omitempty"`
}

// Level returns the risk level, falling back to the legacy field.
func (p Prediction) Level() string {
	if p.RiskLevel != "" {
		return p.RiskLevel
	}
	return p.Risk
}

// ReportSubmission is the body of POST /api/reports.
type ReportSubmission struct {
	UserID       uint   `json:"user_id"`
	IncidentType string `json:"incident_type"`
	Description  string `json:"description"`
	Location     string `json:"location,omitempty"`
	Priority     string `json:"priority"`
}

// ReportUpdate is the body of PUT /api/reports/:id.
type ReportUpdate struct {
	UserID       uint   `json:"user_id"`
	IncidentType string `json:"incident_type"`
	Description  string `json:"description"`
	Location     string `json:"location"`
}

// StatusUpdate is the body of PUT /api/admin/reports/:id/status.
type StatusUpdate struct {
	AdminID        uint         `json:"admin_id"`
	ResponseStatus ReportStatus `json:"response_status"`
	AdminNotes     string       `json:"admin_notes"`
}
