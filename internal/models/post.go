// Package models contains data structures for the portal's domain models.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AuthorKind tells which slot a post lives in.
type AuthorKind string

const (
	AuthorCitizen AuthorKind = "citizen"
	AuthorAdmin   AuthorKind = "admin"
)

// SyncState tracks whether a locally cached post is confirmed by the reports API.
// The zero value means synced.
type SyncState string

const (
	SyncSynced  SyncState = ""
	SyncPending SyncState = "pending"
	SyncFailed  SyncState = "failed"
)

// Post is a unit of content shown in the feed.
type Post struct {
	// ID is the client-generated creation timestamp in Unix milliseconds.
	ID int64 `json:"id"`
	// ReportID links the post to a persisted report; nil until the server answers.
	ReportID        *int64     `json:"reportId,omitempty"`
	AuthorKind      AuthorKind `json:"authorKind"`
	AuthorID        *uint      `json:"authorId,omitempty"`
	AuthorName      string     `json:"authorName,omitempty"`
	Content         string     `json:"content"`
	Location        string     `json:"location,omitempty"`
	ContactPhone    string     `json:"contactPhone,omitempty"`
	Category        string     `json:"category,omitempty"`
	RiskLevel       string     `json:"riskLevel,omitempty"`
	IsUrgent        bool       `json:"isUrgent"`
	AttachmentImage string     `json:"attachmentImage,omitempty"`
	CreatedAt       string     `json:"createdAt,omitempty"`
	SyncState       SyncState  `json:"syncState,omitempty"`
}

// PostPatch carries the fields an edit may change.
type PostPatch struct {
	Content  *string `json:"content,omitempty"`
	Location *string `json:"location,omitempty"`
}

// Apply copies the patched fields onto p.
func (pp PostPatch) Apply(p *Post) {
	if pp.Content != nil {
		p.Content = *pp.Content
	}
	if pp.Location != nil {
		p.Location = *pp.Location
	}
}

// HasReport reports whether the post has been linked to a server report.
func (p Post) HasReport() bool {
	return p.ReportID != nil && *p.ReportID > 0
}

// IsOwnedBy reports whether authorID submitted the post.
func (p Post) IsOwnedBy(authorID uint) bool {
	return p.AuthorID != nil && *p.AuthorID == authorID
}

// IsUrgentRisk reports whether a classifier risk level counts as high severity.
func IsUrgentRisk(risk string) bool {
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "high", "extreme":
		return true
	}
	return false
}

// UnmarshalJSON accepts the canonical field names as well as the aliases older
// clients wrote into the slots (report_id, reportID, userId, risk_level, ...).
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	var raw struct {
		plain
		ReportID       json.RawMessage `json:"reportId"`
		ReportIDSnake  json.RawMessage `json:"report_id"`
		ReportIDCaps   json.RawMessage `json:"reportID"`
		AuthorID       json.RawMessage `json:"authorId"`
		UserID         json.RawMessage `json:"userId"`
		RiskLevelSnake string          `json:"risk_level"`
		UserType       string          `json:"userType"`
		UserName       string          `json:"userName"`
		PhoneNumber    string          `json:"phoneNumber"`
		Date           string          `json:"date"`
		PostImage      string          `json:"postImage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Post(raw.plain)

	for _, candidate := range []json.RawMessage{raw.ReportID, raw.ReportIDSnake, raw.ReportIDCaps} {
		if id, ok := parseFlexID(candidate); ok {
			p.ReportID = &id
			break
		}
	}
	for _, candidate := range []json.RawMessage{raw.AuthorID, raw.UserID} {
		if id, ok := parseFlexID(candidate); ok && id > 0 {
			uid := uint(id)
			p.AuthorID = &uid
			break
		}
	}

	if p.AuthorKind == "" {
		if strings.EqualFold(raw.UserType, string(AuthorAdmin)) {
			p.AuthorKind = AuthorAdmin
		} else {
			p.AuthorKind = AuthorCitizen
		}
	}
	if p.RiskLevel == "" {
		p.RiskLevel = raw.RiskLevelSnake
	}
	if p.AuthorName == "" {
		p.AuthorName = raw.UserName
	}
	if p.ContactPhone == "" {
		p.ContactPhone = raw.PhoneNumber
	}
	if p.CreatedAt == "" {
		p.CreatedAt = raw.Date
	}
	if p.AttachmentImage == "" {
		p.AttachmentImage = raw.PostImage
	}
	p.IsUrgent = p.IsUrgent || IsUrgentRisk(p.RiskLevel)
	return nil
}

// parseFlexID reads an identifier that may have been stored as a number or a string.
func parseFlexID(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(unquoted)
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}
