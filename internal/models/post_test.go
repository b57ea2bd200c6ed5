package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostUnmarshalLegacyAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  string
		reportID int64
	}{
		{"canonical", `{"id":1,"reportId":7,"content":"x"}`, 7},
		{"snake", `{"id":1,"report_id":8,"content":"x"}`, 8},
		{"caps", `{"id":1,"reportID":"9","content":"x"}`, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Post
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &p))
			require.NotNil(t, p.ReportID)
			assert.Equal(t, tt.reportID, *p.ReportID)
			assert.Equal(t, AuthorCitizen, p.AuthorKind)
		})
	}
}

func TestPostUnmarshalOlderFields(t *testing.T) {
	t.Parallel()

	payload := `{"id":1700000000000,"userId":12,"userName":"Ana","risk_level":"Extreme",
		"date":"Nov 14, 2023, 10:13 PM","postImage":"data:image/png;base64,AA","phoneNumber":"0917"}`

	var p Post
	require.NoError(t, json.Unmarshal([]byte(payload), &p))

	require.NotNil(t, p.AuthorID)
	assert.Equal(t, uint(12), *p.AuthorID)
	assert.Equal(t, "Ana", p.AuthorName)
	assert.Equal(t, "Extreme", p.RiskLevel)
	assert.True(t, p.IsUrgent)
	assert.Equal(t, "Nov 14, 2023, 10:13 PM", p.CreatedAt)
	assert.Equal(t, "data:image/png;base64,AA", p.AttachmentImage)
	assert.Equal(t, "0917", p.ContactPhone)
	assert.Nil(t, p.ReportID)
}

func TestPostMarshalWritesCanonicalNames(t *testing.T) {
	t.Parallel()

	id := int64(5)
	out, err := json.Marshal(Post{ID: 1, ReportID: &id, AuthorKind: AuthorAdmin, Content: "c"})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `"reportId":5`)
	assert.NotContains(t, s, "report_id")
	assert.NotContains(t, s, "syncState")
}

func TestIsUrgentRisk(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUrgentRisk("High"))
	assert.True(t, IsUrgentRisk(" extreme "))
	assert.False(t, IsUrgentRisk("Medium"))
	assert.False(t, IsUrgentRisk(""))
}

func TestPostPatchOnlyTouchesGivenFields(t *testing.T) {
	t.Parallel()

	p := Post{Content: "old", Location: "Purok 1", Category: "Fire"}
	content := "new"
	PostPatch{Content: &content}.Apply(&p)

	assert.Equal(t, "new", p.Content)
	assert.Equal(t, "Purok 1", p.Location)
	assert.Equal(t, "Fire", p.Category)
}
