package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"smartbarangay/internal/feed"
	"smartbarangay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedCitizenPost(t *testing.T, ts *testServer, id, reportID int64, author uint) {
	t.Helper()
	ctx := context.Background()
	posts := ts.store.Load(ctx, models.SlotCitizen)
	posts = append(posts, models.Post{
		ID:         id,
		ReportID:   &reportID,
		AuthorKind: models.AuthorCitizen,
		AuthorID:   &author,
		Content:    fmt.Sprintf("report %d", reportID),
		Location:   "Purok 1",
		Category:   "Flood",
		RiskLevel:  "High",
	})
	require.NoError(t, ts.store.Save(ctx, models.SlotCitizen, posts))
}

func TestSubmitReportHandler(t *testing.T) {
	ts := newTestServer(t, Deps{})
	ts.api.On("Predict", mock.Anything, "Flood on Main St").
		Return(models.Prediction{Category: "Flood", RiskLevel: "High"}, nil)
	ts.api.On("SubmitReport", mock.Anything, mock.MatchedBy(func(sub models.ReportSubmission) bool {
		return sub.UserID == 7 && sub.IncidentType == "Flood" && sub.Priority == "High"
	})).Return(int64(501), nil)

	status, raw := ts.do(t, citizen7, http.MethodPost, "/api/reports", map[string]string{
		"description": "Flood on Main St",
		"location":    "Main St",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	created := decode[feed.Item](t, raw)
	require.NotNil(t, created.ReportID)
	assert.Equal(t, int64(501), *created.ReportID)
	assert.True(t, created.IsUrgent)
	assert.True(t, created.Editable)

	status, raw = ts.do(t, citizen7, http.MethodGet, "/api/feed", nil)
	require.Equal(t, http.StatusOK, status)
	items := decode[[]feed.Item](t, raw)
	require.Len(t, items, 1)
	assert.Equal(t, "Flood on Main St", items[0].Content)
	assert.True(t, items[0].Editable)

	status, raw = ts.do(t, citizen42, http.MethodGet, "/api/feed", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[[]feed.Item](t, raw)[0].Editable)
}

func TestSubmitReportHandlerKeepsFailedPost(t *testing.T) {
	ts := newTestServer(t, Deps{})
	ts.api.On("Predict", mock.Anything, mock.Anything).Return(models.Prediction{}, nil)
	ts.api.On("SubmitReport", mock.Anything, mock.Anything).
		Return(int64(0), models.NewServerError(http.StatusInternalServerError, "database is locked")).Once()

	status, raw := ts.do(t, citizen7, http.MethodPost, "/api/reports", map[string]string{"description": "Broken streetlight"})
	require.Equal(t, http.StatusBadGateway, status, string(raw))

	failure := decode[struct {
		Error string    `json:"error"`
		Code  string    `json:"code"`
		Post  feed.Item `json:"post"`
	}](t, raw)
	assert.Equal(t, "database is locked", failure.Error)
	assert.Equal(t, models.CodeServerError, failure.Code)
	assert.Equal(t, models.SyncFailed, failure.Post.SyncState)

	ts.api.On("SubmitReport", mock.Anything, mock.Anything).Return(int64(640), nil).Once()
	status, raw = ts.do(t, citizen7, http.MethodPost, fmt.Sprintf("/api/reports/pending/%d/retry", failure.Post.ID), nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	retried := decode[feed.Item](t, raw)
	require.NotNil(t, retried.ReportID)
	assert.Equal(t, int64(640), *retried.ReportID)
	assert.Equal(t, models.SyncSynced, retried.SyncState)
}

func TestSubmitReportHandlerValidation(t *testing.T) {
	ts := newTestServer(t, Deps{})

	status, raw := ts.do(t, citizen7, http.MethodPost, "/api/reports", map[string]string{"description": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, raw).Code)

	status, _ = ts.do(t, admin1, http.MethodPost, "/api/reports", map[string]string{"description": "Fire"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUpdateReportHandler(t *testing.T) {
	tests := []struct {
		name      string
		viewer    models.Viewer
		path      string
		mockSetup func(api *MockReportsBackend)
		status    int
	}{
		{
			name:   "owner edits",
			viewer: citizen7,
			path:   "/api/reports/501",
			mockSetup: func(api *MockReportsBackend) {
				api.On("UpdateReport", mock.Anything, int64(501), mock.MatchedBy(func(upd models.ReportUpdate) bool {
					return upd.Description == "Water is knee deep" && upd.Location == "Purok 1"
				})).Return(nil)
			},
			status: http.StatusOK,
		},
		{
			name:      "someone else's report",
			viewer:    citizen42,
			path:      "/api/reports/501",
			mockSetup: func(api *MockReportsBackend) {},
			status:    http.StatusForbidden,
		},
		{
			name:      "unknown report",
			viewer:    citizen7,
			path:      "/api/reports/999",
			mockSetup: func(api *MockReportsBackend) {},
			status:    http.StatusNotFound,
		},
		{
			name:      "malformed id",
			viewer:    citizen7,
			path:      "/api/reports/abc",
			mockSetup: func(api *MockReportsBackend) {},
			status:    http.StatusBadRequest,
		},
		{
			name:   "server refuses",
			viewer: citizen7,
			path:   "/api/reports/501",
			mockSetup: func(api *MockReportsBackend) {
				api.On("UpdateReport", mock.Anything, int64(501), mock.Anything).
					Return(models.NewServerError(http.StatusNotFound, "Report not found"))
			},
			status: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Deps{})
			seedCitizenPost(t, ts, 1719826300000, 501, 7)
			tt.mockSetup(ts.api)
			before := ts.store.Raw(context.Background(), models.SlotCitizen)

			status, raw := ts.do(t, tt.viewer, http.MethodPut, tt.path, map[string]string{"content": "Water is knee deep"})
			assert.Equal(t, tt.status, status, string(raw))

			if tt.status == http.StatusOK {
				items := decode[[]feed.Item](t, raw)
				require.Len(t, items, 1)
				assert.Equal(t, "Water is knee deep", items[0].Content)
				assert.Equal(t, int64(1719826300000), items[0].ID)
				return
			}
			assert.Equal(t, before, ts.store.Raw(context.Background(), models.SlotCitizen))
		})
	}
}

func TestDeleteReportHandler(t *testing.T) {
	ts := newTestServer(t, Deps{})
	seedCitizenPost(t, ts, 1719826300000, 501, 7)
	seedCitizenPost(t, ts, 1719826400000, 502, 7)
	ts.api.On("DeleteReport", mock.Anything, int64(501), uint(7)).Return(nil)

	status, _ := ts.do(t, citizen42, http.MethodDelete, "/api/reports/501", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw := ts.do(t, citizen7, http.MethodDelete, "/api/reports/501", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	items := decode[[]feed.Item](t, raw)
	require.Len(t, items, 1)
	assert.Equal(t, int64(502), *items[0].ReportID)
}

func TestMyReportsAndSyncHandlers(t *testing.T) {
	ts := newTestServer(t, Deps{})
	seedCitizenPost(t, ts, 1719826300000, 501, 7)
	seedCitizenPost(t, ts, 1719826400000, 502, 7)

	reports := []models.Report{{ID: 501, UserID: 7, Description: "Flood is rising", Location: "Purok 2"}}
	ts.api.On("MyReports", mock.Anything, uint(7)).Return(reports, nil)

	status, raw := ts.do(t, citizen7, http.MethodGet, "/api/reports/mine", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, reports, decode[[]models.Report](t, raw))

	status, raw = ts.do(t, citizen7, http.MethodPost, "/api/reports/sync", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	result := decode[struct {
		Updated int         `json:"updated"`
		Dropped int         `json:"dropped"`
		Posts   []feed.Item `json:"posts"`
	}](t, raw)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Dropped)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "Flood is rising", result.Posts[0].Content)
}
