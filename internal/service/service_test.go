package service

import (
	"context"
	"testing"

	"smartbarangay/internal/feed"
	"smartbarangay/internal/models"
	"smartbarangay/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReportsAPI is a mock of the ReportsAPI interface
type MockReportsAPI struct {
	mock.Mock
}

func (m *MockReportsAPI) Predict(ctx context.Context, text string) (models.Prediction, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(models.Prediction), args.Error(1)
}

func (m *MockReportsAPI) SubmitReport(ctx context.Context, sub models.ReportSubmission) (int64, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportsAPI) MyReports(ctx context.Context, userID uint) ([]models.Report, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockReportsAPI) UpdateReport(ctx context.Context, reportID int64, upd models.ReportUpdate) error {
	return m.Called(ctx, reportID, upd).Error(0)
}

func (m *MockReportsAPI) DeleteReport(ctx context.Context, reportID int64, userID uint) error {
	return m.Called(ctx, reportID, userID).Error(0)
}

func (m *MockReportsAPI) AdminReports(ctx context.Context, adminID uint) ([]models.Report, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockReportsAPI) UpdateReportStatus(ctx context.Context, reportID int64, upd models.StatusUpdate) error {
	return m.Called(ctx, reportID, upd).Error(0)
}

func (m *MockReportsAPI) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockReportsAPI) Signup(ctx context.Context, reg models.Registration) (string, error) {
	args := m.Called(ctx, reg)
	return args.String(0), args.Error(1)
}

func (m *MockReportsAPI) PendingUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockReportsAPI) ApproveUser(ctx context.Context, userID uint) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockReportsAPI) RejectUser(ctx context.Context, userID uint) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockReportsAPI) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	return m.Called(ctx, change).Error(0)
}

var (
	citizen7  = models.Viewer{ID: 7, Role: models.RoleCitizen}
	citizen42 = models.Viewer{ID: 42, Role: models.RoleCitizen}
	admin1    = models.Viewer{ID: 1, Role: models.RoleAdmin}
)

func newTestService(t *testing.T) (*PortalService, *MockReportsAPI, *store.Store) {
	t.Helper()
	s := store.New(store.NewMemoryKV())
	api := new(MockReportsAPI)
	t.Cleanup(func() { api.AssertExpectations(t) })
	return NewPortalService(api, feed.NewApplier(s, nil)), api, s
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestInflightGuard(t *testing.T) {
	t.Parallel()

	g := newInflight()
	release, err := g.begin("report submission", uint(7))
	require.NoError(t, err)

	_, err = g.begin("report submission", uint(7))
	assert.Equal(t, models.CodeInFlight, models.ErrorCode(err))

	other, err := g.begin("report submission", uint(8))
	require.NoError(t, err, "other targets are independent")
	other()

	release()
	release()
	again, err := g.begin("report submission", uint(7))
	require.NoError(t, err)
	again()
}

func TestFeedMarksEditable(t *testing.T) {
	svc, _, s := newTestService(t)
	ctx := context.Background()
	reportID, author := int64(501), uint(42)
	require.NoError(t, s.Save(ctx, models.SlotCitizen, []models.Post{
		{ID: 1700000000000, ReportID: &reportID, AuthorKind: models.AuthorCitizen, AuthorID: &author, Content: "mine"},
	}))

	assert.True(t, svc.Feed(ctx, citizen42)[0].Editable)
	assert.False(t, svc.Feed(ctx, citizen7)[0].Editable)
	assert.False(t, svc.Feed(ctx, admin1)[0].Editable)
}
