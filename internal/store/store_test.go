package store

import (
	"context"
	"errors"
	"testing"

	"smartbarangay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct {
	err error
}

func (f failingKV) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Set(context.Context, string, string) error        { return f.err }
func (f failingKV) Delete(context.Context, string) error             { return f.err }
func (f failingKV) Name() string                                     { return "failing" }

func reportID(id int64) *int64 { return &id }

func TestStoreLoadAbsentSlot(t *testing.T) {
	t.Parallel()

	s := New(NewMemoryKV())
	posts := s.Load(context.Background(), models.SlotCitizen)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestStoreLoadNeverFails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{"invalid json", "{not json"},
		{"object instead of array", `{"id":1}`},
		{"null", "null"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(context.Background(), "posts", tt.value))
			posts := New(kv).Load(context.Background(), models.SlotCitizen)
			assert.NotNil(t, posts)
			assert.Empty(t, posts)
		})
	}

	t.Run("backend error", func(t *testing.T) {
		posts := New(failingKV{err: errors.New("disk gone")}).Load(context.Background(), models.SlotAdmin)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})
}

func TestStoreSaveThenLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(NewMemoryKV())
	in := []models.Post{
		{ID: 2, ReportID: reportID(501), AuthorKind: models.AuthorCitizen, Content: "Flood on Main St", RiskLevel: "High", IsUrgent: true},
		{ID: 1, AuthorKind: models.AuthorCitizen, Content: "Streetlight out"},
	}

	require.NoError(t, s.Save(ctx, models.SlotCitizen, in))

	out := s.Load(ctx, models.SlotCitizen)
	assert.Equal(t, in, out)
	assert.Empty(t, s.Load(ctx, models.SlotAdmin), "slots are independent")
}

func TestStoreSlotKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemoryKV()
	s := New(kv)

	require.NoError(t, s.Save(ctx, models.SlotCitizen, []models.Post{{ID: 1, AuthorKind: models.AuthorCitizen}}))
	require.NoError(t, s.Save(ctx, models.SlotAdmin, nil))

	_, ok, _ := kv.Get(ctx, "posts")
	assert.True(t, ok)
	admin, ok, _ := kv.Get(ctx, "adminPosts")
	assert.True(t, ok)
	assert.Equal(t, "[]", admin)
	assert.Equal(t, "[]", s.Raw(ctx, models.SlotAdmin))
}

func TestStoreSaveReportsBackendError(t *testing.T) {
	t.Parallel()

	err := New(failingKV{err: errors.New("read only")}).Save(context.Background(), models.SlotCitizen, nil)
	assert.Error(t, err)
}

func TestStoreLoadsLegacySerialization(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemoryKV()
	legacy := `[{"id":1700000000000,"report_id":"77","userId":7,"content":"Fire","risk_level":"Extreme","date":"11/14/2023, 10:13:20 PM"}]`
	require.NoError(t, kv.Set(ctx, "posts", legacy))

	posts := New(kv).Load(ctx, models.SlotCitizen)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].ReportID)
	assert.Equal(t, int64(77), *posts[0].ReportID)
	assert.True(t, posts[0].IsUrgent)
	assert.True(t, posts[0].IsOwnedBy(7))
}

func TestStoreClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(NewMemoryKV())
	require.NoError(t, s.Save(ctx, models.SlotAdmin, []models.Post{{ID: 1, AuthorKind: models.AuthorAdmin}}))
	require.NoError(t, s.Clear(ctx, models.SlotAdmin))
	assert.Equal(t, "", s.Raw(ctx, models.SlotAdmin))
}
