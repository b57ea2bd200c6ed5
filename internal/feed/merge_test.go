package feed

import (
	"testing"
	"time"

	"smartbarangay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveTime(t *testing.T) {
	t.Parallel()

	rfc := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		post models.Post
		want time.Time
	}{
		{"rfc3339 createdAt", models.Post{ID: 1, CreatedAt: rfc.Format(time.RFC3339)}, rfc},
		{"unparsable createdAt falls back to id", models.Post{ID: 1700000000000, CreatedAt: "yesterday-ish"}, time.UnixMilli(1700000000000)},
		{"missing createdAt falls back to id", models.Post{ID: 1700000000000}, time.UnixMilli(1700000000000)},
		{"nothing usable is earliest", models.Post{CreatedAt: "???"}, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(EffectiveTime(tt.post)), "got %v want %v", EffectiveTime(tt.post), tt.want)
		})
	}
}

func TestEffectiveTimeBrowserLocaleString(t *testing.T) {
	t.Parallel()

	got := EffectiveTime(models.Post{CreatedAt: "8/8/1965, 01:00:01 PM"})
	want := time.Date(1965, 8, 8, 13, 0, 1, 0, time.Local)
	assert.True(t, want.Equal(got), "got %v", got)
}

func TestMergeAndSortLengthAndOrder(t *testing.T) {
	t.Parallel()

	citizen := []models.Post{
		{ID: 5, CreatedAt: "2024-01-05T00:00:00Z", AuthorKind: models.AuthorCitizen},
		{ID: 1, CreatedAt: "2024-01-01T00:00:00Z", AuthorKind: models.AuthorCitizen},
		{ID: 1704326400000, AuthorKind: models.AuthorCitizen},
	}
	admin := []models.Post{
		{ID: 6, CreatedAt: "2024-01-06T00:00:00Z", AuthorKind: models.AuthorAdmin},
		{ID: 0, CreatedAt: "not a date", AuthorKind: models.AuthorAdmin},
		{ID: 3, CreatedAt: "2024-01-03T00:00:00Z", AuthorKind: models.AuthorAdmin},
	}

	merged := MergeAndSort(citizen, admin)
	require.Len(t, merged, len(citizen)+len(admin))

	for i := 1; i < len(merged); i++ {
		assert.False(t, EffectiveTime(merged[i]).After(EffectiveTime(merged[i-1])),
			"position %d is newer than position %d", i, i-1)
	}
	assert.Equal(t, int64(6), merged[0].ID)
	assert.Equal(t, int64(0), merged[len(merged)-1].ID, "undated post sorts last")
}

func TestMergeAndSortIsIdempotent(t *testing.T) {
	t.Parallel()

	citizen := []models.Post{
		{ID: 2, CreatedAt: "2024-02-02T10:00:00Z"},
		{ID: 4, CreatedAt: "2024-02-02T10:00:00Z"},
		{ID: 1, CreatedAt: "2024-01-01T00:00:00Z"},
	}
	admin := []models.Post{
		{ID: 3, CreatedAt: "2024-02-02T10:00:00Z"},
		{ID: 9},
	}

	once := MergeAndSort(citizen, admin)
	twice := MergeAndSort(once, nil)
	assert.Equal(t, once, twice)
}

func TestMergeAndSortTiesKeepStorageOrder(t *testing.T) {
	t.Parallel()

	same := "2024-02-02T10:00:00Z"
	merged := MergeAndSort(
		[]models.Post{{ID: 10, CreatedAt: same}, {ID: 11, CreatedAt: same}},
		[]models.Post{{ID: 12, CreatedAt: same}},
	)

	ids := []int64{merged[0].ID, merged[1].ID, merged[2].ID}
	assert.Equal(t, []int64{10, 11, 12}, ids)
}

func TestMergeAndSortDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	citizen := []models.Post{{ID: 1, CreatedAt: "2024-01-01T00:00:00Z"}, {ID: 2, CreatedAt: "2024-06-01T00:00:00Z"}}
	before := append([]models.Post(nil), citizen...)

	_ = MergeAndSort(citizen, nil)
	assert.Equal(t, before, citizen)
}

func TestMergeAndSortEmpty(t *testing.T) {
	t.Parallel()

	merged := MergeAndSort(nil, nil)
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}
