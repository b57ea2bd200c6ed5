package feed

import (
	"cmp"
	"context"
	"sync"
	"time"

	"smartbarangay/internal/models"
	"smartbarangay/internal/observability"
	"smartbarangay/internal/store"
)

// Reasons carried by change notifications.
const (
	ReasonCreate    = "create"
	ReasonEdit      = "edit"
	ReasonDelete    = "delete"
	ReasonSync      = "sync"
	ReasonReconcile = "reconcile"
)

// Notifier is told after every persisted mutation.
type Notifier interface {
	FeedChanged(ctx context.Context, reason string)
}

// Applier applies mutations to the slots. Each mutation is a load, modify,
// save sequence run under one mutex, so mutations never interleave within a
// process. Writers in other processes sharing the backend win by writing last.
type Applier struct {
	store    *store.Store
	notifier Notifier
	now      func() time.Time
	mu       sync.Mutex
}

// NewApplier returns an Applier on s. notifier may be nil.
func NewApplier(s *store.Store, notifier Notifier) *Applier {
	return &Applier{store: s, notifier: notifier, now: time.Now}
}

// SetClock replaces the clock used for ids and createdAt.
func (a *Applier) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

// Feed loads both slots and merges them.
func (a *Applier) Feed(ctx context.Context) []models.Post {
	return MergeAndSort(a.store.Load(ctx, models.SlotCitizen), a.store.Load(ctx, models.SlotAdmin))
}

// CreateCitizenPost prepends post to the citizen slot and returns it as stored
// together with the merged feed.
func (a *Applier) CreateCitizenPost(ctx context.Context, post models.Post) (models.Post, []models.Post, error) {
	return a.create(ctx, models.SlotCitizen, post)
}

// CreateAdminPost prepends post to the admin slot.
func (a *Applier) CreateAdminPost(ctx context.Context, post models.Post) (models.Post, []models.Post, error) {
	return a.create(ctx, models.SlotAdmin, post)
}

func (a *Applier) create(ctx context.Context, slot models.Slot, post models.Post) (models.Post, []models.Post, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	posts := a.store.Load(ctx, slot)
	now := a.now()

	post.AuthorKind = slot.Kind()
	post.ID = uniqueID(cmp.Or(post.ID, now.UnixMilli()), posts)
	if post.CreatedAt == "" {
		post.CreatedAt = now.Format(time.RFC3339)
	}
	post.IsUrgent = models.IsUrgentRisk(post.RiskLevel)

	posts = append([]models.Post{post}, posts...)
	if err := a.store.Save(ctx, slot, posts); err != nil {
		return models.Post{}, nil, models.NewInternalError(err)
	}

	a.changed(ctx, ReasonCreate)
	return post, a.mergeWith(ctx, slot, posts), nil
}

// EditPost applies patch to the post linked to reportID. Only content and
// location change. Both slots are left untouched when no post matches.
func (a *Applier) EditPost(ctx context.Context, reportID int64, patch models.PostPatch) ([]models.Post, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot, posts, idx, ok := a.find(ctx, reportID)
	if !ok {
		return nil, models.NewNotFoundError("Post", reportID)
	}

	patch.Apply(&posts[idx])
	if err := a.store.Save(ctx, slot, posts); err != nil {
		return nil, models.NewInternalError(err)
	}

	a.changed(ctx, ReasonEdit)
	return a.mergeWith(ctx, slot, posts), nil
}

// DeletePost removes the post linked to reportID.
func (a *Applier) DeletePost(ctx context.Context, reportID int64) ([]models.Post, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot, posts, idx, ok := a.find(ctx, reportID)
	if !ok {
		return nil, models.NewNotFoundError("Post", reportID)
	}

	posts = append(posts[:idx:idx], posts[idx+1:]...)
	if err := a.store.Save(ctx, slot, posts); err != nil {
		return nil, models.NewInternalError(err)
	}

	a.changed(ctx, ReasonDelete)
	return a.mergeWith(ctx, slot, posts), nil
}

// Authorize returns the post linked to reportID if viewer may edit or delete it.
func (a *Applier) Authorize(ctx context.Context, viewer models.Viewer, reportID int64) (models.Post, error) {
	_, posts, idx, ok := a.find(ctx, reportID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("Post", reportID)
	}
	post := posts[idx]
	if !CanModify(post, viewer) {
		return models.Post{}, models.NewForbiddenError("You can only modify your own reports")
	}
	return post, nil
}

// CanModify is the single ownership rule: a citizen post authored by the
// viewer and already linked to a server report.
func CanModify(post models.Post, viewer models.Viewer) bool {
	return post.AuthorKind == models.AuthorCitizen &&
		viewer.ID != 0 &&
		post.IsOwnedBy(viewer.ID) &&
		post.HasReport()
}

// MarkSync records the sync state of the citizen post with client id, linking
// it to reportID when one is given.
func (a *Applier) MarkSync(ctx context.Context, id int64, state models.SyncState, reportID *int64) (models.Post, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	posts := a.store.Load(ctx, models.SlotCitizen)
	idx := indexByID(posts, id)
	if idx < 0 {
		return models.Post{}, models.NewNotFoundError("Post", id)
	}

	posts[idx].SyncState = state
	if reportID != nil {
		linked := *reportID
		posts[idx].ReportID = &linked
	}
	if err := a.store.Save(ctx, models.SlotCitizen, posts); err != nil {
		return models.Post{}, models.NewInternalError(err)
	}

	a.changed(ctx, ReasonSync)
	return posts[idx], nil
}

// CitizenPost returns the citizen post with client id.
func (a *Applier) CitizenPost(ctx context.Context, id int64) (models.Post, error) {
	posts := a.store.Load(ctx, models.SlotCitizen)
	idx := indexByID(posts, id)
	if idx < 0 {
		return models.Post{}, models.NewNotFoundError("Post", id)
	}
	return posts[idx], nil
}

// Reconcile aligns authorID's linked citizen posts with the server's list of
// their reports: content and a non-empty location follow the server, and
// posts whose report is gone are dropped. Unlinked posts are left alone.
func (a *Applier) Reconcile(ctx context.Context, authorID uint, reports []models.Report) (ReconcileResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	byID := make(map[int64]models.Report, len(reports))
	for _, r := range reports {
		byID[r.ID] = r
	}

	posts := a.store.Load(ctx, models.SlotCitizen)
	kept := make([]models.Post, 0, len(posts))
	var result ReconcileResult
	for _, p := range posts {
		if !p.HasReport() || !p.IsOwnedBy(authorID) {
			kept = append(kept, p)
			continue
		}
		r, ok := byID[*p.ReportID]
		if !ok {
			result.Dropped++
			continue
		}
		// An empty server location leaves the local default in place.
		location := cmp.Or(r.Location, p.Location)
		if p.Content != r.Description || p.Location != location {
			p.Content = r.Description
			p.Location = location
			result.Updated++
		}
		kept = append(kept, p)
	}

	if result.Updated == 0 && result.Dropped == 0 {
		result.Feed = a.mergeWith(ctx, models.SlotCitizen, posts)
		return result, nil
	}

	if err := a.store.Save(ctx, models.SlotCitizen, kept); err != nil {
		return ReconcileResult{}, models.NewInternalError(err)
	}
	a.changed(ctx, ReasonReconcile)
	result.Feed = a.mergeWith(ctx, models.SlotCitizen, kept)
	return result, nil
}

// ReconcileResult summarizes a Reconcile run.
type ReconcileResult struct {
	Updated int           `json:"updated"`
	Dropped int           `json:"dropped"`
	Feed    []models.Post `json:"-"`
}

// find locates the post linked to reportID, citizen slot first.
func (a *Applier) find(ctx context.Context, reportID int64) (models.Slot, []models.Post, int, bool) {
	for _, slot := range []models.Slot{models.SlotCitizen, models.SlotAdmin} {
		posts := a.store.Load(ctx, slot)
		for i, p := range posts {
			if p.ReportID != nil && *p.ReportID == reportID {
				return slot, posts, i, true
			}
		}
	}
	return "", nil, -1, false
}

// mergeWith merges the freshly written slot with the other slot as stored.
func (a *Applier) mergeWith(ctx context.Context, slot models.Slot, posts []models.Post) []models.Post {
	if slot == models.SlotAdmin {
		return MergeAndSort(a.store.Load(ctx, models.SlotCitizen), posts)
	}
	return MergeAndSort(posts, a.store.Load(ctx, models.SlotAdmin))
}

func (a *Applier) changed(ctx context.Context, reason string) {
	observability.FeedMutations.WithLabelValues(reason).Inc()
	if a.notifier != nil {
		a.notifier.FeedChanged(ctx, reason)
	}
}

func indexByID(posts []models.Post, id int64) int {
	for i, p := range posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// uniqueID returns candidate, bumped past any id already in posts.
func uniqueID(candidate int64, posts []models.Post) int64 {
	taken := make(map[int64]struct{}, len(posts))
	for _, p := range posts {
		taken[p.ID] = struct{}{}
	}
	for {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate++
	}
}
