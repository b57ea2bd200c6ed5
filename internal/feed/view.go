package feed

import (
	"context"
	"encoding/json"
	"sync"

	"smartbarangay/internal/models"
	"smartbarangay/internal/notifications"
)

// Item is a feed entry as presented to one viewer.
type Item struct {
	models.Post
	Editable bool `json:"editable"`
}

// UnmarshalJSON decodes the post fields and the editable flag.
func (i *Item) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &i.Post); err != nil {
		return err
	}
	var flags struct {
		Editable bool `json:"editable"`
	}
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	i.Editable = flags.Editable
	return nil
}

// Decorate marks the posts viewer may edit or delete.
func Decorate(posts []models.Post, viewer models.Viewer) []Item {
	items := make([]Item, len(posts))
	for i, p := range posts {
		items[i] = Item{Post: p, Editable: CanModify(p, viewer)}
	}
	return items
}

// Source produces the current merged feed.
type Source func(ctx context.Context) []models.Post

// View keeps a rebuilt copy of the feed, reloading on every change event.
type View struct {
	source Source
	events <-chan notifications.Event

	mu       sync.RWMutex
	snapshot []models.Post
}

// NewView returns a view over source driven by events.
func NewView(source Source, events <-chan notifications.Event) *View {
	return &View{source: source, events: events}
}

// Refresh reloads the feed and stores it as the snapshot.
func (v *View) Refresh(ctx context.Context) []models.Post {
	posts := v.source(ctx)
	v.mu.Lock()
	v.snapshot = posts
	v.mu.Unlock()
	return posts
}

// latest returns the feed as of the last refresh.
func (v *View) latest() []models.Post {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot
}

// Run refreshes once, then again for every event, calling onChange after each
// refresh. It returns when ctx is done or the event channel is closed.
func (v *View) Run(ctx context.Context, onChange func(notifications.Event, []models.Post)) {
	posts := v.Refresh(ctx)
	if onChange != nil {
		onChange(notifications.Event{Kind: notifications.EventFeedChanged, Reason: "snapshot"}, posts)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-v.events:
			if !ok {
				return
			}
			posts := v.Refresh(ctx)
			if onChange != nil {
				onChange(ev, posts)
			}
		}
	}
}
