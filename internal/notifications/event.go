// Package notifications broadcasts feed change events within the process and across instances.
package notifications

import (
	"encoding/json"
	"time"
)

// EventKind distinguishes local mutations from mutations made elsewhere.
type EventKind string

const (
	// EventFeedChanged follows a mutation applied by this instance.
	EventFeedChanged EventKind = "feed_changed"
	// EventStorageChanged follows a mutation another instance applied to the shared store.
	EventStorageChanged EventKind = "storage_changed"
)

// Event is one change signal. It carries no posts; listeners reload the slots.
type Event struct {
	Kind   EventKind `json:"type"`
	Reason string    `json:"reason,omitempty"`
	Origin string    `json:"origin,omitempty"`
	At     time.Time `json:"at"`
}

// Encode renders the event as the JSON sent over Redis and websockets.
func (e Event) Encode() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte(`{"type":"` + string(e.Kind) + `"}`)
	}
	return data
}

// DecodeEvent parses a payload produced by Encode.
func DecodeEvent(payload string) (Event, error) {
	var ev Event
	err := json.Unmarshal([]byte(payload), &ev)
	return ev, err
}
