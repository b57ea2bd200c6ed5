package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"smartbarangay/internal/middleware"
	"smartbarangay/internal/models"
	"smartbarangay/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Store reads and writes the two post slots. It is the only path to the
// persisted sequences; merging happens in the feed package.
type Store struct {
	kv KV
}

// New returns a Store on kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Backend names the KV backend.
func (s *Store) Backend() string {
	return s.kv.Name()
}

// Load returns the posts in slot, newest first as stored. An absent slot, a
// backend failure or unreadable data all yield an empty sequence.
func (s *Store) Load(ctx context.Context, slot models.Slot) []models.Post {
	ctx, span := observability.StartInternalSpan(ctx, "store.load",
		attribute.String("store.slot", slot.Key()),
		attribute.String("store.backend", s.kv.Name()),
	)
	defer span.End()

	raw, ok, err := s.kv.Get(ctx, slot.Key())
	if err != nil {
		observability.StoreOperations.WithLabelValues(s.kv.Name(), "load", "error").Inc()
		span.RecordError(err)
		middleware.Logger.WarnContext(ctx, "slot load failed, using empty sequence",
			slog.String("slot", slot.Key()),
			slog.String("backend", s.kv.Name()),
			slog.String("error", err.Error()),
		)
		return []models.Post{}
	}
	if !ok || raw == "" {
		observability.StoreOperations.WithLabelValues(s.kv.Name(), "load", "absent").Inc()
		return []models.Post{}
	}

	var posts []models.Post
	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		observability.StoreOperations.WithLabelValues(s.kv.Name(), "load", "invalid").Inc()
		middleware.Logger.WarnContext(ctx, "slot holds invalid data, using empty sequence",
			slog.String("slot", slot.Key()),
			slog.String("error", err.Error()),
		)
		return []models.Post{}
	}
	if posts == nil {
		posts = []models.Post{}
	}

	observability.StoreOperations.WithLabelValues(s.kv.Name(), "load", "ok").Inc()
	return posts
}

// Save overwrites slot with posts.
func (s *Store) Save(ctx context.Context, slot models.Slot, posts []models.Post) error {
	ctx, span := observability.StartInternalSpan(ctx, "store.save",
		attribute.String("store.slot", slot.Key()),
		attribute.String("store.backend", s.kv.Name()),
		attribute.Int("store.posts", len(posts)),
	)

	if posts == nil {
		posts = []models.Post{}
	}
	data, err := json.Marshal(posts)
	if err != nil {
		observability.EndSpan(span, err)
		return fmt.Errorf("encode slot %s: %w", slot.Key(), err)
	}

	if err := s.kv.Set(ctx, slot.Key(), string(data)); err != nil {
		observability.StoreOperations.WithLabelValues(s.kv.Name(), "save", "error").Inc()
		observability.EndSpan(span, err)
		return fmt.Errorf("save slot %s: %w", slot.Key(), err)
	}

	observability.StoreOperations.WithLabelValues(s.kv.Name(), "save", "ok").Inc()
	span.End()
	return nil
}

// Raw returns the serialized slot exactly as stored, or "" when absent.
func (s *Store) Raw(ctx context.Context, slot models.Slot) string {
	raw, _, err := s.kv.Get(ctx, slot.Key())
	if err != nil {
		return ""
	}
	return raw
}

// Clear removes slot entirely.
func (s *Store) Clear(ctx context.Context, slot models.Slot) error {
	return s.kv.Delete(ctx, slot.Key())
}
