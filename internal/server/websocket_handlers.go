package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"smartbarangay/internal/feed"
	"smartbarangay/internal/middleware"
	"smartbarangay/internal/models"
	"smartbarangay/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedMessage is pushed to feed sockets whenever the feed is rebuilt.
type FeedMessage struct {
	Type   notifications.EventKind `json:"type"`
	Reason string                  `json:"reason,omitempty"`
	Posts  []feed.Item             `json:"posts"`
}

// FeedSocketHandler returns a websocket handler that streams the viewer's feed.
// The first message is the current feed; every change event sends a rebuilt one.
// Authentication is handled by route middleware and the viewer is read from connection locals.
func (s *Server) FeedSocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}
		role, _ := conn.Locals("role").(models.Role)
		v := models.Viewer{ID: uid, Role: role}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("feed websocket rejected",
				slog.Uint64("user_id", uint64(uid)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		ctx, cancel := context.WithCancel(s.baseContext())
		defer cancel()

		view := feed.NewView(s.applier.Feed, client.Subscription.Events())
		go view.Run(ctx, func(ev notifications.Event, posts []models.Post) {
			payload, err := json.Marshal(FeedMessage{
				Type:   ev.Kind,
				Reason: ev.Reason,
				Posts:  feed.Decorate(posts, v),
			})
			if err != nil {
				return
			}
			if !client.TrySend(payload) {
				middleware.Logger.Warn("feed websocket message dropped", slog.Uint64("user_id", uint64(uid)))
			}
		})

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
