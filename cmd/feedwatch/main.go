// Command feedwatch signs in to the portal API and prints the live feed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"smartbarangay/internal/server"

	"github.com/gorilla/websocket"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:   "feedwatch",
		Usage:  "stream the portal feed to the terminal",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				EnvVars: []string{"FEEDWATCH_API"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "token",
				EnvVars: []string{"FEEDWATCH_TOKEN"},
				Usage:   "session token; when empty, --email and --password are used to sign in",
			},
			&cli.StringFlag{
				Name:    "email",
				EnvVars: []string{"FEEDWATCH_EMAIL"},
			},
			&cli.StringFlag{
				Name:    "password",
				EnvVars: []string{"FEEDWATCH_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "admin",
				Usage: "sign in through the admin login",
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: 5,
				Usage: "posts printed per update",
			},
		},
		ErrWriter: os.Stderr,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cli.Context) error {
	ctx, stop := signal.NotifyContext(cmd.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := slog.New(slog.NewTextHandler(os.Stderr, nil))
	api := strings.TrimRight(cmd.String("api"), "/")

	token := cmd.String("token")
	if token == "" {
		kind := "citizen"
		if cmd.Bool("admin") {
			kind = "admin"
		}
		session, err := login(ctx, api, kind, cmd.String("email"), cmd.String("password"))
		if err != nil {
			return err
		}
		l.Info("signed in", "user", session.User.Name, "role", session.Role)
		token = session.Token
	}

	wsURL, err := feedURL(api, token)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to open feed socket: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		var msg server.FeedMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("feed socket closed: %w", err)
		}
		printFeed(msg, cmd.Int("limit"))
	}
}

func login(ctx context.Context, api, kind, email, password string) (server.SessionResponse, error) {
	if email == "" || password == "" {
		return server.SessionResponse{}, fmt.Errorf("--token or both --email and --password are required")
	}
	body, err := json.Marshal(map[string]string{"email": email, "password": password, "kind": kind})
	if err != nil {
		return server.SessionResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api+"/api/session/login", bytes.NewReader(body))
	if err != nil {
		return server.SessionResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return server.SessionResponse{}, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return server.SessionResponse{}, fmt.Errorf("login failed (%d): %s", resp.StatusCode, e.Error)
	}

	var session server.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return server.SessionResponse{}, fmt.Errorf("invalid login response: %w", err)
	}
	return session, nil
}

func feedURL(api, token string) (string, error) {
	u, err := url.Parse(api)
	if err != nil {
		return "", fmt.Errorf("invalid --api: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws/feed"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

func printFeed(msg server.FeedMessage, limit int) {
	fmt.Printf("\n[%s] %s (%s) %d posts\n", time.Now().Format(time.TimeOnly), msg.Type, msg.Reason, len(msg.Posts))
	for i, p := range msg.Posts {
		if limit > 0 && i >= limit {
			fmt.Printf("  ... %d more\n", len(msg.Posts)-limit)
			break
		}
		flags := ""
		if p.IsUrgent {
			flags += " URGENT"
		}
		if p.Editable {
			flags += " editable"
		}
		if p.SyncState != "" {
			flags += " " + string(p.SyncState)
		}
		fmt.Printf("  %-7s %-12s %s%s\n", p.AuthorKind, p.Category, p.Content, flags)
	}
}
