package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/roomcast/roomcast-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	user := flag.String("user", "smoketester", "username to register or log in with")
	password := flag.String("password", "smoketest123", "password for the account")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := obtainToken(ctx, *addr, *user, *password)
	if err != nil {
		return err
	}

	wsAddr := strings.Replace(*addr, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsAddr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var greeting struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}
	if err := wsjson.Read(ctx, conn, &greeting); err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	fmt.Printf("Connected as user %s\n", greeting.UserID)

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: "join", Room: *room}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	content, err := json.Marshal(*text)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: "group", Room: *room, Content: content}); err != nil {
		return fmt.Errorf("send group: %w", err)
	}

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: "ping"}); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}

	// The server never echoes a group message back to its sender, so the
	// pong arriving marks the round trip complete.
	for {
		var frame map[string]any
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		kind, _ := frame["type"].(string)
		fmt.Printf("Received frame: type=%s\n", kind)

		switch kind {
		case "error":
			return fmt.Errorf("server error: %v", frame["message"])
		case "pong":
			fmt.Println("Smoke test passed")
			return nil
		}
	}
}

// obtainToken registers the user, falling back to login when the account
// already exists.
func obtainToken(ctx context.Context, addr, user, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": user, "password": password})
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	token, status, err := postAuth(ctx, addr+"/api/register", body)
	if err != nil {
		return "", err
	}
	if status == http.StatusConflict {
		token, status, err = postAuth(ctx, addr+"/api/login", body)
		if err != nil {
			return "", err
		}
	}
	if token == "" {
		return "", fmt.Errorf("auth failed with status %d", status)
	}
	return token, nil
}

func postAuth(ctx context.Context, url string, body []byte) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	var auth struct {
		Token string `json:"token"`
	}
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if err := json.Unmarshal(data, &auth); err != nil {
			return "", resp.StatusCode, fmt.Errorf("decode token: %w", err)
		}
	}
	return auth.Token, resp.StatusCode, nil
}
