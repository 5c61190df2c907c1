package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/witibot/witibot/internal/bus"
	"github.com/witibot/witibot/internal/config"
)

// BridgeChannel connects to an external chat bridge over WebSocket. The
// bridge forwards messages with numeric chat and user IDs so they share
// the conversation table with Telegram.
type BridgeChannel struct {
	cfg config.BridgeConfig
	b   bus.Bus

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func NewBridgeChannel(cfg config.BridgeConfig, b bus.Bus) *BridgeChannel {
	return &BridgeChannel{cfg: cfg, b: b}
}

func (w *BridgeChannel) Name() string { return "bridge" }

func (w *BridgeChannel) Start(ctx context.Context) error {
	url := w.cfg.URL
	if url == "" {
		url = "ws://localhost:3001"
	}
	slog.Info("bridge: connecting", "url", url)

	for {
		if err := w.connectOnce(ctx, url); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("bridge: connection lost, reconnecting in 5s", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (w *BridgeChannel) connectOnce(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	w.setConn(conn, true)
	defer func() {
		conn.Close()
		w.setConn(nil, false)
	}()

	slog.Info("bridge: connected")

	if w.cfg.Token != "" {
		auth, _ := json.Marshal(map[string]string{"type": "auth", "token": w.cfg.Token})
		w.mu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, auth)
		w.mu.Unlock()
		if err != nil {
			return err
		}
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		w.handleFrame(raw)
	}
}

func (w *BridgeChannel) setConn(conn *websocket.Conn, connected bool) {
	w.mu.Lock()
	w.conn = conn
	w.connected = connected
	w.mu.Unlock()
}

type bridgeFrame struct {
	Type    string `json:"type"`
	Chat    int64  `json:"chat"`
	User    int64  `json:"user"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

func (w *BridgeChannel) handleFrame(raw []byte) {
	var frame bridgeFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		slog.Warn("bridge: malformed frame", "err", err)
		return
	}
	switch frame.Type {
	case "message":
		if frame.Chat == 0 || frame.Content == "" {
			return
		}
		e := bus.NewEvent("bridge", frame.Chat, frame.User, frame.Name, frame.Content)
		if frame.Title != "" {
			e.SetTitle(frame.Title)
		}
		if name, args, ok := parseSlashCommand(frame.Content); ok {
			e.SetCommand(name, args)
		}
		w.b.Publish(e)
	case "status":
		slog.Info("bridge: status", "status", frame.Status)
	case "error":
		slog.Error("bridge: error", "error", frame.Error)
	}
}

// Deliver writes a send frame to the bridge. The bridge protocol has no
// message IDs, so Deliver always returns 0 and Delete is a no-op.
func (w *BridgeChannel) Deliver(_ context.Context, conversation int64, text string, _ bus.DeliverOptions) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil || !w.connected {
		return 0, fmt.Errorf("bridge: not connected")
	}
	payload, _ := json.Marshal(map[string]any{
		"type": "send",
		"to":   conversation,
		"text": text,
	})
	if err := w.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return 0, fmt.Errorf("bridge: send: %w", err)
	}
	return 0, nil
}

func (w *BridgeChannel) Delete(context.Context, int64, int) error { return nil }
