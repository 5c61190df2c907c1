package channels

import (
	"context"
	"log/slog"

	"github.com/witibot/witibot/internal/bus"
	"github.com/witibot/witibot/internal/config"
)

// Manager owns all enabled channels.
type Manager struct {
	channels map[string]Channel
}

// NewManager initialises every channel enabled in cfg.
func NewManager(cfg *config.Config, b bus.Bus) *Manager {
	m := &Manager{channels: make(map[string]Channel)}

	if cfg.Channels.Telegram.Enabled {
		ch := NewTelegramChannel(cfg.Channels.Telegram, b)
		m.channels[ch.Name()] = ch
		slog.Info("channel enabled", "name", ch.Name())
	}
	if cfg.Channels.Bridge.Enabled {
		ch := NewBridgeChannel(cfg.Channels.Bridge, b)
		m.channels[ch.Name()] = ch
		slog.Info("channel enabled", "name", ch.Name())
	}

	return m
}

// EnabledChannels returns the names of all enabled channels.
func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	return names
}

// Transports returns the outbound side of every enabled channel, keyed
// by channel name.
func (m *Manager) Transports() map[string]bus.Transport {
	out := make(map[string]bus.Transport, len(m.channels))
	for name, ch := range m.channels {
		if t, ok := ch.(bus.Transport); ok {
			out[name] = t
		}
	}
	return out
}

// StartAll starts every channel concurrently and blocks until ctx is
// cancelled.
func (m *Manager) StartAll(ctx context.Context) error {
	for name, ch := range m.channels {
		go func(n string, c Channel) {
			slog.Info("starting channel", "name", n)
			if err := c.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("channel exited with error", "name", n, "err", err)
			}
		}(name, ch)
	}

	<-ctx.Done()
	return ctx.Err()
}
