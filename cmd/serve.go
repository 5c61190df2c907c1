package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/witibot/witibot/internal/bus"
	"github.com/witibot/witibot/internal/channels"
	"github.com/witibot/witibot/internal/config"
	"github.com/witibot/witibot/internal/container"
)

var serveVerbose bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the witibot server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Verbose logging")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closeLog, err := setupLogging(cfg.LogFile, serveVerbose)
	if err != nil {
		return err
	}
	defer closeLog()

	fmt.Printf("%s Starting witibot...\n", logo)

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	ctrl := c.Controller()
	ctrl.LoadSnapshot()

	if cfg.Mensa.Enabled {
		if err := c.Mensa().LoadFavorites(); err != nil {
			slog.Warn("could not load mensa favorites", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	channelMgr := channels.NewManager(cfg, c.Bus())
	transports := channelMgr.Transports()
	for name, t := range transports {
		ctrl.RegisterTransport(name, t)
	}
	if enabled := channelMgr.EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	} else {
		fmt.Println("Warning: no channels enabled")
	}

	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { return channelMgr.StartAll(gctx) })

	if cfg.Mensa.Enabled {
		if t, ok := transports["telegram"]; ok {
			c.Mensa().SetDeliver(func(ctx context.Context, conversation int64, text string, html bool) {
				if _, err := t.Deliver(ctx, conversation, text, bus.DeliverOptions{HTML: html}); err != nil {
					slog.Warn("daily menu delivery failed", "conversation", conversation, "err", err)
				}
			})
			g.Go(func() error { return c.Mensa().RunDaily(gctx) })
		} else {
			slog.Warn("mensa enabled but telegram channel is not; daily job disabled")
		}
	}

	// Give the channels a moment to connect before greeting the operator.
	g.Go(func() error {
		select {
		case <-time.After(3 * time.Second):
			ctrl.NotifyOperator(gctx, "Bot started!")
		case <-gctx.Done():
		}
		return nil
	})

	fmt.Printf("%s witibot running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}

// setupLogging routes slog to stderr and, when configured, the log file.
func setupLogging(logFile string, verbose bool) (func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	w := io.Writer(os.Stderr)
	closeLog := func() {}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeLog = func() { f.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closeLog, nil
}
