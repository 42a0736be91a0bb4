// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app wires the daemon's components together: the session
// manager, the control server, the output pipeline, every configured
// channel adapter and the message router, the reaper sweep, and graceful
// shutdown. It is the touchgrass analogue of the teacher's own
// internal/app package.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tomtev/touchgrass/internal/channel"
	"github.com/tomtev/touchgrass/internal/channel/telegram"
	"github.com/tomtev/touchgrass/internal/config"
	"github.com/tomtev/touchgrass/internal/control"
	"github.com/tomtev/touchgrass/internal/outputpipeline"
	"github.com/tomtev/touchgrass/internal/paths"
	"github.com/tomtev/touchgrass/internal/router"
	"github.com/tomtev/touchgrass/internal/session"
)

// reapInterval is how often the daemon sweeps for sessions whose wrapper
// has gone silent past reapTTL.
const reapInterval = 30 * time.Second

// reapTTL is how long a session may go without a heartbeat before the
// reaper ends it and detaches every chat bound to it (§5).
const reapTTL = 90 * time.Second

// Options holds the daemon's startup configuration.
type Options struct {
	Home    *paths.Bundle
	Addr    string // loopback TCP address, e.g. "127.0.0.1:8742"
	Version string
}

// App is the daemon's component container.
type App struct {
	mu sync.Mutex

	home    *paths.Bundle
	addr    string
	version string

	cfg     *config.Config
	mgr     *session.Manager
	srv     *control.Server
	rt      *router.Router
	pipe    *outputpipeline.Pipeline
	adapters map[string]channel.Channel

	cancelReap context.CancelFunc
}

// New loads config.json and constructs every daemon component, but does
// not yet start listening or receiving; call Start for that.
func New(opts Options) (*App, error) {
	if err := opts.Home.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("app: ensure dirs: %w", err)
	}

	cfg, err := config.NewLoader().LoadWithDefaults(opts.Home.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("app: load config: %w", err)
	}

	authToken, err := loadOrCreateAuthToken(opts.Home.AuthFile)
	if err != nil {
		return nil, fmt.Errorf("app: auth token: %w", err)
	}

	mgr := session.NewManager()
	srv := control.New(mgr, cfg, opts.Home.ConfigFile, authToken)
	pipe := outputpipeline.New(mgr, cfg, srv)
	srv.SetEventSink(pipe)
	rt := router.New(srv)

	a := &App{
		home:     opts.Home,
		addr:     opts.Addr,
		version:  opts.Version,
		cfg:      cfg,
		mgr:      mgr,
		srv:      srv,
		rt:       rt,
		pipe:     pipe,
		adapters: make(map[string]channel.Channel),
	}
	return a, nil
}

// loadOrCreateAuthToken reads the daemon's shared secret, minting and
// persisting a fresh one on first run (0600, matching every other secret
// file under TOUCHGRASS_HOME).
func loadOrCreateAuthToken(path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil {
		return string(data), nil
	} else if !os.IsNotExist(err) {
		return "", err
	}
	token, err := control.GenerateToken()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		return "", err
	}
	return token, nil
}

// Initialize points telegram.UploadsDir at the home's uploads directory and
// constructs one adapter per configured Telegram channel, wiring its
// poll-answer callback into the router and its dead-chat callback into the
// manager. The inbound message stream is wired later, in Start.
func (a *App) Initialize(ctx context.Context) error {
	telegram.UploadsDir = a.home.UploadsDir
	for name, chCfg := range a.cfg.Channels {
		if chCfg == nil || chCfg.Type != "telegram" || chCfg.Credentials.BotToken == "" {
			// Non-Telegram channel types have no adapter implementation
			// yet (§13 Non-goals); skip rather than fail startup.
			continue
		}
		adapter, err := telegram.New(chCfg.Credentials.BotToken, a.home.Home)
		if err != nil {
			return fmt.Errorf("app: start channel %q: %w", name, err)
		}
		a.wireAdapter(name, adapter)
		a.adapters[name] = adapter
		a.srv.RegisterChannel(name, adapter)
	}
	return nil
}

// wireAdapter connects ch's inbound callbacks to the router and manager.
// Kept as its own method because every channel type wires the same way,
// regardless of which concrete adapter is behind the interface.
func (a *App) wireAdapter(name string, ch channel.Channel) {
	ch.OnPollAnswer(func(pa channel.PollAnswer) {
		a.rt.HandlePollAnswer(context.Background(), ch, pa)
	})
	ch.OnDeadChat(func(ev channel.DeadChatEvent) {
		log.Printf("app: %s: chat %s is dead (%s); detaching", name, ev.ChatID, ev.Reason)
		a.mgr.Detach(ev.ChatID)
	})
}

// Start begins receiving on every adapter and launches the reaper sweep
// and the control HTTP server. It does not block; call Run for that.
func (a *App) Start(ctx context.Context) error {
	for name, ch := range a.adapters {
		if err := ch.StartReceiving(a.routeFor(ch)); err != nil {
			return fmt.Errorf("app: %s: start receiving: %w", name, err)
		}
	}

	reapCtx, cancel := context.WithCancel(ctx)
	a.cancelReap = cancel
	go a.runReaper(reapCtx)

	go func() {
		log.Printf("app: control server listening on %s", a.addr)
		if err := a.srv.Serve(ctx, a.addr, ""); err != nil {
			log.Printf("app: control server error: %v", err)
		}
	}()

	return nil
}

// routeFor returns the onMessage callback StartReceiving should use for
// ch, closing over the channel identity so the router can reply on the
// same adapter the message arrived on.
func (a *App) routeFor(ch channel.Channel) func(channel.InboundMessage) {
	return func(msg channel.InboundMessage) {
		a.rt.RouteMessage(context.Background(), ch, msg)
	}
}

// runReaper periodically ends sessions whose wrapper has stopped
// heartbeating, per the reaper TTL in §5.
func (a *App) runReaper(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reaped := a.mgr.ReapStaleRemotes(reapTTL)
			for _, r := range reaped {
				log.Printf("app: reaped stale session %s (command %v)", r.Session.ID, r.Session.Command)
			}
		}
	}
}

// Run starts the app and blocks until a shutdown signal, matching the
// teacher's own Run/Shutdown split.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("app: received signal %v, shutting down", sig)
	case <-ctx.Done():
		log.Printf("app: context cancelled, shutting down")
	}

	return a.Shutdown(context.Background())
}

// Shutdown stops every adapter's receive loop and the reaper, then lets
// Start's Serve goroutine unwind via its own ctx-cancellation handler.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancelReap != nil {
		a.cancelReap()
	}
	for name, ch := range a.adapters {
		log.Printf("app: stopping channel %s", name)
		ch.StopReceiving()
	}
	_ = paths.NewFileLock(a.home.LockFile).Release()
	return nil
}
