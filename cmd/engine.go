package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/maximbilan/sensclip/internal/bridge"
	"github.com/maximbilan/sensclip/internal/clipboard"
	"github.com/maximbilan/sensclip/internal/config"
	"github.com/maximbilan/sensclip/internal/jobstore"
	"github.com/maximbilan/sensclip/internal/ratelimit"
	"github.com/maximbilan/sensclip/internal/scheduler"
	"github.com/maximbilan/sensclip/internal/sensitive"
	"go.uber.org/zap"
)

// engine is the in-process gateway with its collaborators.
type engine struct {
	clipboard clipboard.Clipboard
	scheduler *scheduler.Scheduler
	gateway   *sensitive.Gateway
}

// newClipboard selects the clipboard backend named in the config.
func newClipboard(backend string) (clipboard.Clipboard, error) {
	switch backend {
	case "", "system":
		cb := clipboard.NewSystem()
		if cb.Unsupported() {
			return nil, fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard)")
		}
		return cb, nil
	case "memory":
		return clipboard.NewMemory(true), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// newJobStore opens the job store when persistence is enabled.
func newJobStore(cfg *config.Config) (*jobstore.Store, error) {
	if !cfg.PersistJobs {
		return nil, nil
	}
	store, err := jobstore.New(cfg.JobDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}
	return store, nil
}

func newEngine(cfg *config.Config, persist bool, log *zap.Logger) (*engine, error) {
	cb, err := newClipboard(cfg.Backend)
	if err != nil {
		return nil, err
	}

	opts := []scheduler.Option{scheduler.WithLogger(log.Named("scheduler"))}
	if persist {
		store, err := newJobStore(cfg)
		if err != nil {
			return nil, err
		}
		if store != nil {
			opts = append(opts, scheduler.WithStore(store))
		}
	}
	sched := scheduler.New(opts...)

	return &engine{
		clipboard: cb,
		scheduler: sched,
		gateway:   sensitive.NewGateway(cb, sched, log.Named("gateway")),
	}, nil
}

// shutdown tears the scheduler down, clearing anything still pending.
func (e *engine) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.scheduler.Stop(ctx)
}

func newClient(cfg *config.Config) *bridge.Client {
	return bridge.NewClient(cfg.SocketPath, requestTimeout(cfg))
}

func requestTimeout(cfg *config.Config) time.Duration {
	timeoutSeconds := cfg.RequestTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 5
	}
	return time.Duration(timeoutSeconds) * time.Second
}

// createRateLimiter creates a rate limiter from config, or returns nil if disabled
func createRateLimiter(cfg *config.Config) *ratelimit.RateLimiter {
	if !cfg.RateLimitEnabled {
		return nil
	}
	maxRequests := cfg.RateLimitRequests
	if maxRequests <= 0 {
		maxRequests = 60
	}
	windowSeconds := cfg.RateLimitWindow
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	return ratelimit.New(maxRequests, time.Duration(windowSeconds)*time.Second, 0)
}
