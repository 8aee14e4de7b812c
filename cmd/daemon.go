package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maximbilan/sensclip/internal/bridge"
	"github.com/maximbilan/sensclip/internal/jobstore"
	"github.com/maximbilan/sensclip/internal/sensitive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon that owns pending clears",
	Long: `Run in the foreground and accept setString/clear/status calls on a Unix
socket. A clear left behind by a daemon that died is re-armed on start.
Stopping the daemon clears the clipboard if a clear is still pending.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runServe(ctx); err != nil {
			fail(err)
		}
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the clipboard now",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runClear(cmd.Context()); err != nil {
			fail(err)
		}
		fmt.Println("Clipboard cleared")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a clear is pending",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStatus(cmd.Context()); err != nil {
			fail(err)
		}
	},
}

func runServe(ctx context.Context) error {
	e, err := newEngine(appConfig, true, logger)
	if err != nil {
		return err
	}

	resumed, err := e.gateway.Resume()
	if err != nil {
		logger.Warn("failed to resume pending clear", zap.Error(err))
	} else if resumed {
		due, _ := e.gateway.Due()
		logger.Info("resumed pending clear", zap.Time("due", due))
	}

	opts := []bridge.ServerOption{bridge.WithServerLogger(logger.Named("bridge"))}
	if limiter := createRateLimiter(appConfig); limiter != nil {
		opts = append(opts, bridge.WithLimiter(limiter))
	}

	srv, err := bridge.NewServer(appConfig.SocketPath, bridge.NewGatewayRouter(e.gateway), opts...)
	if err != nil {
		_ = e.shutdown()
		return err
	}
	logger.Info("daemon listening", zap.String("socket", srv.Addr()))

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-served:
	}

	srv.Close()
	if err := e.shutdown(); err != nil {
		logger.Error("scheduler shutdown incomplete", zap.Error(err))
	}
	return serveErr
}

func runClear(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	err := newClient(appConfig).Clear(ctx)
	if err == nil || !errors.Is(err, bridge.ErrNoDaemon) {
		return err
	}

	cb, err := newClipboard(appConfig.Backend)
	if err != nil {
		return err
	}
	if err := cb.Clear(); err != nil {
		return fmt.Errorf("failed to clear clipboard: %w", err)
	}

	// A record left by a dead daemon is moot now.
	store, err := newJobStore(appConfig)
	if err != nil {
		return err
	}
	if store != nil {
		if err := store.Delete(sensitive.WorkKey); err != nil {
			return err
		}
	}
	return nil
}

func runStatus(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := newClient(appConfig).Status(ctx)
	if err == nil {
		fmt.Println(describeStatus(st, time.Now()))
		return nil
	}
	if !errors.Is(err, bridge.ErrNoDaemon) {
		return err
	}

	fmt.Println("Daemon not running")
	store, err := newJobStore(appConfig)
	if err != nil || store == nil {
		return err
	}
	records, err := store.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	for _, line := range describeRecords(records, time.Now()) {
		fmt.Println(line)
	}
	fmt.Printf("Left behind in %s; run `sensclip clear` or start the daemon\n", store.Dir())
	return nil
}

// describeRecords reports clears persisted by a daemon that is gone.
func describeRecords(records []jobstore.Record, now time.Time) []string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		due := rec.DueTime()
		if !due.After(now) {
			lines = append(lines, fmt.Sprintf("%s: overdue since %s", rec.Key, due.Format(time.RFC3339)))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: due at %s", rec.Key, due.Format(time.RFC3339)))
	}
	return lines
}

func describeStatus(st bridge.Status, now time.Time) string {
	if !st.Pending {
		return "No clear pending"
	}
	remaining := time.Unix(st.Due, 0).Sub(now).Round(time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("Clear pending in %s", remaining)
}
