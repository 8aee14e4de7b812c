package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maximbilan/sensclip/internal/bridge"
	"github.com/maximbilan/sensclip/internal/sensitive"
	"github.com/maximbilan/sensclip/internal/ui"
	"github.com/maximbilan/sensclip/internal/validation"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	durationFlag string
	localFlag    bool
	noTUIFlag    bool
)

var copyCmd = &cobra.Command{
	Use:   "copy [text]",
	Short: "Copy text and clear it after a delay",
	Long: `Copy text to the clipboard and clear it after --duration seconds.

Text comes from the arguments or, when none are given, from stdin. A duration
of 0 copies without scheduling a clear. When a daemon is running the clear is
handed to it; otherwise sensclip waits in the foreground until the clipboard
has been cleared. Interrupting the wait clears the clipboard immediately.`,
	Run: func(cmd *cobra.Command, args []string) {
		text, err := readText(args, os.Stdin, isatty.IsTerminal(os.Stdin.Fd()))
		if err != nil {
			fail(err)
		}
		duration, err := resolveDuration(durationFlag, appConfig.DefaultDurationSeconds)
		if err != nil {
			fail(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runCopy(ctx, text, duration); err != nil {
			fail(err)
		}
	},
}

func init() {
	copyCmd.Flags().StringVarP(&durationFlag, "duration", "d", "", "seconds (or Go duration) before the clipboard is cleared")
	copyCmd.Flags().BoolVar(&localFlag, "local", false, "do not hand the clear to a running daemon")
	copyCmd.Flags().BoolVar(&noTUIFlag, "no-tui", false, "wait without the countdown view")
}

// readText returns the text to copy. Piped input loses a single trailing
// newline so `echo secret | sensclip copy` copies "secret".
func readText(args []string, stdin io.Reader, stdinIsTerminal bool) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if stdinIsTerminal {
		return "", fmt.Errorf("no text given: pass it as an argument or pipe it on stdin")
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := string(data)
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, nil
}

// resolveDuration parses the --duration flag, falling back to the config default.
func resolveDuration(flag string, fallback float64) (float64, error) {
	if strings.TrimSpace(flag) == "" {
		return fallback, nil
	}
	return validation.ParseDuration(flag)
}

func runCopy(ctx context.Context, text string, duration float64) error {
	if duration == 0 {
		cb, err := newClipboard(appConfig.Backend)
		if err != nil {
			return err
		}
		if err := cb.Write(text); err != nil {
			return fmt.Errorf("failed to write clipboard: %w", err)
		}
		fmt.Printf("Copied %s (no auto-clear)\n", maskSecret(text))
		return nil
	}

	if !localFlag {
		err := newClient(appConfig).SetString(ctx, text, duration)
		if err == nil {
			fmt.Printf("Copied %s, the daemon clears it in %s\n", maskSecret(text), describeDelay(duration))
			return nil
		}
		if !errors.Is(err, bridge.ErrNoDaemon) {
			return err
		}
		logger.Debug("no daemon, keeping the clear in this process", zap.Error(err))
	}

	return copyAndWait(ctx, text, duration)
}

// copyAndWait runs the gateway in this process and blocks until the clear
// has run, the user aborts or ctx is cancelled. Every exit path tears the
// scheduler down, which clears anything still on the clipboard.
func copyAndWait(ctx context.Context, text string, duration float64) error {
	e, err := newEngine(appConfig, false, logger)
	if err != nil {
		return err
	}

	if err := e.gateway.SetSensitiveText(text, duration); err != nil {
		_ = e.shutdown()
		return err
	}

	due, _ := e.gateway.Due()
	done := e.gateway.Done()

	if appConfig.ShowTUI && !noTUIFlag && isatty.IsTerminal(os.Stdout.Fd()) {
		final, err := ui.RunCountdown(ui.NewCountdown(maskSecret(text), due, done))
		if shutdownErr := e.shutdown(); err == nil {
			err = shutdownErr
		}
		if err != nil {
			return err
		}
		if final.Aborted() {
			fmt.Println("Clipboard cleared early")
		}
		return nil
	}

	fmt.Printf("Copied %s, clearing in %s (Ctrl+C clears now)\n", maskSecret(text), describeDelay(duration))

	select {
	case <-waitChan(done):
		fmt.Println("Clipboard cleared")
	case <-ctx.Done():
		fmt.Println("Interrupted, clearing clipboard")
	}
	return e.shutdown()
}

// waitChan turns a nil channel, meaning the job is already gone, into a
// closed one.
func waitChan(done <-chan struct{}) <-chan struct{} {
	if done != nil {
		return done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

func describeDelay(seconds float64) string {
	return sensitive.Delay(seconds).String()
}
