// Package sensitive puts secrets on the clipboard and makes sure they do not
// stay there: every write arms a single deferred clear.
package sensitive

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/maximbilan/sensclip/internal/clipboard"
	"github.com/maximbilan/sensclip/internal/scheduler"
	"go.uber.org/zap"
)

const (
	// ModuleName is the name the gateway is registered under on the bridge.
	ModuleName = "SensitiveClipboard"

	// WorkKey identifies the clear job. Only one can be outstanding; a new
	// write replaces the pending one.
	WorkKey = "SensitiveClipboard_ClearClipboard"

	// MaxDelay caps the clear delay so huge or infinite inputs stay representable.
	MaxDelay = 100 * 365 * 24 * time.Hour
)

// Scheduler is the part of scheduler.Scheduler the gateway relies on.
type Scheduler interface {
	Enqueue(key string, delay time.Duration, policy scheduler.Policy, w scheduler.Worker) (string, error)
	Resume(key string, w scheduler.Worker) (bool, error)
	Cancel(key string) bool
	Pending(key string) bool
	Due(key string) (time.Time, bool)
	Done(key string) <-chan struct{}
}

// Gateway writes sensitive text to the clipboard and schedules its removal.
type Gateway struct {
	mu        sync.Mutex
	clipboard clipboard.Clipboard
	scheduler Scheduler
	logger    *zap.Logger
}

// NewGateway creates a Gateway. A nil logger disables logging.
func NewGateway(cb clipboard.Clipboard, s Scheduler, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		clipboard: cb,
		scheduler: s,
		logger:    logger,
	}
}

// SetSensitiveText puts text on the clipboard, flagged as sensitive when the
// clipboard supports it, and schedules a clear after delaySeconds. Fractions
// of a second are dropped. Any clear still pending from an earlier call is
// replaced, so its timer never fires.
func (g *Gateway) SetSensitiveText(text string, delaySeconds float64) error {
	delay := Delay(delaySeconds)

	// Hold the lock across both steps so the newest clipboard value is always
	// the one guarded by the pending job. A clear that already started either
	// finishes before the write or sees its context cancelled and skips.
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.write(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}

	runID, err := g.scheduler.Enqueue(WorkKey, delay, scheduler.Replace, g.clearTask())
	if err != nil {
		return fmt.Errorf("failed to schedule clipboard clear: %w", err)
	}

	g.logger.Info("sensitive text copied",
		zap.Int("length", len(text)),
		zap.Duration("clear_after", delay),
		zap.String("run_id", runID),
	)
	return nil
}

// SetString is the bridge-facing name of SetSensitiveText.
func (g *Gateway) SetString(text string, duration float64) error {
	return g.SetSensitiveText(text, duration)
}

// Resume re-arms a clear left behind by a previous process.
func (g *Gateway) Resume() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scheduler.Resume(WorkKey, g.clearTask())
}

// ClearNow drops the pending clear, if any, and clears the clipboard.
func (g *Gateway) ClearNow() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.scheduler.Cancel(WorkKey)
	if err := g.clipboard.Clear(); err != nil {
		return fmt.Errorf("failed to clear clipboard: %w", err)
	}
	g.logger.Info("clipboard cleared on request")
	return nil
}

// Pending reports whether a clear is outstanding.
func (g *Gateway) Pending() bool {
	return g.scheduler.Pending(WorkKey)
}

// Due returns when the outstanding clear will run.
func (g *Gateway) Due() (time.Time, bool) {
	return g.scheduler.Due(WorkKey)
}

// Done returns a channel closed when the outstanding clear has run, been
// replaced or been torn down. It is nil when nothing is outstanding.
func (g *Gateway) Done() <-chan struct{} {
	return g.scheduler.Done(WorkKey)
}

func (g *Gateway) write(text string) error {
	if sw, ok := g.clipboard.(clipboard.SensitiveWriter); ok {
		return sw.WriteSensitive(text)
	}
	g.logger.Debug("clipboard cannot tag sensitive content, writing plain text")
	return g.clipboard.Write(text)
}

func (g *Gateway) clearTask() *ClearTask {
	t := NewClearTask(g.clipboard, g.logger)
	t.lock = &g.mu
	return t
}

// Delay converts a delay in seconds to a whole-second duration. Fractions are
// truncated toward zero. Negative and NaN values mean "as soon as possible"
// and become zero; values beyond MaxDelay, including +Inf, become MaxDelay.
func Delay(seconds float64) time.Duration {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if seconds >= MaxDelay.Seconds() {
		return MaxDelay
	}
	return time.Duration(int64(seconds)) * time.Second
}
