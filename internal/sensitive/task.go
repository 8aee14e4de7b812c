package sensitive

import (
	"context"
	"fmt"
	"sync"

	"github.com/maximbilan/sensclip/internal/clipboard"
	"github.com/maximbilan/sensclip/internal/scheduler"
	"go.uber.org/zap"
)

// ClearTask is the deferred job that empties the clipboard.
type ClearTask struct {
	clipboard clipboard.Clipboard
	logger    *zap.Logger
	// lock is shared with the Gateway that armed the task, so a clear and a
	// new write never interleave.
	lock sync.Locker
}

var _ scheduler.Worker = (*ClearTask)(nil)

// NewClearTask returns a task that clears cb.
func NewClearTask(cb clipboard.Clipboard, logger *zap.Logger) *ClearTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClearTask{clipboard: cb, logger: logger, lock: &sync.Mutex{}}
}

// Execute clears the clipboard unless ctx was cancelled first, which means a
// newer write replaced this task. It does not retry.
func (t *ClearTask) Execute(ctx context.Context) scheduler.Result {
	t.lock.Lock()
	defer t.lock.Unlock()

	if ctx.Err() != nil {
		t.logger.Debug("clear superseded, clipboard left untouched")
		return scheduler.Succeeded()
	}
	if err := t.clipboard.Clear(); err != nil {
		return scheduler.Failed(fmt.Errorf("failed to clear clipboard: %w", err))
	}
	t.logger.Info("clipboard cleared")
	return scheduler.Succeeded()
}

// OnCancel clears the clipboard when the task is torn down before it ran, so
// sensitive text is not left behind. It does not take the lock: Gateway.ClearNow
// holds it while cancelling.
func (t *ClearTask) OnCancel() {
	if err := t.clipboard.Clear(); err != nil {
		t.logger.Error("failed to clear clipboard on cancel", zap.Error(err))
		return
	}
	t.logger.Info("clipboard cleared on cancel")
}
