// Package task manages the lifecycle of background goroutines used across
// the labware engine: connection listener loops and periodic device tasks.
//
// A Manager owns a cancellable context shared by all of its goroutines.
// Stop signals every running task to exit; Wait blocks until they have all
// terminated and then re-arms the manager so a connection can be reopened.
package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/openlabkit/labware/logger"
)

// Func is a unit of work executed repeatedly by a managed goroutine.
// It returns true to keep running or false to stop the goroutine.
type Func func() bool

// Manager supervises a group of background goroutines.
type Manager struct {
	pctx    context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  logger.Logger
	count   atomic.Int32
	tickers *xsync.MapOf[string, *time.Ticker]
	mu      sync.RWMutex // protects ctx and cancel
}

// NewManager creates a Manager whose goroutines stop when ctx is cancelled
// or Stop is called.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	if l == nil {
		l = logger.Default()
	}
	mgr := &Manager{
		pctx:    ctx,
		logger:  l,
		tickers: xsync.NewMapOf[string, *time.Ticker](),
	}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// getContext safely returns the current context.
func (mgr *Manager) getContext() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start spawns a goroutine that invokes fn in a loop until fn returns false
// or the manager is stopped.
func (mgr *Manager) Start(name string, fn Func) error {
	mgr.logger.Debug("start task", "name", name)

	if err := mgr.checkRunnable(name); err != nil {
		return err
	}

	mgr.spawn(name, func() {
		mgr.runLoop(name, fn)
	})

	return nil
}

// StartInterval spawns a goroutine that invokes fn every interval until fn
// returns false, StopInterval is called with the same name, or the manager
// is stopped.
func (mgr *Manager) StartInterval(name string, fn Func, interval time.Duration) error {
	mgr.logger.Debug("start interval task", "name", name, "interval", interval)

	if interval <= 0 {
		return fmt.Errorf("task %s: invalid interval %v", name, interval)
	}
	if err := mgr.checkRunnable(name); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	if _, loaded := mgr.tickers.LoadOrStore(name, ticker); loaded {
		ticker.Stop()
		return fmt.Errorf("interval task %s already exists", name)
	}

	mgr.spawn(name, func() {
		defer func() {
			ticker.Stop()
			mgr.tickers.Delete(name)
		}()

		for {
			select {
			case <-mgr.getContext().Done():
				return
			case <-ticker.C:
				if !mgr.callWithRecover(name, fn) {
					return
				}
			}
		}
	})

	return nil
}

// StopInterval stops ticking the named interval task. The goroutine itself
// exits on the manager's context; callers needing a hard per-task stop wrap
// fn with their own cancel flag.
func (mgr *Manager) StopInterval(name string) error {
	ticker, ok := mgr.tickers.LoadAndDelete(name)
	if !ok {
		return fmt.Errorf("interval task %s not found", name)
	}
	ticker.Stop()

	return nil
}

// Stop signals all running goroutines to exit.
func (mgr *Manager) Stop() {
	mgr.tickers.Range(func(_ string, ticker *time.Ticker) bool {
		ticker.Stop()
		return true
	})

	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait blocks until all goroutines have terminated, then re-arms the
// manager with a fresh context so it can be reused for the next open cycle.
func (mgr *Manager) Wait() {
	mgr.wg.Wait()

	mgr.mu.Lock()
	mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	mgr.mu.Unlock()
}

// Count returns the number of currently running goroutines.
func (mgr *Manager) Count() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) checkRunnable(name string) error {
	select {
	case <-mgr.getContext().Done():
		return fmt.Errorf("task %s: manager already stopped", name)
	default:
		return nil
	}
}

func (mgr *Manager) spawn(name string, body func()) {
	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer func() {
			mgr.count.Add(-1)
			mgr.logger.Debug("task terminated", "name", name, "task_count", mgr.Count())
			mgr.wg.Done()
		}()

		body()
	}()
}

// runLoop runs fn repeatedly with context cancellation checked between
// iterations.
func (mgr *Manager) runLoop(name string, fn Func) {
	for {
		select {
		case <-mgr.getContext().Done():
			return
		default:
			if !mgr.callWithRecover(name, fn) {
				return
			}
		}
	}
}

// callWithRecover invokes fn with panic protection. A panicking task is
// terminated rather than crashing the process.
func (mgr *Manager) callWithRecover(name string, fn Func) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			cont = false
		}
	}()

	return fn()
}
