package device

import (
	"fmt"
	"time"
)

// WaitUntilReady polls ready until it reports true. A nil ready falls back
// to IsIdle. Polling is bounded by the configured attempt ceiling; past it
// the wait gives up with ErrDeviceBusy.
func (c *Controller) WaitUntilReady(ready func() bool) error {
	if ready == nil {
		ready = c.IsIdle
	}

	for attempt := 1; ; attempt++ {
		if ready() {
			if attempt > 1 {
				c.logger.Info("waiting done, device ready")
			}
			return nil
		}
		if attempt >= c.readyAttempts {
			return fmt.Errorf("%w: not ready after %d checks", ErrDeviceBusy, attempt)
		}
		c.logger.Debug("device busy, waiting", "attempt", attempt)
		time.Sleep(c.readyInterval)
	}
}

// ExecuteWhenReady waits until the device reports ready and then runs
// action, returning its result. A nil ready falls back to IsIdle.
func (c *Controller) ExecuteWhenReady(action func() (any, error), ready func() bool) (any, error) {
	if err := c.WaitUntilReady(ready); err != nil {
		return nil, err
	}
	return action()
}
