package coordinator

import (
	"context"
	"log/slog"
	"time"

	doctypes "github.com/case-framework/records-portal/pkg/documents/types"
)

// StartStatusPolling reads the lock status right away and then on every
// poll interval until ctx ends or the session is closed.
func (c *Coordinator) StartStatusPolling(ctx context.Context) {
	c.mu.Lock()
	if c.state == STATE_CLOSED || c.stopPolling != nil {
		c.mu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.stopPolling = cancel
	c.pollDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		_ = c.RefreshStatus(pollCtx)
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				_ = c.RefreshStatus(pollCtx)
			}
		}
	}()
}

// RefreshStatus performs one status read. Failures keep the last known
// status.
func (c *Coordinator) RefreshStatus(ctx context.Context) error {
	c.mu.Lock()
	if c.state == STATE_CLOSED {
		c.mu.Unlock()
		return ErrClosed
	}
	gen := c.generation
	c.mu.Unlock()

	status, err := c.backend.GetStatus(ctx, c.sess, c.documentID)
	if err != nil {
		slog.Debug("document status poll failed", slog.String("documentID", c.documentID), slog.String("error", err.Error()))
		return err
	}
	c.updateStatus(gen, status)
	return nil
}

func (c *Coordinator) updateStatus(gen uint64, status doctypes.LockStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.status = StatusSnapshot{
		Known:       true,
		Status:      status,
		LastUpdated: c.now(),
	}
}

// Status returns the last known lock status.
func (c *Coordinator) Status() StatusSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
