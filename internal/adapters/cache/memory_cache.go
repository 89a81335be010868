// Package cache provides verdict cache implementations backed by memory,
// SQLite, and MySQL. A cache stores the real label and confidence of the last
// verdict per sender, so serving from cache never changes what a repeated
// classification would return.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/core"
)

// MemoryCache is the in-memory core.VerdictCache implementation.
type MemoryCache struct {
	verdicts    map[string]*core.Verdict
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryCache creates an in-memory cache and starts its background
// cleanup ticker.
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	c := &MemoryCache{
		verdicts:    make(map[string]*core.Verdict),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}
	go c.runCleanup()
	return c
}

// Get returns the unexpired verdict for a sender, if any.
func (c *MemoryCache) Get(_ context.Context, sender string) (*core.Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.verdicts[sender]
	if !ok || time.Now().After(v.ExpiresAt) {
		return nil, false
	}
	return v, true
}

// Set stores a verdict, replacing any previous one for the sender.
func (c *MemoryCache) Set(_ context.Context, v *core.Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.verdicts[v.Sender] = v
	return nil
}

// Delete removes the verdict for a sender.
func (c *MemoryCache) Delete(_ context.Context, sender string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.verdicts, sender)
	return nil
}

// Cleanup removes expired verdicts.
func (c *MemoryCache) Cleanup(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expired := 0
	for sender, v := range c.verdicts {
		if now.After(v.ExpiresAt) {
			delete(c.verdicts, sender)
			expired++
		}
	}
	c.logger.Debug("expired verdicts removed", zap.Int("count", expired))
	return nil
}

func (c *MemoryCache) runCleanup() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("cache cleanup failed", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop terminates the background cleanup ticker.
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
