package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/core"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	t.Cleanup(c.Stop)
	return c
}

func verdict(sender string, ttl time.Duration) *core.Verdict {
	now := time.Now()
	return &core.Verdict{
		Sender:     sender,
		Label:      core.LabelSpam,
		Confidence: 0.91,
		LastSeen:   now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "nobody@example.com"); ok {
		t.Error("unexpected hit on empty cache")
	}

	v := verdict("spammer@example.com", time.Hour)
	if err := c.Set(ctx, v); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(ctx, "spammer@example.com")
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.Label != core.LabelSpam || got.Confidence != 0.91 {
		t.Errorf("got (%q, %v), want (%q, 0.91)", got.Label, got.Confidence, core.LabelSpam)
	}
}

func TestMemoryCache_ExpiredVerdictMisses(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, verdict("old@example.com", -time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "old@example.com"); ok {
		t.Error("expired verdict should not be returned")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, verdict("gone@example.com", time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "gone@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "gone@example.com"); ok {
		t.Error("deleted verdict still present")
	}
}

func TestMemoryCache_CleanupRemovesOnlyExpired(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, verdict("fresh@example.com", time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, verdict("stale@example.com", -time.Minute)); err != nil {
		t.Fatal(err)
	}

	if err := c.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get(ctx, "fresh@example.com"); !ok {
		t.Error("unexpired verdict removed by cleanup")
	}
	c.mu.RLock()
	_, stale := c.verdicts["stale@example.com"]
	c.mu.RUnlock()
	if stale {
		t.Error("expired verdict survived cleanup")
	}
}
