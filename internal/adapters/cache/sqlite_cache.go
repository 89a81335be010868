package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/core"
)

// SQLiteCache is the SQLite-backed core.VerdictCache implementation.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache opens (creating if needed) the verdict database and starts
// the background cleanup ticker.
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			sender TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			last_seen TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create verdicts table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_verdicts_expires_at ON verdicts(expires_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create expiry index: %w", err)
	}

	c := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}
	go c.runCleanup()
	return c, nil
}

// Get returns the unexpired verdict for a sender, if any.
func (c *SQLiteCache) Get(ctx context.Context, sender string) (*core.Verdict, bool) {
	var label string
	var confidence float64
	var lastSeen, expiresAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT label, confidence, last_seen, expires_at
		FROM verdicts
		WHERE sender = ?
	`, sender).Scan(&label, &confidence, &lastSeen, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("verdict query failed", zap.Error(err), zap.String("sender", sender))
		}
		return nil, false
	}

	expiry, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || time.Now().After(expiry) {
		return nil, false
	}
	seen, err := time.Parse(time.RFC3339, lastSeen)
	if err != nil {
		return nil, false
	}

	return &core.Verdict{
		Sender:     sender,
		Label:      core.Label(label),
		Confidence: confidence,
		LastSeen:   seen,
		ExpiresAt:  expiry,
	}, true
}

// Set stores a verdict, replacing any previous one for the sender.
func (c *SQLiteCache) Set(ctx context.Context, v *core.Verdict) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO verdicts (sender, label, confidence, last_seen, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.Sender, string(v.Label), v.Confidence,
		v.LastSeen.Format(time.RFC3339), v.ExpiresAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store verdict: %w", err)
	}
	return nil
}

// Delete removes the verdict for a sender.
func (c *SQLiteCache) Delete(ctx context.Context, sender string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM verdicts WHERE sender = ?`, sender)
	if err != nil {
		return fmt.Errorf("failed to delete verdict: %w", err)
	}
	return nil
}

// Cleanup removes expired verdicts.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM verdicts WHERE expires_at <= ?`,
		time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to clean up verdicts: %w", err)
	}
	if removed, err := res.RowsAffected(); err == nil {
		c.logger.Debug("expired verdicts removed", zap.Int64("count", removed))
	}
	return nil
}

func (c *SQLiteCache) runCleanup() {
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

// Stop terminates the cleanup ticker and closes the database.
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("failed to close verdict database", zap.Error(err))
	}
}
