package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/core"
)

// MySQLCache is the MySQL-backed core.VerdictCache implementation, for
// deployments where several filter instances share one verdict store.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache connects to MySQL, ensures the verdicts table exists, and
// starts the background cleanup ticker.
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			sender VARCHAR(320) PRIMARY KEY,
			label VARCHAR(16) NOT NULL,
			confidence DOUBLE NOT NULL,
			last_seen DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			INDEX idx_verdicts_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create verdicts table: %w", err)
	}

	c := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}
	go c.runCleanup()
	return c, nil
}

// Get returns the unexpired verdict for a sender, if any.
func (c *MySQLCache) Get(ctx context.Context, sender string) (*core.Verdict, bool) {
	var label string
	var confidence float64
	var lastSeen, expiresAt time.Time

	err := c.db.QueryRowContext(ctx, `
		SELECT label, confidence, last_seen, expires_at
		FROM verdicts
		WHERE sender = ? AND expires_at > NOW()
	`, sender).Scan(&label, &confidence, &lastSeen, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("verdict query failed", zap.Error(err), zap.String("sender", sender))
		}
		return nil, false
	}

	return &core.Verdict{
		Sender:     sender,
		Label:      core.Label(label),
		Confidence: confidence,
		LastSeen:   lastSeen,
		ExpiresAt:  expiresAt,
	}, true
}

// Set stores a verdict, replacing any previous one for the sender.
func (c *MySQLCache) Set(ctx context.Context, v *core.Verdict) error {
	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO verdicts (sender, label, confidence, last_seen, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.Sender, string(v.Label), v.Confidence, v.LastSeen, v.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store verdict: %w", err)
	}
	return nil
}

// Delete removes the verdict for a sender.
func (c *MySQLCache) Delete(ctx context.Context, sender string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM verdicts WHERE sender = ?`, sender)
	if err != nil {
		return fmt.Errorf("failed to delete verdict: %w", err)
	}
	return nil
}

// Cleanup removes expired verdicts.
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM verdicts WHERE expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("failed to clean up verdicts: %w", err)
	}
	if removed, err := res.RowsAffected(); err == nil {
		c.logger.Debug("expired verdicts removed", zap.Int64("count", removed))
	}
	return nil
}

func (c *MySQLCache) runCleanup() {
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

// Stop terminates the cleanup ticker and closes the connection pool.
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("failed to close verdict database", zap.Error(err))
	}
}
