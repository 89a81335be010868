// Package whitelist short-circuits classification for trusted sender
// domains.
package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker answers whether a sender address belongs to a whitelisted domain.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker normalizes the configured domains and returns a checker.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}
	if len(normalized) > 0 && logger != nil {
		logger.Info("whitelist initialized", zap.Strings("domains", normalized))
	}
	return &Checker{domains: normalized, logger: logger}
}

// IsWhitelisted reports whether the sender's domain is whitelisted.
// Addresses without a single @ are never whitelisted.
func (c *Checker) IsWhitelisted(sender string) bool {
	if len(c.domains) == 0 {
		return false
	}
	parts := strings.Split(sender, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(strings.Trim(parts[1], "> "))

	for _, whitelisted := range c.domains {
		if whitelisted == domain {
			if c.logger != nil {
				c.logger.Debug("sender domain whitelisted", zap.String("sender", sender))
			}
			return true
		}
	}
	return false
}
