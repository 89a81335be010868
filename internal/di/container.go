// Package di wires the daemon's dependency graph.
package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/core"
	"github.com/mailsift/mailsift/internal/factory"
	"github.com/mailsift/mailsift/internal/logging"
	"github.com/mailsift/mailsift/internal/textproc"
	"github.com/mailsift/mailsift/internal/validate"
	"github.com/mailsift/mailsift/internal/whitelist"
)

// BuildContainer creates and configures the dependency injection container
// for the daemon.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(config.New); err != nil {
		return nil, err
	}
	if err := container.Provide(logging.New); err != nil {
		return nil, err
	}

	// Factories
	if err := container.Provide(factory.NewEngineFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	// Engine; artifact load failures surface here and abort startup.
	if err := container.Provide(func(f *factory.EngineFactory) (core.Engine, error) {
		return f.CreateEngine()
	}); err != nil {
		return nil, err
	}

	// Verdict cache and its settings
	if err := container.Provide(func(f *factory.CacheFactory) (core.VerdictCache, error) {
		return f.CreateVerdictCache()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Text pipeline pieces
	if err := container.Provide(func(cfg *config.Config) *textproc.Normalizer {
		return textproc.NewNormalizer(cfg.GetTextProc().PreviewLength)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config) core.RecordValidator {
		tp := cfg.GetTextProc()
		return validate.New(tp.MinLength, tp.MaxLength, tp.MaxRawSize)
	}); err != nil {
		return nil, err
	}

	// Whitelist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetStringSlice("spam.whitelisted_domains"), logger)
	}); err != nil {
		return nil, err
	}

	// Batch concurrency
	if err := container.Provide(func(cfg *config.Config) int {
		return cfg.GetBatch().Concurrency
	}); err != nil {
		return nil, err
	}

	// Classifier service
	if err := container.Provide(core.NewClassifierService); err != nil {
		return nil, err
	}

	// Mail filter front-end
	if err := container.Provide(func(f *factory.FilterFactory) (core.MailFilter, error) {
		return f.CreateMailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
