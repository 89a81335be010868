// Package factory builds the configured implementations of the core ports.
package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/adapters/bayes"
	"github.com/mailsift/mailsift/internal/adapters/openai"
	"github.com/mailsift/mailsift/internal/artifact"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/core"
)

// EngineFactory creates classification engines based on configuration.
type EngineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEngineFactory creates a new engine factory.
func NewEngineFactory(cfg *config.Config, logger *zap.Logger) *EngineFactory {
	return &EngineFactory{cfg: cfg, logger: logger}
}

// CreateEngine builds the engine named by engine.provider. For the artifact
// provider this loads both model files; any load failure propagates so the
// process never reaches a ready state with a broken model.
func (f *EngineFactory) CreateEngine() (core.Engine, error) {
	provider := f.cfg.GetString("engine.provider")

	switch provider {
	case "artifact":
		paths := f.cfg.GetArtifact()
		vectorizer, err := artifact.LoadVectorizer(paths.VectorizerPath)
		if err != nil {
			return nil, err
		}
		classifier, err := artifact.LoadClassifier(paths.ClassifierPath)
		if err != nil {
			return nil, err
		}
		f.logger.Info("artifacts loaded",
			zap.String("vectorizer", paths.VectorizerPath),
			zap.String("classifier", paths.ClassifierPath),
			zap.Int("features", vectorizer.Dim()))
		return bayes.NewEngine(vectorizer, classifier, f.logger)
	case "openai":
		oai := f.cfg.GetOpenAI()
		return openai.NewEngine(oai.APIKey, oai.ModelName, oai.MaxTokens,
			oai.Temperature, oai.TopP, oai.MaxBodySize, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported engine provider: %s", provider)
	}
}
