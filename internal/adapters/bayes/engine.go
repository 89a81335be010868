// Package bayes provides the artifact-backed classification engine: the text
// is normalized into tokens, vectorized against the fitted vocabulary, and
// scored by the naive Bayes model. The whole chain is deterministic for a
// fixed artifact pair.
package bayes

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/artifact"
	"github.com/mailsift/mailsift/internal/core"
	"github.com/mailsift/mailsift/internal/textproc"
)

// Engine implements core.Engine on top of the loaded artifacts.
type Engine struct {
	vectorizer *artifact.Vectorizer
	classifier *artifact.Classifier
	logger     *zap.Logger
}

// NewEngine wires a vectorizer and classifier together. The two artifacts
// must agree on the feature dimension; a mismatch is a startup-time fault.
func NewEngine(vectorizer *artifact.Vectorizer, classifier *artifact.Classifier, logger *zap.Logger) (*Engine, error) {
	if vectorizer.Dim() != classifier.Dim() {
		return nil, fmt.Errorf("%w: vectorizer has %d features, classifier expects %d",
			artifact.ErrDimensionMismatch, vectorizer.Dim(), classifier.Dim())
	}
	return &Engine{
		vectorizer: vectorizer,
		classifier: classifier,
		logger:     logger,
	}, nil
}

// Classify runs normalize, vectorize, predict. Empty or all-out-of-vocabulary
// text is not an error: the zero vector is scored by the class priors alone.
func (e *Engine) Classify(ctx context.Context, text string) (core.Label, float64, error) {
	plain := textproc.StripHTML(textproc.SanitizeUTF8(text))
	tokens := textproc.TokenizeForModel(plain)
	vec := e.vectorizer.Vectorize(tokens)

	label, confidence, err := e.classifier.Predict(vec)
	if err != nil {
		return "", 0, err
	}

	e.logger.Debug("text classified",
		zap.Int("token_count", len(tokens)),
		zap.String("label", string(label)),
		zap.Float64("confidence", confidence))
	return label, confidence, nil
}

// Name identifies this engine in results and headers.
func (e *Engine) Name() string {
	return "naive-bayes"
}
