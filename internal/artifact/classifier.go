package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/mailsift/mailsift/internal/core"
)

const spamClassName = "spam"

// Classifier is a pre-fitted two-class multinomial naive Bayes model.
type Classifier struct {
	classes        []string
	spamIndex      int
	classLogPrior  []float64
	featureLogProb [][]float64
}

type classifierFile struct {
	Classes        []string    `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
}

// LoadClassifier reads a classifier artifact from path, with the same
// failure contract as LoadVectorizer.
func LoadClassifier(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}

	var f classifierFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}
	if len(f.Classes) != 2 || len(f.ClassLogPrior) != 2 || len(f.FeatureLogProb) != 2 {
		return nil, fmt.Errorf("%w: %s: expected exactly two classes", ErrArtifactCorrupt, path)
	}
	if len(f.FeatureLogProb[0]) == 0 || len(f.FeatureLogProb[0]) != len(f.FeatureLogProb[1]) {
		return nil, fmt.Errorf("%w: %s: inconsistent feature dimensions", ErrArtifactCorrupt, path)
	}

	spamIndex := -1
	for i, name := range f.Classes {
		if name == spamClassName {
			spamIndex = i
		}
	}
	if spamIndex == -1 {
		return nil, fmt.Errorf("%w: %s: no %q class", ErrArtifactCorrupt, path, spamClassName)
	}

	return &Classifier{
		classes:        f.Classes,
		spamIndex:      spamIndex,
		classLogPrior:  f.ClassLogPrior,
		featureLogProb: f.FeatureLogProb,
	}, nil
}

// Dim is the feature vector length this classifier expects.
func (c *Classifier) Dim() int {
	return len(c.featureLogProb[0])
}

// Predict returns the label with the higher estimated probability and that
// probability. An exact 0.5/0.5 split resolves to NotSpam. Fails only on a
// vector of the wrong length.
func (c *Classifier) Predict(vec []float64) (core.Label, float64, error) {
	if len(vec) != c.Dim() {
		return "", 0, fmt.Errorf("%w: got %d features, classifier expects %d", ErrDimensionMismatch, len(vec), c.Dim())
	}

	var jll [2]float64
	for k := 0; k < 2; k++ {
		sum := c.classLogPrior[k]
		row := c.featureLogProb[k]
		for i, x := range vec {
			if x != 0 {
				sum += x * row[i]
			}
		}
		jll[k] = sum
	}

	// Joint log-likelihoods to probabilities via a stable softmax.
	maxJLL := math.Max(jll[0], jll[1])
	exp0 := math.Exp(jll[0] - maxJLL)
	exp1 := math.Exp(jll[1] - maxJLL)
	pSpam := exp1 / (exp0 + exp1)
	if c.spamIndex == 0 {
		pSpam = exp0 / (exp0 + exp1)
	}

	if pSpam > 0.5 {
		return core.LabelSpam, pSpam, nil
	}
	return core.LabelNotSpam, 1 - pSpam, nil
}
