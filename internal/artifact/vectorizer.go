// Package artifact loads the pre-fitted vectorizer and classifier models
// produced by the offline training pipeline. Artifacts are read once at
// startup and are immutable for the process lifetime; all methods are safe
// for concurrent readers.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
)

// Vectorizer maps token sequences onto the fixed TF-IDF feature space the
// classifier was trained with.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

type vectorizerFile struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// LoadVectorizer reads a vectorizer artifact from path. It fails with
// ErrArtifactMissing if the file is absent and ErrArtifactCorrupt if it
// cannot be parsed or is internally inconsistent.
func LoadVectorizer(path string) (*Vectorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}

	var f vectorizerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}
	if len(f.Vocabulary) == 0 || len(f.IDF) == 0 {
		return nil, fmt.Errorf("%w: %s: empty vocabulary", ErrArtifactCorrupt, path)
	}
	for token, idx := range f.Vocabulary {
		if idx < 0 || idx >= len(f.IDF) {
			return nil, fmt.Errorf("%w: %s: token %q maps outside the idf table", ErrArtifactCorrupt, path, token)
		}
	}

	return &Vectorizer{vocabulary: f.Vocabulary, idf: f.IDF}, nil
}

// Dim is the fixed length of every vector this vectorizer produces.
func (v *Vectorizer) Dim() int {
	return len(v.idf)
}

// Vectorize maps a token sequence to a TF-IDF vector: term counts weighted by
// idf, L2-normalized. Tokens absent from the vocabulary contribute nothing;
// the result length is always Dim(), including for empty input.
func (v *Vectorizer) Vectorize(tokens []string) []float64 {
	vec := make([]float64, len(v.idf))
	for _, token := range tokens {
		if idx, ok := v.vocabulary[token]; ok {
			vec[idx]++
		}
	}

	var sumSquares float64
	for i := range vec {
		if vec[i] != 0 {
			vec[i] *= v.idf[i]
			sumSquares += vec[i] * vec[i]
		}
	}
	if sumSquares > 0 {
		norm := math.Sqrt(sumSquares)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
