package artifact

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const vectorizerJSON = `{
	"vocabulary": {"win": 0, "free": 1, "cash": 2, "click": 3},
	"idf": [1.5, 2.0, 2.5, 1.0]
}`

func TestLoadVectorizer(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadVectorizer(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, ErrArtifactMissing) {
			t.Errorf("err = %v, want ErrArtifactMissing", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeArtifact(t, "vec.json", "{not json")
		_, err := LoadVectorizer(path)
		if !errors.Is(err, ErrArtifactCorrupt) {
			t.Errorf("err = %v, want ErrArtifactCorrupt", err)
		}
	})

	t.Run("empty vocabulary", func(t *testing.T) {
		path := writeArtifact(t, "vec.json", `{"vocabulary": {}, "idf": []}`)
		_, err := LoadVectorizer(path)
		if !errors.Is(err, ErrArtifactCorrupt) {
			t.Errorf("err = %v, want ErrArtifactCorrupt", err)
		}
	})

	t.Run("vocabulary index outside idf table", func(t *testing.T) {
		path := writeArtifact(t, "vec.json", `{"vocabulary": {"win": 7}, "idf": [1.0]}`)
		_, err := LoadVectorizer(path)
		if !errors.Is(err, ErrArtifactCorrupt) {
			t.Errorf("err = %v, want ErrArtifactCorrupt", err)
		}
	})

	t.Run("valid artifact", func(t *testing.T) {
		path := writeArtifact(t, "vec.json", vectorizerJSON)
		v, err := LoadVectorizer(path)
		if err != nil {
			t.Fatal(err)
		}
		if v.Dim() != 4 {
			t.Errorf("Dim() = %d, want 4", v.Dim())
		}
	})
}

func TestVectorize(t *testing.T) {
	path := writeArtifact(t, "vec.json", vectorizerJSON)
	v, err := LoadVectorizer(path)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("constant length regardless of input", func(t *testing.T) {
		inputs := [][]string{
			nil,
			{},
			{"win"},
			{"win", "free", "cash", "click", "win"},
			{"completely", "unknown", "tokens"},
		}
		for _, in := range inputs {
			if got := v.Vectorize(in); len(got) != v.Dim() {
				t.Errorf("Vectorize(%v) length = %d, want %d", in, len(got), v.Dim())
			}
		}
	})

	t.Run("unknown tokens contribute nothing", func(t *testing.T) {
		got := v.Vectorize([]string{"mystery", "tokens", "only"})
		for i, x := range got {
			if x != 0 {
				t.Errorf("component %d = %v, want 0", i, x)
			}
		}
	})

	t.Run("known tokens yield unit-norm vector", func(t *testing.T) {
		got := v.Vectorize([]string{"win", "free", "win"})
		var sumSquares float64
		for _, x := range got {
			sumSquares += x * x
		}
		if math.Abs(sumSquares-1.0) > 1e-12 {
			t.Errorf("squared norm = %v, want 1", sumSquares)
		}
	})

	t.Run("repeated tokens weigh more", func(t *testing.T) {
		got := v.Vectorize([]string{"win", "win", "free"})
		if got[0] <= got[1] {
			t.Errorf("win component %v not above free component %v", got[0], got[1])
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		in := []string{"cash", "click", "unknown", "cash"}
		first := v.Vectorize(in)
		for i := 0; i < 10; i++ {
			if got := v.Vectorize(in); !reflect.DeepEqual(got, first) {
				t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
			}
		}
	})
}
