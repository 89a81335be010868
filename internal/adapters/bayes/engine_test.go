package bayes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/artifact"
	"github.com/mailsift/mailsift/internal/core"
)

// The vocabulary covers the stems the spammy fixture text produces; the spam
// row gives those stems much higher log-probability than the ham row.
const (
	vectorizerJSON = `{
		"vocabulary": {"win": 0, "free": 1, "cash": 2, "click": 3, "meet": 4, "tomorrow": 5},
		"idf": [2.1, 1.9, 2.4, 1.5, 1.2, 1.3]
	}`
	classifierJSON = `{
		"classes": ["not_spam", "spam"],
		"class_log_prior": [-0.51, -0.92],
		"feature_log_prob": [
			[-5.0, -5.2, -5.5, -4.8, -1.1, -1.3],
			[-1.2, -1.4, -1.1, -1.6, -4.9, -5.1]
		]
	}`
)

func loadEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()

	vecPath := filepath.Join(dir, "vectorizer.json")
	clfPath := filepath.Join(dir, "classifier.json")
	if err := os.WriteFile(vecPath, []byte(vectorizerJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(clfPath, []byte(classifierJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := artifact.LoadVectorizer(vecPath)
	if err != nil {
		t.Fatal(err)
	}
	c, err := artifact.LoadClassifier(clfPath)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(v, c, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestClassify(t *testing.T) {
	e := loadEngine(t)
	ctx := context.Background()

	t.Run("spammy markup text", func(t *testing.T) {
		label, conf, err := e.Classify(ctx, "<b>WIN FREE CASH NOW!!! click here</b>")
		if err != nil {
			t.Fatal(err)
		}
		if label != core.LabelSpam {
			t.Errorf("label = %q, want %q", label, core.LabelSpam)
		}
		if conf <= 0.5 || conf > 1 {
			t.Errorf("confidence = %v, want in (0.5, 1]", conf)
		}
	})

	t.Run("ordinary text", func(t *testing.T) {
		label, _, err := e.Classify(ctx, "let us meet tomorrow")
		if err != nil {
			t.Fatal(err)
		}
		if label != core.LabelNotSpam {
			t.Errorf("label = %q, want %q", label, core.LabelNotSpam)
		}
	})

	t.Run("all out-of-vocabulary text scores on priors", func(t *testing.T) {
		label, conf, err := e.Classify(ctx, "zygomorphic quandary")
		if err != nil {
			t.Fatal(err)
		}
		if label != core.LabelNotSpam {
			t.Errorf("label = %q, want %q", label, core.LabelNotSpam)
		}
		if conf < 0.5 || conf > 1 {
			t.Errorf("confidence = %v, want in [0.5, 1]", conf)
		}
	})

	t.Run("invalid utf8 does not fail", func(t *testing.T) {
		if _, _, err := e.Classify(ctx, "win free \xff\xfe cash"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		in := "WIN a FREE prize, click now"
		firstLabel, firstConf, err := e.Classify(ctx, in)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 10; i++ {
			label, conf, err := e.Classify(ctx, in)
			if err != nil {
				t.Fatal(err)
			}
			if label != firstLabel || conf != firstConf {
				t.Fatalf("run %d: (%q, %v), first run: (%q, %v)", i, label, conf, firstLabel, firstConf)
			}
		}
	})
}

func TestNewEngine_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "vectorizer.json")
	clfPath := filepath.Join(dir, "classifier.json")

	// Two features on one side, six on the other.
	if err := os.WriteFile(vecPath, []byte(`{"vocabulary": {"win": 0, "free": 1}, "idf": [1.0, 1.0]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(clfPath, []byte(classifierJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := artifact.LoadVectorizer(vecPath)
	if err != nil {
		t.Fatal(err)
	}
	c, err := artifact.LoadClassifier(clfPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewEngine(v, c, zap.NewNop()); err == nil {
		t.Fatal("expected a dimension mismatch error")
	}
}
