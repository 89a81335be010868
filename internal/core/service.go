package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/textproc"
	"github.com/mailsift/mailsift/internal/whitelist"
)

// ClassifierService runs the classification pipeline (validate, normalize,
// classify) over single texts, single email records, and batches. It holds
// no per-item state beyond one call; the loaded engine is read-only, so the
// service is safe for concurrent use.
type ClassifierService struct {
	engine       Engine
	validator    RecordValidator
	normalizer   *textproc.Normalizer
	cache        VerdictCache
	whitelist    *whitelist.Checker
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	concurrency  int
}

// NewClassifierService creates the service. The engine must be fully loaded
// before the service is constructed; there is no lazy initialization.
func NewClassifierService(
	engine Engine,
	validator RecordValidator,
	normalizer *textproc.Normalizer,
	cache VerdictCache,
	wl *whitelist.Checker,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	concurrency int,
) *ClassifierService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ClassifierService{
		engine:       engine,
		validator:    validator,
		normalizer:   normalizer,
		cache:        cache,
		whitelist:    wl,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
		concurrency:  concurrency,
	}
}

// ClassifyText classifies manually supplied text. Validation failures surface
// their sentinel error directly.
func (s *ClassifierService) ClassifyText(ctx context.Context, text string) (*ClassificationResult, error) {
	if out := s.validator.Text(text); !out.OK {
		return nil, out.Err
	}

	label, confidence, err := s.engine.Classify(ctx, text)
	if err != nil {
		s.logger.Error("engine failed on manual text", zap.Error(err))
		return nil, err
	}

	return s.buildResult(text, label, confidence, s.engine.Name()), nil
}

// ClassifyOne classifies a single email record. The validator pre-check
// short-circuits with its error kind; the whitelist and verdict cache sit
// between validation and the engine.
func (s *ClassifierService) ClassifyOne(ctx context.Context, r *RawEmail) (*ClassificationResult, error) {
	if out := s.validator.EmailRecord(r); !out.OK {
		return nil, out.Err
	}
	if out := s.validator.Text(r.Body); !out.OK {
		return nil, out.Err
	}

	if s.whitelist != nil && s.whitelist.IsWhitelisted(r.Sender) {
		return s.buildResult(r.Body, LabelNotSpam, 1.0, "whitelist"), nil
	}

	if s.cacheEnabled && s.cache != nil && r.Sender != "" {
		if v, ok := s.cache.Get(ctx, r.Sender); ok {
			s.logger.Debug("verdict cache hit", zap.String("sender", r.Sender))
			return s.buildResult(r.Body, v.Label, v.Confidence, "cache"), nil
		}
	}

	label, confidence, err := s.engine.Classify(ctx, r.Body)
	if err != nil {
		s.logger.Error("engine failed on email record",
			zap.String("sender", r.Sender),
			zap.Error(err))
		return nil, err
	}

	if s.cacheEnabled && s.cache != nil && r.Sender != "" {
		now := time.Now()
		verdict := &Verdict{
			Sender:     r.Sender,
			Label:      label,
			Confidence: confidence,
			LastSeen:   now,
			ExpiresAt:  now.Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, verdict); err != nil {
			s.logger.Error("failed to update verdict cache", zap.Error(err))
		}
	}

	return s.buildResult(r.Body, label, confidence, s.engine.Name()), nil
}

// ClassifyBatch classifies every record and returns results position-matched
// to the input. One item's failure never aborts or delays its siblings; each
// worker writes only its own slot.
func (s *ClassifierService) ClassifyBatch(ctx context.Context, records []*RawEmail) []ItemResult {
	results := make([]ItemResult, len(records))

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := s.ClassifyOne(ctx, records[idx])
			results[idx] = ItemResult{Result: res, Err: err}
		}(i)
	}
	wg.Wait()

	return results
}

func (s *ClassifierService) buildResult(text string, label Label, confidence float64, engine string) *ClassificationResult {
	return &ClassificationResult{
		Label:        label,
		Confidence:   confidence,
		RawText:      text,
		DisplayText:  s.normalizer.CleanForDisplay(text),
		Links:        textproc.ExtractLinks(text),
		Engine:       engine,
		ClassifiedAt: time.Now(),
	}
}
