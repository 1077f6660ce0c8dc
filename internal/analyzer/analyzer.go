package analyzer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync/atomic"
	"time"

	"resume_filter/internal/classify"
	"resume_filter/internal/logging"
	"resume_filter/internal/metrics"
	"resume_filter/internal/model"
	"resume_filter/internal/pipeline"
	"resume_filter/internal/scorer"
	"resume_filter/internal/segment"
)

const DefaultMaxLength = 512

type Config struct {
	ModelName string
	MaxLength int
	Threshold float64
	// Workers > 1 fans batches out across documents. Sentences within a
	// document are always scored in order.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		ModelName: "kogpt2",
		MaxLength: DefaultMaxLength,
		Threshold: classify.DefaultThreshold,
		Workers:   1,
	}
}

type Analyzer struct {
	cfg      Config
	provider *model.Provider
	handle   *model.Handle
	scorer   *scorer.Scorer
	logger   logging.Logger
	metrics  *metrics.Metrics
	progress ProgressFn
}

type Option func(*Analyzer)

func WithScorer(s *scorer.Scorer) Option {
	return func(a *Analyzer) { a.scorer = s }
}

func WithLogger(l logging.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

func WithProgress(fn ProgressFn) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// New acquires the configured model up front; acquisition errors
// (model.ErrUnsupportedModel, model.ErrModelLoad) are the only errors the
// analyzer ever returns.
func New(ctx context.Context, provider *model.Provider, cfg Config, opts ...Option) (*Analyzer, error) {
	if provider == nil {
		return nil, errors.New("analyzer: nil model provider")
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = classify.DefaultThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	a := &Analyzer{cfg: cfg, provider: provider}
	for _, opt := range opts {
		opt(a)
	}
	if a.scorer == nil {
		a.scorer = scorer.New(scorer.WithLogger(a.logger), scorer.WithMetrics(a.metrics))
	}

	h, err := provider.Acquire(ctx, cfg.ModelName)
	if err != nil {
		return nil, err
	}
	a.handle = h
	logging.Log(a.logger, "INFO", "BOOT", "perplexity analyzer initialized",
		fmt.Sprintf("model=%s device=%s max_length=%d threshold=%.3f", cfg.ModelName, h.Device, cfg.MaxLength, cfg.Threshold))
	return a, nil
}

// Analyze scores and classifies every sentence of text. It always returns a
// complete result; sentences that could not be scored land in Errors.
func (a *Analyzer) Analyze(ctx context.Context, text string) Result {
	start := time.Now()
	sentences := segment.Split(text)
	if len(sentences) == 0 {
		a.metrics.ObserveDocument("empty")
		return emptyResult()
	}

	logging.Log(a.logger, "ANALYSIS", "AI", "perplexity run started", fmt.Sprintf("sentences=%d", len(sentences)))

	res := Result{
		AISuspicious: []ClassifiedSentence{},
		Natural:      []ClassifiedSentence{},
		Errors:       []ClassifiedSentence{},
	}
	for i, s := range sentences {
		scored := a.scorer.Score(ctx, a.handle, s, a.cfg.MaxLength)
		v, ok := scored.Value()
		cs := newClassified(scored, classify.Classify(v, ok, a.cfg.Threshold))
		a.metrics.ObserveSentence(string(cs.Label))

		switch cs.Label {
		case classify.AISuspicious:
			res.AISuspicious = append(res.AISuspicious, cs)
		case classify.Natural:
			res.Natural = append(res.Natural, cs)
		default:
			res.Errors = append(res.Errors, cs)
		}
		if a.progress != nil {
			a.progress(i+1, len(sentences), "sentences")
		}
	}

	// Stable sort keeps earlier sentences first among equal confidences.
	slices.SortStableFunc(res.AISuspicious, func(x, y ClassifiedSentence) int {
		return cmp.Compare(y.Confidence, x.Confidence)
	})

	res.Stats = stats(len(sentences), len(res.AISuspicious), len(res.Natural), len(res.Errors))
	res.Recommendations = recommendations(res.AISuspicious, res.Stats.AIRatio)
	a.metrics.ObserveDocument("ok")

	logging.Log(a.logger, "ANALYSIS", "AI", "perplexity run completed", fmt.Sprintf("sentences=%d ai=%d natural=%d errors=%d ai_ratio=%.3f duration_ms=%d",
		res.Stats.TotalSentences, res.Stats.AISuspiciousCount, res.Stats.NaturalCount, res.Stats.ErrorCount, res.Stats.AIRatio, time.Since(start).Milliseconds()))
	return res
}

// AnalyzeBatch analyzes each text independently and tags results with their
// input index. A document whose analysis panics is recorded as failed and
// the rest of the batch continues.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, texts []string) []BatchResult {
	out := make([]BatchResult, len(texts))
	var done atomic.Int32
	pipeline.Run(len(texts), a.cfg.Workers, func(i int) {
		logging.Log(a.logger, "ANALYSIS", "BATCH", fmt.Sprintf("analyzing text %d/%d", i+1, len(texts)), "")
		out[i] = BatchResult{TextID: i, Result: a.analyzeIsolated(ctx, i, texts[i])}
		if a.progress != nil {
			a.progress(int(done.Add(1)), len(texts), "documents")
		}
	})
	return out
}

func (a *Analyzer) analyzeIsolated(ctx context.Context, id int, text string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			logging.Log(a.logger, "RISK", "BATCH", "document analysis failed", fmt.Sprintf("text_id=%d err=%s", id, msg))
			a.metrics.ObserveDocument("failed")
			res = failedResult(msg)
		}
	}()
	return a.Analyze(ctx, text)
}

func (a *Analyzer) ModelInfo() Info {
	return Info{
		ModelName:       a.cfg.ModelName,
		Device:          string(a.provider.DeviceOf(a.handle)),
		MaxLength:       a.cfg.MaxLength,
		LogPPLThreshold: a.cfg.Threshold,
	}
}

func newClassified(scored scorer.Result, c classify.Classification) ClassifiedSentence {
	cs := ClassifiedSentence{
		Sentence:       scored.Sentence,
		Failure:        scored.Failure,
		Classification: c,
	}
	if v, ok := scored.Value(); ok {
		lp := v
		sus := classify.NormalizeDefault(math.Exp(v))
		cs.LogPerplexity = &lp
		cs.Suspicion = &sus
	}
	return cs
}

func stats(total, ai, natural, errs int) OverallStats {
	ratio := 0.0
	if total > 0 {
		ratio = float64(ai) / float64(total)
	}
	return OverallStats{
		TotalSentences:    total,
		AISuspiciousCount: ai,
		NaturalCount:      natural,
		ErrorCount:        errs,
		AIRatio:           ratio,
	}
}

func emptyResult() Result {
	return Result{
		AISuspicious:    []ClassifiedSentence{},
		Natural:         []ClassifiedSentence{},
		Errors:          []ClassifiedSentence{},
		Recommendations: recommendations(nil, 0),
	}
}

func failedResult(msg string) Result {
	res := emptyResult()
	res.Failed = true
	res.Error = msg
	res.Recommendations = []string{"Analysis failed for this document: " + msg}
	return res
}
