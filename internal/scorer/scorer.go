package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"resume_filter/internal/cache"
	"resume_filter/internal/logging"
	"resume_filter/internal/metrics"
	"resume_filter/internal/model"
	"resume_filter/internal/segment"
)

const (
	FailureBlank      = "blank"
	FailureEmptyInput = "empty_after_normalize"
	FailureTimeout    = "timeout"
	FailureCanceled   = "canceled"
	FailureBackend    = "backend"
	FailurePanic      = "panic"
	FailureInvalid    = "invalid_loss"
	FailureNoModel    = "no_model"
)

// Result is either a defined log-perplexity or an undefined marker with the
// reason it could not be produced.
type Result struct {
	Sentence      segment.Sentence
	LogPerplexity float64
	Defined       bool
	Failure       string
}

func (r Result) Value() (float64, bool) {
	return r.LogPerplexity, r.Defined
}

type Scorer struct {
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  logging.Logger
	timeout time.Duration
}

type Option func(*Scorer)

func WithCache(c cache.Cache) Option {
	return func(s *Scorer) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scorer) { s.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// WithTimeout bounds each backend call; zero leaves calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(s *Scorer) { s.timeout = d }
}

func New(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score never fails: every problem with one sentence is folded into an
// undefined Result so the rest of the document still gets scored.
func (s *Scorer) Score(ctx context.Context, h *model.Handle, sentence segment.Sentence, maxLength int) Result {
	res := Result{Sentence: sentence}
	if strings.TrimSpace(sentence.Text) == "" {
		res.Failure = FailureBlank
		return res
	}
	if h == nil {
		return s.fail(res, FailureNoModel, errors.New("no model handle"))
	}

	// The normalized text is what gets scored; the sentence keeps its
	// original text for reporting.
	text := Preprocess(sentence.Text)
	if text == "" {
		return s.fail(res, FailureEmptyInput, errors.New("nothing left to score after normalization"))
	}

	key := ""
	if s.cache != nil {
		key = cache.Key(h.ID, maxLength, text)
		v, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logging.Log(s.logger, "WARN", "CACHE", "score cache lookup failed", err.Error())
		}
		s.metrics.ObserveCache(ok)
		if ok {
			res.LogPerplexity, res.Defined = v, true
			return res
		}
	}

	start := time.Now()
	loss, err := s.invoke(ctx, h, text, maxLength)
	s.metrics.ObserveScore(time.Since(start))
	if err != nil {
		return s.fail(res, failureKind(err), err)
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) || loss < 0 {
		return s.fail(res, FailureInvalid, fmt.Errorf("backend returned %v", loss))
	}

	res.LogPerplexity, res.Defined = loss, true
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, loss); err != nil {
			logging.Log(s.logger, "WARN", "CACHE", "score cache store failed", err.Error())
		}
	}
	return res
}

func (s *Scorer) invoke(ctx context.Context, h *model.Handle, text string, maxLength int) (loss float64, err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return h.Score(ctx, text, maxLength)
}

func (s *Scorer) fail(res Result, kind string, err error) Result {
	res.Failure = kind
	s.metrics.ObserveScoreFailure(kind)
	logging.Log(s.logger, "WARN", "SCORE", "sentence could not be scored",
		fmt.Sprintf("position=%d kind=%s type=%s err=%v", res.Sentence.Position, kind, logging.ClassifyErr(err), err))
	return res
}

type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("backend panic: %v", p.value)
}

func failureKind(err error) string {
	var pe *panicError
	switch {
	case errors.As(err, &pe):
		return FailurePanic
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	default:
		return FailureBackend
	}
}

// Letters cover Hangul and every other script; digits and underscore complete
// the word class.
var disallowed = regexp.MustCompile(`[^\p{L}\p{N}_ .,!?]+`)

// Preprocess collapses whitespace runs to single spaces and drops characters
// outside word characters, spaces and . , ! ?
func Preprocess(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return disallowed.ReplaceAllString(text, "")
}
