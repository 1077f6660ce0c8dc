package classify

import (
	"math"
	"testing"
)

func TestClassifyBelowThreshold(t *testing.T) {
	got := Classify(1.0, true, DefaultThreshold)
	if got.Label != AISuspicious || !got.AISuspicious {
		t.Fatalf("expected AI_SUSPICIOUS, got %+v", got)
	}
	want := (DefaultThreshold - 1.0) / DefaultThreshold
	if math.Abs(got.Confidence-want) > 1e-12 {
		t.Fatalf("expected confidence %.6f, got %.6f", want, got.Confidence)
	}
}

func TestClassifyBoundaryIsSuspicious(t *testing.T) {
	got := Classify(1.474, true, 1.474)
	if got.Label != AISuspicious {
		t.Fatalf("expected AI_SUSPICIOUS at threshold, got %s", got.Label)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected zero confidence at threshold, got %f", got.Confidence)
	}
}

func TestClassifyAboveThreshold(t *testing.T) {
	got := Classify(2.0, true, DefaultThreshold)
	if got.Label != Natural || got.AISuspicious {
		t.Fatalf("expected NATURAL, got %+v", got)
	}
	if sat := Classify(DefaultThreshold+naturalSpan, true, DefaultThreshold); sat.Confidence != 1 {
		t.Fatalf("expected saturation at threshold+2, got %f", sat.Confidence)
	}
	if far := Classify(50, true, DefaultThreshold); far.Confidence != 1 {
		t.Fatalf("expected confidence to stay at 1, got %f", far.Confidence)
	}
}

func TestClassifyUndefined(t *testing.T) {
	for _, th := range []float64{0.5, DefaultThreshold, 10} {
		got := Classify(math.Inf(1), false, th)
		if got.Label != Error || got.Confidence != 0 || got.AISuspicious {
			t.Fatalf("expected ERROR with zero confidence, got %+v", got)
		}
	}
}

func TestClassifyConfidenceMonotone(t *testing.T) {
	const th = DefaultThreshold
	prev := 2.0
	for p := 0.0; p <= th; p += 0.01 {
		c := Classify(p, true, th).Confidence
		if c < 0 || c > 1 {
			t.Fatalf("confidence out of range at %f: %f", p, c)
		}
		if c > prev {
			t.Fatalf("suspicious confidence increased at %f: %f > %f", p, c, prev)
		}
		prev = c
	}
	prev = -1
	for p := th + 0.001; p <= th+4; p += 0.01 {
		c := Classify(p, true, th).Confidence
		if c < 0 || c > 1 {
			t.Fatalf("confidence out of range at %f: %f", p, c)
		}
		if c < prev {
			t.Fatalf("natural confidence decreased at %f: %f < %f", p, c, prev)
		}
		prev = c
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeDefault(1.0); got != 1 {
		t.Fatalf("expected 1 at min perplexity, got %f", got)
	}
	if got := NormalizeDefault(0.2); got != 1 {
		t.Fatalf("expected values below min to clamp to 1, got %f", got)
	}
	if got := NormalizeDefault(1000); math.Abs(got) > 1e-12 {
		t.Fatalf("expected 0 at max perplexity, got %f", got)
	}
	if got := NormalizeDefault(1e6); got != 0 {
		t.Fatalf("expected values above max to clamp to 0, got %f", got)
	}
	mid := NormalizeDefault(math.Sqrt(1000))
	if math.Abs(mid-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 at geometric midpoint, got %f", mid)
	}
}
