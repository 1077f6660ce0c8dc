package classify

import "math"

// DefaultThreshold is the log-perplexity at or below which a sentence is
// flagged as likely machine generated.
const DefaultThreshold = 1.474

// naturalSpan is the distance above the threshold at which NATURAL
// confidence saturates.
const naturalSpan = 2.0

type Label string

const (
	AISuspicious Label = "AI_SUSPICIOUS"
	Natural      Label = "NATURAL"
	Error        Label = "ERROR"
)

type Classification struct {
	Label        Label   `json:"classification"`
	Confidence   float64 `json:"confidence"`
	AISuspicious bool    `json:"ai_suspicious"`
}

// Classify maps a log-perplexity to a label. defined=false marks a score that
// could not be produced and always yields ERROR.
func Classify(logPPL float64, defined bool, threshold float64) Classification {
	if !defined {
		return Classification{Label: Error, Confidence: 0, AISuspicious: false}
	}
	if logPPL <= threshold {
		return Classification{
			Label:        AISuspicious,
			Confidence:   clamp01((threshold - logPPL) / threshold),
			AISuspicious: true,
		}
	}
	return Classification{
		Label:        Natural,
		Confidence:   clamp01((logPPL - threshold) / naturalSpan),
		AISuspicious: false,
	}
}

// Normalize rescales a raw perplexity onto [0,1] on a log scale. Values near 1
// are more suspicious.
func Normalize(ppl, minPPL, maxPPL float64) float64 {
	logMin := math.Log(minPPL)
	logMax := math.Log(maxPPL)
	if logMax == logMin {
		return 0
	}
	logPPL := math.Log(math.Max(ppl, minPPL))
	return clamp01((logMax - logPPL) / (logMax - logMin))
}

func NormalizeDefault(ppl float64) float64 {
	return Normalize(ppl, 1.0, 1000.0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
