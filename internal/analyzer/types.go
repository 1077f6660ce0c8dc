package analyzer

import (
	"resume_filter/internal/classify"
	"resume_filter/internal/segment"
)

type ClassifiedSentence struct {
	segment.Sentence
	// LogPerplexity is nil when the sentence could not be scored.
	LogPerplexity *float64 `json:"log_perplexity"`
	// Suspicion is the perplexity rescaled onto [0,1]; nil when unscored.
	Suspicion *float64 `json:"suspicion,omitempty"`
	Failure   string   `json:"failure,omitempty"`
	classify.Classification
}

type OverallStats struct {
	TotalSentences    int     `json:"total_sentences"`
	AISuspiciousCount int     `json:"ai_suspicious_count"`
	NaturalCount      int     `json:"natural_count"`
	ErrorCount        int     `json:"error_count"`
	AIRatio           float64 `json:"ai_ratio"`
}

type Result struct {
	AISuspicious    []ClassifiedSentence `json:"ai_suspicious_sentences"`
	Natural         []ClassifiedSentence `json:"natural_sentences"`
	Errors          []ClassifiedSentence `json:"error_sentences"`
	Stats           OverallStats         `json:"overall_stats"`
	Recommendations []string             `json:"recommendations"`
	// Failed marks a document whose analysis aborted as a whole inside a
	// batch; the lists are empty and Error says why.
	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

type BatchResult struct {
	TextID int    `json:"text_id"`
	Result Result `json:"result"`
}

type Info struct {
	ModelName       string  `json:"model_name"`
	Device          string  `json:"device"`
	MaxLength       int     `json:"max_length"`
	LogPPLThreshold float64 `json:"log_ppl_threshold"`
}

// ProgressFn receives progress updates. It may be called from several
// goroutines when a batch runs with more than one worker.
type ProgressFn func(done, total int, stage string)
