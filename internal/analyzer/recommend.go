package analyzer

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	RecommendFullRevision = "Half or more of the sentences look AI-generated. A full revision is recommended."
	RecommendMajorRevise  = "A substantial share of sentences look AI-generated. Please revise the major sentences."
	RecommendReview       = "Only some sentences look AI-generated. Please review the flagged sentences."
	RecommendAllClear     = "No sentences look AI-generated."

	priorityConfidence = 0.8
	priorityLimit      = 3
)

// recommendations expects ai already sorted by descending confidence.
func recommendations(ai []ClassifiedSentence, ratio float64) []string {
	out := make([]string, 0, 2)
	switch {
	case ratio >= 0.5:
		out = append(out, RecommendFullRevision)
	case ratio >= 0.3:
		out = append(out, RecommendMajorRevise)
	case ratio > 0:
		out = append(out, RecommendReview)
	default:
		out = append(out, RecommendAllClear)
	}

	positions := make([]string, 0, priorityLimit)
	for _, s := range ai {
		if len(positions) == priorityLimit {
			break
		}
		if s.Confidence > priorityConfidence {
			positions = append(positions, strconv.Itoa(s.Position+1))
		}
	}
	if len(positions) > 0 {
		out = append(out, fmt.Sprintf("Revise first: sentences %s", strings.Join(positions, ", ")))
	}
	return out
}
