package segment

import (
	"regexp"
	"strings"
)

type Sentence struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

var terminalRun = regexp.MustCompile(`[.!?]+`)

// Split breaks text on runs of sentence-terminal punctuation. Spans that are
// blank after trimming are dropped and positions stay dense.
func Split(text string) []Sentence {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	parts := terminalRun.Split(text, -1)
	sentences := make([]Sentence, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sentences = append(sentences, Sentence{
			Text:     p,
			Position: len(sentences),
		})
	}
	return sentences
}
