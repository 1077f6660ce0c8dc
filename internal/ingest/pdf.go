package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF returns the text lines of every readable page. Pages that fail to
// decode are skipped.
func parsePDF(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var units []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		units = append(units, pdfLines(content)...)
	}
	if len(units) == 0 {
		return nil, errors.New("no extractable text found in pdf")
	}
	return units, nil
}

func pdfLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
