package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is the prose extracted from one input file. Every layout unit
// (paragraph, bullet, table cell, heading, pdf line) ends in terminal
// punctuation, so sentence splitting never merges neighbouring units.
type Document struct {
	Title  string
	Format string
	Text   string
}

func ParseFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	doc := &Document{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	switch ext {
	case ".txt", "":
		doc.Format = "text"
		doc.Text = collapseLines(string(raw))
	case ".md", ".markdown":
		doc.Format = "markdown"
		doc.Text = collapseLines(parseMarkdown(raw))
	case ".docx":
		units, err := parseDOCX(raw)
		if err != nil {
			return nil, err
		}
		doc.Format = "docx"
		doc.Text = terminateUnits(units)
	case ".pdf":
		units, err := parsePDF(path)
		if err != nil {
			return nil, err
		}
		doc.Format = "pdf"
		doc.Text = terminateUnits(units)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	return doc, nil
}

// collapseLines trims every line, squeezes inner whitespace and drops blank
// lines. Plain text keeps its own punctuation.
func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// terminateUnits collapses each unit and appends a period to units that do
// not already end a sentence.
func terminateUnits(units []string) string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		u = strings.Join(strings.Fields(u), " ")
		if u == "" {
			continue
		}
		out = append(out, terminate(u))
	}
	return strings.Join(out, "\n")
}

func terminate(unit string) string {
	if strings.ContainsAny(unit[len(unit)-1:], ".!?") {
		return unit
	}
	return unit + "."
}
