package ingest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resume_filter/internal/segment"
)

func TestParseDOCX(t *testing.T) {
	raw := buildDOCX(t, `<w:document><w:body><w:p><w:r><w:t>Chapter 1</w:t></w:r></w:p><w:p><w:r><w:t>Hello world.</w:t></w:r></w:p></w:body></w:document>`)
	got, err := parseDOCX(raw)
	if err != nil {
		t.Fatalf("parseDOCX failed: %v", err)
	}
	if strings.Join(got, "|") != "Chapter 1|Hello world." {
		t.Fatalf("unexpected units %q", got)
	}
}

func TestParseDOCXSplitsBreaksTabsAndCells(t *testing.T) {
	raw := buildDOCX(t, `<w:document><w:body>`+
		`<w:p><w:r><w:t>Skills</w:t><w:tab/><w:t>Go, SQL</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Seoul</w:t><w:br/><w:t>2019 - 2023</w:t></w:r></w:p>`+
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Team lead</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Platform</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`+
		`</w:body></w:document>`)
	got, err := parseDOCX(raw)
	if err != nil {
		t.Fatalf("parseDOCX failed: %v", err)
	}
	want := "Skills|Go, SQL|Seoul|2019 - 2023|Team lead|Platform"
	if strings.Join(got, "|") != want {
		t.Fatalf("expected %q, got %q", want, strings.Join(got, "|"))
	}
}

func TestParseFileDOCXBulletsBecomeSentences(t *testing.T) {
	raw := buildDOCX(t, `<w:document><w:body>`+
		`<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr><w:r><w:t>Built a billing service in Go</w:t></w:r></w:p>`+
		`<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr><w:r><w:t>Cut p99 latency by 40%</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>I enjoy mentoring!</w:t></w:r></w:p>`+
		`</w:body></w:document>`)
	path := filepath.Join(t.TempDir(), "resume.docx")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Format != "docx" || doc.Title != "resume" {
		t.Fatalf("unexpected document %+v", doc)
	}
	sentences := segment.Split(doc.Text)
	want := []string{"Built a billing service in Go", "Cut p99 latency by 40%", "I enjoy mentoring"}
	if len(sentences) != len(want) {
		t.Fatalf("expected %d sentences, got %+v", len(want), sentences)
	}
	for i, w := range want {
		if sentences[i].Text != w {
			t.Fatalf("sentence %d: expected %q, got %q", i, w, sentences[i].Text)
		}
	}
}

func TestPDFLinesAreTerminated(t *testing.T) {
	got := terminateUnits(pdfLines("Jane Doe\n  Backend engineer  \n\nShipped payments in 2021.\n"))
	want := "Jane Doe.\nBackend engineer.\nShipped payments in 2021."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestParseFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.rtf")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	_, err := ParseFile(path)
	if err == nil {
		t.Fatal("expected unsupported file type error")
	}
}

func buildDOCX(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	xml := `<?xml version="1.0" encoding="UTF-8"?>` + bodyXML
	if _, err := f.Write([]byte(xml)); err != nil {
		t.Fatalf("write xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return b.Bytes()
}

func TestParseMarkdownKeepsProse(t *testing.T) {
	src := []byte("# 지원 동기\n\n저는 데이터에 관심이 많습니다.\n새로운 기술을 배우는 것을 좋아합니다.\n\n```go\nfmt.Println(\"skip me\")\n```\n\n- 협업 경험!\n- Kubernetes 운영\n")
	got := parseMarkdown(src)
	if strings.Contains(got, "skip me") {
		t.Fatalf("expected code block to be dropped, got %q", got)
	}
	for _, want := range []string{"지원 동기.", "저는 데이터에 관심이 많습니다. 새로운 기술을", "협업 경험!", "Kubernetes 운영."} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
	if strings.Contains(got, "#") {
		t.Fatalf("expected heading markup to be stripped, got %q", got)
	}
}

func TestParseFileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "essay.txt")
	if err := os.WriteFile(path, []byte("  first line.  \n\n\n second   line.\n"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	parsed, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Title != "essay" {
		t.Fatalf("unexpected title %q", parsed.Title)
	}
	if parsed.Text != "first line.\nsecond line." {
		t.Fatalf("unexpected text %q", parsed.Text)
	}
}
