package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

// Runs against real resumes when PPLX_SAMPLES_DIR points at a folder of
// .docx/.pdf/.md files.
func TestParseSamplesFolder(t *testing.T) {
	dir := os.Getenv("PPLX_SAMPLES_DIR")
	if dir == "" {
		t.Skip("PPLX_SAMPLES_DIR not set")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read samples dir: %v", err)
	}
	parsedAny := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".docx", ".pdf", ".md", ".txt":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		parsed, err := ParseFile(path)
		if err != nil {
			t.Fatalf("ParseFile failed for %s: %v", path, err)
		}
		if parsed.Text == "" {
			t.Fatalf("expected extracted text for %s", path)
		}
		parsedAny = true
	}
	if !parsedAny {
		t.Fatalf("no supported samples found in %s", dir)
	}
}
