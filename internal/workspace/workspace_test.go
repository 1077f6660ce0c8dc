package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resume_filter/internal/config"
)

func TestEnsureAtCreatesLayout(t *testing.T) {
	base := filepath.Join(t.TempDir(), "workspace")
	l, err := EnsureAt(base)
	if err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	for _, p := range []string{l.Configs, l.Reports, l.Logs, l.Settings} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected path to exist %s: %v", p, err)
		}
	}

	cfg, err := config.Load(l.Settings)
	if err != nil {
		t.Fatalf("load default settings: %v", err)
	}
	if cfg != config.Default() {
		t.Fatalf("default settings did not round-trip: %+v", cfg)
	}
}

func TestEnsureAtKeepsExistingSettings(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "configs"), 0o755); err != nil {
		t.Fatal(err)
	}
	custom := []byte("model: gpt2\n")
	if err := os.WriteFile(filepath.Join(base, "configs", "settings.yaml"), custom, 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := EnsureAt(base)
	if err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	raw, err := os.ReadFile(l.Settings)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != string(custom) {
		t.Fatalf("settings overwritten: %q", raw)
	}
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	report := NewReport(" resume.docx ", map[string]int{"sentences": 3})

	path, err := SaveReport(dir, "../resume.docx", report)
	if err != nil {
		t.Fatalf("save report: %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Base(path) != "resume.json" {
		t.Fatalf("unexpected report path %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got Report
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if got.ID != report.ID || got.Source != "resume.docx" {
		t.Fatalf("unexpected report %+v", got)
	}
}

func TestSaveReportFallsBackToID(t *testing.T) {
	dir := t.TempDir()
	report := NewReport("stdin", nil)
	path, err := SaveReport(dir, "", report)
	if err != nil {
		t.Fatalf("save report: %v", err)
	}
	if !strings.HasSuffix(path, report.ID+".json") {
		t.Fatalf("expected id-named report, got %s", path)
	}
}
