package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report is the on-disk record of one analyze or batch invocation.
type Report struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Analysis  any       `json:"analysis"`
}

func NewReport(source string, analysis any) Report {
	return Report{
		ID:        uuid.NewString(),
		Source:    strings.TrimSpace(source),
		CreatedAt: time.Now().UTC(),
		Analysis:  analysis,
	}
}

// SaveReport writes report as indented JSON into dir. An empty name
// falls back to the report ID.
func SaveReport(dir, name string, report Report) (string, error) {
	name = sanitizeName(name)
	if name == "" {
		name = report.ID
	}
	if name == "" {
		name = uuid.NewString()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "..", "")
}
