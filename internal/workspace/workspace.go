package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"resume_filter/internal/config"
)

// Layout names the directories under a workspace root.
type Layout struct {
	Root     string
	Configs  string
	Reports  string
	Logs     string
	Settings string
}

func layoutOf(base string) Layout {
	return Layout{
		Root:     base,
		Configs:  filepath.Join(base, "configs"),
		Reports:  filepath.Join(base, "reports"),
		Logs:     filepath.Join(base, "logs"),
		Settings: filepath.Join(base, "configs", "settings.yaml"),
	}
}

// EnsureAt creates the workspace directories and writes default settings
// when none exist yet. Existing settings are left untouched.
func EnsureAt(base string) (Layout, error) {
	l := layoutOf(base)
	for _, p := range []string{l.Configs, l.Reports, l.Logs} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return Layout{}, fmt.Errorf("mkdir %s: %w", p, err)
		}
	}

	if _, err := os.Stat(l.Settings); os.IsNotExist(err) {
		raw, marshalErr := yaml.Marshal(config.Default())
		if marshalErr != nil {
			return Layout{}, fmt.Errorf("marshal settings: %w", marshalErr)
		}
		if writeErr := os.WriteFile(l.Settings, raw, 0o644); writeErr != nil {
			return Layout{}, fmt.Errorf("write settings: %w", writeErr)
		}
	}

	return l, nil
}
