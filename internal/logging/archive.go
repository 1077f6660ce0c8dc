package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Archive appends log lines to a per-session file under dir.
type Archive struct {
	mu          sync.Mutex
	dir         string
	sessionFile string
}

func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	a := &Archive{
		dir:         dir,
		sessionFile: filepath.Join(dir, "session-"+time.Now().Format("20060102-150405")+".log"),
	}
	a.Log("INFO", "BOOT", "log archive initialized", dir)
	return a, nil
}

func (a *Archive) Path() string {
	if a == nil {
		return ""
	}
	return a.sessionFile
}

func (a *Archive) Log(level, stage, message, detail string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	line := fmt.Sprintf("[%s] [%s] [%s] %s", time.Now().Format("15:04:05.000"), level, stage, message)
	if strings.TrimSpace(detail) != "" {
		line += " | " + detail
	}
	line += "\n"
	f, err := os.OpenFile(a.sessionFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line)
}

// ClassifyErr buckets an error into timeout, tool_unavailable or exception
// for log details.
func ClassifyErr(err error) string {
	if err == nil {
		return "exception"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "timeout"
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "unavailable"):
		return "tool_unavailable"
	default:
		return "exception"
	}
}
