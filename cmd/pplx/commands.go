package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"resume_filter/internal/analyzer"
	"resume_filter/internal/ingest"
	"resume_filter/internal/logging"
	"resume_filter/internal/model"
	"resume_filter/internal/workspace"
)

type document struct {
	Source string          `json:"source"`
	RunID  string          `json:"run_id,omitempty"`
	Result analyzer.Result `json:"result"`
}

type batchDocument struct {
	Source string          `json:"source"`
	TextID int             `json:"text_id"`
	RunID  string          `json:"run_id,omitempty"`
	Result analyzer.Result `json:"result"`
}

type batchOutput struct {
	Model     analyzer.Info   `json:"model"`
	Documents []batchDocument `json:"documents"`
}

func modelsOutput() map[string][]string {
	return map[string][]string{"models": model.Supported()}
}

// readSource extracts text from a file, or from stdin when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	parsed, err := ingest.ParseFile(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return parsed.Text, nil
}

func (a *app) analyzeFiles(ctx context.Context, paths []string) ([]document, error) {
	out := make([]document, 0, len(paths))
	for _, p := range paths {
		text, err := readSource(p)
		if err != nil {
			return nil, err
		}
		res := a.analyzer.Analyze(ctx, text)
		doc := document{Source: p, Result: res}
		doc.RunID = a.persist(ctx, p, 0, res)
		out = append(out, doc)
	}
	a.saveReport("analyze", out)
	return out, nil
}

func (a *app) batchFiles(ctx context.Context, paths []string) (batchOutput, error) {
	texts := make([]string, len(paths))
	for i, p := range paths {
		text, err := readSource(p)
		if err != nil {
			return batchOutput{}, err
		}
		texts[i] = text
	}

	results := a.analyzer.AnalyzeBatch(ctx, texts)
	out := batchOutput{Model: a.analyzer.ModelInfo(), Documents: make([]batchDocument, len(results))}
	for i, br := range results {
		src := paths[br.TextID]
		out.Documents[i] = batchDocument{
			Source: src,
			TextID: br.TextID,
			RunID:  a.persist(ctx, src, br.TextID, br.Result),
			Result: br.Result,
		}
	}
	a.saveReport("batch", out)
	return out, nil
}

// persist stores a run when a database is configured. Storage failures are
// logged and never fail the analysis.
func (a *app) persist(ctx context.Context, source string, textID int, res analyzer.Result) string {
	if a.store == nil {
		return ""
	}
	id, err := a.store.SaveRun(ctx, source, textID, a.analyzer.ModelInfo(), res)
	if err != nil {
		logging.Log(a.logger, "WARN", "STORE", "failed to persist run", err.Error())
		return ""
	}
	return id
}

func (a *app) saveReport(kind string, analysis any) {
	if a.layout == nil {
		return
	}
	report := workspace.NewReport(kind, analysis)
	path, err := workspace.SaveReport(a.layout.Reports, kind+"-"+report.ID, report)
	if err != nil {
		logging.Log(a.logger, "WARN", "REPORT", "failed to save report", err.Error())
		return
	}
	logging.Log(a.logger, "INFO", "REPORT", "report saved", path)
}
