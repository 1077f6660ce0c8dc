package store

import (
	"context"
	"path/filepath"
	"testing"

	"resume_filter/internal/analyzer"
	"resume_filter/internal/classify"
	"resume_filter/internal/segment"
)

func sentence(pos int, text string, lp *float64, label classify.Label, conf float64) analyzer.ClassifiedSentence {
	return analyzer.ClassifiedSentence{
		Sentence:       segment.Sentence{Text: text, Position: pos},
		LogPerplexity:  lp,
		Classification: classify.Classification{Label: label, Confidence: conf, AISuspicious: label == classify.AISuspicious},
	}
}

func TestSaveRun(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "filter.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	low, high := 0.4, 3.1
	res := analyzer.Result{
		AISuspicious: []analyzer.ClassifiedSentence{sentence(1, "두 번째", &low, classify.AISuspicious, 0.73)},
		Natural:      []analyzer.ClassifiedSentence{sentence(0, "첫 번째", &high, classify.Natural, 0.81)},
		Errors:       []analyzer.ClassifiedSentence{sentence(2, "세 번째", nil, classify.Error, 0)},
		Stats: analyzer.OverallStats{
			TotalSentences:    3,
			AISuspiciousCount: 1,
			NaturalCount:      1,
			ErrorCount:        1,
			AIRatio:           1.0 / 3.0,
		},
		Recommendations: []string{analyzer.RecommendMajorRevise, "Revise first: sentences 2"},
	}
	info := analyzer.Info{ModelName: "kogpt2", Device: "cpu", MaxLength: 512, LogPPLThreshold: 1.474}

	ctx := context.Background()
	id, err := s.SaveRun(ctx, "resume.docx", 0, info, res)
	if err != nil {
		t.Fatalf("save run: %v", err)
	}

	sentences, err := s.CountRows(ctx, "sentences")
	if err != nil {
		t.Fatalf("count sentences: %v", err)
	}
	if sentences != 3 {
		t.Fatalf("expected 3 sentences, got %d", sentences)
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Source != "resume.docx" || run.Info != info || run.Stats != res.Stats || run.Failed {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("expected created_at to round-trip")
	}

	recs, err := s.Recommendations(ctx, id)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(recs) != 2 || recs[0] != analyzer.RecommendMajorRevise {
		t.Fatalf("unexpected recommendations %v", recs)
	}
}

func TestCountRowsRejectsUnknownTable(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "filter.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	if _, err := s.CountRows(context.Background(), "runs; DROP TABLE runs"); err == nil {
		t.Fatal("expected error for unknown table")
	}
}
