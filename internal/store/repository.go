package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resume_filter/internal/analyzer"
)

type Run struct {
	ID        string
	Source    string
	TextID    int
	Info      analyzer.Info
	Stats     analyzer.OverallStats
	Failed    bool
	Error     string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func OpenStore(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists one analyzed document with its sentences and
// recommendations and returns the generated run id.
func (s *Store) SaveRun(ctx context.Context, source string, textID int, info analyzer.Info, res analyzer.Result) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, source, text_id, model, device, max_length, threshold, total_sentences, ai_suspicious_count, natural_count, error_count, ai_ratio, failed, error, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID,
		source,
		textID,
		info.ModelName,
		info.Device,
		info.MaxLength,
		info.LogPPLThreshold,
		res.Stats.TotalSentences,
		res.Stats.AISuspiciousCount,
		res.Stats.NaturalCount,
		res.Stats.ErrorCount,
		res.Stats.AIRatio,
		boolInt(res.Failed),
		res.Error,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, group := range [][]analyzer.ClassifiedSentence{res.AISuspicious, res.Natural, res.Errors} {
		for _, cs := range group {
			var lp sql.NullFloat64
			if cs.LogPerplexity != nil {
				lp = sql.NullFloat64{Float64: *cs.LogPerplexity, Valid: true}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sentences(run_id, position, text, log_perplexity, classification, confidence, failure) VALUES(?,?,?,?,?,?,?)`,
				runID, cs.Position, cs.Text, lp, string(cs.Label), cs.Confidence, cs.Failure,
			); err != nil {
				return "", fmt.Errorf("insert sentence: %w", err)
			}
		}
	}

	for i, msg := range res.Recommendations {
		if _, err := tx.ExecContext(ctx, `INSERT INTO recommendations(run_id, ord, message) VALUES(?,?,?)`, runID, i, msg); err != nil {
			return "", fmt.Errorf("insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return runID, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, text_id, model, device, max_length, threshold, total_sentences, ai_suspicious_count, natural_count, error_count, ai_ratio, failed, error, created_at
		 FROM runs WHERE id = ?`, id)
	var (
		r       Run
		failed  int
		created string
	)
	if err := row.Scan(&r.ID, &r.Source, &r.TextID, &r.Info.ModelName, &r.Info.Device, &r.Info.MaxLength, &r.Info.LogPPLThreshold,
		&r.Stats.TotalSentences, &r.Stats.AISuspiciousCount, &r.Stats.NaturalCount, &r.Stats.ErrorCount, &r.Stats.AIRatio,
		&failed, &r.Error, &created); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Failed = failed != 0
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

// Recommendations returns the stored messages of a run in order.
func (s *Store) Recommendations(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT message FROM recommendations WHERE run_id = ? ORDER BY ord`, runID)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	switch table {
	case "runs", "sentences", "recommendations":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
