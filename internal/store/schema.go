package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source TEXT,
    text_id INTEGER,
    model TEXT,
    device TEXT,
    max_length INTEGER,
    threshold REAL,
    total_sentences INTEGER,
    ai_suspicious_count INTEGER,
    natural_count INTEGER,
    error_count INTEGER,
    ai_ratio REAL,
    failed INTEGER,
    error TEXT,
    created_at TEXT
);

CREATE TABLE IF NOT EXISTS sentences (
    id INTEGER PRIMARY KEY,
    run_id TEXT,
    position INTEGER,
    text TEXT,
    log_perplexity REAL,
    classification TEXT,
    confidence REAL,
    failure TEXT
);

CREATE TABLE IF NOT EXISTS recommendations (
    id INTEGER PRIMARY KEY,
    run_id TEXT,
    ord INTEGER,
    message TEXT
);

CREATE INDEX IF NOT EXISTS idx_sentences_run ON sentences(run_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_run ON recommendations(run_id);
`

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
