package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/everlof/sonda/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements the classification run cache using SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewStore opens (creating if necessary) the run-cache database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetCachedRun looks up a previously classified run by its content hash.
// The second return value is false if no cache entry exists.
func (s *Store) GetCachedRun(ctx context.Context, contentHash string) (model.ClassificationResult, bool, error) {
	if err := validateContext(ctx); err != nil {
		return model.ClassificationResult{}, false, err
	}
	if err := validateString(contentHash, "contentHash"); err != nil {
		return model.ClassificationResult{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var resultJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM runs WHERE content_hash = ?`, contentHash,
	).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return model.ClassificationResult{}, false, nil
	}
	if err != nil {
		return model.ClassificationResult{}, false, fmt.Errorf("failed to query run cache: %w", err)
	}

	var result model.ClassificationResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return model.ClassificationResult{}, false, fmt.Errorf("failed to decode cached result: %w", err)
	}

	return result, true, nil
}

// SaveRun records one classification run under contentHash, overwriting any
// prior entry for the same hash (inputs are immutable per hash, but a
// re-run with different rulesets legitimately produces a different hash).
func (s *Store) SaveRun(ctx context.Context, contentHash string, rulesetNames []string, includeHP bool, result model.ClassificationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(contentHash, "contentHash"); err != nil {
		return err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (content_hash, ruleset_names, include_hp, sample_count, result_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
		   ruleset_names = excluded.ruleset_names,
		   include_hp = excluded.include_hp,
		   sample_count = excluded.sample_count,
		   result_json = excluded.result_json,
		   created_at = CURRENT_TIMESTAMP`,
		contentHash, strings.Join(rulesetNames, ","), includeHP, len(result.Samples), string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sample_results WHERE content_hash = ?`, contentHash); err != nil {
		return fmt.Errorf("failed to clear prior sample summaries: %w", err)
	}

	for _, sample := range result.Samples {
		overall, hazardous := summarizeSample(sample)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sample_results (content_hash, sample_id, matrix, overall_category, is_hazardous)
			 VALUES (?, ?, ?, ?, ?)`,
			contentHash, sample.SampleID, sample.Matrix.String(), overall, hazardous,
		)
		if err != nil {
			return fmt.Errorf("failed to save sample summary for %q: %w", sample.SampleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// summarizeSample picks the overall category of the first applicable
// threshold ruleset (in result order) and
// reports whether any ruleset (including the HP engine) flagged the sample
// hazardous, for the sample_results index used by CLI summary queries.
func summarizeSample(sample model.SampleResult) (overall string, hazardous bool) {
	for _, rs := range sample.RulesetResults {
		if rs.NotApplicable {
			continue
		}
		if rs.HPDetails != nil {
			if rs.HPDetails.IsHazardous {
				hazardous = true
			}
			continue
		}
		if overall == "" {
			overall = rs.OverallCategory
		}
	}
	if overall == "" {
		overall = "n/a"
	}
	return overall, hazardous
}
