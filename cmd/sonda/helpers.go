package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/everlof/sonda/internal/common"
	"github.com/everlof/sonda/internal/ingest"
	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/rules"
	"github.com/everlof/sonda/internal/storage"
)

// exitMalformedInput marks an error that should exit 2 (malformed input:
// an input report file could not be read or parsed as JSON).
type exitMalformedInput struct{ err error }

func (e *exitMalformedInput) Error() string { return e.err.Error() }
func (e *exitMalformedInput) Unwrap() error { return e.err }

// exitValidationFailure marks an error that should exit 3 (a ruleset
// failed schema or semantic validation).
type exitValidationFailure struct{ err error }

func (e *exitValidationFailure) Error() string { return e.err.Error() }
func (e *exitValidationFailure) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var malformed *exitMalformedInput
	var invalid *exitValidationFailure
	switch {
	case errors.As(err, &malformed):
		return 2
	case errors.As(err, &invalid):
		return 3
	case errors.Is(err, common.ErrInvalidRuleset):
		return 3
	default:
		return 1
	}
}

func readReports(paths []string) ([]model.AnalysisReport, error) {
	var reports []model.AnalysisReport
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &exitMalformedInput{fmt.Errorf("reading %s: %w", path, err)}
		}
		report, err := ingest.ParseReport(raw)
		if err != nil {
			return nil, &exitMalformedInput{fmt.Errorf("parsing %s: %w", path, err)}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// loadRulesets resolves --preset and --rules flags, in the order given on
// the command line, additively. A "fa" preset is excluded from the
// returned threshold rulesets; callers check includeHP separately.
func loadRulesets(presets, files []string) (rulesets []model.Ruleset, includeHP bool, err error) {
	for _, name := range presets {
		if rules.IsHPPreset(name) {
			includeHP = true
			continue
		}
		rs, loadErr := rules.LoadPreset(name)
		if loadErr != nil {
			return nil, false, &exitValidationFailure{loadErr}
		}
		rulesets = append(rulesets, rs)
	}
	for _, path := range files {
		rs, loadErr := rules.LoadFile(path)
		if loadErr != nil {
			return nil, false, &exitValidationFailure{loadErr}
		}
		rulesets = append(rulesets, rs)
	}
	return rulesets, includeHP, nil
}

// contentHash derives the run-cache key from the resolved input: the
// report files' contents plus which rulesets were requested, so a
// different ruleset selection over the same reports is never a false
// cache hit.
func contentHash(paths []string, presets, files []string) (string, error) {
	h := sha256.New()
	for _, path := range sortedCopy(paths) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", &exitMalformedInput{fmt.Errorf("reading %s: %w", path, err)}
		}
		h.Write([]byte(filepath.Base(path)))
		h.Write(raw)
	}
	h.Write([]byte(strings.Join(sortedCopy(presets), ",")))
	for _, path := range sortedCopy(files) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", &exitMalformedInput{fmt.Errorf("reading %s: %w", path, err)}
		}
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortedCopy(ss []string) []string {
	out := append([]string{}, ss...)
	sort.Strings(out)
	return out
}

func initStorage(ctx context.Context) (*storage.Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dbPath := filepath.Join(home, ".config", "sonda", "runs.db")

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run cache: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate run cache: %w", err)
	}
	return store, nil
}
