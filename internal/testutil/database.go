// Package testutil provides shared test fixtures for the classification
// pipeline: an in-memory run-cache store and a handful of representative
// lab reports used across package test suites.
package testutil

import (
	"context"
	"testing"

	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB wraps an in-memory run-cache store with automatic cleanup.
type TestDB struct {
	Store *storage.Store
	t     *testing.T
}

// SetupTestDB creates a migrated in-memory SQLite run-cache store.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Store: store, t: t}
}

// CleanSoilReport returns a Jord sample whose readings sit well below every
// NV threshold and every HP criterion's GCL: the "nothing triggers"
// baseline scenario.
func CleanSoilReport(sampleID string) model.AnalysisReport {
	return model.AnalysisReport{
		Header: model.ReportHeader{SampleID: sampleID, Matrix: model.Jord},
		Rows: []model.AnalysisRow{
			row("arsenik", "5", "mg/kg"),
			row("bly", "20", "mg/kg"),
			row("koppar", "30", "mg/kg"),
		},
	}
}

// HazardousLeadReport returns a Jord sample with a lead reading high enough
// to trigger HP10 via its Specific Concentration Limit rather than the
// generic one.
func HazardousLeadReport(sampleID string) model.AnalysisReport {
	return model.AnalysisReport{
		Header: model.ReportHeader{SampleID: sampleID, Matrix: model.Jord},
		Rows: []model.AnalysisRow{
			row("bly", "300", "mg/kg"),
		},
	}
}

// BelowDetectionReport returns a Jord sample where every substance is
// reported only as below its detection limit.
func BelowDetectionReport(sampleID string) model.AnalysisReport {
	return model.AnalysisReport{
		Header: model.ReportHeader{SampleID: sampleID, Matrix: model.Jord},
		Rows: []model.AnalysisRow{
			belowDetectionRow("arsenik", "0.01", "mg/kg"),
			belowDetectionRow("bly", "0.01", "mg/kg"),
			belowDetectionRow("koppar", "0.01", "mg/kg"),
		},
	}
}

func row(substance, value, unit string) model.AnalysisRow {
	return model.AnalysisRow{
		RawName:      substance,
		CanonicalKey: substance,
		Value:        model.ExactValue(decimal.RequireFromString(value)),
		Unit:         unit,
	}
}

func belowDetectionRow(substance, limit, unit string) model.AnalysisRow {
	return model.AnalysisRow{
		RawName:      substance,
		CanonicalKey: substance,
		Value:        model.BelowDetectionValue(decimal.RequireFromString(limit)),
		Unit:         unit,
	}
}
