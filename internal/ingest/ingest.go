// Package ingest turns a lab report supplied as JSON into a validated
// model.AnalysisReport: normalizing substance names, parsing values and
// units, and recording row-level anomalies as diagnostics rather than
// failing the whole report.
//
// PDF and spreadsheet extraction are out of scope for this module; JSON
// is the one ingestion format, produced either by hand or by an upstream
// extraction step this module does not own.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/everlof/sonda/internal/model"
	"github.com/everlof/sonda/internal/normalize"
	"github.com/everlof/sonda/internal/parsing"
)

// reportJSON mirrors the wire shape of one sample's lab report.
type reportJSON struct {
	SampleID   string    `json:"sample_id"`
	Matrix     string    `json:"matrix,omitempty"`
	Lab        string    `json:"lab,omitempty"`
	ReportDate string    `json:"report_date,omitempty"`
	Rows       []rowJSON `json:"rows"`
}

type rowJSON struct {
	Substance string  `json:"substance"`
	Value     string  `json:"value"`
	Unit      string  `json:"unit,omitempty"`
	Evidence  *spanJSON `json:"evidence,omitempty"`
}

type spanJSON struct {
	MatchedText string  `json:"matched_text,omitempty"`
	PageNumber  int     `json:"page_number,omitempty"`
	LineIndex   int     `json:"line_index,omitempty"`
	XMin        float64 `json:"x_min,omitempty"`
	YMin        float64 `json:"y_min,omitempty"`
	XMax        float64 `json:"x_max,omitempty"`
	YMax        float64 `json:"y_max,omitempty"`
}

// ParseReport decodes and normalizes one sample's report from raw JSON.
func ParseReport(raw []byte) (model.AnalysisReport, error) {
	var rj reportJSON
	if err := json.Unmarshal(raw, &rj); err != nil {
		return model.AnalysisReport{}, fmt.Errorf("ingest: decode report: %w", err)
	}
	if rj.SampleID == "" {
		return model.AnalysisReport{}, fmt.Errorf("ingest: report is missing sample_id")
	}

	report := model.AnalysisReport{
		Header: model.ReportHeader{
			SampleID:   rj.SampleID,
			Matrix:     model.ParseMatrix(rj.Matrix),
			Lab:        rj.Lab,
			ReportDate: rj.ReportDate,
		},
	}

	seenKeys := make(map[string]bool, len(rj.Rows))

	for _, rrow := range rj.Rows {
		canonicalKey := normalize.Normalize(rrow.Substance)

		value, diag := parsing.ParseValue(rrow.Value, rrow.Unit)
		if diag != nil {
			diag.RawName = rrow.Substance
			report.Diagnostics = append(report.Diagnostics, *diag)
		}

		if seenKeys[canonicalKey] {
			report.Diagnostics = append(report.Diagnostics, model.Diagnostic{
				Kind:    model.DiagDuplicateKey,
				RawName: rrow.Substance,
				Message: fmt.Sprintf("duplicate canonical key %q, first row kept", canonicalKey),
			})
			continue
		}
		seenKeys[canonicalKey] = true

		var evidence *model.EvidenceSpan
		if rrow.Evidence != nil {
			evidence = &model.EvidenceSpan{
				MatchedText: rrow.Evidence.MatchedText,
				PageNumber:  rrow.Evidence.PageNumber,
				LineIndex:   rrow.Evidence.LineIndex,
				XMin:        rrow.Evidence.XMin,
				YMin:        rrow.Evidence.YMin,
				XMax:        rrow.Evidence.XMax,
				YMax:        rrow.Evidence.YMax,
			}
		}

		report.Rows = append(report.Rows, model.AnalysisRow{
			RawName:      rrow.Substance,
			CanonicalKey: canonicalKey,
			Value:        value,
			Unit:         normalizedUnitLabel(rrow.Unit),
			EvidenceSpan: evidence,
		})
	}

	return report, nil
}

func normalizedUnitLabel(unit string) string {
	if unit == "" {
		return "mg/kg TS"
	}
	return unit
}
