// Package validate compares extracted values against a re-read of the source
// file and reports discrepancies.
package validate

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/extract"
	"github.com/sells-group/underwriting-cli/internal/model"
)

// ComparisonStatus classifies one field's validation outcome.
type ComparisonStatus string

const (
	StatusMatched    ComparisonStatus = "matched"
	StatusMismatched ComparisonStatus = "mismatched"
	// StatusMissing means the field exists in the source but was absent
	// from the extraction results.
	StatusMissing ComparisonStatus = "missing"
	// StatusError means the extraction flagged the field with an error;
	// counted separately from a true mismatch.
	StatusError ComparisonStatus = "error"
)

// FieldComparison is one field's validation result.
type FieldComparison struct {
	FieldName string           `json:"field_name"`
	Status    ComparisonStatus `json:"status"`
	Expected  model.CellValue  `json:"expected"`
	Actual    model.CellValue  `json:"actual"`
	Detail    string           `json:"detail,omitempty"`
}

// Report summarizes validation of one file's extraction.
type Report struct {
	FilePath    string            `json:"file_path"`
	Comparisons []FieldComparison `json:"comparisons"`
	Total       int               `json:"total"`
	Matched     int               `json:"matched"`
	Mismatched  int               `json:"mismatched"`
	Missing     int               `json:"missing"`
	Errors      int               `json:"errors"`
	Accuracy    float64           `json:"accuracy"`
	Valid       bool              `json:"valid"`
}

// Validator re-reads source files and compares values within tolerances.
type Validator struct {
	extractor *extract.Extractor
	cfg       config.ValidateConfig
}

// New creates a Validator. Zero config values fall back to the documented
// defaults (relative 1e-4, absolute 1e-10, minimum accuracy 0.95).
func New(extractor *extract.Extractor, cfg config.ValidateConfig) *Validator {
	if cfg.RelativeTolerance <= 0 {
		cfg.RelativeTolerance = 0.0001
	}
	if cfg.AbsoluteTolerance <= 0 {
		cfg.AbsoluteTolerance = 1e-10
	}
	if cfg.MinAccuracy <= 0 {
		cfg.MinAccuracy = 0.95
	}
	return &Validator{extractor: extractor, cfg: cfg}
}

// Compare re-reads the source file through the same mappings and checks each
// extracted value against it. Error-flagged extractions are excluded from
// the accuracy denominator.
func (v *Validator) Compare(extracted extract.Result, filePath string, data []byte, mappings []model.MappingMatch, types map[string]string) Report {
	report := Report{FilePath: filePath, Total: len(mappings)}

	reread := v.extractor.Extract(extract.Request{
		FilePath: filePath,
		Data:     data,
		Mappings: mappings,
		Types:    types,
	})

	errored := make(map[string]struct{}, len(extracted.Errors))
	for _, fe := range extracted.Errors {
		errored[fe.FieldName] = struct{}{}
	}

	for _, m := range mappings {
		expected := reread.Values[m.FieldName]
		cmp := FieldComparison{FieldName: m.FieldName, Expected: expected}

		actual, present := extracted.Values[m.FieldName]
		cmp.Actual = actual
		_, isErr := errored[m.FieldName]
		switch {
		case isErr:
			cmp.Status = StatusError
			report.Errors++
		case !present:
			cmp.Status = StatusMissing
			report.Missing++
		case v.equal(expected, actual):
			cmp.Status = StatusMatched
			report.Matched++
		default:
			cmp.Status = StatusMismatched
			cmp.Detail = fmt.Sprintf("expected %s, got %s", expected.String(), actual.String())
			report.Mismatched++
		}
		report.Comparisons = append(report.Comparisons, cmp)
	}

	denominator := report.Total - report.Errors
	if denominator > 0 {
		report.Accuracy = float64(report.Matched) / float64(denominator)
	}
	report.Valid = report.Accuracy >= v.cfg.MinAccuracy

	zap.L().Info("validate: file compared",
		zap.String("file", filePath),
		zap.Int("matched", report.Matched),
		zap.Int("mismatched", report.Mismatched),
		zap.Int("missing", report.Missing),
		zap.Int("errors", report.Errors),
		zap.Float64("accuracy", report.Accuracy),
		zap.Bool("valid", report.Valid),
	)

	return report
}

// equal dispatches on the value tag: numbers compare within tolerance, dates
// truncate to the calendar date, text trims whitespace.
func (v *Validator) equal(expected, actual model.CellValue) bool {
	if expected.Kind != actual.Kind {
		return false
	}
	switch expected.Kind {
	case model.KindNumber:
		return v.numbersEqual(expected.Number, actual.Number)
	case model.KindDate:
		ey, em, ed := expected.Date.Date()
		ay, am, ad := actual.Date.Date()
		return ey == ay && em == am && ed == ad
	case model.KindText:
		return strings.TrimSpace(expected.Text) == strings.TrimSpace(actual.Text)
	case model.KindBoolean:
		return expected.Bool == actual.Bool
	case model.KindMissing:
		return true
	default:
		return false
	}
}

func (v *Validator) numbersEqual(expected, actual float64) bool {
	if expected == 0 {
		return math.Abs(actual) <= v.cfg.AbsoluteTolerance
	}
	return math.Abs(actual-expected)/math.Abs(expected) <= v.cfg.RelativeTolerance
}
