// Package extract reads mapped cells from workbook files and coerces them
// into typed values.
package extract

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/workbook"
)

// progressInterval is how many fields pass between progress callbacks.
const progressInterval = 100

// ProgressFunc receives (processed, total) at a fixed cadence during a run.
type ProgressFunc func(processed, total int)

// Request describes one file extraction.
type Request struct {
	FilePath string
	// Data holds the raw file bytes when already downloaded; nil means read
	// from FilePath.
	Data     []byte
	Mappings []model.MappingMatch
	// Types optionally declares an expected kind per field name ("number",
	// "text", "date", "boolean") for mismatch detection.
	Types    map[string]string
	Progress ProgressFunc
}

// RunMeta summarizes one extraction run.
type RunMeta struct {
	Total       int           `json:"total"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	SuccessRate float64       `json:"success_rate"`
	Duration    time.Duration `json:"duration"`
}

// Result holds per-field values, per-field errors, and run metadata.
type Result struct {
	Values map[string]model.CellValue `json:"values"`
	Errors []FieldError               `json:"errors,omitempty"`
	Meta   RunMeta                    `json:"meta"`
}

// Extractor reads mapped cells from workbooks.
type Extractor struct {
	opener workbook.Opener
}

// New creates an Extractor using the given workbook opener.
func New(opener workbook.Opener) *Extractor {
	return &Extractor{opener: opener}
}

// Extract reads every mapped field from the file. One bad field never aborts
// the batch: each failure is classified and the field resolves to the
// missing sentinel.
func (e *Extractor) Extract(req Request) Result {
	start := time.Now()
	result := Result{Values: make(map[string]model.CellValue, len(req.Mappings))}
	result.Meta.Total = len(req.Mappings)

	wb, err := e.openWorkbook(req)
	if err != nil {
		// File-level failure: every field resolves to missing with a
		// file-access error.
		for _, m := range req.Mappings {
			result.Values[m.FieldName] = model.MissingValue()
			result.Errors = append(result.Errors, FieldError{
				FieldName: m.FieldName,
				Category:  ErrFileAccess,
				Detail:    err.Error(),
			})
		}
		result.Meta.Failed = len(req.Mappings)
		result.Meta.Duration = time.Since(start)
		zap.L().Warn("extract: file unreadable",
			zap.String("file", req.FilePath), zap.Error(err))
		return result
	}

	for i, m := range req.Mappings {
		value, fieldErr := e.extractField(wb, m, req.Types[m.FieldName])
		result.Values[m.FieldName] = value
		if fieldErr != nil {
			result.Errors = append(result.Errors, *fieldErr)
			result.Meta.Failed++
		} else {
			result.Meta.Successful++
		}

		if req.Progress != nil && (i+1)%progressInterval == 0 {
			req.Progress(i+1, len(req.Mappings))
		}
	}
	if req.Progress != nil {
		req.Progress(len(req.Mappings), len(req.Mappings))
	}

	if result.Meta.Total > 0 {
		result.Meta.SuccessRate = float64(result.Meta.Successful) / float64(result.Meta.Total)
	}
	result.Meta.Duration = time.Since(start)

	zap.L().Info("extract: file complete",
		zap.String("file", req.FilePath),
		zap.Int("successful", result.Meta.Successful),
		zap.Int("failed", result.Meta.Failed),
		zap.Duration("duration", result.Meta.Duration),
	)

	return result
}

func (e *Extractor) openWorkbook(req Request) (workbook.Workbook, error) {
	if req.Data != nil {
		return e.opener.OpenBytes(req.FilePath, req.Data)
	}
	return e.opener.Open(req.FilePath)
}

// extractField reads and coerces one mapped cell. A nil error means the
// field produced a usable (non-missing) value.
func (e *Extractor) extractField(wb workbook.Workbook, m model.MappingMatch, expectedType string) (model.CellValue, *FieldError) {
	fail := func(cat ErrorCategory, detail string) (model.CellValue, *FieldError) {
		return model.MissingValue(), &FieldError{FieldName: m.FieldName, Category: cat, Detail: detail}
	}

	sheet, ok := wb.Sheet(m.SourceSheet)
	if !ok {
		return fail(ErrMissingSheet, m.SourceSheet)
	}

	row, col, err := workbook.ParseCellRef(m.SourceCell)
	if err != nil {
		return fail(ErrInvalidAddress, m.SourceCell)
	}

	cell, ok := sheet.Cell(row, col)
	if !ok {
		return fail(ErrCellNotFound, m.SourceSheet+"!"+m.SourceCell)
	}

	return e.coerce(cell, m, expectedType)
}

func (e *Extractor) coerce(cell workbook.Cell, m model.MappingMatch, expectedType string) (model.CellValue, *FieldError) {
	fail := func(cat ErrorCategory, detail string) (model.CellValue, *FieldError) {
		return model.MissingValue(), &FieldError{FieldName: m.FieldName, Category: cat, Detail: detail}
	}

	switch cell.Type {
	case workbook.TypeEmpty:
		// A blank formula result reads differently from a never-written cell
		// when triaging a failed batch.
		if cell.Formula {
			return fail(ErrEmptyValue, "formula produced no value")
		}
		return fail(ErrEmptyValue, "")

	case workbook.TypeError:
		if cell.Formula {
			return fail(ErrFormulaError, "formula evaluated to "+cell.Text)
		}
		return fail(ErrFormulaError, cell.Text)

	case workbook.TypeNumeric:
		// Zero and negative values pass through; zero is not missing.
		if expectedType != "" && expectedType != "number" {
			return fail(ErrTypeMismatch, "got number, want "+expectedType)
		}
		return model.NumberValue(cell.Number), nil

	case workbook.TypeBool:
		if expectedType != "" && expectedType != "boolean" {
			return fail(ErrTypeMismatch, "got boolean, want "+expectedType)
		}
		return model.BoolValue(cell.Bool), nil

	case workbook.TypeDate:
		if expectedType != "" && expectedType != "date" {
			return fail(ErrTypeMismatch, "got date, want "+expectedType)
		}
		return model.DateValue(cell.Time), nil

	case workbook.TypeText:
		text := strings.TrimSpace(cell.Text)
		if text == "" {
			return fail(ErrEmptyValue, "")
		}
		if _, ok := formulaErrorTokens[strings.ToUpper(text)]; ok {
			return fail(ErrFormulaError, text)
		}
		if _, ok := missingTokens[strings.ToLower(text)]; ok {
			return fail(ErrEmptyValue, text)
		}
		switch expectedType {
		case "number":
			n, err := parseNumber(text)
			if err != nil {
				return fail(ErrParsing, text)
			}
			return model.NumberValue(n), nil
		case "date":
			t, err := parseDate(text)
			if err != nil {
				return fail(ErrParsing, text)
			}
			return model.DateValue(t), nil
		case "boolean":
			b, err := strconv.ParseBool(strings.ToLower(text))
			if err != nil {
				return fail(ErrParsing, text)
			}
			return model.BoolValue(b), nil
		default:
			return model.TextValue(text), nil
		}

	default:
		return fail(ErrUnknown, "unrecognized cell type")
	}
}

// parseNumber parses spreadsheet-formatted numerics: currency symbols,
// thousands separators, percents, and accounting-style parenthesized
// negatives.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if percent {
		n /= 100
	}
	if negative {
		n = -n
	}
	return n, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-06",
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
