package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/extract"
	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/workbook"
)

func testValidator(opener workbook.Opener) *Validator {
	return New(extract.New(opener), config.ValidateConfig{
		RelativeTolerance: 0.0001,
		AbsoluteTolerance: 1e-10,
		MinAccuracy:       0.95,
	})
}

func mapping(field, cell string) model.MappingMatch {
	return model.MappingMatch{FieldName: field, SourceSheet: "Summary", SourceCell: cell}
}

func sourceOpener() *workbook.MemoryOpener {
	opener := workbook.NewMemoryOpener()
	wb := &workbook.MemoryWorkbook{}
	s := wb.AddSheet("Summary")
	s.Set(1, 1, workbook.Cell{Type: workbook.TypeNumeric, Number: 1250000}) // B2
	s.Set(2, 1, workbook.Cell{Type: workbook.TypeText, Text: "Hayden Park"})
	s.Set(3, 1, workbook.Cell{Type: workbook.TypeDate, Time: time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)})
	s.Set(4, 1, workbook.Cell{Type: workbook.TypeNumeric, Number: 0})
	opener.Register("model.xlsx", wb)
	return opener
}

func TestCompare_NumbersWithinRelativeTolerance(t *testing.T) {
	opener := sourceOpener()
	v := testValidator(opener)
	mappings := []model.MappingMatch{mapping("price", "B2")}

	extracted := extract.Result{Values: map[string]model.CellValue{
		// Off by 1 part in 10 million, well inside the relative tolerance.
		"price": model.NumberValue(1250000.1),
	}}

	report := v.Compare(extracted, "model.xlsx", nil, mappings, nil)

	assert.Equal(t, 1, report.Matched)
	assert.True(t, report.Valid)
}

func TestCompare_NumbersOutsideTolerance(t *testing.T) {
	opener := sourceOpener()
	v := testValidator(opener)
	mappings := []model.MappingMatch{mapping("price", "B2")}

	extracted := extract.Result{Values: map[string]model.CellValue{
		"price": model.NumberValue(1251000),
	}}

	report := v.Compare(extracted, "model.xlsx", nil, mappings, nil)

	require.Equal(t, 1, report.Mismatched)
	assert.Equal(t, StatusMismatched, report.Comparisons[0].Status)
	assert.NotEmpty(t, report.Comparisons[0].Detail)
	assert.False(t, report.Valid)
}

func TestCompare_ZeroUsesAbsoluteTolerance(t *testing.T) {
	opener := sourceOpener()
	v := testValidator(opener)
	mappings := []model.MappingMatch{mapping("vacancy", "B5")}

	matched := v.Compare(extract.Result{Values: map[string]model.CellValue{
		"vacancy": model.NumberValue(1e-12),
	}}, "model.xlsx", nil, mappings, nil)
	assert.Equal(t, 1, matched.Matched)

	// Relative tolerance would divide by zero; anything past the absolute
	// window is a mismatch.
	mismatched := v.Compare(extract.Result{Values: map[string]model.CellValue{
		"vacancy": model.NumberValue(0.001),
	}}, "model.xlsx", nil, mappings, nil)
	assert.Equal(t, 1, mismatched.Mismatched)
}

func TestCompare_DatesTruncateToCalendarDate(t *testing.T) {
	opener := sourceOpener()
	v := testValidator(opener)
	mappings := []model.MappingMatch{mapping("close_date", "B4")}

	extracted := extract.Result{Values: map[string]model.CellValue{
		"close_date": model.DateValue(time.Date(2021, 6, 15, 14, 30, 0, 0, time.UTC)),
	}}

	report := v.Compare(extracted, "model.xlsx", nil, mappings, nil)
	assert.Equal(t, 1, report.Matched)
}

func TestCompare_TextTrimsWhitespace(t *testing.T) {
	opener := sourceOpener()
	v := testValidator(opener)
	mappings := []model.MappingMatch{mapping("name", "B3")}

	extracted := extract.Result{Values: map[string]model.CellValue{
		"name": model.TextValue("  Hayden Park  "),
	}}

	report := v.Compare(extracted, "model.xlsx", nil, mappings, nil)
	assert.Equal(t, 1, report.Matched)
}

func TestCompare_KindMismatch(t *testing.T) {
	opener := sourceOpener()
	v := testValidator(opener)
	mappings := []model.MappingMatch{mapping("price", "B2")}

	extracted := extract.Result{Values: map[string]model.CellValue{
		"price": model.TextValue("1250000"),
	}}

	report := v.Compare(extracted, "model.xlsx", nil, mappings, nil)
	assert.Equal(t, 1, report.Mismatched)
}

func TestCompare_ErroredFieldsExcludedFromDenominator(t *testing.T) {
	opener := sourceOpener()
	v := testValidator(opener)
	mappings := []model.MappingMatch{
		mapping("price", "B2"),
		mapping("name", "B3"),
		mapping("broken", "B9"),
	}

	extracted := extract.Result{
		Values: map[string]model.CellValue{
			"price":  model.NumberValue(1250000),
			"name":   model.TextValue("Hayden Park"),
			"broken": model.MissingValue(),
		},
		Errors: []extract.FieldError{
			{FieldName: "broken", Category: extract.ErrCellNotFound},
		},
	}

	report := v.Compare(extracted, "model.xlsx", nil, mappings, nil)

	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 1, report.Errors)
	// 2 matched / (3 total - 1 errored).
	assert.Equal(t, 1.0, report.Accuracy)
	assert.True(t, report.Valid)
}

func TestCompare_MissingFieldCounted(t *testing.T) {
	opener := sourceOpener()
	v := testValidator(opener)
	mappings := []model.MappingMatch{
		mapping("price", "B2"),
		mapping("name", "B3"),
	}

	extracted := extract.Result{Values: map[string]model.CellValue{
		"price": model.NumberValue(1250000),
	}}

	report := v.Compare(extracted, "model.xlsx", nil, mappings, nil)

	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Missing)
	assert.InDelta(t, 0.5, report.Accuracy, 1e-9)
	assert.False(t, report.Valid)
}
