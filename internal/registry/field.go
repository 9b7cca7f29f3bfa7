// Package registry loads the canonical field-reference table and the
// canonical property-name registry.
package registry

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// LoadFieldTable reads the canonical field-reference workbook: one row per
// field with columns field_name, sheet, cell, description, data_type. The
// table is built once from a known-good file and loaded at startup.
func LoadFieldTable(path string) ([]model.FieldRef, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: open field table %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("registry: field table %s has no sheets", path)
	}
	sheet := f.Sheets[0]

	var fields []model.FieldRef
	skipped := 0
	for i, row := range sheet.Rows {
		if i == 0 {
			// Header row.
			continue
		}
		ref, ok := parseFieldRow(row)
		if !ok {
			if rowHasContent(row) {
				skipped++
			}
			continue
		}
		fields = append(fields, ref)
	}

	if skipped > 0 {
		zap.L().Warn("registry: skipped malformed field rows",
			zap.String("path", path), zap.Int("skipped", skipped))
	}
	if len(fields) == 0 {
		return nil, eris.Errorf("registry: field table %s has no usable rows", path)
	}

	zap.L().Info("registry: field table loaded",
		zap.String("path", path), zap.Int("fields", len(fields)))
	return fields, nil
}

func parseFieldRow(row *xlsx.Row) (model.FieldRef, bool) {
	ref := model.FieldRef{
		FieldName:   cellString(row, 0),
		Sheet:       cellString(row, 1),
		Cell:        strings.ToUpper(cellString(row, 2)),
		Description: cellString(row, 3),
		DataType:    strings.ToLower(cellString(row, 4)),
	}
	if ref.FieldName == "" || ref.Sheet == "" || ref.Cell == "" {
		return model.FieldRef{}, false
	}
	return ref, true
}

func cellString(row *xlsx.Row, idx int) string {
	if idx >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[idx].String())
}

func rowHasContent(row *xlsx.Row) bool {
	for _, c := range row.Cells {
		if strings.TrimSpace(c.String()) != "" {
			return true
		}
	}
	return false
}
