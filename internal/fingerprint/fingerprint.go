// Package fingerprint computes structural signatures for workbook files.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/workbook"
)

// Engine fingerprints workbook files. It holds no mutable state, so one
// Engine may be shared across the worker pool.
type Engine struct {
	opener workbook.Opener
	cfg    config.FingerprintConfig
}

// NewEngine creates an Engine using the given workbook opener.
func NewEngine(opener workbook.Opener, cfg config.FingerprintConfig) *Engine {
	if cfg.EmptyThreshold <= 0 {
		cfg.EmptyThreshold = 20
	}
	return &Engine{opener: opener, cfg: cfg}
}

// Fingerprint computes the structural fingerprint of one file. When data is
// nil the file is read from path. Failures never propagate: an unreadable or
// unparsable file yields a fingerprint with error status and zeroed fields.
func (e *Engine) Fingerprint(path string, data []byte) model.FileFingerprint {
	fp := model.FileFingerprint{
		FilePath: path,
		FileName: filepath.Base(path),
	}

	if data == nil {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			fp.Status = model.PopulationError
			fp.Error = err.Error()
			zap.L().Warn("fingerprint: unreadable file",
				zap.String("path", path), zap.Error(err))
			return fp
		}
	}

	fp.FileSize = int64(len(data))
	sum := sha256.Sum256(data)
	fp.ContentHash = hex.EncodeToString(sum[:])

	wb, err := e.opener.OpenBytes(path, data)
	if err != nil {
		fp.Status = model.PopulationError
		fp.Error = err.Error()
		zap.L().Warn("fingerprint: unparsable file",
			zap.String("path", path), zap.Error(err))
		return fp
	}

	for _, name := range wb.SheetNames() {
		sheet, ok := wb.Sheet(name)
		if !ok {
			continue
		}
		sf := fingerprintSheet(sheet)
		fp.Sheets = append(fp.Sheets, sf)
		fp.TotalPopulatedCells += sf.PopulatedCellCount
	}
	fp.SheetCount = len(fp.Sheets)

	switch {
	case fp.TotalPopulatedCells >= e.cfg.EmptyThreshold:
		fp.Status = model.PopulationPopulated
	case fp.TotalPopulatedCells > 0:
		fp.Status = model.PopulationSparse
	default:
		fp.Status = model.PopulationEmpty
	}

	return fp
}

func fingerprintSheet(sheet workbook.Sheet) model.SheetFingerprint {
	sf := model.SheetFingerprint{
		Name:     sheet.Name(),
		RowCount: sheet.Rows(),
		ColCount: sheet.Cols(),
	}

	for row := 0; row < sf.RowCount; row++ {
		for col := 0; col < sf.ColCount; col++ {
			cell, ok := sheet.Cell(row, col)
			if !ok || blank(cell) {
				continue
			}
			sf.PopulatedCellCount++
			if row == 0 {
				sf.HeaderLabels = append(sf.HeaderLabels, cellText(cell))
			}
			if col == 0 {
				sf.ColALabels = append(sf.ColALabels, cellText(cell))
			}
		}
	}

	return sf
}

func blank(c workbook.Cell) bool {
	switch c.Type {
	case workbook.TypeEmpty:
		return true
	case workbook.TypeText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// cellText renders a cell as label text for signature purposes.
func cellText(c workbook.Cell) string {
	switch c.Type {
	case workbook.TypeNumeric:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case workbook.TypeBool:
		return strconv.FormatBool(c.Bool)
	case workbook.TypeDate:
		return c.Time.Format("2006-01-02")
	default:
		return strings.TrimSpace(c.Text)
	}
}
