package workbook

import (
	"bytes"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// oleMagic is the compound-file header of legacy binary .xls containers.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// XLSXOpener opens OOXML workbooks via tealeg/xlsx. Legacy binary containers
// are detected by magic bytes and rejected with ErrUnsupportedFormat so the
// caller can classify them instead of surfacing a zip parse error.
type XLSXOpener struct{}

// NewXLSXOpener returns an Opener for OOXML workbooks.
func NewXLSXOpener() *XLSXOpener { return &XLSXOpener{} }

func (o *XLSXOpener) Open(path string) (Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "workbook: read %s", path)
	}
	return o.OpenBytes(path, data)
}

func (o *XLSXOpener) OpenBytes(name string, data []byte) (Workbook, error) {
	if bytes.HasPrefix(data, oleMagic) {
		return nil, eris.Wrapf(ErrUnsupportedFormat, "workbook: %s is a legacy binary container", name)
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrapf(err, "workbook: parse %s", name)
	}
	return &xlsxWorkbook{file: f}, nil
}

type xlsxWorkbook struct {
	file *xlsx.File
}

func (w *xlsxWorkbook) SheetNames() []string {
	names := make([]string, len(w.file.Sheets))
	for i, s := range w.file.Sheets {
		names[i] = s.Name
	}
	return names
}

func (w *xlsxWorkbook) Sheet(name string) (Sheet, bool) {
	s, ok := w.file.Sheet[name]
	if !ok {
		return nil, false
	}
	return &xlsxSheet{sheet: s}, true
}

type xlsxSheet struct {
	sheet *xlsx.Sheet
}

func (s *xlsxSheet) Name() string { return s.sheet.Name }
func (s *xlsxSheet) Rows() int    { return len(s.sheet.Rows) }

func (s *xlsxSheet) Cols() int {
	max := 0
	for _, row := range s.sheet.Rows {
		if len(row.Cells) > max {
			max = len(row.Cells)
		}
	}
	return max
}

func (s *xlsxSheet) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= len(s.sheet.Rows) {
		return Cell{}, false
	}
	r := s.sheet.Rows[row]
	if col < 0 || col >= len(r.Cells) {
		return Cell{}, false
	}
	return convertCell(r.Cells[col]), true
}

// convertCell maps a tealeg cell to the adapter's tagged Cell. Formula cells
// report their cached computed value.
func convertCell(c *xlsx.Cell) Cell {
	formula := c.Formula() != ""
	switch c.Type() {
	case xlsx.CellTypeNumeric, xlsx.CellTypeDate:
		if c.IsTime() {
			if t, err := c.GetTime(false); err == nil {
				return Cell{Type: TypeDate, Time: t, Formula: formula}
			}
		}
		if n, err := c.Float(); err == nil {
			return Cell{Type: TypeNumeric, Number: n, Formula: formula}
		}
		return Cell{Type: TypeText, Text: c.Value, Formula: formula}
	case xlsx.CellTypeBool:
		return Cell{Type: TypeBool, Bool: c.Bool(), Formula: formula}
	case xlsx.CellTypeError:
		return Cell{Type: TypeError, Text: c.Value, Formula: formula}
	default:
		if c.Value == "" {
			return Cell{Type: TypeEmpty, Formula: formula}
		}
		return Cell{Type: TypeText, Text: c.Value, Formula: formula}
	}
}
