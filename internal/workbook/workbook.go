// Package workbook adapts spreadsheet containers to a uniform cell-level
// interface. The rest of the pipeline never touches the parser directly, so
// fingerprinting and extraction stay testable against in-memory workbooks.
package workbook

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrUnsupportedFormat is returned for containers the adapter cannot parse,
// such as legacy binary .xls files.
var ErrUnsupportedFormat = eris.New("workbook: unsupported container format")

// CellType tags the raw type of a cell as reported by the container.
type CellType int

const (
	TypeEmpty CellType = iota
	TypeText
	TypeNumeric
	TypeBool
	TypeDate
	TypeError
)

// Cell is one cell's content. Formula cells carry the last computed value,
// never the formula text.
type Cell struct {
	Type    CellType
	Text    string
	Number  float64
	Bool    bool
	Time    time.Time
	Formula bool
}

// Sheet exposes one worksheet's dimensions and cells.
type Sheet interface {
	Name() string
	Rows() int
	Cols() int
	// Cell returns the cell at the given zero-based row and column. The
	// second return is false when the position is outside the sheet or the
	// cell was never written.
	Cell(row, col int) (Cell, bool)
}

// Workbook exposes a parsed spreadsheet container.
type Workbook interface {
	SheetNames() []string
	Sheet(name string) (Sheet, bool)
}

// Opener opens workbooks from disk or from raw bytes already in memory.
type Opener interface {
	Open(path string) (Workbook, error)
	OpenBytes(name string, data []byte) (Workbook, error)
}
