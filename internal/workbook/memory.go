package workbook

import (
	"github.com/rotisserie/eris"
)

// MemorySheet is an in-memory Sheet keyed by (row, col).
type MemorySheet struct {
	SheetName string
	RowCount  int
	ColCount  int
	Cells     map[[2]int]Cell
}

func (s *MemorySheet) Name() string { return s.SheetName }
func (s *MemorySheet) Rows() int    { return s.RowCount }
func (s *MemorySheet) Cols() int    { return s.ColCount }

func (s *MemorySheet) Cell(row, col int) (Cell, bool) {
	c, ok := s.Cells[[2]int{row, col}]
	return c, ok
}

// Set writes a cell and grows the sheet dimensions to cover it.
func (s *MemorySheet) Set(row, col int, c Cell) {
	if s.Cells == nil {
		s.Cells = make(map[[2]int]Cell)
	}
	s.Cells[[2]int{row, col}] = c
	if row >= s.RowCount {
		s.RowCount = row + 1
	}
	if col >= s.ColCount {
		s.ColCount = col + 1
	}
}

// MemoryWorkbook is an in-memory Workbook used by tests and synthetic runs.
type MemoryWorkbook struct {
	SheetList []*MemorySheet
}

func (w *MemoryWorkbook) SheetNames() []string {
	names := make([]string, len(w.SheetList))
	for i, s := range w.SheetList {
		names[i] = s.SheetName
	}
	return names
}

func (w *MemoryWorkbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.SheetList {
		if s.SheetName == name {
			return s, true
		}
	}
	return nil, false
}

// AddSheet appends an empty sheet and returns it.
func (w *MemoryWorkbook) AddSheet(name string) *MemorySheet {
	s := &MemorySheet{SheetName: name}
	w.SheetList = append(w.SheetList, s)
	return s
}

// MemoryOpener serves pre-registered workbooks by path. Unregistered paths
// fail the same way a missing file would.
type MemoryOpener struct {
	Workbooks map[string]*MemoryWorkbook
}

func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{Workbooks: make(map[string]*MemoryWorkbook)}
}

// Register associates a workbook with a path.
func (o *MemoryOpener) Register(path string, wb *MemoryWorkbook) {
	o.Workbooks[path] = wb
}

func (o *MemoryOpener) Open(path string) (Workbook, error) {
	wb, ok := o.Workbooks[path]
	if !ok {
		return nil, eris.Errorf("workbook: open %s: no such file", path)
	}
	return wb, nil
}

func (o *MemoryOpener) OpenBytes(name string, _ []byte) (Workbook, error) {
	return o.Open(name)
}
