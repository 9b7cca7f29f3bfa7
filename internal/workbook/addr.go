package workbook

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ParseCellRef converts an A1-style cell address into zero-based (row, col)
// coordinates. Addresses are accepted case-insensitively.
func ParseCellRef(ref string) (row, col int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return 0, 0, eris.New("workbook: empty cell address")
	}
	x, y, err := xlsx.GetCoordsFromCellIDString(ref)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "workbook: parse cell address %q", ref)
	}
	return y, x, nil
}
