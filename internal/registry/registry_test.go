package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeFieldTable(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Fields")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, h := range []string{"field_name", "sheet", "cell", "description", "data_type"} {
		header.AddCell().Value = h
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().Value = v
		}
	}

	path := filepath.Join(t.TempDir(), "fields.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadFieldTable(t *testing.T) {
	path := writeFieldTable(t, [][]string{
		{"purchase_price", "Summary", "b2", "Purchase Price", "Number"},
		{"property_name", "Summary", "B4", "Property Name", "text"},
	})

	fields, err := LoadFieldTable(path)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "purchase_price", fields[0].FieldName)
	assert.Equal(t, "Summary", fields[0].Sheet)
	assert.Equal(t, "B2", fields[0].Cell)
	assert.Equal(t, "Purchase Price", fields[0].Description)
	assert.Equal(t, "number", fields[0].DataType)
}

func TestLoadFieldTable_SkipsMalformedRows(t *testing.T) {
	path := writeFieldTable(t, [][]string{
		{"purchase_price", "Summary", "B2", "Purchase Price", "number"},
		{"no_cell", "Summary", "", "Missing cell address", "number"},
		{"", "", "", "", ""},
	})

	fields, err := LoadFieldTable(path)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "purchase_price", fields[0].FieldName)
}

func TestLoadFieldTable_NoUsableRows(t *testing.T) {
	path := writeFieldTable(t, nil)

	_, err := LoadFieldTable(path)
	assert.ErrorContains(t, err, "no usable rows")
}

func TestLoadFieldTable_MissingFile(t *testing.T) {
	_, err := LoadFieldTable("/nowhere/fields.xlsx")
	assert.Error(t, err)
}

func TestKnownNames(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT name FROM properties").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).
			AddRow("Hayden Park").
			AddRow("Willow Creek"))

	names, err := NewPropertySource(mock).KnownNames(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Hayden Park", "Willow Creek"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKnownNames_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT name FROM properties").
		WillReturnError(assert.AnError)

	_, err = NewPropertySource(mock).KnownNames(context.Background())
	assert.Error(t, err)
}
