package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellValue_ZeroIsNotMissing(t *testing.T) {
	zero := NumberValue(0)
	assert.False(t, zero.IsMissing())
	assert.True(t, MissingValue().IsMissing())
}

func TestCellValue_JSONDistinguishesZeroFromMissing(t *testing.T) {
	zeroJSON, err := json.Marshal(NumberValue(0))
	require.NoError(t, err)
	missingJSON, err := json.Marshal(MissingValue())
	require.NoError(t, err)

	assert.NotEqual(t, string(zeroJSON), string(missingJSON))

	var zero, missing CellValue
	require.NoError(t, json.Unmarshal(zeroJSON, &zero))
	require.NoError(t, json.Unmarshal(missingJSON, &missing))

	assert.Equal(t, KindNumber, zero.Kind)
	assert.Equal(t, 0.0, zero.Number)
	assert.True(t, missing.IsMissing())
}

func TestCellValue_DateRoundTrip(t *testing.T) {
	d := DateValue(time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC))
	data, err := json.Marshal(d)
	require.NoError(t, err)

	var got CellValue
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, KindDate, got.Kind)
	assert.True(t, got.Date.Equal(d.Date))
}

func TestCellValue_String(t *testing.T) {
	assert.Equal(t, "1250000", NumberValue(1250000).String())
	assert.Equal(t, "Hayden Park", TextValue("Hayden Park").String())
	assert.Equal(t, "2021-06-15", DateValue(time.Date(2021, 6, 15, 3, 4, 5, 0, time.UTC)).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "", MissingValue().String())
}
