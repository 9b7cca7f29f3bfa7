package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/internal/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_RunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "group_001_hayden", 12)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "group_001_hayden", runs[0].GroupName)
	assert.Equal(t, 12, runs[0].FilesTotal)
	assert.Equal(t, "running", runs[0].Status)
	assert.Nil(t, runs[0].CompletedAt)

	require.NoError(t, s.CompleteRun(ctx, id, 10, 2))

	runs, err = s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "complete", runs[0].Status)
	assert.Equal(t, 10, runs[0].FilesOK)
	assert.Equal(t, 2, runs[0].FilesFailed)
	assert.NotNil(t, runs[0].CompletedAt)
}

func TestSQLite_CompleteUnknownRun(t *testing.T) {
	s := testStore(t)
	err := s.CompleteRun(context.Background(), "no-such-run", 1, 0)
	assert.ErrorContains(t, err, "not found")
}

func TestSQLite_SaveAndListValues(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "group_001_hayden", 1)
	require.NoError(t, err)

	mapping := &model.GroupReferenceMapping{
		GroupName: "group_001_hayden",
		Matches: []model.MappingMatch{
			{FieldName: "purchase_price", SourceSheet: "Summary", SourceCell: "B2", MatchTier: 1, Confidence: 0.95},
			{FieldName: "property_name", SourceSheet: "Summary", SourceCell: "B4", MatchTier: 2, Confidence: 0.70},
		},
	}
	values := map[string]model.CellValue{
		"purchase_price": model.NumberValue(1250000),
		"property_name":  model.TextValue("Hayden Park"),
		"vacancy":        model.MissingValue(),
	}

	require.NoError(t, s.SaveValues(ctx, id, "/deals/hayden.xlsx", mapping, values))

	got, err := s.ListValues(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Sorted by field name within the file.
	assert.Equal(t, "property_name", got[0].FieldName)
	assert.Equal(t, model.TextValue("Hayden Park"), got[0].Value)
	assert.Equal(t, "Summary", got[0].Sheet)
	assert.Equal(t, "B4", got[0].Cell)
	assert.Equal(t, 2, got[0].MatchTier)

	assert.Equal(t, "purchase_price", got[1].FieldName)
	assert.Equal(t, model.NumberValue(1250000), got[1].Value)
	assert.Equal(t, 1, got[1].MatchTier)
	assert.Equal(t, 0.95, got[1].Confidence)

	// Unmapped fields persist with the missing sentinel and no provenance.
	assert.Equal(t, "vacancy", got[2].FieldName)
	assert.True(t, got[2].Value.IsMissing())
	assert.Empty(t, got[2].Sheet)
	assert.Equal(t, 0, got[2].MatchTier)
}

func TestSQLite_ListValuesEmptyRun(t *testing.T) {
	s := testStore(t)
	values, err := s.ListValues(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, values)
}
