package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/internal/model"
)

func descriptor(name string, modified time.Time) model.FileDescriptor {
	return model.FileDescriptor{Name: name, Path: "/deals/" + name, Size: 1024, ModifiedDate: modified}
}

func TestCandidateFilter(t *testing.T) {
	f := NewCandidateFilter()
	recent := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	old := time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		fd     model.FileDescriptor
		accept bool
	}{
		{"production name, recent", descriptor("UW Model v3 Hayden.xlsx", recent), false},
		{"production name underscore", descriptor("UW_Model_v12.xlsx", recent), false},
		{"underwriting model name, recent", descriptor("Underwriting Model 2023 final.xlsx", recent), false},
		{"production name but too old", descriptor("UW Model v3 Hayden.xlsx", old), true},
		{"nonstandard name, recent", descriptor("Hayden Park deal model.xlsx", recent), true},
		{"nonstandard name, old", descriptor("2019 analysis.xlsx", old), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.accept, f.Accept(tt.fd))
		})
	}
}

func TestDedupe_SameSizeAndDateCollapses(t *testing.T) {
	modified := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	files := []model.FileDescriptor{
		{Name: "a.xlsx", Path: "/deals/a/a.xlsx", Size: 5000000, ModifiedDate: modified},
		{Name: "a copy.xlsx", Path: "/deals/b/a copy.xlsx", Size: 5000000, ModifiedDate: modified},
		{Name: "other.xlsx", Path: "/deals/other.xlsx", Size: 4000, ModifiedDate: modified},
	}

	kept, removed := dedupe(files)

	require.Len(t, kept, 2)
	assert.Equal(t, 1, removed)
	assert.Equal(t, "/deals/a/a.xlsx", kept[0].Path)
	assert.Equal(t, "/deals/other.xlsx", kept[1].Path)
}

func TestDedupe_DifferingHashesBothSurvive(t *testing.T) {
	modified := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	files := []model.FileDescriptor{
		{Name: "a.xlsx", Path: "/deals/a.xlsx", Size: 5000000, ModifiedDate: modified, ContentHash: "aaa"},
		{Name: "b.xlsx", Path: "/deals/b.xlsx", Size: 5000000, ModifiedDate: modified, ContentHash: "bbb"},
	}

	kept, removed := dedupe(files)

	assert.Len(t, kept, 2)
	assert.Equal(t, 0, removed)
}

func TestDedupe_MatchingHashesCollapse(t *testing.T) {
	modified := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	files := []model.FileDescriptor{
		{Name: "a.xlsx", Path: "/deals/a.xlsx", Size: 5000000, ModifiedDate: modified, ContentHash: "aaa"},
		{Name: "b.xlsx", Path: "/deals/b.xlsx", Size: 5000000, ModifiedDate: modified, ContentHash: "aaa"},
	}

	kept, removed := dedupe(files)

	assert.Len(t, kept, 1)
	assert.Equal(t, 1, removed)
}

func TestPartition_WithinCeiling(t *testing.T) {
	files := make([]model.FileDescriptor, 200)
	batches, info := partition(files, 500)

	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 200)
	assert.Nil(t, info)
}

func TestPartition_OverCeiling(t *testing.T) {
	files := make([]model.FileDescriptor, 1250)
	for i := range files {
		files[i].Name = fmt.Sprintf("f%04d.xlsx", i)
	}

	batches, info := partition(files, 500)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 500)
	assert.Len(t, batches[1], 500)
	assert.Len(t, batches[2], 250)
	require.NotNil(t, info)
	assert.Equal(t, 500, info.BatchSize)
	assert.Equal(t, 3, info.BatchCount)
	assert.Equal(t, 250, info.LastBatchOf)
}
