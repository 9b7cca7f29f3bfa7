package grouping

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/model"
)

func testEngine() *Engine {
	return NewEngine(config.GroupingConfig{IdentityThreshold: 0.95, SubVariantThreshold: 0.80})
}

func fpWithLabels(path string, labels ...string) model.FileFingerprint {
	return model.FileFingerprint{
		FilePath: path,
		FileName: path,
		Status:   model.PopulationPopulated,
		Sheets: []model.SheetFingerprint{
			{Name: "Summary", HeaderLabels: labels},
		},
	}
}

func manyLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("label_%02d", i)
	}
	return out
}

func TestStructuralOverlap_SelfIsOne(t *testing.T) {
	fp := fpWithLabels("a.xlsx", "Purchase Price", "Units", "NOI")
	assert.Equal(t, 1.0, StructuralOverlap(fp, fp))
}

func TestStructuralOverlap_Symmetric(t *testing.T) {
	a := fpWithLabels("a.xlsx", "Purchase Price", "Units", "NOI")
	b := fpWithLabels("b.xlsx", "Purchase Price", "Units", "Cap Rate")
	assert.Equal(t, StructuralOverlap(a, b), StructuralOverlap(b, a))
}

func TestStructuralOverlap_Jaccard(t *testing.T) {
	// 2 shared of 4 distinct labels.
	a := fpWithLabels("a.xlsx", "Purchase Price", "Units", "NOI")
	b := fpWithLabels("b.xlsx", "Purchase Price", "Units", "Cap Rate")
	assert.InDelta(t, 0.5, StructuralOverlap(a, b), 1e-9)
}

func TestStructuralOverlap_DisjointSheets(t *testing.T) {
	a := model.FileFingerprint{Sheets: []model.SheetFingerprint{
		{Name: "Summary", HeaderLabels: []string{"Units"}},
	}}
	b := model.FileFingerprint{Sheets: []model.SheetFingerprint{
		{Name: "Rent Roll", HeaderLabels: []string{"Rent"}},
	}}
	assert.Equal(t, 0.0, StructuralOverlap(a, b))
}

func TestStructuralOverlap_ZeroSheetsBothSides(t *testing.T) {
	assert.Equal(t, 1.0, StructuralOverlap(model.FileFingerprint{}, model.FileFingerprint{}))
}

func TestStructuralOverlap_NoLabelsFallsBackToSheetNames(t *testing.T) {
	a := model.FileFingerprint{Sheets: []model.SheetFingerprint{{Name: "Summary"}, {Name: "T12"}}}
	b := model.FileFingerprint{Sheets: []model.SheetFingerprint{{Name: "Summary"}}}
	assert.InDelta(t, 0.5, StructuralOverlap(a, b), 1e-9)
}

func TestGroup_IdenticalSignaturesMerge(t *testing.T) {
	labels := manyLabels(20)
	a := fpWithLabels("deals/a/UW 2019.xlsx", labels...)
	b := fpWithLabels("deals/b/UW 2020.xlsx", labels...)
	c := fpWithLabels("deals/c/UW 2021.xlsx", labels...)

	result := testEngine().Group([]model.FileFingerprint{a, b, c})

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Files, 3)
	assert.Equal(t, 1.0, result.Groups[0].StructuralOverlap)
	assert.Equal(t, "2019-2021", result.Groups[0].Era)
	assert.Empty(t, result.Ungrouped)
}

func TestGroup_SubVariantAttachesToGroup(t *testing.T) {
	labels := manyLabels(20)
	a := fpWithLabels("a.xlsx", labels...)
	b := fpWithLabels("b.xlsx", labels...)
	// 17 of 20 shared labels: overlap 17/23 ~ 0.74 is below the band, so use
	// 18 shared of 20: 18/22 ~ 0.818 lands inside [0.80, 0.95).
	variantLabels := append(append([]string(nil), labels[:18]...), "extra_a", "extra_b")
	v := fpWithLabels("v.xlsx", variantLabels...)

	result := testEngine().Group([]model.FileFingerprint{a, b, v})

	require.Len(t, result.Groups, 1)
	g := result.Groups[0]
	assert.Len(t, g.Files, 2)
	require.Len(t, g.SubVariants, 1)
	assert.Equal(t, "v.xlsx", g.SubVariants[0].File.FilePath)
	assert.GreaterOrEqual(t, g.SubVariants[0].Overlap, 0.80)
	assert.Less(t, g.SubVariants[0].Overlap, 0.95)
	assert.NotNil(t, g.Variances)
	assert.Equal(t, []string{"Summary"}, g.Variances.LabelDiffs)
}

func TestGroup_DissimilarFilesStayUngrouped(t *testing.T) {
	a := fpWithLabels("a.xlsx", "Purchase Price", "Units")
	b := fpWithLabels("b.xlsx", "Loan Amount", "Rate")

	result := testEngine().Group([]model.FileFingerprint{a, b})

	assert.Empty(t, result.Groups)
	assert.Len(t, result.Ungrouped, 2)
}

func TestGroup_SingletonPairFormsNewGroup(t *testing.T) {
	labels := manyLabels(20)
	a := fpWithLabels("a.xlsx", labels...)
	b := fpWithLabels("b.xlsx", append(append([]string(nil), labels[:19]...), "other")...)
	// 19 shared of 21 distinct: 0.905, inside the sub-variant band.

	result := testEngine().Group([]model.FileFingerprint{a, b})

	require.Len(t, result.Groups, 1)
	g := result.Groups[0]
	assert.Len(t, g.Files, 1)
	assert.Equal(t, "a.xlsx", g.Files[0].FilePath)
	require.Len(t, g.SubVariants, 1)
	assert.Equal(t, "b.xlsx", g.SubVariants[0].File.FilePath)
}

func TestGroup_EmptyAndErrorFilesExcluded(t *testing.T) {
	labels := manyLabels(20)
	a := fpWithLabels("a.xlsx", labels...)
	b := fpWithLabels("b.xlsx", labels...)
	empty := model.FileFingerprint{FilePath: "empty.xlsx", Status: model.PopulationEmpty}
	broken := model.FileFingerprint{FilePath: "broken.xlsx", Status: model.PopulationError, Error: "bad zip"}

	result := testEngine().Group([]model.FileFingerprint{a, b, empty, broken})

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Files, 2)
	require.Len(t, result.EmptyTemplates, 1)
	assert.Equal(t, "empty.xlsx", result.EmptyTemplates[0].FilePath)
	assert.Empty(t, result.Ungrouped)
}

func TestGroup_Deterministic(t *testing.T) {
	labels := manyLabels(20)
	fps := []model.FileFingerprint{
		fpWithLabels("c.xlsx", labels...),
		fpWithLabels("a.xlsx", labels...),
		fpWithLabels("b.xlsx", "Loan Amount", "Rate"),
	}
	reversed := []model.FileFingerprint{fps[2], fps[1], fps[0]}

	r1 := testEngine().Group(fps)
	r2 := testEngine().Group(reversed)

	require.Len(t, r1.Groups, 1)
	require.Len(t, r2.Groups, 1)
	assert.Equal(t, r1.Groups[0].GroupName, r2.Groups[0].GroupName)
	assert.Equal(t, r1.Groups[0].Files[0].FilePath, r2.Groups[0].Files[0].FilePath)
}

func TestInferEra(t *testing.T) {
	assert.Equal(t, "2019", inferEra([]model.FileFingerprint{{FileName: "UW Model 2019.xlsx"}}))
	assert.Equal(t, "", inferEra([]model.FileFingerprint{{FileName: "model.xlsx"}}))
	assert.Equal(t, "2018-2021", inferEra([]model.FileFingerprint{
		{FileName: "UW 2021 final.xlsx"},
		{FileName: "UW 2018.xlsx"},
	}))
}
