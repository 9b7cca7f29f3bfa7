// Package grouping clusters fingerprinted files by structural similarity.
package grouping

import (
	"github.com/sells-group/underwriting-cli/internal/model"
)

// StructuralOverlap computes a [0,1] similarity score between two file
// fingerprints. Labels are compared Jaccard-style per matching sheet name;
// a sheet present in only one file contributes its labels to the union but
// nothing to the intersection. When neither file carries any labels the
// score falls back to comparing sheet-name sets. Two files with zero sheets
// are defined as fully overlapping so degenerate inputs do not scatter into
// spurious singleton groups.
func StructuralOverlap(a, b model.FileFingerprint) float64 {
	if len(a.Sheets) == 0 && len(b.Sheets) == 0 {
		return 1.0
	}

	aLabels := labelsBySheet(a)
	bLabels := labelsBySheet(b)

	names := make(map[string]struct{}, len(aLabels)+len(bLabels))
	for n := range aLabels {
		names[n] = struct{}{}
	}
	for n := range bLabels {
		names[n] = struct{}{}
	}

	var inter, union int
	for name := range names {
		la, okA := aLabels[name]
		lb, okB := bLabels[name]
		switch {
		case okA && okB:
			i, u := setOverlap(la, lb)
			inter += i
			union += u
		case okA:
			union += len(la)
		default:
			union += len(lb)
		}
	}

	if union == 0 {
		// No labels anywhere: compare sheet-name sets instead.
		return nameSetOverlap(a.SheetNames(), b.SheetNames())
	}
	return float64(inter) / float64(union)
}

// labelsBySheet collects each sheet's header and first-column labels as a set.
func labelsBySheet(f model.FileFingerprint) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(f.Sheets))
	for _, s := range f.Sheets {
		set := make(map[string]struct{}, len(s.HeaderLabels)+len(s.ColALabels))
		for _, l := range s.HeaderLabels {
			set[l] = struct{}{}
		}
		for _, l := range s.ColALabels {
			set[l] = struct{}{}
		}
		out[s.Name] = set
	}
	return out
}

func setOverlap(a, b map[string]struct{}) (inter, union int) {
	for l := range a {
		if _, ok := b[l]; ok {
			inter++
		}
	}
	union = len(a) + len(b) - inter
	return inter, union
}

func nameSetOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	setA := make(map[string]struct{}, len(a))
	for _, n := range a {
		setA[n] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, n := range b {
		setB[n] = struct{}{}
	}
	inter, union := setOverlap(setA, setB)
	if union == 0 {
		return 1.0
	}
	return float64(inter) / float64(union)
}
