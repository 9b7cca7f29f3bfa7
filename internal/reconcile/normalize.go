// Package reconcile matches free-text property names against the canonical
// property registry.
package reconcile

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// propertySuffixes lists common property and legal entity suffixes to strip
// during name normalization.
var propertySuffixes = []string{
	" APARTMENTS", " APARTMENT HOMES", " APTS",
	" TOWNHOMES", " TOWNHOUSES", " VILLAS", " LOFTS", " FLATS",
	" RESIDENCES", " COMMONS", " ESTATES",
	" LLC", " L.L.C.", " L.L.C",
	" LP", " L.P.", " L.P",
	" LLP", " L.L.P.",
	" INC", " INC.", " INCORPORATED",
	" LTD", " LTD.", " LIMITED",
	" CO", " CO.",
}

var (
	phaseRe      = regexp.MustCompile(`\s+PHASE\s+(?:[IVX]+|\d+)$`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	folder       = cases.Fold()
)

// NormalizeName standardizes a property name for matching by:
//  1. Trimming whitespace and case-folding to uppercase
//  2. Dropping a trailing " - <city>" qualifier
//  3. Dropping a trailing "Phase <roman/number>" suffix
//  4. Removing common property and legal suffixes (Apartments, LLC, etc.)
//  5. Stripping punctuation and collapsing whitespace
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = strings.ToUpper(name)

	// Trailing " - City" qualifier.
	if idx := strings.LastIndex(name, " - "); idx > 0 {
		name = name[:idx]
	}

	name = phaseRe.ReplaceAllString(name, "")

	for _, suffix := range propertySuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "AND",
		"-", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// foldKey returns a caseless comparison key for exact matching.
func foldKey(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// tokenSet splits a name into its word set, case-folded.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(foldKey(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// tokenSetOverlap returns the Jaccard similarity of the word sets of a and b.
func tokenSetOverlap(a, b string) float64 {
	sa := tokenSet(a)
	sb := tokenSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}
	inter := 0
	for t := range sa {
		if _, ok := sb[t]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 1.0
	}
	return float64(inter) / float64(union)
}
