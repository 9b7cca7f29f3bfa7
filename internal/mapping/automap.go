// Package mapping infers where canonical fields live in a file group's
// layout, at decreasing confidence tiers.
package mapping

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// Tier confidences. A field is reported at the first tier it satisfies;
// later tiers are never consulted once a match is found.
const (
	ConfidenceTier1Label = 0.95
	ConfidenceTier1Sheet = 0.85
	ConfidenceTier2      = 0.70
	ConfidenceTier3      = 0.50
	ConfidenceTier4      = 0.40
)

// AutoMap resolves every canonical field against a group's representative
// fingerprint. The result is computed once per group and reused for every
// member file, since members are structurally interchangeable.
func AutoMap(groupName string, fields []model.FieldRef, rep model.FileFingerprint, synonyms Synonyms) model.GroupReferenceMapping {
	result := model.GroupReferenceMapping{
		GroupName:  groupName,
		TierCounts: make(map[int]int),
	}

	sheets := indexSheets(rep)

	for _, field := range fields {
		match, ok := mapField(field, rep, sheets, synonyms)
		if !ok {
			result.Unmapped = append(result.Unmapped, field.FieldName)
			continue
		}
		result.Matches = append(result.Matches, match)
		result.TierCounts[match.MatchTier]++
	}
	sort.Strings(result.Unmapped)

	if len(result.Matches) > 0 {
		sum := 0.0
		for _, m := range result.Matches {
			sum += m.Confidence
		}
		result.OverallConfidence = sum / float64(len(result.Matches))
	}

	zap.L().Info("mapping: group mapped",
		zap.String("group", groupName),
		zap.Int("matched", len(result.Matches)),
		zap.Int("unmapped", len(result.Unmapped)),
		zap.Float64("confidence", result.OverallConfidence),
	)

	return result
}

// sheetIndex holds one sheet's labels lowered for caseless lookup.
type sheetIndex struct {
	name   string
	labels []string
	set    map[string]struct{}
}

func indexSheets(fp model.FileFingerprint) []sheetIndex {
	out := make([]sheetIndex, 0, len(fp.Sheets))
	for _, s := range fp.Sheets {
		idx := sheetIndex{name: s.Name, set: make(map[string]struct{})}
		for _, l := range append(append([]string(nil), s.HeaderLabels...), s.ColALabels...) {
			lower := strings.ToLower(strings.TrimSpace(l))
			if lower == "" {
				continue
			}
			idx.labels = append(idx.labels, lower)
			idx.set[lower] = struct{}{}
		}
		out = append(out, idx)
	}
	return out
}

func mapField(field model.FieldRef, rep model.FileFingerprint, sheets []sheetIndex, synonyms Synonyms) (model.MappingMatch, bool) {
	desc := strings.ToLower(strings.TrimSpace(field.Description))

	// Tier 1: the recorded sheet exists. The cell address is trusted as-is;
	// confidence depends on whether the description appears among that
	// sheet's labels.
	for _, s := range sheets {
		if s.name != field.Sheet {
			continue
		}
		conf := ConfidenceTier1Sheet
		if desc != "" {
			if _, ok := s.set[desc]; ok {
				conf = ConfidenceTier1Label
			}
		}
		return model.MappingMatch{
			FieldName:   field.FieldName,
			SourceSheet: field.Sheet,
			SourceCell:  field.Cell,
			MatchTier:   1,
			Confidence:  conf,
		}, true
	}

	// Tier 2: the description appears verbatim on some other sheet.
	if desc != "" {
		for _, s := range sheets {
			if _, ok := s.set[desc]; ok {
				return model.MappingMatch{
					FieldName:   field.FieldName,
					SourceSheet: s.name,
					SourceCell:  field.Cell,
					MatchTier:   2,
					Confidence:  ConfidenceTier2,
				}, true
			}
		}
	}

	// Tier 3: prefix match on the first three words of the description.
	// Shorter descriptions never qualify here.
	if words := strings.Fields(desc); len(words) >= 3 {
		prefix := strings.Join(words[:3], " ")
		for _, s := range sheets {
			for _, label := range s.labels {
				if strings.HasPrefix(label, prefix) {
					return model.MappingMatch{
						FieldName:   field.FieldName,
						SourceSheet: s.name,
						SourceCell:  field.Cell,
						MatchTier:   3,
						Confidence:  ConfidenceTier3,
					}, true
				}
			}
		}
	}

	// Tier 4: a synonym of the description appears as a label. First
	// synonym hit wins.
	for _, alt := range synonyms.Lookup(field.Description) {
		for _, s := range sheets {
			if _, ok := s.set[alt]; ok {
				return model.MappingMatch{
					FieldName:   field.FieldName,
					SourceSheet: s.name,
					SourceCell:  field.Cell,
					MatchTier:   4,
					Confidence:  ConfidenceTier4,
				}, true
			}
		}
	}

	return model.MappingMatch{}, false
}
