package model

// FieldRef is one row of the canonical field-reference table: a named field
// and its default location in a known-good workbook.
type FieldRef struct {
	FieldName   string `json:"field_name"`
	Sheet       string `json:"sheet"`
	Cell        string `json:"cell"`
	Description string `json:"description"`
	DataType    string `json:"data_type,omitempty"`
}

// MappingMatch records one canonical field resolved to a location in a file
// group's layout, with the tier at which it matched.
type MappingMatch struct {
	FieldName   string  `json:"field_name"`
	SourceSheet string  `json:"source_sheet"`
	SourceCell  string  `json:"source_cell"`
	MatchTier   int     `json:"match_tier"`
	Confidence  float64 `json:"confidence"`
}

// GroupReferenceMapping is the full mapping result for one file group. It is
// computed once per group and reused for every member file.
type GroupReferenceMapping struct {
	GroupName         string         `json:"group_name"`
	Matches           []MappingMatch `json:"matches"`
	Unmapped          []string       `json:"unmapped"`
	TierCounts        map[int]int    `json:"tier_counts"`
	OverallConfidence float64        `json:"overall_confidence"`
}

// MatchByField returns the match for the given field name, or nil.
func (m GroupReferenceMapping) MatchByField(name string) *MappingMatch {
	for i := range m.Matches {
		if m.Matches[i].FieldName == name {
			return &m.Matches[i]
		}
	}
	return nil
}

// PropertyMatch records the reconciliation of one free-text property name
// against the canonical registry.
type PropertyMatch struct {
	InputName           string `json:"input_name"`
	MatchedPropertyName string `json:"matched_property_name,omitempty"`
	MatchTier           int    `json:"match_tier"`
	EditDistance        *int   `json:"edit_distance,omitempty"`
}

// Matched reports whether the input resolved to a canonical name.
func (p PropertyMatch) Matched() bool {
	return p.MatchedPropertyName != ""
}
