package model

// FileGroup is a set of files sharing an identical combined signature, plus
// any near-match sub-variants discovered during clustering.
type FileGroup struct {
	GroupName         string            `json:"group_name"`
	Files             []FileFingerprint `json:"files"`
	StructuralOverlap float64           `json:"structural_overlap"`
	Era               string            `json:"era,omitempty"`
	SubVariants       []SubVariant      `json:"sub_variants,omitempty"`
	Variances         *GroupVariances   `json:"variances,omitempty"`
}

// AnchorSignature returns the combined signature shared by every member.
func (g FileGroup) AnchorSignature() string {
	if len(g.Files) == 0 {
		return ""
	}
	return g.Files[0].CombinedSignature()
}

// SubVariant is a file structurally close to, but not identical with, a
// group's dominant layout. It is recorded alongside the group rather than
// merged into it, since its cell addresses may not be substitutable.
type SubVariant struct {
	File    FileFingerprint `json:"file"`
	Overlap float64         `json:"overlap"`
}

// GroupVariances describes how sub-variants and members differ from the
// group's dominant layout.
type GroupVariances struct {
	MissingSheets []string `json:"missing_sheets,omitempty"`
	ExtraSheets   []string `json:"extra_sheets,omitempty"`
	LabelDiffs    []string `json:"label_diffs,omitempty"`
}

// GroupingResult is the full output of the grouping phase.
type GroupingResult struct {
	Groups         []FileGroup       `json:"groups"`
	Ungrouped      []FileFingerprint `json:"ungrouped"`
	EmptyTemplates []FileFingerprint `json:"empty_templates"`
	Methodology    string            `json:"methodology"`
}

// Summary returns aggregate counts for persistence and status reporting.
func (r GroupingResult) Summary() GroupingSummary {
	return GroupingSummary{
		TotalGroups:         len(r.Groups),
		TotalUngrouped:      len(r.Ungrouped),
		TotalEmptyTemplates: len(r.EmptyTemplates),
	}
}

// GroupingSummary holds aggregate counts for the groups manifest.
type GroupingSummary struct {
	TotalGroups         int `json:"total_groups"`
	TotalUngrouped      int `json:"total_ungrouped"`
	TotalEmptyTemplates int `json:"total_empty_templates"`
}
