package pipeline

import (
	"path/filepath"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// DiscoveryManifest is the persisted output of the discovery phase.
type DiscoveryManifest struct {
	TotalScanned       int                    `json:"total_scanned"`
	CandidatesAccepted int                    `json:"candidates_accepted"`
	CandidatesSkipped  int                    `json:"candidates_skipped"`
	DuplicatesRemoved  int                    `json:"duplicates_removed"`
	BatchInfo          *BatchInfo             `json:"batch_info,omitempty"`
	Files              []model.FileDescriptor `json:"files"`
}

// GroupsManifest is the persisted output of the grouping phase.
type GroupsManifest struct {
	Groups         []model.FileGroup       `json:"groups"`
	Ungrouped      []model.FileFingerprint `json:"ungrouped"`
	EmptyTemplates []model.FileFingerprint `json:"empty_templates"`
	Methodology    string                  `json:"methodology"`
	Summary        model.GroupingSummary   `json:"summary"`
}

// MappingsManifest is the persisted output of the reference-mapping phase,
// one entry per file group.
type MappingsManifest struct {
	Mappings        []model.GroupReferenceMapping `json:"mappings"`
	PropertyMatches []model.PropertyMatch         `json:"property_matches,omitempty"`
}

// MappingFor returns the mapping for a group name, or nil.
func (m *MappingsManifest) MappingFor(groupName string) *model.GroupReferenceMapping {
	for i := range m.Mappings {
		if m.Mappings[i].GroupName == groupName {
			return &m.Mappings[i]
		}
	}
	return nil
}

func (o *Orchestrator) saveDiscovery(m *DiscoveryManifest) error {
	return writeJSON(filepath.Join(o.workDir, discoveryFile), m)
}

// DiscoveryManifest loads the persisted discovery manifest.
func (o *Orchestrator) DiscoveryManifest() (*DiscoveryManifest, error) {
	var m DiscoveryManifest
	if err := readJSON(filepath.Join(o.workDir, discoveryFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (o *Orchestrator) saveGroups(m *GroupsManifest) error {
	return writeJSON(filepath.Join(o.workDir, groupsFile), m)
}

// GroupsManifest loads the persisted groups manifest.
func (o *Orchestrator) GroupsManifest() (*GroupsManifest, error) {
	var m GroupsManifest
	if err := readJSON(filepath.Join(o.workDir, groupsFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (o *Orchestrator) saveMappings(m *MappingsManifest) error {
	return writeJSON(filepath.Join(o.workDir, mappingsFile), m)
}

// MappingsManifest loads the persisted mappings manifest.
func (o *Orchestrator) MappingsManifest() (*MappingsManifest, error) {
	var m MappingsManifest
	if err := readJSON(filepath.Join(o.workDir, mappingsFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
