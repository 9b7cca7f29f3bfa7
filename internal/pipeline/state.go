// Package pipeline sequences the intake phases over persisted on-disk state.
package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

const (
	stateFile     = "config.json"
	discoveryFile = "discovery_manifest.json"
	groupsFile    = "groups.json"
	mappingsFile  = "mappings.json"
)

// Phase identifies one pipeline phase in its strict execution order.
type Phase string

const (
	PhaseDiscovery     Phase = "discovery"
	PhaseGrouping      Phase = "grouping"
	PhaseReferenceMap  Phase = "reference_map"
	PhaseConflictCheck Phase = "conflict_check"
	PhaseExtraction    Phase = "extraction"
	PhaseValidation    Phase = "validation"
)

// phaseOrder lists phases in execution order; each entry requires the one
// before it to have completed.
var phaseOrder = []Phase{
	PhaseDiscovery,
	PhaseGrouping,
	PhaseReferenceMap,
	PhaseConflictCheck,
	PhaseExtraction,
	PhaseValidation,
}

// GroupState holds per-group workflow flags.
type GroupState struct {
	Approved   bool       `json:"approved"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// State is the persisted pipeline record: phase completion timestamps,
// aggregate counters, and per-group approval flags. It is created on first
// pipeline access and lives until an explicit reset.
type State struct {
	DiscoveryCompletedAt     *time.Time `json:"discovery_completed_at,omitempty"`
	GroupingCompletedAt      *time.Time `json:"grouping_completed_at,omitempty"`
	ReferenceMapCompletedAt  *time.Time `json:"reference_map_completed_at,omitempty"`
	ConflictCheckCompletedAt *time.Time `json:"conflict_check_completed_at,omitempty"`
	ExtractionCompletedAt    *time.Time `json:"extraction_completed_at,omitempty"`
	ValidationCompletedAt    *time.Time `json:"validation_completed_at,omitempty"`

	TotalCandidates int `json:"total_candidates"`
	TotalGroups     int `json:"total_groups"`
	TotalExtracted  int `json:"total_extracted"`

	Groups map[string]GroupState `json:"groups,omitempty"`
}

func (s *State) completedAt(p Phase) *time.Time {
	switch p {
	case PhaseDiscovery:
		return s.DiscoveryCompletedAt
	case PhaseGrouping:
		return s.GroupingCompletedAt
	case PhaseReferenceMap:
		return s.ReferenceMapCompletedAt
	case PhaseConflictCheck:
		return s.ConflictCheckCompletedAt
	case PhaseExtraction:
		return s.ExtractionCompletedAt
	case PhaseValidation:
		return s.ValidationCompletedAt
	}
	return nil
}

func (s *State) markCompleted(p Phase, t time.Time) {
	switch p {
	case PhaseDiscovery:
		s.DiscoveryCompletedAt = &t
	case PhaseGrouping:
		s.GroupingCompletedAt = &t
	case PhaseReferenceMap:
		s.ReferenceMapCompletedAt = &t
	case PhaseConflictCheck:
		s.ConflictCheckCompletedAt = &t
	case PhaseExtraction:
		s.ExtractionCompletedAt = &t
	case PhaseValidation:
		s.ValidationCompletedAt = &t
	}
}

// requirePrereq returns a precondition error if the phase preceding p has
// not completed. Discovery has no prerequisite.
func (s *State) requirePrereq(p Phase) error {
	for i, phase := range phaseOrder {
		if phase != p {
			continue
		}
		if i == 0 {
			return nil
		}
		prev := phaseOrder[i-1]
		if s.completedAt(prev) == nil {
			return eris.Errorf("pipeline: cannot run %s before %s has completed", p, prev)
		}
		return nil
	}
	return eris.Errorf("pipeline: unknown phase %q", p)
}

// Approved reports whether a group has been approved for live extraction.
func (s *State) Approved(groupName string) bool {
	return s.Groups[groupName].Approved
}

// loadState reads the persisted state, returning a fresh State when none
// exists yet.
func loadState(workDir string) (*State, error) {
	path := filepath.Join(workDir, stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Groups: make(map[string]GroupState)}, nil
		}
		return nil, eris.Wrapf(err, "pipeline: read state %s", path)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse state %s", path)
	}
	if s.Groups == nil {
		s.Groups = make(map[string]GroupState)
	}
	return &s, nil
}

// saveState writes the state atomically (write-then-rename).
func saveState(workDir string, s *State) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create work dir %s", workDir)
	}
	return writeJSON(filepath.Join(workDir, stateFile), s)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create dir for %s", path)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "pipeline: marshal %s", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "pipeline: rename %s", path)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "pipeline: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "pipeline: parse %s", path)
	}
	return nil
}
