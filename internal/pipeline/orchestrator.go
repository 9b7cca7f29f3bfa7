package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/extract"
	"github.com/sells-group/underwriting-cli/internal/fingerprint"
	"github.com/sells-group/underwriting-cli/internal/grouping"
	"github.com/sells-group/underwriting-cli/internal/mapping"
	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/reconcile"
	"github.com/sells-group/underwriting-cli/internal/store"
	"github.com/sells-group/underwriting-cli/internal/validate"
)

// Orchestrator sequences the intake phases over a working directory. It is
// an explicit context object: all durable state lives under workDir and is
// loaded and saved around each phase call, never held in globals.
type Orchestrator struct {
	workDir       string
	cfg           *config.Config
	filter        *CandidateFilter
	fingerprinter *fingerprint.Engine
	grouper       *grouping.Engine
	reconciler    *reconcile.Reconciler
	extractor     *extract.Extractor
	validator     *validate.Validator
	store         store.Store
}

// New creates an Orchestrator rooted at cfg.Pipeline.WorkDir. The store may
// be nil, in which case live extraction results are not persisted and every
// batch is effectively a dry run report.
func New(
	cfg *config.Config,
	fingerprinter *fingerprint.Engine,
	grouper *grouping.Engine,
	reconciler *reconcile.Reconciler,
	extractor *extract.Extractor,
	validator *validate.Validator,
	st store.Store,
) *Orchestrator {
	return &Orchestrator{
		workDir:       cfg.Pipeline.WorkDir,
		cfg:           cfg,
		filter:        NewCandidateFilter(),
		fingerprinter: fingerprinter,
		grouper:       grouper,
		reconciler:    reconciler,
		extractor:     extractor,
		validator:     validator,
		store:         st,
	}
}

// State loads the current persisted pipeline state.
func (o *Orchestrator) State() (*State, error) {
	return loadState(o.workDir)
}

// Reset deletes all persisted pipeline state under the working directory.
func (o *Orchestrator) Reset() error {
	for _, name := range []string{stateFile, discoveryFile, groupsFile, mappingsFile} {
		path := filepath.Join(o.workDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "pipeline: remove %s", path)
		}
	}
	zap.L().Info("pipeline: state reset", zap.String("work_dir", o.workDir))
	return nil
}

// Approve marks a group as approved for live extraction.
func (o *Orchestrator) Approve(groupName string) error {
	state, err := loadState(o.workDir)
	if err != nil {
		return err
	}
	groups, err := o.GroupsManifest()
	if err != nil {
		return eris.Wrap(err, "pipeline: approve requires a completed grouping phase")
	}
	found := false
	for _, g := range groups.Groups {
		if g.GroupName == groupName {
			found = true
			break
		}
	}
	if !found {
		return eris.Errorf("pipeline: unknown group %q", groupName)
	}
	now := time.Now().UTC()
	state.Groups[groupName] = GroupState{Approved: true, ApprovedAt: &now}
	return saveState(o.workDir, state)
}

// DiscoveryResponse reports the discovery phase outcome.
type DiscoveryResponse struct {
	TotalScanned       int        `json:"total_scanned"`
	CandidatesAccepted int        `json:"candidates_accepted"`
	CandidatesSkipped  int        `json:"candidates_skipped"`
	DuplicatesRemoved  int        `json:"duplicates_removed"`
	BatchInfo          *BatchInfo `json:"batch_info,omitempty"`
}

// Discover filters the crawler's file descriptors down to pipeline
// candidates, deduplicates them, and persists the discovery manifest.
func (o *Orchestrator) Discover(descriptors []model.FileDescriptor) (*DiscoveryResponse, error) {
	state, err := loadState(o.workDir)
	if err != nil {
		return nil, err
	}
	if err := state.requirePrereq(PhaseDiscovery); err != nil {
		return nil, err
	}

	var accepted []model.FileDescriptor
	skipped := 0
	for _, fd := range descriptors {
		if o.filter.Accept(fd) {
			accepted = append(accepted, fd)
		} else {
			skipped++
		}
	}

	deduped, removed := dedupe(accepted)
	_, batchInfo := partition(deduped, o.cfg.Pipeline.BatchCeiling)

	manifest := &DiscoveryManifest{
		TotalScanned:       len(descriptors),
		CandidatesAccepted: len(deduped),
		CandidatesSkipped:  skipped,
		DuplicatesRemoved:  removed,
		BatchInfo:          batchInfo,
		Files:              deduped,
	}
	if err := o.saveDiscovery(manifest); err != nil {
		return nil, err
	}

	state.TotalCandidates = len(deduped)
	state.markCompleted(PhaseDiscovery, time.Now().UTC())
	if err := saveState(o.workDir, state); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: discovery complete",
		zap.Int("scanned", manifest.TotalScanned),
		zap.Int("accepted", manifest.CandidatesAccepted),
		zap.Int("skipped", manifest.CandidatesSkipped),
		zap.Int("duplicates", manifest.DuplicatesRemoved),
	)

	return &DiscoveryResponse{
		TotalScanned:       manifest.TotalScanned,
		CandidatesAccepted: manifest.CandidatesAccepted,
		CandidatesSkipped:  manifest.CandidatesSkipped,
		DuplicatesRemoved:  manifest.DuplicatesRemoved,
		BatchInfo:          batchInfo,
	}, nil
}

// GroupResponse reports the fingerprinting and grouping phase outcome.
type GroupResponse struct {
	Fingerprinted  int `json:"fingerprinted"`
	Errors         int `json:"errors"`
	Groups         int `json:"groups"`
	Ungrouped      int `json:"ungrouped"`
	EmptyTemplates int `json:"empty_templates"`
}

// Group fingerprints every discovered candidate across the worker pool and
// clusters the results, persisting the groups manifest.
func (o *Orchestrator) Group(ctx context.Context) (*GroupResponse, error) {
	state, err := loadState(o.workDir)
	if err != nil {
		return nil, err
	}
	if err := state.requirePrereq(PhaseGrouping); err != nil {
		return nil, err
	}

	discovery, err := o.DiscoveryManifest()
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(discovery.Files))
	for i, fd := range discovery.Files {
		paths[i] = fd.Path
	}

	fingerprints := o.fingerprinter.FingerprintAll(ctx, paths)
	result := o.grouper.Group(fingerprints)

	manifest := &GroupsManifest{
		Groups:         result.Groups,
		Ungrouped:      result.Ungrouped,
		EmptyTemplates: result.EmptyTemplates,
		Methodology:    result.Methodology,
		Summary:        result.Summary(),
	}
	if err := o.saveGroups(manifest); err != nil {
		return nil, err
	}

	errCount := 0
	for _, fp := range fingerprints {
		if fp.Status == model.PopulationError {
			errCount++
		}
	}

	state.TotalGroups = len(result.Groups)
	state.markCompleted(PhaseGrouping, time.Now().UTC())
	if err := saveState(o.workDir, state); err != nil {
		return nil, err
	}

	return &GroupResponse{
		Fingerprinted:  len(fingerprints),
		Errors:         errCount,
		Groups:         len(result.Groups),
		Ungrouped:      len(result.Ungrouped),
		EmptyTemplates: len(result.EmptyTemplates),
	}, nil
}

// MapResponse reports the reference-mapping phase outcome.
type MapResponse struct {
	GroupsMapped      int         `json:"groups_mapped"`
	FieldsMapped      int         `json:"fields_mapped"`
	FieldsUnmapped    int         `json:"fields_unmapped"`
	TierCounts        map[int]int `json:"tier_counts"`
	PropertiesMatched int         `json:"properties_matched"`
	PropertiesTotal   int         `json:"properties_total"`
}

// MapReferences infers field locations for every group from the canonical
// field-reference table, and reconciles the deal names attached to the
// discovered files against the canonical property registry.
func (o *Orchestrator) MapReferences(fields []model.FieldRef, synonyms mapping.Synonyms, knownProperties []string) (*MapResponse, error) {
	state, err := loadState(o.workDir)
	if err != nil {
		return nil, err
	}
	if err := state.requirePrereq(PhaseReferenceMap); err != nil {
		return nil, err
	}

	groups, err := o.GroupsManifest()
	if err != nil {
		return nil, err
	}

	manifest := &MappingsManifest{}
	resp := &MapResponse{TierCounts: make(map[int]int)}
	for _, g := range groups.Groups {
		if len(g.Files) == 0 {
			continue
		}
		gm := mapping.AutoMap(g.GroupName, fields, g.Files[0], synonyms)
		manifest.Mappings = append(manifest.Mappings, gm)
		resp.GroupsMapped++
		resp.FieldsMapped += len(gm.Matches)
		resp.FieldsUnmapped += len(gm.Unmapped)
		for tier, n := range gm.TierCounts {
			resp.TierCounts[tier] += n
		}
	}

	if len(knownProperties) > 0 {
		discovery, err := o.DiscoveryManifest()
		if err != nil {
			return nil, err
		}
		names := dealNames(discovery.Files)
		matches := o.reconciler.Reconcile(names, knownProperties)
		manifest.PropertyMatches = matches
		resp.PropertiesTotal = len(matches)
		for _, m := range matches {
			if m.Matched() {
				resp.PropertiesMatched++
			}
		}
	}

	if err := o.saveMappings(manifest); err != nil {
		return nil, err
	}

	state.markCompleted(PhaseReferenceMap, time.Now().UTC())
	if err := saveState(o.workDir, state); err != nil {
		return nil, err
	}

	return resp, nil
}

// dealNames returns the distinct deal names across descriptors, in first
// occurrence order.
func dealNames(files []model.FileDescriptor) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, fd := range files {
		if fd.DealName == "" {
			continue
		}
		if _, ok := seen[fd.DealName]; ok {
			continue
		}
		seen[fd.DealName] = struct{}{}
		names = append(names, fd.DealName)
	}
	return names
}

// Conflict records two fields mapped to the same cell within one group.
type Conflict struct {
	GroupName string   `json:"group_name"`
	Sheet     string   `json:"sheet"`
	Cell      string   `json:"cell"`
	Fields    []string `json:"fields"`
}

// ConflictResponse reports the conflict-check phase outcome.
type ConflictResponse struct {
	GroupsChecked int        `json:"groups_checked"`
	Conflicts     []Conflict `json:"conflicts"`
}

// CheckConflicts verifies that no group maps two different fields onto the
// same cell. Conflicts are reported, not fatal: the phase completes either
// way and the conflict list is surfaced for manual review before approval.
func (o *Orchestrator) CheckConflicts() (*ConflictResponse, error) {
	state, err := loadState(o.workDir)
	if err != nil {
		return nil, err
	}
	if err := state.requirePrereq(PhaseConflictCheck); err != nil {
		return nil, err
	}

	mappings, err := o.MappingsManifest()
	if err != nil {
		return nil, err
	}

	resp := &ConflictResponse{}
	for _, gm := range mappings.Mappings {
		resp.GroupsChecked++
		byCell := make(map[string][]string)
		for _, m := range gm.Matches {
			key := m.SourceSheet + "!" + m.SourceCell
			byCell[key] = append(byCell[key], m.FieldName)
		}
		var keys []string
		for key, fieldsAt := range byCell {
			if len(fieldsAt) > 1 {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			m := gm.MatchByField(byCell[key][0])
			resp.Conflicts = append(resp.Conflicts, Conflict{
				GroupName: gm.GroupName,
				Sheet:     m.SourceSheet,
				Cell:      m.SourceCell,
				Fields:    byCell[key],
			})
		}
	}

	state.markCompleted(PhaseConflictCheck, time.Now().UTC())
	if err := saveState(o.workDir, state); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: conflict check complete",
		zap.Int("groups", resp.GroupsChecked),
		zap.Int("conflicts", len(resp.Conflicts)),
	)

	return resp, nil
}

// BatchRequest describes one group's batch extraction.
type BatchRequest struct {
	GroupName   string
	DryRun      bool
	StopOnError bool
	Progress    extract.ProgressFunc
}

// FileOutcome reports one file's extraction within a batch.
type FileOutcome struct {
	FilePath    string  `json:"file_path"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
	Error       string  `json:"error,omitempty"`
}

// BatchResponse reports a batch extraction outcome.
type BatchResponse struct {
	GroupName   string        `json:"group_name"`
	DryRun      bool          `json:"dry_run"`
	FilesTotal  int           `json:"files_total"`
	FilesOK     int           `json:"files_ok"`
	FilesFailed int           `json:"files_failed"`
	Outcomes    []FileOutcome `json:"outcomes"`
	RunID       string        `json:"run_id,omitempty"`
}

// ExtractBatch extracts every file in a group using the group's reference
// mapping. Unapproved groups always run dry regardless of the request. The
// batch drains the full file list, surfacing per-file failures in the
// response, unless StopOnError is set.
func (o *Orchestrator) ExtractBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	state, err := loadState(o.workDir)
	if err != nil {
		return nil, err
	}
	if err := state.requirePrereq(PhaseExtraction); err != nil {
		return nil, err
	}

	groups, err := o.GroupsManifest()
	if err != nil {
		return nil, err
	}
	var group *model.FileGroup
	for i := range groups.Groups {
		if groups.Groups[i].GroupName == req.GroupName {
			group = &groups.Groups[i]
			break
		}
	}
	if group == nil {
		return nil, eris.Errorf("pipeline: unknown group %q", req.GroupName)
	}

	mappings, err := o.MappingsManifest()
	if err != nil {
		return nil, err
	}
	gm := mappings.MappingFor(req.GroupName)
	if gm == nil {
		return nil, eris.Errorf("pipeline: no reference mapping for group %q", req.GroupName)
	}

	dryRun := req.DryRun
	if !state.Approved(req.GroupName) && !dryRun {
		zap.L().Warn("pipeline: group not approved, forcing dry run",
			zap.String("group", req.GroupName))
		dryRun = true
	}

	resp := &BatchResponse{
		GroupName:  req.GroupName,
		DryRun:     dryRun,
		FilesTotal: len(group.Files),
	}

	var runID string
	if !dryRun && o.store != nil {
		runID, err = o.store.CreateRun(ctx, req.GroupName, len(group.Files))
		if err != nil {
			return nil, err
		}
		resp.RunID = runID
	}

	extracted := 0
	for _, file := range group.Files {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "pipeline: batch cancelled")
		}

		result := o.extractor.Extract(extract.Request{
			FilePath: file.FilePath,
			Mappings: gm.Matches,
			Progress: req.Progress,
		})

		outcome := FileOutcome{
			FilePath:    file.FilePath,
			Successful:  result.Meta.Successful,
			Failed:      result.Meta.Failed,
			SuccessRate: result.Meta.SuccessRate,
		}

		fileFailed := result.Meta.Successful == 0 && result.Meta.Failed > 0
		if fileFailed {
			outcome.Error = firstErrorDetail(result)
		}

		// Persist before classifying so a failed write counts the file as
		// failed instead of ok.
		if !dryRun && o.store != nil && !fileFailed {
			if err := o.store.SaveValues(ctx, runID, file.FilePath, gm, result.Values); err != nil {
				zap.L().Error("pipeline: persist extraction failed",
					zap.String("file", file.FilePath), zap.Error(err))
				fileFailed = true
				outcome.Error = "persist: " + err.Error()
			}
		}

		if fileFailed {
			resp.FilesFailed++
		} else {
			resp.FilesOK++
			extracted += result.Meta.Successful
		}
		resp.Outcomes = append(resp.Outcomes, outcome)

		if fileFailed && req.StopOnError {
			break
		}
	}

	if !dryRun && o.store != nil && runID != "" {
		if err := o.store.CompleteRun(ctx, runID, resp.FilesOK, resp.FilesFailed); err != nil {
			zap.L().Warn("pipeline: complete run failed", zap.Error(err))
		}
	}

	state.TotalExtracted += extracted
	state.markCompleted(PhaseExtraction, time.Now().UTC())
	if err := saveState(o.workDir, state); err != nil {
		return nil, err
	}

	return resp, nil
}

func firstErrorDetail(r extract.Result) string {
	if len(r.Errors) == 0 {
		return ""
	}
	e := r.Errors[0]
	return fmt.Sprintf("%s: %s", e.Category, e.Detail)
}

// ValidateResponse reports the validation phase outcome.
type ValidateResponse struct {
	GroupName  string            `json:"group_name"`
	FilesTotal int               `json:"files_total"`
	FilesValid int               `json:"files_valid"`
	Reports    []validate.Report `json:"reports"`
}

// ValidateGroup re-extracts each file in a group and compares against the
// source, producing per-file validation reports.
func (o *Orchestrator) ValidateGroup(groupName string) (*ValidateResponse, error) {
	state, err := loadState(o.workDir)
	if err != nil {
		return nil, err
	}
	if err := state.requirePrereq(PhaseValidation); err != nil {
		return nil, err
	}

	groups, err := o.GroupsManifest()
	if err != nil {
		return nil, err
	}
	var group *model.FileGroup
	for i := range groups.Groups {
		if groups.Groups[i].GroupName == groupName {
			group = &groups.Groups[i]
			break
		}
	}
	if group == nil {
		return nil, eris.Errorf("pipeline: unknown group %q", groupName)
	}

	mappings, err := o.MappingsManifest()
	if err != nil {
		return nil, err
	}
	gm := mappings.MappingFor(groupName)
	if gm == nil {
		return nil, eris.Errorf("pipeline: no reference mapping for group %q", groupName)
	}

	resp := &ValidateResponse{GroupName: groupName, FilesTotal: len(group.Files)}
	for _, file := range group.Files {
		result := o.extractor.Extract(extract.Request{
			FilePath: file.FilePath,
			Mappings: gm.Matches,
		})
		report := o.validator.Compare(result, file.FilePath, nil, gm.Matches, nil)
		if report.Valid {
			resp.FilesValid++
		}
		resp.Reports = append(resp.Reports, report)
	}

	state.markCompleted(PhaseValidation, time.Now().UTC())
	if err := saveState(o.workDir, state); err != nil {
		return nil, err
	}

	return resp, nil
}
