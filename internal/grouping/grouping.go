package grouping

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/model"
)

// Engine clusters fingerprints into file groups.
type Engine struct {
	cfg config.GroupingConfig
}

// NewEngine creates a grouping engine. Zero thresholds fall back to the
// documented defaults (0.95 identity, 0.80 sub-variant).
func NewEngine(cfg config.GroupingConfig) *Engine {
	if cfg.IdentityThreshold <= 0 {
		cfg.IdentityThreshold = 0.95
	}
	if cfg.SubVariantThreshold <= 0 {
		cfg.SubVariantThreshold = 0.80
	}
	return &Engine{cfg: cfg}
}

// Group clusters the given fingerprints. Error fingerprints are dropped,
// empty templates are set aside, identical combined signatures merge
// outright, near matches attach as sub-variants, and everything else lands
// in the ungrouped bucket. The function is deterministic and idempotent:
// re-grouping the same fingerprints reproduces the same membership.
func (e *Engine) Group(fingerprints []model.FileFingerprint) model.GroupingResult {
	result := model.GroupingResult{
		Methodology: e.methodology(),
	}

	// Deterministic processing order regardless of worker-pool output order.
	sorted := append([]model.FileFingerprint(nil), fingerprints...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })

	var clusterable []model.FileFingerprint
	dropped := 0
	for _, fp := range sorted {
		switch fp.Status {
		case model.PopulationError:
			dropped++
		case model.PopulationEmpty:
			result.EmptyTemplates = append(result.EmptyTemplates, fp)
		default:
			clusterable = append(clusterable, fp)
		}
	}

	// Pass 1: byte-identical combined signatures merge outright.
	bySig := make(map[string][]model.FileFingerprint)
	var sigOrder []string
	for _, fp := range clusterable {
		sig := fp.CombinedSignature()
		if _, seen := bySig[sig]; !seen {
			sigOrder = append(sigOrder, sig)
		}
		bySig[sig] = append(bySig[sig], fp)
	}

	var groups []model.FileGroup
	var singletons []model.FileFingerprint
	counter := 0
	for _, sig := range sigOrder {
		members := bySig[sig]
		if len(members) < 2 {
			singletons = append(singletons, members[0])
			continue
		}
		counter++
		groups = append(groups, model.FileGroup{
			GroupName:         groupName(counter, members[0]),
			Files:             members,
			StructuralOverlap: 1.0,
			Era:               inferEra(members),
		})
	}

	// Pass 2: attach remaining singletons to the closest group, either as a
	// full member (at or above the identity threshold) or as a sub-variant
	// (within the sub-variant band).
	var unattached []model.FileFingerprint
	for _, fp := range singletons {
		bestIdx, bestOverlap := -1, 0.0
		for i := range groups {
			ov := StructuralOverlap(fp, groups[i].Files[0])
			if ov > bestOverlap {
				bestIdx, bestOverlap = i, ov
			}
		}
		switch {
		case bestIdx >= 0 && bestOverlap >= e.cfg.IdentityThreshold:
			groups[bestIdx].Files = append(groups[bestIdx].Files, fp)
			if bestOverlap < groups[bestIdx].StructuralOverlap {
				groups[bestIdx].StructuralOverlap = bestOverlap
			}
		case bestIdx >= 0 && bestOverlap >= e.cfg.SubVariantThreshold:
			groups[bestIdx].SubVariants = append(groups[bestIdx].SubVariants, model.SubVariant{
				File:    fp,
				Overlap: bestOverlap,
			})
		default:
			unattached = append(unattached, fp)
		}
	}

	// Pass 3: pair up singletons that are similar to each other but matched
	// no existing group. The earlier file anchors a new group; within the
	// sub-variant band the partner is recorded as a sub-variant rather than
	// forced in as a member, since its cell addresses may not transfer.
	used := make([]bool, len(unattached))
	for i := range unattached {
		if used[i] {
			continue
		}
		var subs []model.SubVariant
		var members []model.FileFingerprint
		members = append(members, unattached[i])
		minOverlap := 1.0
		for j := i + 1; j < len(unattached); j++ {
			if used[j] {
				continue
			}
			ov := StructuralOverlap(unattached[i], unattached[j])
			switch {
			case ov >= e.cfg.IdentityThreshold:
				members = append(members, unattached[j])
				used[j] = true
				if ov < minOverlap {
					minOverlap = ov
				}
			case ov >= e.cfg.SubVariantThreshold:
				subs = append(subs, model.SubVariant{File: unattached[j], Overlap: ov})
				used[j] = true
			}
		}
		if len(members) == 1 && len(subs) == 0 {
			result.Ungrouped = append(result.Ungrouped, unattached[i])
			continue
		}
		counter++
		groups = append(groups, model.FileGroup{
			GroupName:         groupName(counter, members[0]),
			Files:             members,
			StructuralOverlap: minOverlap,
			SubVariants:       subs,
			Era:               inferEra(members),
		})
	}

	for i := range groups {
		groups[i].Era = inferEra(groups[i].Files)
		groups[i].Variances = computeVariances(groups[i])
	}
	result.Groups = groups

	zap.L().Info("grouping: complete",
		zap.Int("input", len(fingerprints)),
		zap.Int("groups", len(result.Groups)),
		zap.Int("ungrouped", len(result.Ungrouped)),
		zap.Int("empty_templates", len(result.EmptyTemplates)),
		zap.Int("errors_dropped", dropped),
	)

	return result
}

func (e *Engine) methodology() string {
	return fmt.Sprintf(
		"Files are clustered by structural fingerprint. Byte-identical combined signatures merge outright; "+
			"structural overlap at or above %.0f%% joins an existing group; overlap between %.0f%% and %.0f%% "+
			"is recorded as a sub-variant rather than a member; anything lower is left ungrouped. "+
			"Empty templates and unreadable files are excluded from clustering.",
		e.cfg.IdentityThreshold*100, e.cfg.SubVariantThreshold*100, e.cfg.IdentityThreshold*100,
	)
}

// groupName derives a stable name from a representative file plus a counter.
func groupName(counter int, rep model.FileFingerprint) string {
	base := strings.TrimSuffix(rep.FileName, filepath.Ext(rep.FileName))
	base = strings.ToLower(strings.ReplaceAll(base, " ", "_"))
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("group_%03d_%s", counter, base)
}

var yearRe = regexp.MustCompile(`(19|20)\d{2}`)

// inferEra derives a year-range label from member filenames.
func inferEra(files []model.FileFingerprint) string {
	minYear, maxYear := "", ""
	for _, f := range files {
		for _, y := range yearRe.FindAllString(f.FileName, -1) {
			if minYear == "" || y < minYear {
				minYear = y
			}
			if maxYear == "" || y > maxYear {
				maxYear = y
			}
		}
	}
	switch {
	case minYear == "":
		return ""
	case minYear == maxYear:
		return minYear
	default:
		return minYear + "-" + maxYear
	}
}

// computeVariances diffs each sub-variant against the group's dominant
// layout. Members share an identical signature at the identity threshold, so
// structural drift shows up through the sub-variants.
func computeVariances(g model.FileGroup) *model.GroupVariances {
	if len(g.SubVariants) == 0 || len(g.Files) == 0 {
		return nil
	}
	anchor := g.Files[0]
	anchorSheets := make(map[string]*model.SheetFingerprint, len(anchor.Sheets))
	for i := range anchor.Sheets {
		anchorSheets[anchor.Sheets[i].Name] = &anchor.Sheets[i]
	}

	v := &model.GroupVariances{}
	seenMissing := make(map[string]bool)
	seenExtra := make(map[string]bool)
	seenDiff := make(map[string]bool)

	for _, sv := range g.SubVariants {
		svSheets := make(map[string]*model.SheetFingerprint, len(sv.File.Sheets))
		for i := range sv.File.Sheets {
			svSheets[sv.File.Sheets[i].Name] = &sv.File.Sheets[i]
		}
		for name := range anchorSheets {
			if _, ok := svSheets[name]; !ok && !seenMissing[name] {
				seenMissing[name] = true
				v.MissingSheets = append(v.MissingSheets, name)
			}
		}
		for name, sheet := range svSheets {
			as, ok := anchorSheets[name]
			if !ok {
				if !seenExtra[name] {
					seenExtra[name] = true
					v.ExtraSheets = append(v.ExtraSheets, name)
				}
				continue
			}
			if as.Signature() != sheet.Signature() && !seenDiff[name] {
				seenDiff[name] = true
				v.LabelDiffs = append(v.LabelDiffs, name)
			}
		}
	}

	sort.Strings(v.MissingSheets)
	sort.Strings(v.ExtraSheets)
	sort.Strings(v.LabelDiffs)
	if len(v.MissingSheets) == 0 && len(v.ExtraSheets) == 0 && len(v.LabelDiffs) == 0 {
		return nil
	}
	return v
}
