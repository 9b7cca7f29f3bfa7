package reconcile

import (
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/model"
)

// Reconciler matches extracted property names against the canonical registry.
type Reconciler struct {
	cfg config.ReconcileConfig
}

// New creates a Reconciler. Zero config values fall back to the documented
// defaults (edit distance 3, token overlap 0.90).
func New(cfg config.ReconcileConfig) *Reconciler {
	if cfg.MaxEditDistance <= 0 {
		cfg.MaxEditDistance = 3
	}
	if cfg.TokenOverlap <= 0 {
		cfg.TokenOverlap = 0.90
	}
	return &Reconciler{cfg: cfg}
}

// Reconcile matches each input name independently, first match wins:
// tier 1 caseless exact, tier 2 normalized, tier 3 fuzzy (edit distance or
// token-set overlap), tier 4 unmatched.
func (r *Reconciler) Reconcile(inputNames, knownNames []string) []model.PropertyMatch {
	foldedKnown := make([]string, len(knownNames))
	normalizedKnown := make([]string, len(knownNames))
	for i, k := range knownNames {
		foldedKnown[i] = foldKey(k)
		normalizedKnown[i] = NormalizeName(k)
	}

	results := make([]model.PropertyMatch, len(inputNames))
	for i, input := range inputNames {
		results[i] = r.match(input, knownNames, foldedKnown, normalizedKnown)
	}

	matched := 0
	for _, m := range results {
		if m.Matched() {
			matched++
		}
	}
	zap.L().Debug("reconcile: batch complete",
		zap.Int("inputs", len(inputNames)),
		zap.Int("matched", matched),
	)

	return results
}

// Match reconciles a single name.
func (r *Reconciler) Match(input string, knownNames []string) model.PropertyMatch {
	return r.Reconcile([]string{input}, knownNames)[0]
}

func (r *Reconciler) match(input string, known, folded, normalized []string) model.PropertyMatch {
	result := model.PropertyMatch{InputName: input, MatchTier: 4}

	// Tier 1: caseless exact.
	inFold := foldKey(input)
	for i, k := range folded {
		if inFold == k {
			result.MatchedPropertyName = known[i]
			result.MatchTier = 1
			return result
		}
	}

	// Tier 2: normalized forms.
	inNorm := NormalizeName(input)
	if inNorm != "" {
		for i, k := range normalized {
			if k != "" && inNorm == k {
				result.MatchedPropertyName = known[i]
				result.MatchTier = 2
				return result
			}
		}
	}

	// Tier 3: fuzzy. The lowest edit distance within the cap wins; a high
	// token-set overlap also qualifies. Ties resolve to the earliest entry.
	bestIdx := -1
	bestDist := 0
	for i, k := range known {
		d := Levenshtein(inFold, folded[i])
		withinDistance := d <= r.cfg.MaxEditDistance
		tokenMatch := tokenSetOverlap(input, k) >= r.cfg.TokenOverlap
		if !withinDistance && !tokenMatch {
			continue
		}
		if bestIdx == -1 || d < bestDist {
			bestIdx = i
			bestDist = d
		}
	}
	if bestIdx >= 0 {
		result.MatchedPropertyName = known[bestIdx]
		result.MatchTier = 3
		result.EditDistance = &bestDist
		return result
	}

	// Tier 4: unmatched.
	return result
}
