package services

import (
	"math"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

// RebalanceConfig sets the category quotas of a recommendation set.
type RebalanceConfig struct {
	MinScorecards int
	// MaxScorecards of 0 leaves scorecards unbounded.
	MaxScorecards int
	// MinVisualizations counts every non-scorecard item, tables included.
	MinVisualizations int
	RequireTable      bool
}

// DefaultRebalanceConfig returns the standard dashboard quotas.
func DefaultRebalanceConfig() RebalanceConfig {
	return RebalanceConfig{
		MinScorecards:     6,
		MaxScorecards:     10,
		MinVisualizations: 8,
		RequireTable:      true,
	}
}

// SetRebalancer enforces category quotas on a ranked recommendation list.
type SetRebalancer struct {
	config    RebalanceConfig
	validator ChartValidator
	scorer    QualityScorer
	generator *FallbackGenerator
	logger    *zap.Logger
}

// NewSetRebalancer creates a rebalancer. Synthesized recommendations go
// through the same validator and scorer as model output.
func NewSetRebalancer(
	config RebalanceConfig,
	validator ChartValidator,
	scorer QualityScorer,
	generator *FallbackGenerator,
	logger *zap.Logger,
) *SetRebalancer {
	return &SetRebalancer{
		config:    config,
		validator: validator,
		scorer:    scorer,
		generator: generator,
		logger:    logger.Named("set-rebalancer"),
	}
}

// Rebalance trims scorecard overflow, then fills underflow in the order
// table, visualization, scorecard. Originals keep their order; synthesized
// items follow them and score below every original of their category.
func (r *SetRebalancer) Rebalance(ranked []*models.ScoredRecommendation) ([]*models.ScoredRecommendation, []models.Adjustment) {
	items := slices.Clone(ranked)
	var adjustments []models.Adjustment

	if trimmed, adj, ok := r.trimScorecards(items); ok {
		items = trimmed
		adjustments = append(adjustments, adj)
	}

	covered := make(map[string]bool, len(items))
	floors := make(map[models.Category]float64)
	for _, item := range items {
		if item.Mapping != nil {
			covered[coverageKey(item.Mapping)] = true
		}
		if floor, ok := floors[item.Category]; !ok || item.QualityScore < floor {
			floors[item.Category] = item.QualityScore
		}
	}

	var synthesized []*models.ScoredRecommendation
	fill := func(category models.Category, need, before int) {
		if need <= 0 {
			return
		}
		added := r.synthesize(category, need, covered, floors)
		if len(added) == 0 {
			return
		}
		ids := make([]string, len(added))
		for i, item := range added {
			ids[i] = item.ID
		}
		synthesized = append(synthesized, added...)
		adj := models.Adjustment{
			Category: category,
			Kind:     models.AdjustmentUnderflow,
			Before:   before,
			After:    before + len(added),
			Added:    ids,
		}
		adjustments = append(adjustments, adj)
		r.logger.Info("Filled category underflow with synthesized recommendations",
			zap.String("category", string(category)),
			zap.Int("before", adj.Before),
			zap.Int("after", adj.After),
			zap.Strings("added", ids))
	}

	counts := models.CountCategories(items)
	if r.config.RequireTable && counts.Tables == 0 {
		fill(models.CategoryTable, 1, 0)
	}

	counts = models.CountCategories(append(slices.Clone(items), synthesized...))
	fill(models.CategoryVisualization, r.config.MinVisualizations-counts.Visualizations, counts.Visualizations)
	fill(models.CategoryScorecard, r.config.MinScorecards-counts.Scorecards, counts.Scorecards)

	return append(items, synthesized...), adjustments
}

// trimScorecards drops the lowest-scoring scorecards above the maximum.
// The minimum wins when the two conflict.
func (r *SetRebalancer) trimScorecards(items []*models.ScoredRecommendation) ([]*models.ScoredRecommendation, models.Adjustment, bool) {
	if r.config.MaxScorecards <= 0 {
		return items, models.Adjustment{}, false
	}

	var cards []int
	for i, item := range items {
		if item.Category == models.CategoryScorecard {
			cards = append(cards, i)
		}
	}
	limit := max(r.config.MaxScorecards, r.config.MinScorecards)
	excess := len(cards) - limit
	if excess <= 0 {
		return items, models.Adjustment{}, false
	}

	// Lowest score first; among equals the later-ranked item goes first.
	sort.SliceStable(cards, func(a, b int) bool {
		sa, sb := items[cards[a]].QualityScore, items[cards[b]].QualityScore
		if sa != sb {
			return sa < sb
		}
		return cards[a] > cards[b]
	})

	drop := make(map[int]bool, excess)
	removed := make([]string, 0, excess)
	for _, idx := range cards[:excess] {
		drop[idx] = true
		removed = append(removed, items[idx].ID)
	}

	kept := make([]*models.ScoredRecommendation, 0, len(items)-excess)
	for i, item := range items {
		if !drop[i] {
			kept = append(kept, item)
		}
	}

	adj := models.Adjustment{
		Category: models.CategoryScorecard,
		Kind:     models.AdjustmentOverflow,
		Before:   len(cards),
		After:    len(cards) - excess,
		Removed:  removed,
	}
	r.logger.Info("Trimmed scorecard overflow",
		zap.Int("before", adj.Before),
		zap.Int("after", adj.After),
		zap.Strings("removed", removed))
	return kept, adj, true
}

// synthesize draws up to need valid candidates from the fallback pool.
// Candidates already covered by an item are skipped on the first pass; once
// the pool is exhausted it is cycled with numbered titles.
func (r *SetRebalancer) synthesize(
	category models.Category,
	need int,
	covered map[string]bool,
	floors map[models.Category]float64,
) []*models.ScoredRecommendation {
	pool := r.generator.Candidates(category)
	if len(pool) == 0 {
		r.logger.Warn("No fallback candidates available",
			zap.String("category", string(category)),
			zap.Int("needed", need))
		return nil
	}

	floor, hasFloor := floors[category]
	added := make([]*models.ScoredRecommendation, 0, need)
	for pass := 1; len(added) < need; pass++ {
		progressed := false
		for _, candidate := range pool {
			if len(added) == need {
				break
			}
			rec := r.generator.Numbered(candidate, pass)
			outcome := r.validator.Validate(rec)
			if !outcome.IsValid() {
				r.logger.Warn("Fallback candidate failed validation",
					zap.String("title", rec.Title),
					zap.String("chart_kind", rec.ChartKind),
					zap.Any("issues", outcome.Blocking))
				continue
			}
			key := coverageKey(outcome.Mapping)
			if pass == 1 && covered[key] {
				continue
			}
			covered[key] = true

			scored := r.scorer.Score(rec, outcome)
			scored.Synthesized = true
			if hasFloor && scored.QualityScore >= floor {
				scored.QualityScore = math.Max(0, round1(floor-0.1))
			}
			added = append(added, scored)
			progressed = true
		}
		if !progressed && pass > 1 {
			r.logger.Warn("Fallback pool cannot satisfy category minimum",
				zap.String("category", string(category)),
				zap.Int("needed", need),
				zap.Int("added", len(added)))
			break
		}
	}
	return added
}
