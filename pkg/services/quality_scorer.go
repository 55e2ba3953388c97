package services

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-charts/pkg/matcher"
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

// ScoringConfig holds the maximum contribution of each quality factor.
type ScoringConfig struct {
	DataTypeMatchCap       float64
	ColumnConfidenceCap    float64
	UserCorrectionBoostCap float64
	ClarityCap             float64
}

// DefaultScoringConfig returns the standard 40/30/20/10 split.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		DataTypeMatchCap:       40,
		ColumnConfidenceCap:    30,
		UserCorrectionBoostCap: 20,
		ClarityCap:             10,
	}
}

const (
	// Share of the confidence cap earned by the average confidence, and the
	// bonus share paid when every referenced column is above the threshold.
	confidenceAverageShare = 25.0 / 30.0
	confidenceBonusShare   = 5.0 / 30.0
	confidenceBonusFloor   = 80.0

	singleCorrectionShare = 15.0 / 20.0

	maxPieCategories = 12
	maxBarCategories = 50
)

// QualityScorer assigns a quality score to validated recommendations.
type QualityScorer interface {
	// Score turns a validated recommendation into a scored one. The outcome
	// must be valid.
	Score(rec *models.RawRecommendation, outcome *models.ValidationOutcome) *models.ScoredRecommendation
}

type qualityScorer struct {
	config ScoringConfig
	// columns is keyed by canonical column name with corrections applied.
	columns   map[string]scoredColumn
	corrected map[string]bool
	logger    *zap.Logger
}

type scoredColumn struct {
	Type        models.InferredType
	Confidence  float64
	Cardinality int
	Name        string
}

// NewQualityScorer creates a scorer for one dataset. Corrections are resolved
// through the column index so they apply to the canonical column even when
// the user typed the name loosely; unmatched corrections are ignored.
func NewQualityScorer(
	schema *models.DatasetSchema,
	index *matcher.Index,
	corrections []models.UserCorrection,
	config ScoringConfig,
	logger *zap.Logger,
) QualityScorer {
	s := &qualityScorer{
		config:    config,
		columns:   make(map[string]scoredColumn, len(schema.Columns)),
		corrected: make(map[string]bool),
		logger:    logger.Named("quality-scorer"),
	}

	for i := range schema.Columns {
		col := &schema.Columns[i]
		if _, seen := s.columns[col.Name]; seen {
			continue
		}
		s.columns[col.Name] = scoredColumn{
			Name:        col.Name,
			Type:        col.InferredType,
			Confidence:  col.EffectiveConfidence(),
			Cardinality: col.Cardinality,
		}
	}

	for _, correction := range corrections {
		res := index.Resolve(correction.Name)
		if !res.Resolved() {
			s.logger.Warn("User correction names an unknown column; ignoring",
				zap.String("column", correction.Name),
				zap.Strings("suggestions", res.SuggestionNames()))
			continue
		}
		col := s.columns[res.Match]
		switch {
		case correction.CorrectedType == "":
		case models.IsValidInferredType(correction.CorrectedType):
			col.Type = correction.CorrectedType
		default:
			s.logger.Warn("User correction has an unknown type; keeping inferred type",
				zap.String("column", res.Match),
				zap.String("corrected_type", string(correction.CorrectedType)))
		}
		col.Confidence = models.UserCorrectionConfidence
		s.columns[res.Match] = col
		s.corrected[res.Match] = true
	}

	return s
}

var _ QualityScorer = (*qualityScorer)(nil)

func (s *qualityScorer) Score(rec *models.RawRecommendation, outcome *models.ValidationOutcome) *models.ScoredRecommendation {
	mapping := outcome.Mapping
	kind := mapping.Kind()

	factors := models.FactorBreakdown{
		DataTypeMatch:       round1(s.config.DataTypeMatchCap * s.dataTypeFraction(mapping)),
		ColumnConfidence:    round1(s.config.ColumnConfidenceCap * s.confidenceFraction(mapping)),
		UserCorrectionBoost: round1(s.config.UserCorrectionBoostCap * s.correctionFraction(mapping)),
		Clarity:             round1(s.config.ClarityCap * clarityFraction(mapping)),
	}
	score := round1(math.Max(0, math.Min(100, factors.Total())))

	s.logger.Debug("Scored recommendation",
		zap.String("id", rec.ID),
		zap.String("chart_kind", string(kind)),
		zap.Float64("score", score),
		zap.Float64("data_type_match", factors.DataTypeMatch),
		zap.Float64("column_confidence", factors.ColumnConfidence),
		zap.Float64("user_correction_boost", factors.UserCorrectionBoost),
		zap.Float64("clarity", factors.Clarity))

	return &models.ScoredRecommendation{
		ID:                 rec.ID,
		ChartKind:          kind,
		Category:           kind.Category(),
		Title:              rec.Title,
		Description:        rec.Description,
		Reasoning:          rec.Reasoning,
		DeclaredConfidence: models.NormalizeConfidence(rec.DeclaredConfidence),
		Priority:           models.PriorityFromConfidence(rec.DeclaredConfidence),
		Mapping:            mapping,
		QualityScore:       score,
		Factors:            factors,
		Advisories:         outcome.Advisory,
	}
}

// column looks up a reference. Unresolved references yield ok=false.
func (s *qualityScorer) column(ref *models.ColumnRef) (scoredColumn, bool) {
	if ref == nil || !ref.Resolved {
		return scoredColumn{}, false
	}
	col, ok := s.columns[ref.Name]
	return col, ok
}

func (s *qualityScorer) isNumeric(ref *models.ColumnRef) bool {
	col, ok := s.column(ref)
	return ok && col.Type == models.InferredTypeNumber
}

func (s *qualityScorer) isTemporal(ref *models.ColumnRef) bool {
	col, ok := s.column(ref)
	return ok && col.Type == models.InferredTypeDate
}

// dimensionFit rates a column used to group or label data.
func (s *qualityScorer) dimensionFit(ref *models.ColumnRef) float64 {
	col, ok := s.column(ref)
	if !ok {
		return 0
	}
	switch col.Type {
	case models.InferredTypeCategorical, models.InferredTypeBoolean:
		return 1.0
	case models.InferredTypeDate:
		return 0.8
	case models.InferredTypeString:
		return 0.7
	default:
		return 0.4
	}
}

// measureFit rates a column used as the measured value. Counting works on
// any column; a missing measure means a row count.
func (s *qualityScorer) measureFit(ref *models.ColumnRef, agg models.Aggregation) float64 {
	if ref == nil {
		return 0.8
	}
	if s.isNumeric(ref) {
		return 1.0
	}
	if _, ok := s.column(ref); ok && (agg == models.AggregationCount || agg == models.AggregationDistinct) {
		return 0.9
	}
	return 0.3
}

func (s *qualityScorer) cardinality(ref *models.ColumnRef) int {
	col, _ := s.column(ref)
	return col.Cardinality
}

// dataTypeFraction applies the per-kind compatibility heuristics.
func (s *qualityScorer) dataTypeFraction(mapping models.Mapping) float64 {
	switch m := mapping.(type) {
	case models.ScorecardMapping:
		switch {
		case s.isNumeric(m.Metric):
			if isMetricName(m.Metric.Name) {
				return 1.0
			}
			return 0.75
		case m.Metric == nil || !m.Metric.Resolved:
			if m.Formula != "" {
				return 0.6
			}
			return 0.35
		case m.Aggregation == models.AggregationCount || m.Aggregation == models.AggregationDistinct:
			return 0.6
		default:
			return 0.35
		}

	case models.GaugeMapping:
		if s.isNumeric(&m.Metric) {
			if m.Max != nil || m.Target != nil {
				return 1.0
			}
			return 0.85
		}
		return 0.35

	case models.BarMapping:
		return s.rankingFit(&m.X, &m.Y, m.Aggregation)

	case models.StackedBarMapping:
		base := s.rankingFit(&m.X, &m.Y, m.Aggregation)
		return (2*base + s.dimensionFit(&m.Category)) / 3

	case models.FunnelMapping:
		return s.rankingFit(&m.Stage, m.Value, m.Aggregation)

	case models.LineMapping:
		switch {
		case s.isTemporal(&m.X) && s.measureFit(&m.Y, m.Aggregation) >= 0.9:
			return 1.0
		case s.isTemporal(&m.X):
			return 0.7
		case s.isNumeric(&m.X) && s.isNumeric(&m.Y):
			return 0.6
		default:
			return 0.3
		}

	case models.PieMapping:
		if s.cardinality(&m.Category) > maxPieCategories {
			return 0.25
		}
		return (s.dimensionFit(&m.Category) + s.measureFit(m.Value, m.Aggregation)) / 2

	case models.ScatterMapping:
		switch countTrue(s.isNumeric(&m.X), s.isNumeric(&m.Y)) {
		case 2:
			return 1.0
		case 1:
			return 0.5
		default:
			return 0.2
		}

	case models.BubbleMapping:
		switch countTrue(s.isNumeric(&m.X), s.isNumeric(&m.Y), s.isNumeric(&m.Size)) {
		case 3:
			return 1.0
		case 2:
			return 0.6
		case 1:
			return 0.3
		default:
			return 0.1
		}

	case models.HistogramMapping:
		switch {
		case s.isNumeric(&m.X):
			return 1.0
		case s.isTemporal(&m.X):
			return 0.5
		default:
			return 0.2
		}

	case models.HeatmapMapping:
		dims := countTrue(s.dimensionFit(&m.X) >= 0.8, s.dimensionFit(&m.Y) >= 0.8)
		fit := 0.3 + 0.35*float64(dims)
		if m.Value != nil && !s.isNumeric(m.Value) {
			fit -= 0.2
		}
		return math.Max(0, fit)

	case models.TreemapMapping:
		if len(m.Hierarchy) == 0 {
			return 0
		}
		var total float64
		for i := range m.Hierarchy {
			total += s.dimensionFit(&m.Hierarchy[i])
		}
		return (total/float64(len(m.Hierarchy)) + s.measureFit(m.Value, m.Aggregation)) / 2

	case models.TableMapping:
		if len(m.Columns) == 0 {
			return 0
		}
		resolved := 0
		for _, ref := range m.Columns {
			if ref.Resolved {
				resolved++
			}
		}
		fit := float64(resolved) / float64(len(m.Columns))
		if len(m.Columns) > 8 {
			fit *= 0.7
		}
		return fit
	}
	return 0
}

// rankingFit scores a dimension-by-measure chart. Very wide dimensions make
// unreadable bars.
func (s *qualityScorer) rankingFit(dim, measure *models.ColumnRef, agg models.Aggregation) float64 {
	fit := (s.dimensionFit(dim) + s.measureFit(measure, agg)) / 2
	if s.cardinality(dim) > maxBarCategories {
		fit *= 0.6
	}
	return fit
}

// confidenceFraction rewards well-typed, complete columns.
func (s *qualityScorer) confidenceFraction(mapping models.Mapping) float64 {
	refs := mapping.ColumnRefs()
	if len(refs) == 0 {
		return 0.5
	}

	var sum float64
	allHigh := true
	for i := range refs {
		var confidence float64
		if col, ok := s.column(&refs[i]); ok {
			confidence = col.Confidence
		}
		sum += confidence
		if confidence <= confidenceBonusFloor {
			allHigh = false
		}
	}

	fraction := (sum / float64(len(refs)) / 100) * confidenceAverageShare
	if allHigh {
		fraction += confidenceBonusShare
	}
	return math.Min(1, fraction)
}

func (s *qualityScorer) correctionFraction(mapping models.Mapping) float64 {
	corrected := 0
	for _, name := range models.DistinctColumns(mapping) {
		if s.corrected[name] {
			corrected++
		}
	}
	switch {
	case corrected >= 2:
		return 1.0
	case corrected == 1:
		return singleCorrectionShare
	default:
		return 0
	}
}

// clarityFraction prefers charts that reference few distinct columns.
func clarityFraction(mapping models.Mapping) float64 {
	switch n := len(models.DistinctColumns(mapping)); {
	case n <= 2:
		return 1.0
	case n <= 4:
		return 0.7
	default:
		return 0.3
	}
}

// RankRecommendations sorts items by quality score, then priority, then
// declared confidence. The sort is stable so equal items keep input order.
func RankRecommendations(items []*models.ScoredRecommendation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.QualityScore != b.QualityScore {
			return a.QualityScore > b.QualityScore
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.DeclaredConfidence > b.DeclaredConfidence
	})
}

func countTrue(values ...bool) int {
	n := 0
	for _, v := range values {
		if v {
			n++
		}
	}
	return n
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
