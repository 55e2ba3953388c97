package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

// recommendationNamespace seeds the deterministic IDs of generated and
// ID-less recommendations.
var recommendationNamespace = uuid.MustParse("6f1c2a4e-8d3b-5e7f-9a0b-1c2d3e4f5a6b")

// RecommendationID derives a stable ID from the given parts.
func RecommendationID(parts ...string) string {
	return uuid.NewSHA1(recommendationNamespace, []byte(strings.Join(parts, "\x1f"))).String()
}

const (
	maxTableColumns     = 6
	maxDonutCardinality = 8
	topTableLimit       = 20
)

// FallbackGenerator proposes schema-derived recommendations used to fill
// category quotas. Output depends only on the schema, so repeated calls
// produce identical candidates.
type FallbackGenerator struct {
	titler cases.Caser
	logger *zap.Logger
	// named holds the column names a mapping can reference, in schema order.
	// Blank names never resolve, so they are left out everywhere.
	named   []string
	numeric []models.ColumnDescriptor
	dims    []models.ColumnDescriptor
	dates   []models.ColumnDescriptor
}

// NewFallbackGenerator creates a generator for one dataset.
func NewFallbackGenerator(schema *models.DatasetSchema, logger *zap.Logger) *FallbackGenerator {
	g := &FallbackGenerator{
		titler: cases.Title(language.English, cases.NoLower),
		logger: logger.Named("fallback-generator"),
	}
	for _, col := range schema.Columns {
		if strings.TrimSpace(col.Name) == "" {
			continue
		}
		g.named = append(g.named, col.Name)
		switch col.InferredType {
		case models.InferredTypeNumber:
			g.numeric = append(g.numeric, col)
		case models.InferredTypeDate:
			g.dates = append(g.dates, col)
		case models.InferredTypeCategorical, models.InferredTypeBoolean:
			g.dims = append(g.dims, col)
		}
	}
	return g
}

// Candidates returns the candidate pool for a category, best first.
// The pool is empty only when no column has a usable name.
func (g *FallbackGenerator) Candidates(category models.Category) []*models.RawRecommendation {
	if len(g.named) == 0 {
		return nil
	}
	var out []*models.RawRecommendation
	switch category {
	case models.CategoryScorecard:
		out = g.scorecards()
	case models.CategoryTable:
		out = g.tables()
	default:
		out = g.visualizations()
	}
	g.logger.Debug("Generated fallback candidates",
		zap.String("category", string(category)),
		zap.Int("count", len(out)))
	return out
}

func (g *FallbackGenerator) scorecards() []*models.RawRecommendation {
	var out []*models.RawRecommendation
	for _, col := range g.numeric {
		out = append(out, g.candidate(models.ChartKindScorecard, "Total "+g.label(col.Name),
			"Sum of "+col.Name+" across all rows.",
			map[string]any{"metric": col.Name, "aggregation": string(models.AggregationSum), "format": string(models.NumberFormatNumber)}))
	}
	for _, col := range g.numeric {
		out = append(out, g.candidate(models.ChartKindScorecard, "Average "+g.label(col.Name),
			"Mean of "+col.Name+" per row.",
			map[string]any{"metric": col.Name, "aggregation": string(models.AggregationAvg)}))
	}
	for _, col := range g.dims {
		out = append(out, g.candidate(models.ChartKindScorecard, "Distinct "+g.plural(col.Name),
			"Number of distinct "+col.Name+" values.",
			map[string]any{"metric": col.Name, "aggregation": string(models.AggregationDistinct)}))
	}
	first := g.named[0]
	out = append(out, g.candidate(models.ChartKindScorecard, "Record Count",
		"Number of rows in the dataset.",
		map[string]any{"metric": first, "aggregation": string(models.AggregationCount)}))
	return out
}

func (g *FallbackGenerator) visualizations() []*models.RawRecommendation {
	var out []*models.RawRecommendation
	for _, date := range g.dates {
		for _, num := range g.numeric {
			out = append(out, g.candidate(models.ChartKindLine, g.label(num.Name)+" Trend by "+g.label(date.Name),
				"Trend of "+num.Name+" by "+date.Name+".",
				map[string]any{"x": date.Name, "y": num.Name, "aggregation": string(models.AggregationSum), "granularity": string(models.GranularityMonth)}))
		}
	}
	for _, dim := range g.dims {
		for _, num := range g.numeric {
			out = append(out, g.candidate(models.ChartKindBar, g.label(num.Name)+" by "+g.label(dim.Name),
				"Ranking of "+dim.Name+" by total "+num.Name+".",
				map[string]any{"x": dim.Name, "y": num.Name, "aggregation": string(models.AggregationSum), "sort": string(models.SortDesc), "limit": float64(topTableLimit)}))
		}
	}
	for _, dim := range g.dims {
		kind := models.ChartKindBar
		if dim.Cardinality > 0 && dim.Cardinality <= maxDonutCardinality {
			kind = models.ChartKindDonut
		}
		mapping := map[string]any{"aggregation": string(models.AggregationCount)}
		if kind == models.ChartKindDonut {
			mapping["category"] = dim.Name
		} else {
			mapping["x"], mapping["y"] = dim.Name, dim.Name
		}
		out = append(out, g.candidate(kind, "Rows by "+g.label(dim.Name),
			"Share of rows per "+dim.Name+".", mapping))
	}
	for i := 0; i < len(g.numeric); i++ {
		for j := i + 1; j < len(g.numeric); j++ {
			x, y := g.numeric[i], g.numeric[j]
			out = append(out, g.candidate(models.ChartKindScatter, g.label(y.Name)+" vs "+g.label(x.Name),
				"Relationship between "+x.Name+" and "+y.Name+".",
				map[string]any{"x": x.Name, "y": y.Name}))
		}
	}
	for _, num := range g.numeric {
		out = append(out, g.candidate(models.ChartKindHistogram, "Distribution of "+g.label(num.Name),
			"Spread of "+num.Name+" values.",
			map[string]any{"x": num.Name, "bins": float64(20)}))
	}
	if len(out) > 0 {
		return out
	}
	// No typed columns: a row count per value of the first column.
	first := g.named[0]
	out = append(out, g.candidate(models.ChartKindBar, "Rows by "+g.label(first),
		"Number of rows per "+first+".",
		map[string]any{"x": first, "y": first, "aggregation": string(models.AggregationCount), "limit": float64(topTableLimit)}))
	return out
}

func (g *FallbackGenerator) tables() []*models.RawRecommendation {
	overview := g.named[:min(len(g.named), maxTableColumns)]
	out := []*models.RawRecommendation{
		g.candidate(models.ChartKindTable, "Data Overview",
			"The first rows of the dataset.",
			map[string]any{"columns": toAnySlice(overview)}),
	}
	for _, num := range g.numeric {
		cols := []string{num.Name}
		for _, name := range overview {
			if name != num.Name && len(cols) < maxTableColumns {
				cols = append(cols, name)
			}
		}
		out = append(out, g.candidate(models.ChartKindTable, "Top Rows by "+g.label(num.Name),
			"Rows with the highest "+num.Name+".",
			map[string]any{"columns": toAnySlice(cols), "sort_by": num.Name, "sort_direction": string(models.SortDesc), "limit": float64(topTableLimit)}))
	}
	return out
}

func (g *FallbackGenerator) candidate(kind models.ChartKind, title, description string, mapping map[string]any) *models.RawRecommendation {
	return &models.RawRecommendation{
		ID:                 RecommendationID("fallback", string(kind), title),
		ChartKind:          string(kind),
		Title:              title,
		Description:        description,
		FieldMapping:       mapping,
		DeclaredConfidence: 0.5,
		Reasoning:          "Generated from the dataset schema to complete the recommendation set.",
	}
}

// Numbered returns a copy of rec for the given pass over an exhausted pool.
// Pass 1 is the original.
func (g *FallbackGenerator) Numbered(rec *models.RawRecommendation, pass int) *models.RawRecommendation {
	if pass <= 1 {
		return rec
	}
	out := *rec
	out.FieldMapping = make(map[string]any, len(rec.FieldMapping))
	for k, v := range rec.FieldMapping {
		out.FieldMapping[k] = v
	}
	out.Title = fmt.Sprintf("%s (%d)", rec.Title, pass)
	out.ID = RecommendationID("fallback", rec.ChartKind, out.Title)
	return &out
}

// label turns a column name into title case words.
func (g *FallbackGenerator) label(name string) string {
	words := nameTokensPreservingCase(name)
	if len(words) == 0 {
		return name
	}
	return g.titler.String(strings.Join(words, " "))
}

func (g *FallbackGenerator) plural(name string) string {
	words := nameTokensPreservingCase(name)
	if len(words) == 0 {
		return name
	}
	words[len(words)-1] = inflection.Plural(words[len(words)-1])
	return g.titler.String(strings.Join(words, " "))
}

// nameTokensPreservingCase splits on separators only.
func nameTokensPreservingCase(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
}

// coverageKey identifies what a recommendation shows: its kind, aggregation
// and columns. A missing aggregation means sum.
func coverageKey(mapping models.Mapping) string {
	columns := slices.Clone(models.DistinctColumns(mapping))
	slices.Sort(columns)
	agg := aggregationOf(mapping)
	if agg == "" {
		agg = models.AggregationSum
	}
	return string(mapping.Kind()) + ":" + string(agg) + ":" + strings.Join(columns, "\x1f")
}

func aggregationOf(mapping models.Mapping) models.Aggregation {
	switch m := mapping.(type) {
	case models.ScorecardMapping:
		return m.Aggregation
	case models.GaugeMapping:
		return m.Aggregation
	case models.BarMapping:
		return m.Aggregation
	case models.StackedBarMapping:
		return m.Aggregation
	case models.LineMapping:
		return m.Aggregation
	case models.PieMapping:
		return m.Aggregation
	case models.HeatmapMapping:
		return m.Aggregation
	case models.TreemapMapping:
		return m.Aggregation
	case models.FunnelMapping:
		return m.Aggregation
	}
	return ""
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
