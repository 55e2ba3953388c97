package models

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
)

// ============================================================================
// Chart Kinds
// ============================================================================

// ChartKind identifies the visualization family of a recommendation.
type ChartKind string

const (
	ChartKindScorecard     ChartKind = "scorecard"
	ChartKindGauge         ChartKind = "gauge"
	ChartKindBar           ChartKind = "bar"
	ChartKindHorizontalBar ChartKind = "horizontal_bar"
	ChartKindStackedBar    ChartKind = "stacked_bar"
	ChartKindLine          ChartKind = "line"
	ChartKindArea          ChartKind = "area"
	ChartKindPie           ChartKind = "pie"
	ChartKindDonut         ChartKind = "donut"
	ChartKindScatter       ChartKind = "scatter"
	ChartKindBubble        ChartKind = "bubble"
	ChartKindHistogram     ChartKind = "histogram"
	ChartKindHeatmap       ChartKind = "heatmap"
	ChartKindTreemap       ChartKind = "treemap"
	ChartKindFunnel        ChartKind = "funnel"
	ChartKindTable         ChartKind = "table"
)

// ValidChartKinds contains every chart kind, in display order.
var ValidChartKinds = []ChartKind{
	ChartKindScorecard,
	ChartKindGauge,
	ChartKindBar,
	ChartKindHorizontalBar,
	ChartKindStackedBar,
	ChartKindLine,
	ChartKindArea,
	ChartKindPie,
	ChartKindDonut,
	ChartKindScatter,
	ChartKindBubble,
	ChartKindHistogram,
	ChartKindHeatmap,
	ChartKindTreemap,
	ChartKindFunnel,
	ChartKindTable,
}

// chartKindSynonyms maps names models commonly emit onto the closed set.
// Keys are lowercase with separators removed.
var chartKindSynonyms = map[string]ChartKind{
	"scorecard":      ChartKindScorecard,
	"kpi":            ChartKindScorecard,
	"kpicard":        ChartKindScorecard,
	"metric":         ChartKindScorecard,
	"metriccard":     ChartKindScorecard,
	"singlevalue":    ChartKindScorecard,
	"bignumber":      ChartKindScorecard,
	"stat":           ChartKindScorecard,
	"gauge":          ChartKindGauge,
	"dial":           ChartKindGauge,
	"bar":            ChartKindBar,
	"barchart":       ChartKindBar,
	"column":         ChartKindBar,
	"columnchart":    ChartKindBar,
	"verticalbar":    ChartKindBar,
	"horizontalbar":  ChartKindHorizontalBar,
	"barhorizontal":  ChartKindHorizontalBar,
	"hbar":           ChartKindHorizontalBar,
	"stackedbar":     ChartKindStackedBar,
	"stackedcolumn":  ChartKindStackedBar,
	"line":           ChartKindLine,
	"linechart":      ChartKindLine,
	"timeseries":     ChartKindLine,
	"trend":          ChartKindLine,
	"area":           ChartKindArea,
	"areachart":      ChartKindArea,
	"pie":            ChartKindPie,
	"piechart":       ChartKindPie,
	"donut":          ChartKindDonut,
	"doughnut":       ChartKindDonut,
	"scatter":        ChartKindScatter,
	"scatterplot":    ChartKindScatter,
	"bubble":         ChartKindBubble,
	"bubblechart":    ChartKindBubble,
	"histogram":      ChartKindHistogram,
	"distribution":   ChartKindHistogram,
	"heatmap":        ChartKindHeatmap,
	"treemap":        ChartKindTreemap,
	"funnel":         ChartKindFunnel,
	"table":          ChartKindTable,
	"datatable":      ChartKindTable,
	"grid":           ChartKindTable,
	"pivottable":     ChartKindTable,
	"tableview":      ChartKindTable,
	"summarytable":   ChartKindTable,
	"scorecardchart": ChartKindScorecard,
}

// ParseChartKind maps a free-text chart type onto the closed enum.
func ParseChartKind(s string) (ChartKind, error) {
	key := FoldKey(s)
	if kind, ok := chartKindSynonyms[key]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownChartKind, s)
}

// FoldKey lowercases s and drops everything except ASCII letters and digits.
// Used for chart kinds and mapping field names.
func FoldKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ============================================================================
// Categories
// ============================================================================

// Category groups chart kinds for set-level quota enforcement.
type Category string

const (
	CategoryScorecard     Category = "scorecard"
	CategoryVisualization Category = "visualization"
	CategoryTable         Category = "table"
)

// Category returns the quota category of the chart kind.
func (k ChartKind) Category() Category {
	switch k {
	case ChartKindScorecard, ChartKindGauge:
		return CategoryScorecard
	case ChartKindTable:
		return CategoryTable
	default:
		return CategoryVisualization
	}
}

// ============================================================================
// Priority
// ============================================================================

// Priority is the bucket derived from the model's declared confidence.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities: high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// NormalizeConfidence brings a declared confidence onto [0, 1].
// Models report either fractions or percentages.
func NormalizeConfidence(c float64) float64 {
	if c > 1 {
		c = c / 100
	}
	return clamp(c, 0, 1)
}

// PriorityFromConfidence buckets a declared confidence.
func PriorityFromConfidence(c float64) Priority {
	c = NormalizeConfidence(c)
	switch {
	case c >= 0.8:
		return PriorityHigh
	case c >= 0.5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ============================================================================
// Raw Recommendations
// ============================================================================

// LegacyAxes holds the positional axis fields older model responses use
// instead of a field mapping.
type LegacyAxes struct {
	XAxis       string   `json:"x_axis,omitempty"`
	YAxis       string   `json:"y_axis,omitempty"`
	ZAxis       string   `json:"z_axis,omitempty"`
	GroupBy     string   `json:"group_by,omitempty"`
	Metric      string   `json:"metric,omitempty"`
	Aggregation string   `json:"aggregation,omitempty"`
	Columns     []string `json:"columns,omitempty"`
}

// IsEmpty reports whether no legacy field is set.
func (l LegacyAxes) IsEmpty() bool {
	return l.XAxis == "" && l.YAxis == "" && l.ZAxis == "" && l.GroupBy == "" &&
		l.Metric == "" && l.Aggregation == "" && len(l.Columns) == 0
}

// RawRecommendation is one chart proposal as decoded from model output.
// Nothing in it is trusted.
type RawRecommendation struct {
	ID                 string         `json:"id,omitempty"`
	ChartKind          string         `json:"chart_kind"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	FieldMapping       map[string]any `json:"field_mapping,omitempty"`
	Legacy             LegacyAxes     `json:"legacy,omitempty"`
	DeclaredConfidence float64        `json:"declared_confidence"`
	Reasoning          string         `json:"reasoning,omitempty"`
}
