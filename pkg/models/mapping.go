package models

import (
	"github.com/ekaya-inc/ekaya-charts/pkg/matcher"
)

// ColumnRef is a column reference inside a normalized mapping.
// Resolved references carry the dataset's canonical column name. Unresolved
// references keep the text the model produced so the caller can substitute a
// default.
type ColumnRef struct {
	Name        string       `json:"name"`
	Original    string       `json:"original,omitempty"`
	Resolved    bool         `json:"resolved"`
	Tier        matcher.Tier `json:"tier,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// Aggregation is the reduction applied to a measure column.
type Aggregation string

const (
	AggregationSum      Aggregation = "sum"
	AggregationAvg      Aggregation = "avg"
	AggregationCount    Aggregation = "count"
	AggregationMin      Aggregation = "min"
	AggregationMax      Aggregation = "max"
	AggregationDistinct Aggregation = "distinct"
)

// SortDirection orders rows or bars.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Granularity is the time bucket of a trend chart.
type Granularity string

const (
	GranularityDay     Granularity = "day"
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// NumberFormat is the display format of a scorecard value.
type NumberFormat string

const (
	NumberFormatNumber   NumberFormat = "number"
	NumberFormatCurrency NumberFormat = "currency"
	NumberFormatPercent  NumberFormat = "percent"
)

// Mapping is the chart-kind-specific set of field-to-column assignments.
// The concrete types below are the only implementations.
type Mapping interface {
	// Kind returns the chart kind the mapping was built for.
	Kind() ChartKind
	// ColumnRefs returns every column reference, in field order.
	ColumnRefs() []ColumnRef
	isMapping()
}

// ScorecardMapping is a single-value summary. Either Metric or Formula is set.
type ScorecardMapping struct {
	Metric      *ColumnRef   `json:"metric,omitempty"`
	Formula     string       `json:"formula,omitempty"`
	Aggregation Aggregation  `json:"aggregation,omitempty"`
	Label       string       `json:"label,omitempty"`
	Comparison  *ColumnRef   `json:"comparison,omitempty"`
	Format      NumberFormat `json:"format,omitempty"`
}

// GaugeMapping is a single value against a range.
type GaugeMapping struct {
	Metric      ColumnRef   `json:"metric"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
	Min         *float64    `json:"min,omitempty"`
	Max         *float64    `json:"max,omitempty"`
	Target      *float64    `json:"target,omitempty"`
}

// BarMapping covers vertical and horizontal bar charts.
type BarMapping struct {
	ChartKind   ChartKind     `json:"-"`
	X           ColumnRef     `json:"x"`
	Y           ColumnRef     `json:"y"`
	Category    *ColumnRef    `json:"category,omitempty"`
	Aggregation Aggregation   `json:"aggregation,omitempty"`
	Sort        SortDirection `json:"sort,omitempty"`
	Limit       int           `json:"limit,omitempty"`
}

// StackedBarMapping is a bar chart whose bars are split by Category.
type StackedBarMapping struct {
	X           ColumnRef   `json:"x"`
	Y           ColumnRef   `json:"y"`
	Category    ColumnRef   `json:"category"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
}

// LineMapping covers line and area trend charts.
type LineMapping struct {
	ChartKind   ChartKind   `json:"-"`
	X           ColumnRef   `json:"x"`
	Y           ColumnRef   `json:"y"`
	Category    *ColumnRef  `json:"category,omitempty"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
	Granularity Granularity `json:"granularity,omitempty"`
}

// PieMapping covers pie and donut proportion charts.
type PieMapping struct {
	ChartKind   ChartKind   `json:"-"`
	Category    ColumnRef   `json:"category"`
	Value       *ColumnRef  `json:"value,omitempty"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
	Limit       int         `json:"limit,omitempty"`
}

// ScatterMapping is a two-measure correlation chart.
type ScatterMapping struct {
	X        ColumnRef  `json:"x"`
	Y        ColumnRef  `json:"y"`
	Category *ColumnRef `json:"category,omitempty"`
	Size     *ColumnRef `json:"size,omitempty"`
}

// BubbleMapping is a scatter chart with a required size measure.
type BubbleMapping struct {
	X        ColumnRef  `json:"x"`
	Y        ColumnRef  `json:"y"`
	Size     ColumnRef  `json:"size"`
	Category *ColumnRef `json:"category,omitempty"`
}

// HistogramMapping is the distribution of a single column.
type HistogramMapping struct {
	X    ColumnRef `json:"x"`
	Bins int       `json:"bins,omitempty"`
}

// HeatmapMapping is a two-dimensional matrix.
type HeatmapMapping struct {
	X           ColumnRef   `json:"x"`
	Y           ColumnRef   `json:"y"`
	Value       *ColumnRef  `json:"value,omitempty"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
}

// TreemapMapping is a nested proportion chart over one or more levels.
type TreemapMapping struct {
	Hierarchy   []ColumnRef `json:"hierarchy"`
	Value       *ColumnRef  `json:"value,omitempty"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
}

// FunnelMapping is an ordered stage chart.
type FunnelMapping struct {
	Stage       ColumnRef   `json:"stage"`
	Value       *ColumnRef  `json:"value,omitempty"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
}

// TableMapping is a tabular listing of columns.
type TableMapping struct {
	Columns       []ColumnRef   `json:"columns"`
	SortBy        *ColumnRef    `json:"sort_by,omitempty"`
	SortDirection SortDirection `json:"sort_direction,omitempty"`
	Limit         int           `json:"limit,omitempty"`
}

func (ScorecardMapping) isMapping()  {}
func (GaugeMapping) isMapping()      {}
func (BarMapping) isMapping()        {}
func (StackedBarMapping) isMapping() {}
func (LineMapping) isMapping()       {}
func (PieMapping) isMapping()        {}
func (ScatterMapping) isMapping()    {}
func (BubbleMapping) isMapping()     {}
func (HistogramMapping) isMapping()  {}
func (HeatmapMapping) isMapping()    {}
func (TreemapMapping) isMapping()    {}
func (FunnelMapping) isMapping()     {}
func (TableMapping) isMapping()      {}

func (ScorecardMapping) Kind() ChartKind  { return ChartKindScorecard }
func (GaugeMapping) Kind() ChartKind      { return ChartKindGauge }
func (m BarMapping) Kind() ChartKind      { return m.ChartKind }
func (StackedBarMapping) Kind() ChartKind { return ChartKindStackedBar }
func (m LineMapping) Kind() ChartKind     { return m.ChartKind }
func (m PieMapping) Kind() ChartKind      { return m.ChartKind }
func (ScatterMapping) Kind() ChartKind    { return ChartKindScatter }
func (BubbleMapping) Kind() ChartKind     { return ChartKindBubble }
func (HistogramMapping) Kind() ChartKind  { return ChartKindHistogram }
func (HeatmapMapping) Kind() ChartKind    { return ChartKindHeatmap }
func (TreemapMapping) Kind() ChartKind    { return ChartKindTreemap }
func (FunnelMapping) Kind() ChartKind     { return ChartKindFunnel }
func (TableMapping) Kind() ChartKind      { return ChartKindTable }

func (m ScorecardMapping) ColumnRefs() []ColumnRef {
	return refs(m.Metric, m.Comparison)
}

func (m GaugeMapping) ColumnRefs() []ColumnRef {
	return []ColumnRef{m.Metric}
}

func (m BarMapping) ColumnRefs() []ColumnRef {
	return append([]ColumnRef{m.X, m.Y}, refs(m.Category)...)
}

func (m StackedBarMapping) ColumnRefs() []ColumnRef {
	return []ColumnRef{m.X, m.Y, m.Category}
}

func (m LineMapping) ColumnRefs() []ColumnRef {
	return append([]ColumnRef{m.X, m.Y}, refs(m.Category)...)
}

func (m PieMapping) ColumnRefs() []ColumnRef {
	return append([]ColumnRef{m.Category}, refs(m.Value)...)
}

func (m ScatterMapping) ColumnRefs() []ColumnRef {
	return append([]ColumnRef{m.X, m.Y}, refs(m.Category, m.Size)...)
}

func (m BubbleMapping) ColumnRefs() []ColumnRef {
	return append([]ColumnRef{m.X, m.Y, m.Size}, refs(m.Category)...)
}

func (m HistogramMapping) ColumnRefs() []ColumnRef {
	return []ColumnRef{m.X}
}

func (m HeatmapMapping) ColumnRefs() []ColumnRef {
	return append([]ColumnRef{m.X, m.Y}, refs(m.Value)...)
}

func (m TreemapMapping) ColumnRefs() []ColumnRef {
	out := append([]ColumnRef{}, m.Hierarchy...)
	return append(out, refs(m.Value)...)
}

func (m FunnelMapping) ColumnRefs() []ColumnRef {
	return append([]ColumnRef{m.Stage}, refs(m.Value)...)
}

func (m TableMapping) ColumnRefs() []ColumnRef {
	out := append([]ColumnRef{}, m.Columns...)
	return append(out, refs(m.SortBy)...)
}

func refs(optional ...*ColumnRef) []ColumnRef {
	var out []ColumnRef
	for _, r := range optional {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// DistinctColumns returns the distinct column names a mapping references,
// in first-use order.
func DistinctColumns(m Mapping) []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, ref := range m.ColumnRefs() {
		if ref.Name == "" || seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		out = append(out, ref.Name)
	}
	return out
}
