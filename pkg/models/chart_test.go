package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
)

func TestParseChartKind(t *testing.T) {
	tests := map[string]ChartKind{
		"bar":             ChartKindBar,
		"Bar Chart":       ChartKindBar,
		"KPI":             ChartKindScorecard,
		"horizontal-bar":  ChartKindHorizontalBar,
		"stacked_bar":     ChartKindStackedBar,
		"Time Series":     ChartKindLine,
		"doughnut":        ChartKindDonut,
		"Scatter Plot":    ChartKindScatter,
		"  heatmap  ":     ChartKindHeatmap,
		"Data Table":      ChartKindTable,
		"SCORECARD_CHART": ChartKindScorecard,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			got, err := ParseChartKind(input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseChartKind_Unknown(t *testing.T) {
	for _, input := range []string{"sankey", "", "chart"} {
		_, err := ParseChartKind(input)
		assert.ErrorIs(t, err, apperrors.ErrUnknownChartKind, input)
	}
}

func TestParseChartKind_CoversEveryKind(t *testing.T) {
	for _, kind := range ValidChartKinds {
		got, err := ParseChartKind(string(kind))
		require.NoError(t, err, kind)
		assert.Equal(t, kind, got)
	}
}

func TestChartKind_Category(t *testing.T) {
	assert.Equal(t, CategoryScorecard, ChartKindScorecard.Category())
	assert.Equal(t, CategoryScorecard, ChartKindGauge.Category())
	assert.Equal(t, CategoryTable, ChartKindTable.Category())
	assert.Equal(t, CategoryVisualization, ChartKindHeatmap.Category())
	assert.Equal(t, CategoryVisualization, ChartKindBar.Category())
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, "xaxis", FoldKey("X-Axis"))
	assert.Equal(t, "fieldmapping", FoldKey("field_mapping"))
	assert.Equal(t, "yaxis", FoldKey(" Y Axis "))
	assert.Equal(t, "", FoldKey("__"))
}

func TestPriorityFromConfidence(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Priority
	}{
		{0.95, PriorityHigh},
		{0.8, PriorityHigh},
		{0.79, PriorityMedium},
		{0.5, PriorityMedium},
		{0.2, PriorityLow},
		{85, PriorityHigh},
		{-3, PriorityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriorityFromConfidence(tt.confidence), "confidence %v", tt.confidence)
	}
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
}

func TestNormalizeConfidence(t *testing.T) {
	assert.Equal(t, 0.7, NormalizeConfidence(0.7))
	assert.Equal(t, 0.7, NormalizeConfidence(70))
	assert.Equal(t, 1.0, NormalizeConfidence(250))
	assert.Equal(t, 0.0, NormalizeConfidence(-1))
}

func TestDistinctColumns(t *testing.T) {
	m := BarMapping{
		ChartKind: ChartKindBar,
		X:         ColumnRef{Name: "Region", Resolved: true},
		Y:         ColumnRef{Name: "Revenue", Resolved: true},
		Category:  &ColumnRef{Name: "Region", Resolved: true},
	}
	assert.Equal(t, []string{"Region", "Revenue"}, DistinctColumns(m))
	assert.Nil(t, DistinctColumns(nil))

	table := TableMapping{Columns: []ColumnRef{{Name: "A"}, {Name: "B"}}, SortBy: &ColumnRef{Name: "B"}}
	assert.Equal(t, []string{"A", "B"}, DistinctColumns(table))
	assert.Equal(t, ChartKindTable, table.Kind())
}

func TestCountCategories(t *testing.T) {
	items := []*ScoredRecommendation{
		{Category: CategoryScorecard},
		{Category: CategoryScorecard},
		{Category: CategoryVisualization},
		{Category: CategoryTable},
	}
	assert.Equal(t, CategoryCounts{Scorecards: 2, Visualizations: 2, Tables: 1}, CountCategories(items))
}

func TestColumnDescriptor_EffectiveConfidence(t *testing.T) {
	explicit := 140.0
	assert.Equal(t, 100.0, (&ColumnDescriptor{Confidence: &explicit}).EffectiveConfidence())
	assert.Equal(t, 70.0, (&ColumnDescriptor{NullPercentage: 30}).EffectiveConfidence())
}

func TestParseInferredType(t *testing.T) {
	assert.Equal(t, InferredTypeNumber, ParseInferredType("Integer"))
	assert.Equal(t, InferredTypeDate, ParseInferredType("timestamp"))
	assert.Equal(t, InferredTypeCategorical, ParseInferredType("enum"))
	assert.Equal(t, InferredTypeBoolean, ParseInferredType("bool"))
	assert.Equal(t, InferredTypeString, ParseInferredType("geo"))
	assert.True(t, IsValidInferredType(InferredTypeString))
	assert.False(t, IsValidInferredType("geo"))
}
