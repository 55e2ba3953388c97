package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

func TestDecodeRecommendations_WrappedList(t *testing.T) {
	response := "<think>Two numeric columns, one date.</think>\n```json\n" + `{
  "charts": [
    {
      "id": "rev-trend",
      "chart_type": "line",
      "title": "Revenue Over Time",
      "field_mapping": {"x": "Order Date", "y": "Revenue", "aggregation": "sum"},
      "confidence": "92%",
      "reasoning": "Temporal column with a measure."
    },
    {
      "Type": "Pie Chart",
      "Name": "Share by Region",
      "Mapping": "{\"category\": \"Region\", \"limit\": 8}",
      "priority": "medium"
    },
    "not a chart",
    {"title": "Missing kind"}
  ]
}` + "\n```"

	result, err := DecodeRecommendations(response)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Recommendations, 2)

	first := result.Recommendations[0]
	assert.Equal(t, "rev-trend", first.ID)
	assert.Equal(t, "line", first.ChartKind)
	assert.Equal(t, "Revenue Over Time", first.Title)
	assert.Equal(t, "Temporal column with a measure.", first.Reasoning)
	assert.InDelta(t, 0.92, first.DeclaredConfidence, 1e-9)
	assert.Equal(t, map[string]any{"x": "Order Date", "y": "Revenue", "aggregation": "sum"}, first.FieldMapping)
	assert.True(t, first.Legacy.IsEmpty())

	second := result.Recommendations[1]
	assert.Equal(t, "Pie Chart", second.ChartKind)
	assert.Equal(t, "Share by Region", second.Title)
	assert.InDelta(t, 0.6, second.DeclaredConfidence, 1e-9)
	assert.Equal(t, map[string]any{"category": "Region", "limit": float64(8)}, second.FieldMapping)
}

func TestDecodeRecommendations_BareArrayWithLegacyAxes(t *testing.T) {
	response := `[
  {"chartType": "bar", "title": "Units by Product", "x_axis": "Product", "y_axis": "Units", "aggregation": "SUM", "confidence": 0.7},
  {"chart_type": "table", "title": "Orders", "columns": ["Order Date", "Region", 2024]}
]`

	result, err := DecodeRecommendations(response)
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)

	bar := result.Recommendations[0]
	assert.Nil(t, bar.FieldMapping)
	assert.Equal(t, models.LegacyAxes{XAxis: "Product", YAxis: "Units", Aggregation: "SUM"}, bar.Legacy)
	assert.InDelta(t, 0.7, bar.DeclaredConfidence, 1e-9)

	table := result.Recommendations[1]
	assert.Equal(t, []string{"Order Date", "Region", "2024"}, table.Legacy.Columns)
}

func TestDecodeRecommendations_SingleObject(t *testing.T) {
	result, err := DecodeRecommendations(`{"kind": "scorecard", "title": "Total Revenue", "metric": "Revenue"}`)
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "scorecard", result.Recommendations[0].ChartKind)
	assert.Equal(t, "Revenue", result.Recommendations[0].Legacy.Metric)
}

func TestDecodeRecommendations_Errors(t *testing.T) {
	tests := map[string]string{
		"no json":           "Sorry, I cannot help with that.",
		"unrelated object":  `{"status": "ok"}`,
		"scalar payload":    `42`,
		"list key not list": `{"charts": "none"}`,
	}
	for name, response := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := DecodeRecommendations(response)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, apperrors.ErrNoRecommendations)
		})
	}
}

func TestDecodeRecommendation_ObjectValuedKindIsIgnored(t *testing.T) {
	_, err := DecodeRecommendation(json.RawMessage(`{"chart": {"type": "bar"}}`))
	assert.ErrorIs(t, err, apperrors.ErrMalformedRecommendation)

	_, err = DecodeRecommendation(json.RawMessage(`null`))
	assert.ErrorIs(t, err, apperrors.ErrMalformedRecommendation)
}

func TestDecodeRecommendation_ListUnderMappingKeyKeepsColumns(t *testing.T) {
	rec, err := DecodeRecommendation(json.RawMessage(`{"chart_type": "table", "title": "Orders", "fields": ["Region", "Revenue"]}`))
	require.NoError(t, err)

	assert.Nil(t, rec.FieldMapping)
	assert.Equal(t, []string{"Region", "Revenue"}, rec.Legacy.Columns)

	rec, err = DecodeRecommendation(json.RawMessage(`{"chart_type": "table", "fields": ["Region"], "columns": ["Units"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Units"}, rec.Legacy.Columns)
}
