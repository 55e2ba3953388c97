package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

// twentyCharts returns 17 non-scorecard charts and 3 scorecards.
func twentyCharts() []models.RawRecommendation {
	var recs []models.RawRecommendation
	for _, x := range []string{"Region", "Product"} {
		for _, y := range []string{"Revenue", "Units"} {
			for _, agg := range []string{"sum", "avg", "max", "min"} {
				recs = append(recs, models.RawRecommendation{
					ChartKind:          "bar",
					Title:              agg + " " + y + " by " + x,
					FieldMapping:       map[string]any{"x": x, "y": y, "aggregation": agg},
					DeclaredConfidence: 0.7,
				})
			}
		}
	}
	recs = append(recs, models.RawRecommendation{
		ChartKind:    "table",
		Title:        "Orders",
		FieldMapping: map[string]any{"columns": []any{"Order Date", "Region", "Revenue"}},
	})
	for _, metric := range []string{"Revenue", "Units", "Customer Email"} {
		recs = append(recs, models.RawRecommendation{
			ChartKind:          "scorecard",
			Title:              metric,
			FieldMapping:       map[string]any{"metric": metric, "aggregation": "count"},
			DeclaredConfidence: 85,
		})
	}
	return recs
}

func TestRecommendationPipeline_EmptySchema(t *testing.T) {
	pipeline := NewRecommendationPipeline(DefaultPipelineConfig(), zap.NewNop())

	set, err := pipeline.Run(&RecommendationRequest{
		Recommendations: []models.RawRecommendation{*barRec("Region", "Revenue")},
	})

	assert.Nil(t, set)
	assert.True(t, errors.Is(err, apperrors.ErrSchemaEmpty))
}

func TestRecommendationPipeline_FillsScorecardQuota(t *testing.T) {
	pipeline := NewRecommendationPipeline(DefaultPipelineConfig(), zap.NewNop())
	recs := twentyCharts()
	require.Len(t, recs, 20)

	set, err := pipeline.Run(&RecommendationRequest{Schema: *newSalesSchema(), Recommendations: recs})
	require.NoError(t, err)

	assert.Empty(t, set.Dropped)
	require.Len(t, set.Items, 23)
	assert.Equal(t, 6, set.Counts.Scorecards)
	assert.Equal(t, 17, set.Counts.Visualizations)
	assert.Equal(t, 1, set.Counts.Tables)

	lowestOriginal := 100.0
	var synthesized []*models.ScoredRecommendation
	for _, item := range set.Items {
		if item.Synthesized {
			synthesized = append(synthesized, item)
			continue
		}
		assert.NotEmpty(t, item.ID)
		if item.Category == models.CategoryScorecard {
			lowestOriginal = min(lowestOriginal, item.QualityScore)
		}
	}
	require.Len(t, synthesized, 3)
	for _, item := range synthesized {
		assert.Equal(t, models.CategoryScorecard, item.Category)
		assert.Less(t, item.QualityScore, lowestOriginal)
	}
	assert.Equal(t, synthesized, set.Items[20:], "synthesized items follow the originals")

	for i := 1; i < 20; i++ {
		assert.GreaterOrEqual(t, set.Items[i-1].QualityScore, set.Items[i].QualityScore, "originals are ranked")
	}
}

func TestRecommendationPipeline_DropsStructuralErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	pipeline := NewRecommendationPipeline(DefaultPipelineConfig(), zap.New(core))

	set, err := pipeline.Run(&RecommendationRequest{
		Schema: *newSalesSchema(),
		Recommendations: []models.RawRecommendation{
			*barRec("Region", "Revenue"),
			{ID: "no-metric", ChartKind: "scorecard", Title: "Mystery", FieldMapping: map[string]any{"label": "?"}},
			{ChartKind: "sankey", Title: "Flows"},
		},
	})
	require.NoError(t, err)

	require.Len(t, set.Dropped, 2)
	assert.Equal(t, 1, set.Dropped[0].Index)
	assert.Equal(t, "no-metric", set.Dropped[0].ID)
	assert.Equal(t, models.IssueMissingRequiredField, set.Dropped[0].Issues[0].Code)
	assert.Equal(t, 2, set.Dropped[1].Index)
	assert.NotEmpty(t, set.Dropped[1].ID, "items without an id get one")
	assert.Equal(t, models.IssueUnknownChartKind, set.Dropped[1].Issues[0].Code)

	for _, item := range set.Items {
		assert.NotEqual(t, "no-metric", item.ID)
	}

	dropped := logs.FilterMessage("Dropped recommendation with structural issues").All()
	require.Len(t, dropped, 2)
	assert.Equal(t, "no-metric", dropped[0].ContextMap()["id"])
}

func TestRecommendationPipeline_NoModelOutput(t *testing.T) {
	pipeline := NewRecommendationPipeline(DefaultPipelineConfig(), zap.NewNop())

	set, err := pipeline.Run(&RecommendationRequest{Schema: *newSalesSchema()})
	require.NoError(t, err)

	assert.Equal(t, 6, set.Counts.Scorecards)
	assert.Equal(t, 8, set.Counts.Visualizations)
	assert.Equal(t, 1, set.Counts.Tables)
	assert.Len(t, set.Adjustments, 3)
}

func TestRecommendationPipeline_DeterministicAcrossWorkerCounts(t *testing.T) {
	run := func(workers int) *models.RecommendationSet {
		config := DefaultPipelineConfig()
		config.Workers = workers
		set, err := NewRecommendationPipeline(config, zap.NewNop()).Run(&RecommendationRequest{
			Schema:          *newSalesSchema(),
			Recommendations: twentyCharts(),
		})
		require.NoError(t, err)
		return set
	}

	sequential, parallel := run(1), run(8)

	assert.Equal(t, idsOf(sequential.Items), idsOf(parallel.Items))
	for i := range sequential.Items {
		assert.Equal(t, sequential.Items[i].QualityScore, parallel.Items[i].QualityScore)
	}
}

func TestRecommendationPipeline_AppliesCorrections(t *testing.T) {
	pipeline := NewRecommendationPipeline(PipelineConfig{Scoring: DefaultScoringConfig(), Workers: 2}, zap.NewNop())
	rec := *barRec("Customer Email", "Revenue")
	rec.ID = "emails"

	set, err := pipeline.Run(&RecommendationRequest{
		Schema:          *newSalesSchema(),
		Recommendations: []models.RawRecommendation{rec},
		Corrections: []models.UserCorrection{
			{Name: "customer_email", CorrectedType: models.InferredTypeCategorical, Confidence: 100},
		},
	})
	require.NoError(t, err)

	require.Len(t, set.Items, 1)
	assert.InDelta(t, 15.0, set.Items[0].Factors.UserCorrectionBoost, 0.01)
}

func TestRecommendationPipeline_ResolvesToCanonicalNames(t *testing.T) {
	schema := models.DatasetSchema{Columns: []models.ColumnDescriptor{
		{Name: "Café", InferredType: models.InferredTypeCategorical, Cardinality: 5},
		{Name: "cafe", InferredType: models.InferredTypeCategorical, Cardinality: 5},
		{Name: "Revenue", InferredType: models.InferredTypeNumber},
	}}
	pipeline := NewRecommendationPipeline(PipelineConfig{Scoring: DefaultScoringConfig()}, zap.NewNop())

	set, err := pipeline.Run(&RecommendationRequest{
		Schema:          schema,
		Recommendations: []models.RawRecommendation{*barRec("cafe", "revenue ")},
	})
	require.NoError(t, err)

	require.Len(t, set.Items, 1)
	assert.Equal(t, []string{"Café", "Revenue"}, models.DistinctColumns(set.Items[0].Mapping))
}

func TestRecommendationPipeline_BlankColumnNameStillYieldsTable(t *testing.T) {
	schema := models.DatasetSchema{Columns: []models.ColumnDescriptor{
		{Name: "", InferredType: models.InferredTypeNumber, Cardinality: 50},
		{Name: "Region", InferredType: models.InferredTypeCategorical, Cardinality: 6},
		{Name: "Revenue", InferredType: models.InferredTypeNumber, Cardinality: 400},
	}}
	pipeline := NewRecommendationPipeline(DefaultPipelineConfig(), zap.NewNop())

	set, err := pipeline.Run(&RecommendationRequest{Schema: schema})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, set.Counts.Tables, 1)
	assert.GreaterOrEqual(t, set.Counts.Scorecards, 6)
	assert.GreaterOrEqual(t, set.Counts.Visualizations, 8)
	for _, item := range set.Items {
		assert.NotContains(t, models.DistinctColumns(item.Mapping), "", item.Title)
	}
}
