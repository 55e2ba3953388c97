package services

import (
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-charts/pkg/matcher"
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

func ptrFloat(v float64) *float64 { return &v }

// newSalesSchema is the dataset most service tests run against.
func newSalesSchema() *models.DatasetSchema {
	return &models.DatasetSchema{
		Columns: []models.ColumnDescriptor{
			{Name: "Region", InferredType: models.InferredTypeCategorical, Cardinality: 8, NullPercentage: 0},
			{Name: "Product", InferredType: models.InferredTypeCategorical, Cardinality: 40, NullPercentage: 2},
			{Name: "Revenue", InferredType: models.InferredTypeNumber, Cardinality: 900, NullPercentage: 1, Confidence: ptrFloat(95)},
			{Name: "Units", InferredType: models.InferredTypeNumber, Cardinality: 120, NullPercentage: 10},
			{Name: "Order Date", InferredType: models.InferredTypeDate, Cardinality: 365, NullPercentage: 0},
			{Name: "Customer Email", InferredType: models.InferredTypeString, Cardinality: 1000, NullPercentage: 30},
		},
	}
}

func newTestIndex(schema *models.DatasetSchema) *matcher.Index {
	return matcher.BuildIndex(schema.ColumnNames(), zap.NewNop())
}

func newTestValidator(t *testing.T, schema *models.DatasetSchema) ChartValidator {
	t.Helper()
	return NewChartValidator(newTestIndex(schema), zap.NewNop())
}

func barRec(x, y string) *models.RawRecommendation {
	return &models.RawRecommendation{
		ChartKind:    "bar",
		Title:        y + " by " + x,
		FieldMapping: map[string]any{"x": x, "y": y},
	}
}
