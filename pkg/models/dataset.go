package models

import (
	"slices"
	"strings"
)

// InferredType is the column type assigned by upstream type inference.
type InferredType string

const (
	InferredTypeNumber      InferredType = "number"
	InferredTypeDate        InferredType = "date"
	InferredTypeCategorical InferredType = "categorical"
	InferredTypeBoolean     InferredType = "boolean"
	InferredTypeString      InferredType = "string"
)

// ValidInferredTypes contains all valid inferred type values.
var ValidInferredTypes = []InferredType{
	InferredTypeNumber,
	InferredTypeDate,
	InferredTypeCategorical,
	InferredTypeBoolean,
	InferredTypeString,
}

// IsValidInferredType checks if the given type is valid.
func IsValidInferredType(t InferredType) bool {
	return slices.Contains(ValidInferredTypes, t)
}

// ParseInferredType maps loose type names onto the closed set.
// Anything unrecognized is treated as a plain string column.
func ParseInferredType(s string) InferredType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "numeric", "integer", "int", "float", "decimal", "double", "currency", "percent", "percentage":
		return InferredTypeNumber
	case "date", "datetime", "timestamp", "time", "temporal":
		return InferredTypeDate
	case "categorical", "category", "enum", "dimension":
		return InferredTypeCategorical
	case "boolean", "bool", "flag":
		return InferredTypeBoolean
	default:
		return InferredTypeString
	}
}

// ColumnDescriptor describes one column of an uploaded dataset.
type ColumnDescriptor struct {
	Name           string       `json:"name"`
	InferredType   InferredType `json:"inferred_type"`
	Cardinality    int          `json:"cardinality"`
	NullPercentage float64      `json:"null_percentage"` // 0 - 100
	// Confidence is the type-inference confidence (0 - 100). Nil when the
	// inference component did not report one.
	Confidence *float64 `json:"confidence,omitempty"`
}

// EffectiveConfidence returns the explicit confidence when present, otherwise
// a completeness-derived value. The result is clamped to [0, 100].
func (c *ColumnDescriptor) EffectiveConfidence() float64 {
	value := 100 - c.NullPercentage
	if c.Confidence != nil {
		value = *c.Confidence
	}
	return clamp(value, 0, 100)
}

// DatasetSchema is the ordered column list of one dataset snapshot.
type DatasetSchema struct {
	Columns []ColumnDescriptor `json:"columns"`
}

// ColumnNames returns the column names in schema order.
func (s *DatasetSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// UserCorrection is a manual reclassification of a column by the end user.
// Corrections always carry full confidence.
type UserCorrection struct {
	Name          string       `json:"name"`
	CorrectedType InferredType `json:"corrected_type"`
	Role          string       `json:"role,omitempty"`          // dimension, measure, identifier, ...
	SemanticType  string       `json:"semantic_type,omitempty"` // currency, percentage, ...
	Confidence    float64      `json:"confidence"`
}

// UserCorrectionConfidence is the confidence assigned to every corrected column.
const UserCorrectionConfidence = 100.0

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
