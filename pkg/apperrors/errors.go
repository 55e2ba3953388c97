package apperrors

import "errors"

var (
	ErrSchemaEmpty             = errors.New("dataset schema has no columns")
	ErrInvalidConfig           = errors.New("invalid configuration")
	ErrUnknownChartKind        = errors.New("unknown chart kind")
	ErrNoRecommendations       = errors.New("no recommendations found in model output")
	ErrMalformedRecommendation = errors.New("malformed recommendation")
)
