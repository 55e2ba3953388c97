package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-charts/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

// Key spellings models use for each recommendation attribute, compared
// after models.FoldKey.
var (
	listKeys        = []string{"recommendations", "charts", "visualizations", "chart_recommendations", "items", "dashboard", "widgets"}
	idKeys          = []string{"id", "chart_id", "recommendation_id"}
	kindKeys        = []string{"chart_kind", "chart_type", "type", "kind", "visualization", "visualization_type", "chart"}
	titleKeys       = []string{"title", "name", "chart_title", "label"}
	descriptionKeys = []string{"description", "summary", "subtitle"}
	reasoningKeys   = []string{"reasoning", "rationale", "explanation", "why", "justification"}
	confidenceKeys  = []string{"confidence", "declared_confidence", "confidence_score", "priority"}
	mappingKeys     = []string{"field_mapping", "mapping", "fields", "encoding", "data_mapping", "columns_mapping"}
)

// DecodeResult is the outcome of decoding one model response.
type DecodeResult struct {
	Recommendations []models.RawRecommendation
	// Skipped counts list entries that were not recommendation objects.
	Skipped int
}

// DecodeRecommendations extracts every recommendation from a model response.
// The payload may be a bare array, an object wrapping the array under one of
// the usual keys, or a single recommendation object. Entries that cannot be
// decoded are counted and skipped.
func DecodeRecommendations(response string) (*DecodeResult, error) {
	payload, err := ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	items, err := recommendationItems(json.RawMessage(payload))
	if err != nil {
		return nil, err
	}

	result := &DecodeResult{Recommendations: make([]models.RawRecommendation, 0, len(items))}
	for _, item := range items {
		rec, err := DecodeRecommendation(item)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Recommendations = append(result.Recommendations, rec)
	}
	return result, nil
}

func recommendationItems(payload json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err == nil {
		return items, nil
	}

	fields, err := foldedObject(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is neither an array nor an object", apperrors.ErrNoRecommendations)
	}
	for _, key := range listKeys {
		raw, ok := fields[models.FoldKey(key)]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}
	if _, ok := lookup(fields, kindKeys); ok {
		return []json.RawMessage{payload}, nil
	}
	return nil, fmt.Errorf("%w: no recommendation list in response object", apperrors.ErrNoRecommendations)
}

// DecodeRecommendation decodes one recommendation object. It fails only when
// the value is not an object or names no chart kind; everything else is left
// for validation.
func DecodeRecommendation(raw json.RawMessage) (models.RawRecommendation, error) {
	var rec models.RawRecommendation

	fields, err := foldedObject(raw)
	if err != nil {
		return rec, fmt.Errorf("%w: not an object", apperrors.ErrMalformedRecommendation)
	}

	rec.ChartKind = stringField(fields, kindKeys)
	if rec.ChartKind == "" {
		return rec, fmt.Errorf("%w: no chart kind", apperrors.ErrMalformedRecommendation)
	}
	rec.ID = stringField(fields, idKeys)
	rec.Title = stringField(fields, titleKeys)
	rec.Description = stringField(fields, descriptionKeys)
	rec.Reasoning = stringField(fields, reasoningKeys)
	if v, ok := lookup(fields, confidenceKeys); ok {
		rec.DeclaredConfidence = jsonutil.FlexibleConfidenceValue(v)
	}
	var listedColumns []string
	if v, ok := lookup(fields, mappingKeys); ok {
		if isJSONArray(v) {
			// A bare list under a mapping key names table columns.
			listedColumns = jsonutil.FlexibleStringList(v)
		} else {
			rec.FieldMapping = decodeMapping(v)
		}
	}

	rec.Legacy = models.LegacyAxes{
		XAxis:       stringField(fields, []string{"x_axis", "x", "x_column"}),
		YAxis:       stringField(fields, []string{"y_axis", "y", "y_column"}),
		ZAxis:       stringField(fields, []string{"z_axis", "z", "size"}),
		GroupBy:     stringField(fields, []string{"group_by", "category", "series"}),
		Metric:      stringField(fields, []string{"metric", "measure", "value_column"}),
		Aggregation: stringField(fields, []string{"aggregation", "agg", "aggregate"}),
	}
	if v, ok := lookup(fields, []string{"columns", "column_list"}); ok {
		rec.Legacy.Columns = jsonutil.FlexibleStringList(v)
	} else {
		rec.Legacy.Columns = listedColumns
	}

	return rec, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeMapping reads a field mapping. Some models emit it as a JSON string.
func decodeMapping(raw json.RawMessage) map[string]any {
	var mapping map[string]any
	if err := json.Unmarshal(raw, &mapping); err == nil {
		return mapping
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	inner, err := ExtractJSON(text)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(inner), &mapping); err != nil {
		return nil
	}
	return mapping
}

// foldedObject decodes a JSON object with its keys folded. When two keys
// fold to the same form, which one wins is unspecified.
func foldedObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("null object")
	}
	folded := make(map[string]json.RawMessage, len(obj))
	for k, v := range obj {
		folded[models.FoldKey(k)] = v
	}
	return folded, nil
}

func lookup(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, key := range keys {
		if v, ok := fields[models.FoldKey(key)]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// stringField returns the first non-empty scalar under any of keys. Objects
// and arrays are not strings here.
func stringField(fields map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		v, ok := fields[models.FoldKey(key)]
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(string(v))
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			continue
		}
		if s := strings.TrimSpace(jsonutil.FlexibleStringValue(v)); s != "" {
			return s
		}
	}
	return ""
}
