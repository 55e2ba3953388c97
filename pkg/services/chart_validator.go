package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-charts/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-charts/pkg/matcher"
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

// ChartValidator checks raw recommendations against the per-kind rule table
// and resolves their column references.
type ChartValidator interface {
	// Validate never fails: every problem is reported as an issue on the
	// returned outcome.
	Validate(rec *models.RawRecommendation) *models.ValidationOutcome
}

type chartValidator struct {
	index  *matcher.Index
	logger *zap.Logger
}

// NewChartValidator creates a validator bound to one dataset's column index.
func NewChartValidator(index *matcher.Index, logger *zap.Logger) ChartValidator {
	return &chartValidator{
		index:  index,
		logger: logger.Named("chart-validator"),
	}
}

var _ ChartValidator = (*chartValidator)(nil)

// fieldValues holds the validated, typed field values of one mapping.
type fieldValues struct {
	refs    map[string]models.ColumnRef
	lists   map[string][]models.ColumnRef
	enums   map[string]string
	ints    map[string]int
	numbers map[string]float64
	texts   map[string]string
}

func newFieldValues() *fieldValues {
	return &fieldValues{
		refs:    make(map[string]models.ColumnRef),
		lists:   make(map[string][]models.ColumnRef),
		enums:   make(map[string]string),
		ints:    make(map[string]int),
		numbers: make(map[string]float64),
		texts:   make(map[string]string),
	}
}

func (v *fieldValues) ref(name string) models.ColumnRef {
	return v.refs[name]
}

func (v *fieldValues) optRef(name string) *models.ColumnRef {
	if ref, ok := v.refs[name]; ok {
		return &ref
	}
	return nil
}

func (v *fieldValues) optNumber(name string) *float64 {
	if n, ok := v.numbers[name]; ok {
		return &n
	}
	return nil
}

func (v *fieldValues) aggregation() models.Aggregation {
	return models.Aggregation(v.enums["aggregation"])
}

func (v *chartValidator) Validate(rec *models.RawRecommendation) *models.ValidationOutcome {
	outcome := &models.ValidationOutcome{
		Blocking: []models.Issue{},
		Advisory: []models.Issue{},
	}

	kind, err := models.ParseChartKind(rec.ChartKind)
	if err != nil {
		outcome.Blocking = append(outcome.Blocking, models.Issue{
			Code:    models.IssueUnknownChartKind,
			Class:   models.IssueClassStructural,
			Field:   "chart_kind",
			Value:   rec.ChartKind,
			Message: err.Error(),
		})
		return outcome
	}
	rule, ok := RuleFor(kind)
	if !ok {
		// Every kind in the closed enum has a rule; this guards the table.
		outcome.Blocking = append(outcome.Blocking, models.Issue{
			Code:    models.IssueUnknownChartKind,
			Class:   models.IssueClassStructural,
			Field:   "chart_kind",
			Value:   string(kind),
			Message: fmt.Sprintf("no structural rule for chart kind %q", kind),
		})
		return outcome
	}

	raw := rec.FieldMapping
	if len(raw) == 0 && !rec.Legacy.IsEmpty() {
		raw = migrateLegacyAxes(kind, rec.Legacy)
		outcome.Migrated = true
		v.logger.Debug("Migrated legacy axis layout",
			zap.String("chart_kind", string(kind)),
			zap.String("title", rec.Title))
	}

	fields := assignFields(rule, raw)
	values := newFieldValues()

	for _, field := range rule.Fields {
		value, present := fields[field.Name]
		if !present {
			if field.Required {
				outcome.Blocking = append(outcome.Blocking, missingField(field.Name))
			}
			continue
		}
		v.checkField(field, value, values, outcome)
	}

	// A one-of group acts as a single required field: present but unusable
	// (every member an unresolved column) is as blocking as absent.
	for _, group := range rule.OneOf {
		switch {
		case !anyPresent(fields, group):
			outcome.Blocking = append(outcome.Blocking, models.Issue{
				Code:    models.IssueMissingRequiredField,
				Class:   models.IssueClassStructural,
				Field:   strings.Join(group, "|"),
				Message: fmt.Sprintf("one of %s is required", strings.Join(group, " or ")),
			})
		case !anyUsable(values, group):
			outcome.Blocking = append(outcome.Blocking, models.Issue{
				Code:    models.IssueUnresolvedColumn,
				Class:   models.IssueClassColumnUnresolved,
				Field:   strings.Join(group, "|"),
				Message: fmt.Sprintf("none of %s references an existing column", strings.Join(group, " or ")),
			})
		}
	}

	if len(outcome.Blocking) > 0 {
		return outcome
	}

	mapping, err := buildMapping(kind, values)
	if err != nil {
		outcome.Blocking = append(outcome.Blocking, models.Issue{
			Code:    models.IssueInvalidValue,
			Class:   models.IssueClassStructural,
			Message: err.Error(),
		})
		return outcome
	}
	outcome.Mapping = mapping
	return outcome
}

// checkField validates one present field and records its typed value.
func (v *chartValidator) checkField(field FieldRule, value any, values *fieldValues, outcome *models.ValidationOutcome) {
	switch field.Kind {
	case FieldColumn:
		text, ok := columnText(value)
		if !ok {
			outcome.Blocking = append(outcome.Blocking, invalidValue(field.Name, value, "expected a column name"))
			return
		}
		ref := v.resolve(text)
		if !ref.Resolved {
			v.recordUnresolved(field, ref, outcome)
		}
		values.refs[field.Name] = ref

	case FieldColumns:
		texts, ok := columnList(value)
		// A comma inside a real column name must not split it.
		if s, isString := value.(string); isString && v.index.Resolve(s).Resolved() {
			texts, ok = []string{strings.TrimSpace(s)}, true
		}
		if !ok {
			outcome.Blocking = append(outcome.Blocking, invalidValue(field.Name, value, "expected a list of column names"))
			return
		}
		if len(texts) == 0 {
			if field.Required {
				outcome.Blocking = append(outcome.Blocking, missingField(field.Name))
			}
			return
		}
		refs := make([]models.ColumnRef, 0, len(texts))
		for _, text := range texts {
			ref := v.resolve(text)
			if !ref.Resolved {
				v.recordUnresolved(field, ref, outcome)
			}
			refs = append(refs, ref)
		}
		values.lists[field.Name] = refs

	case FieldEnum:
		text, ok := scalarText(value)
		if !ok {
			outcome.Blocking = append(outcome.Blocking, invalidValue(field.Name, value, "expected a "+field.Vocabulary.Name))
			return
		}
		canonical, ok := field.Vocabulary.Normalize(text)
		if !ok {
			outcome.Blocking = append(outcome.Blocking, models.Issue{
				Code:    models.IssueInvalidEnum,
				Class:   models.IssueClassStructural,
				Field:   field.Name,
				Value:   text,
				Message: fmt.Sprintf("%q is not a valid %s (allowed: %s)", text, field.Vocabulary.Name, strings.Join(field.Vocabulary.Values, ", ")),
			})
			return
		}
		values.enums[field.Name] = canonical

	case FieldInt:
		n, ok := numberValue(value)
		if !ok || n != math.Trunc(n) {
			outcome.Blocking = append(outcome.Blocking, invalidValue(field.Name, value, "expected an integer"))
			return
		}
		if field.Bounded && (n < field.Min || n > field.Max) {
			outcome.Blocking = append(outcome.Blocking, models.Issue{
				Code:    models.IssueOutOfRange,
				Class:   models.IssueClassStructural,
				Field:   field.Name,
				Value:   strconv.FormatFloat(n, 'f', -1, 64),
				Message: fmt.Sprintf("%s must be between %g and %g", field.Name, field.Min, field.Max),
			})
			return
		}
		values.ints[field.Name] = int(n)

	case FieldNumber:
		n, ok := numberValue(value)
		if !ok {
			outcome.Blocking = append(outcome.Blocking, invalidValue(field.Name, value, "expected a number"))
			return
		}
		values.numbers[field.Name] = n

	case FieldText:
		text, ok := scalarText(value)
		if !ok {
			outcome.Blocking = append(outcome.Blocking, invalidValue(field.Name, value, "expected text"))
			return
		}
		values.texts[field.Name] = text
	}
}

func (v *chartValidator) resolve(text string) models.ColumnRef {
	res := v.index.Resolve(text)
	if res.Resolved() {
		ref := models.ColumnRef{Name: res.Match, Resolved: true, Tier: res.Tier}
		if res.Match != text {
			ref.Original = text
		}
		return ref
	}
	return models.ColumnRef{
		Name:        text,
		Original:    text,
		Resolved:    false,
		Tier:        matcher.TierNone,
		Suggestions: res.SuggestionNames(),
	}
}

// recordUnresolved files an unresolved reference as blocking for required
// fields and advisory for optional ones.
func (v *chartValidator) recordUnresolved(field FieldRule, ref models.ColumnRef, outcome *models.ValidationOutcome) {
	issue := models.Issue{
		Code:        models.IssueUnresolvedColumn,
		Class:       models.IssueClassColumnUnresolved,
		Field:       field.Name,
		Value:       ref.Original,
		Message:     fmt.Sprintf("column %q does not exist in the dataset", ref.Original),
		Suggestions: ref.Suggestions,
	}
	if field.Required {
		outcome.Blocking = append(outcome.Blocking, issue)
		return
	}
	outcome.Advisory = append(outcome.Advisory, issue)
	v.logger.Debug("Optional column reference unresolved",
		zap.String("field", field.Name),
		zap.String("value", ref.Original),
		zap.Strings("suggestions", ref.Suggestions))
}

// assignFields matches raw mapping keys to rule fields. Keys equal to a field
// name win over aliases, and each raw key feeds at most one field. Empty
// values count as absent.
func assignFields(rule ChartRule, raw map[string]any) map[string]any {
	folded := make(map[string]any, len(raw))
	for key, value := range raw {
		if isEmptyValue(value) {
			continue
		}
		folded[models.FoldKey(key)] = value
	}

	assigned := make(map[string]any, len(rule.Fields))
	consumed := make(map[string]bool)
	for _, field := range rule.Fields {
		key := models.FoldKey(field.Name)
		if value, ok := folded[key]; ok {
			assigned[field.Name] = value
			consumed[key] = true
		}
	}
	for _, field := range rule.Fields {
		if _, done := assigned[field.Name]; done {
			continue
		}
		for _, alias := range field.Aliases {
			key := models.FoldKey(alias)
			if consumed[key] {
				continue
			}
			if value, ok := folded[key]; ok {
				assigned[field.Name] = value
				consumed[key] = true
				break
			}
		}
	}
	return assigned
}

func anyPresent(fields map[string]any, names []string) bool {
	for _, name := range names {
		if _, ok := fields[name]; ok {
			return true
		}
	}
	return false
}

func anyUsable(values *fieldValues, names []string) bool {
	for _, name := range names {
		if ref, ok := values.refs[name]; ok && ref.Resolved {
			return true
		}
		for _, ref := range values.lists[name] {
			if ref.Resolved {
				return true
			}
		}
		if values.texts[name] != "" {
			return true
		}
	}
	return false
}

func missingField(name string) models.Issue {
	return models.Issue{
		Code:    models.IssueMissingRequiredField,
		Class:   models.IssueClassStructural,
		Field:   name,
		Message: fmt.Sprintf("required field %q is missing", name),
	}
}

func invalidValue(name string, value any, expectation string) models.Issue {
	return models.Issue{
		Code:    models.IssueInvalidValue,
		Class:   models.IssueClassStructural,
		Field:   name,
		Value:   fmt.Sprint(value),
		Message: fmt.Sprintf("invalid value for %q: %s", name, expectation),
	}
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// columnText extracts a single column name. Models sometimes wrap names in
// an object ({"column": "Region"}) or a one-element list.
func columnText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), strings.TrimSpace(v) != ""
	case map[string]any:
		for _, key := range []string{"column", "field", "name", "value"} {
			if inner, ok := v[key]; ok {
				return columnText(inner)
			}
		}
	case []any:
		if len(v) == 1 {
			return columnText(v[0])
		}
	case []string:
		if len(v) == 1 {
			return columnText(v[0])
		}
	}
	return "", false
}

// columnList extracts a list of column names from a list, a single name or a
// comma separated string.
func columnList(value any) ([]string, bool) {
	switch v := value.(type) {
	case string:
		return jsonutil.SplitList(v), true
	case []string:
		var out []string
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case []any:
		var out []string
		for _, item := range v {
			text, ok := columnText(item)
			if !ok {
				return nil, false
			}
			out = append(out, text)
		}
		return out, true
	case map[string]any:
		if text, ok := columnText(v); ok {
			return []string{text}, true
		}
	}
	return nil, false
}

func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64, int, bool:
		return fmt.Sprint(v), true
	}
	return "", false
}

func numberValue(value any) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	// NaN and the infinities parse but are not usable bounds or limits.
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// buildMapping assembles the typed mapping for a kind from validated values.
// The switch is exhaustive over models.ValidChartKinds.
func buildMapping(kind models.ChartKind, v *fieldValues) (models.Mapping, error) {
	switch kind {
	case models.ChartKindScorecard:
		return models.ScorecardMapping{
			Metric:      v.optRef("metric"),
			Formula:     v.texts["formula"],
			Aggregation: v.aggregation(),
			Label:       v.texts["label"],
			Comparison:  v.optRef("comparison"),
			Format:      models.NumberFormat(v.enums["format"]),
		}, nil
	case models.ChartKindGauge:
		return models.GaugeMapping{
			Metric:      v.ref("metric"),
			Aggregation: v.aggregation(),
			Min:         v.optNumber("min"),
			Max:         v.optNumber("max"),
			Target:      v.optNumber("target"),
		}, nil
	case models.ChartKindBar, models.ChartKindHorizontalBar:
		return models.BarMapping{
			ChartKind:   kind,
			X:           v.ref("x"),
			Y:           v.ref("y"),
			Category:    v.optRef("category"),
			Aggregation: v.aggregation(),
			Sort:        models.SortDirection(v.enums["sort"]),
			Limit:       v.ints["limit"],
		}, nil
	case models.ChartKindStackedBar:
		return models.StackedBarMapping{
			X:           v.ref("x"),
			Y:           v.ref("y"),
			Category:    v.ref("category"),
			Aggregation: v.aggregation(),
		}, nil
	case models.ChartKindLine, models.ChartKindArea:
		return models.LineMapping{
			ChartKind:   kind,
			X:           v.ref("x"),
			Y:           v.ref("y"),
			Category:    v.optRef("category"),
			Aggregation: v.aggregation(),
			Granularity: models.Granularity(v.enums["granularity"]),
		}, nil
	case models.ChartKindPie, models.ChartKindDonut:
		return models.PieMapping{
			ChartKind:   kind,
			Category:    v.ref("category"),
			Value:       v.optRef("value"),
			Aggregation: v.aggregation(),
			Limit:       v.ints["limit"],
		}, nil
	case models.ChartKindScatter:
		return models.ScatterMapping{
			X:        v.ref("x"),
			Y:        v.ref("y"),
			Category: v.optRef("category"),
			Size:     v.optRef("size"),
		}, nil
	case models.ChartKindBubble:
		return models.BubbleMapping{
			X:        v.ref("x"),
			Y:        v.ref("y"),
			Size:     v.ref("size"),
			Category: v.optRef("category"),
		}, nil
	case models.ChartKindHistogram:
		return models.HistogramMapping{
			X:    v.ref("x"),
			Bins: v.ints["bins"],
		}, nil
	case models.ChartKindHeatmap:
		return models.HeatmapMapping{
			X:           v.ref("x"),
			Y:           v.ref("y"),
			Value:       v.optRef("value"),
			Aggregation: v.aggregation(),
		}, nil
	case models.ChartKindTreemap:
		return models.TreemapMapping{
			Hierarchy:   v.lists["hierarchy"],
			Value:       v.optRef("value"),
			Aggregation: v.aggregation(),
		}, nil
	case models.ChartKindFunnel:
		return models.FunnelMapping{
			Stage:       v.ref("stage"),
			Value:       v.optRef("value"),
			Aggregation: v.aggregation(),
		}, nil
	case models.ChartKindTable:
		return models.TableMapping{
			Columns:       v.lists["columns"],
			SortBy:        v.optRef("sort_by"),
			SortDirection: models.SortDirection(v.enums["sort_direction"]),
			Limit:         v.ints["limit"],
		}, nil
	default:
		return nil, fmt.Errorf("no mapping shape for chart kind %q", kind)
	}
}
