package services

import (
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

// FieldKind is the value shape a mapping field accepts.
type FieldKind int

const (
	FieldColumn  FieldKind = iota // single column reference
	FieldColumns                  // one or more column references
	FieldEnum                     // value from a closed vocabulary
	FieldInt                      // integer literal, optionally bounded
	FieldNumber                   // numeric literal
	FieldText                     // free text
)

// Vocabulary is a closed set of enum values plus the synonyms models use for
// them. Lookups ignore case and punctuation.
type Vocabulary struct {
	Name     string
	Values   []string
	Synonyms map[string]string // folded synonym -> canonical value
}

// Normalize maps raw onto a canonical vocabulary value.
func (v *Vocabulary) Normalize(raw string) (string, bool) {
	key := models.FoldKey(raw)
	if key == "" {
		return "", false
	}
	for _, value := range v.Values {
		if models.FoldKey(value) == key {
			return value, true
		}
	}
	if value, ok := v.Synonyms[key]; ok {
		return value, true
	}
	return "", false
}

var (
	aggregationVocabulary = &Vocabulary{
		Name:   "aggregation",
		Values: []string{"sum", "avg", "count", "min", "max", "distinct"},
		Synonyms: map[string]string{
			"average":       "avg",
			"mean":          "avg",
			"total":         "sum",
			"summation":     "sum",
			"cnt":           "count",
			"countrows":     "count",
			"minimum":       "min",
			"maximum":       "max",
			"unique":        "distinct",
			"countdistinct": "distinct",
			"distinctcount": "distinct",
			"uniquecount":   "distinct",
			"nunique":       "distinct",
		},
	}

	sortVocabulary = &Vocabulary{
		Name:   "sort direction",
		Values: []string{"asc", "desc"},
		Synonyms: map[string]string{
			"ascending":  "asc",
			"descending": "desc",
			"up":         "asc",
			"down":       "desc",
			"lowest":     "asc",
			"highest":    "desc",
			"top":        "desc",
			"bottom":     "asc",
		},
	}

	granularityVocabulary = &Vocabulary{
		Name:   "granularity",
		Values: []string{"day", "week", "month", "quarter", "year"},
		Synonyms: map[string]string{
			"daily":     "day",
			"days":      "day",
			"weekly":    "week",
			"weeks":     "week",
			"monthly":   "month",
			"months":    "month",
			"quarterly": "quarter",
			"quarters":  "quarter",
			"yearly":    "year",
			"annual":    "year",
			"annually":  "year",
			"years":     "year",
		},
	}

	formatVocabulary = &Vocabulary{
		Name:   "number format",
		Values: []string{"number", "currency", "percent"},
		Synonyms: map[string]string{
			"numeric":    "number",
			"integer":    "number",
			"decimal":    "number",
			"money":      "currency",
			"usd":        "currency",
			"dollar":     "currency",
			"dollars":    "currency",
			"percentage": "percent",
			"pct":        "percent",
		},
	}
)

// FieldRule describes one field of a chart kind's mapping.
type FieldRule struct {
	Name       string
	Aliases    []string
	Kind       FieldKind
	Required   bool
	Vocabulary *Vocabulary
	// Min and Max bound integer fields when Bounded is set.
	Bounded  bool
	Min, Max float64
}

// ChartRule is the structural contract of one chart kind.
type ChartRule struct {
	Kind   models.ChartKind
	Fields []FieldRule
	// OneOf lists groups of fields of which at least one must be present.
	OneOf [][]string
}

// Field returns the rule for the named field.
func (r ChartRule) Field(name string) (FieldRule, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldRule{}, false
}

const (
	minLimit = 1
	maxLimit = 100
)

func requiredColumn(name string, aliases ...string) FieldRule {
	return FieldRule{Name: name, Aliases: aliases, Kind: FieldColumn, Required: true}
}

func optionalColumn(name string, aliases ...string) FieldRule {
	return FieldRule{Name: name, Aliases: aliases, Kind: FieldColumn}
}

func requiredColumns(name string, aliases ...string) FieldRule {
	return FieldRule{Name: name, Aliases: aliases, Kind: FieldColumns, Required: true}
}

func enumField(name string, vocab *Vocabulary, aliases ...string) FieldRule {
	return FieldRule{Name: name, Aliases: aliases, Kind: FieldEnum, Vocabulary: vocab}
}

func boundedInt(name string, min, max float64, aliases ...string) FieldRule {
	return FieldRule{Name: name, Aliases: aliases, Kind: FieldInt, Bounded: true, Min: min, Max: max}
}

func numberField(name string, aliases ...string) FieldRule {
	return FieldRule{Name: name, Aliases: aliases, Kind: FieldNumber}
}

func textField(name string, aliases ...string) FieldRule {
	return FieldRule{Name: name, Aliases: aliases, Kind: FieldText}
}

// Shared field definitions. Aliases cover the key spellings models produce;
// keys are compared after folding, so "x_axis", "xAxis" and "X Axis" match.
var (
	fieldX           = requiredColumn("x", "x_axis", "x_field", "dimension", "x_column")
	fieldY           = requiredColumn("y", "y_axis", "y_field", "measure", "value", "y_column")
	fieldBreakdown   = optionalColumn("category", "group_by", "color", "series", "breakdown", "legend")
	fieldAggregation = enumField("aggregation", aggregationVocabulary, "agg", "aggregate", "aggregation_type")
	fieldLimit       = boundedInt("limit", minLimit, maxLimit, "top_n", "top", "max_items")
	fieldValue       = optionalColumn("value", "measure", "y", "y_axis", "size")
)

// chartRules is the structural rule table, one entry per chart kind.
var chartRules = map[models.ChartKind]ChartRule{
	models.ChartKindScorecard: {
		Kind: models.ChartKindScorecard,
		Fields: []FieldRule{
			optionalColumn("metric", "column", "value", "measure", "field", "y", "y_axis"),
			textField("formula", "expression", "calculation"),
			fieldAggregation,
			textField("label", "caption", "subtitle"),
			optionalColumn("comparison", "compare_to", "compare", "baseline"),
			enumField("format", formatVocabulary, "number_format", "value_format"),
		},
		OneOf: [][]string{{"metric", "formula"}},
	},
	models.ChartKindGauge: {
		Kind: models.ChartKindGauge,
		Fields: []FieldRule{
			requiredColumn("metric", "column", "value", "measure", "field"),
			fieldAggregation,
			numberField("min", "min_value", "minimum"),
			numberField("max", "max_value", "maximum"),
			numberField("target", "goal", "threshold"),
		},
	},
	models.ChartKindBar: {
		Kind: models.ChartKindBar,
		Fields: []FieldRule{
			fieldX, fieldY, fieldBreakdown, fieldAggregation,
			enumField("sort", sortVocabulary, "sort_order", "order", "sort_direction"),
			fieldLimit,
		},
	},
	models.ChartKindHorizontalBar: {
		Kind: models.ChartKindHorizontalBar,
		Fields: []FieldRule{
			fieldX, fieldY, fieldBreakdown, fieldAggregation,
			enumField("sort", sortVocabulary, "sort_order", "order", "sort_direction"),
			fieldLimit,
		},
	},
	models.ChartKindStackedBar: {
		Kind: models.ChartKindStackedBar,
		Fields: []FieldRule{
			fieldX, fieldY,
			requiredColumn("category", "group_by", "stack", "stack_by", "color", "series"),
			fieldAggregation,
		},
	},
	models.ChartKindLine: {
		Kind: models.ChartKindLine,
		Fields: []FieldRule{
			requiredColumn("x", "x_axis", "time", "date", "date_column"),
			fieldY, fieldBreakdown, fieldAggregation,
			enumField("granularity", granularityVocabulary, "interval", "time_grain", "period"),
		},
	},
	models.ChartKindArea: {
		Kind: models.ChartKindArea,
		Fields: []FieldRule{
			requiredColumn("x", "x_axis", "time", "date", "date_column"),
			fieldY, fieldBreakdown, fieldAggregation,
			enumField("granularity", granularityVocabulary, "interval", "time_grain", "period"),
		},
	},
	models.ChartKindPie: {
		Kind: models.ChartKindPie,
		Fields: []FieldRule{
			requiredColumn("category", "dimension", "label", "labels", "group_by", "x", "x_axis", "slice"),
			fieldValue, fieldAggregation, fieldLimit,
		},
	},
	models.ChartKindDonut: {
		Kind: models.ChartKindDonut,
		Fields: []FieldRule{
			requiredColumn("category", "dimension", "label", "labels", "group_by", "x", "x_axis", "slice"),
			fieldValue, fieldAggregation, fieldLimit,
		},
	},
	models.ChartKindScatter: {
		Kind: models.ChartKindScatter,
		Fields: []FieldRule{
			fieldX,
			requiredColumn("y", "y_axis", "y_field", "y_column"),
			fieldBreakdown,
			optionalColumn("size", "z", "z_axis", "radius"),
		},
	},
	models.ChartKindBubble: {
		Kind: models.ChartKindBubble,
		Fields: []FieldRule{
			fieldX,
			requiredColumn("y", "y_axis", "y_field", "y_column"),
			requiredColumn("size", "z", "z_axis", "radius", "bubble_size"),
			fieldBreakdown,
		},
	},
	models.ChartKindHistogram: {
		Kind: models.ChartKindHistogram,
		Fields: []FieldRule{
			requiredColumn("x", "column", "field", "value", "x_axis", "measure"),
			boundedInt("bins", minLimit, maxLimit, "bin_count", "buckets", "num_bins"),
		},
	},
	models.ChartKindHeatmap: {
		Kind: models.ChartKindHeatmap,
		Fields: []FieldRule{
			fieldX,
			requiredColumn("y", "y_axis", "y_field", "y_column", "rows"),
			optionalColumn("value", "z", "z_axis", "measure", "intensity", "color"),
			fieldAggregation,
		},
	},
	models.ChartKindTreemap: {
		Kind: models.ChartKindTreemap,
		Fields: []FieldRule{
			requiredColumns("hierarchy", "levels", "path", "group_by", "categories", "category", "dimensions"),
			fieldValue, fieldAggregation,
		},
	},
	models.ChartKindFunnel: {
		Kind: models.ChartKindFunnel,
		Fields: []FieldRule{
			requiredColumn("stage", "stages", "step", "category", "x", "x_axis"),
			fieldValue, fieldAggregation,
		},
	},
	models.ChartKindTable: {
		Kind: models.ChartKindTable,
		Fields: []FieldRule{
			requiredColumns("columns", "fields", "cols", "show_columns"),
			optionalColumn("sort_by", "order_by", "sort_column"),
			enumField("sort_direction", sortVocabulary, "sort", "order", "sort_order"),
			fieldLimit,
		},
	},
}

// RuleFor returns the structural rule of a chart kind.
func RuleFor(kind models.ChartKind) (ChartRule, bool) {
	rule, ok := chartRules[kind]
	return rule, ok
}
