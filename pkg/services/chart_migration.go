package services

import (
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
)

// migrateLegacyAxes synthesizes a field mapping from the positional axis
// fields older responses carry. Only fields with a value are set, so the
// validator still reports whatever the legacy layout could not supply.
func migrateLegacyAxes(kind models.ChartKind, legacy models.LegacyAxes) map[string]any {
	mapping := make(map[string]any)
	set := func(field string, values ...string) {
		if v := firstNonEmpty(values...); v != "" {
			mapping[field] = v
		}
	}
	setList := func(field string, values ...string) {
		var list []any
		for _, v := range values {
			if v != "" {
				list = append(list, v)
			}
		}
		if len(list) > 0 {
			mapping[field] = list
		}
	}

	switch kind {
	case models.ChartKindScorecard, models.ChartKindGauge:
		set("metric", legacy.Metric, legacy.YAxis, legacy.XAxis)
	case models.ChartKindBar, models.ChartKindHorizontalBar, models.ChartKindStackedBar,
		models.ChartKindLine, models.ChartKindArea:
		set("x", legacy.XAxis)
		set("y", legacy.YAxis, legacy.Metric)
		set("category", legacy.GroupBy)
	case models.ChartKindScatter:
		set("x", legacy.XAxis)
		set("y", legacy.YAxis)
		set("size", legacy.ZAxis)
		set("category", legacy.GroupBy)
	case models.ChartKindBubble:
		set("x", legacy.XAxis)
		set("y", legacy.YAxis)
		set("size", legacy.ZAxis, legacy.Metric)
		set("category", legacy.GroupBy)
	case models.ChartKindHeatmap:
		set("x", legacy.XAxis)
		set("y", legacy.YAxis, legacy.GroupBy)
		set("value", legacy.ZAxis, legacy.Metric)
	case models.ChartKindPie, models.ChartKindDonut:
		set("category", legacy.XAxis, legacy.GroupBy)
		set("value", legacy.YAxis, legacy.Metric)
	case models.ChartKindFunnel:
		set("stage", legacy.XAxis, legacy.GroupBy)
		set("value", legacy.YAxis, legacy.Metric)
	case models.ChartKindHistogram:
		set("x", legacy.XAxis, legacy.YAxis, legacy.Metric)
	case models.ChartKindTreemap:
		if len(legacy.Columns) > 0 {
			setList("hierarchy", legacy.Columns...)
		} else {
			setList("hierarchy", legacy.XAxis, legacy.GroupBy)
		}
		set("value", legacy.YAxis, legacy.Metric)
	case models.ChartKindTable:
		if len(legacy.Columns) > 0 {
			setList("columns", legacy.Columns...)
		} else {
			setList("columns", legacy.XAxis, legacy.YAxis, legacy.GroupBy, legacy.ZAxis)
		}
	}

	if rule, ok := RuleFor(kind); ok {
		if _, hasAgg := rule.Field("aggregation"); hasAgg {
			set("aggregation", legacy.Aggregation)
		}
	}

	return mapping
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
