package models

// IssueClass separates problems that drop a recommendation from ones that
// only annotate it.
type IssueClass string

const (
	// IssueClassStructural drops the recommendation.
	IssueClassStructural IssueClass = "structural"
	// IssueClassColumnUnresolved is a column reference that did not resolve.
	// Blocking on required fields, advisory on optional ones.
	IssueClassColumnUnresolved IssueClass = "column_unresolved"
)

// IssueCode identifies the specific validation problem.
type IssueCode string

const (
	IssueUnknownChartKind     IssueCode = "unknown_chart_kind"
	IssueMissingRequiredField IssueCode = "missing_required_field"
	IssueUnresolvedColumn     IssueCode = "unresolved_column"
	IssueInvalidEnum          IssueCode = "invalid_enum"
	IssueOutOfRange           IssueCode = "out_of_range"
	IssueInvalidValue         IssueCode = "invalid_value"
)

// Issue is one problem found while validating a recommendation.
type Issue struct {
	Code        IssueCode  `json:"code"`
	Class       IssueClass `json:"class"`
	Field       string     `json:"field,omitempty"`
	Value       string     `json:"value,omitempty"`
	Message     string     `json:"message"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// ValidationOutcome is the structural validation result of one recommendation.
// Mapping is nil when there are blocking issues.
type ValidationOutcome struct {
	Blocking []Issue `json:"blocking_issues"`
	Advisory []Issue `json:"advisory_issues"`
	Mapping  Mapping `json:"normalized_mapping,omitempty"`
	// Migrated is set when the mapping was synthesized from legacy axis fields.
	Migrated bool `json:"migrated,omitempty"`
}

// IsValid reports whether the recommendation may proceed to scoring.
func (o *ValidationOutcome) IsValid() bool {
	return len(o.Blocking) == 0 && o.Mapping != nil
}

// FactorBreakdown holds the four quality score components.
type FactorBreakdown struct {
	DataTypeMatch       float64 `json:"data_type_match"`
	ColumnConfidence    float64 `json:"column_confidence"`
	UserCorrectionBoost float64 `json:"user_correction_boost"`
	Clarity             float64 `json:"clarity"`
}

// Total sums the factors.
func (f FactorBreakdown) Total() float64 {
	return f.DataTypeMatch + f.ColumnConfidence + f.UserCorrectionBoost + f.Clarity
}

// ScoredRecommendation is a validated, scored recommendation.
type ScoredRecommendation struct {
	ID                 string          `json:"id"`
	ChartKind          ChartKind       `json:"chart_kind"`
	Category           Category        `json:"category"`
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Reasoning          string          `json:"reasoning,omitempty"`
	DeclaredConfidence float64         `json:"declared_confidence"`
	Priority           Priority        `json:"priority"`
	Mapping            Mapping         `json:"field_mapping"`
	QualityScore       float64         `json:"quality_score"`
	Factors            FactorBreakdown `json:"factors"`
	Advisories         []Issue         `json:"advisories,omitempty"`
	Synthesized        bool            `json:"synthesized"`
}

// CategoryCounts are the per-category counts of a recommendation set.
// Visualizations counts every non-scorecard item, tables included.
type CategoryCounts struct {
	Scorecards     int `json:"scorecards"`
	Visualizations int `json:"visualizations"`
	Tables         int `json:"tables"`
}

// CountCategories tallies items per category.
func CountCategories(items []*ScoredRecommendation) CategoryCounts {
	var c CategoryCounts
	for _, item := range items {
		switch item.Category {
		case CategoryScorecard:
			c.Scorecards++
		case CategoryTable:
			c.Tables++
			c.Visualizations++
		default:
			c.Visualizations++
		}
	}
	return c
}

// DroppedRecommendation records a recommendation excluded by validation.
type DroppedRecommendation struct {
	Index     int     `json:"index"`
	ID        string  `json:"id,omitempty"`
	Title     string  `json:"title,omitempty"`
	ChartKind string  `json:"chart_kind,omitempty"`
	Issues    []Issue `json:"issues"`
}

// AdjustmentKind distinguishes the two rebalancing repairs.
type AdjustmentKind string

const (
	AdjustmentUnderflow AdjustmentKind = "underflow"
	AdjustmentOverflow  AdjustmentKind = "overflow"
)

// Adjustment records one repair made by the rebalancer.
type Adjustment struct {
	Category Category       `json:"category"`
	Kind     AdjustmentKind `json:"kind"`
	Before   int            `json:"before"`
	After    int            `json:"after"`
	Added    []string       `json:"added,omitempty"`   // IDs of synthesized items
	Removed  []string       `json:"removed,omitempty"` // IDs of trimmed items
}

// RecommendationSet is the final, ranked, quota-satisfying output.
type RecommendationSet struct {
	Items       []*ScoredRecommendation `json:"items"`
	Counts      CategoryCounts          `json:"counts"`
	Dropped     []DroppedRecommendation `json:"dropped,omitempty"`
	Adjustments []Adjustment            `json:"adjustments,omitempty"`
}
