package services

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-charts/pkg/matcher"
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
	"github.com/ekaya-inc/ekaya-charts/pkg/workerpool"
)

// PipelineConfig is the complete configuration of one pipeline run.
type PipelineConfig struct {
	Rebalance RebalanceConfig
	Scoring   ScoringConfig
	Workers   int
}

// DefaultPipelineConfig returns the default quotas, caps and parallelism.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Rebalance: DefaultRebalanceConfig(),
		Scoring:   DefaultScoringConfig(),
		Workers:   workerpool.DefaultConfig().MaxConcurrent,
	}
}

// RecommendationRequest is the input of one pipeline run.
type RecommendationRequest struct {
	Schema          models.DatasetSchema
	Recommendations []models.RawRecommendation
	Corrections     []models.UserCorrection
}

// RecommendationPipeline turns untrusted chart proposals into a validated,
// scored, quota-satisfying recommendation set.
type RecommendationPipeline interface {
	// Run returns apperrors.ErrSchemaEmpty when the schema has no columns.
	// Every other problem is recovered per item.
	Run(req *RecommendationRequest) (*models.RecommendationSet, error)
}

type recommendationPipeline struct {
	config PipelineConfig
	pool   *workerpool.Pool
	// base is handed to per-run components so their names stay flat.
	base   *zap.Logger
	logger *zap.Logger
}

// NewRecommendationPipeline creates a pipeline. It holds no per-dataset state:
// the column index and every derived structure are rebuilt on each run.
func NewRecommendationPipeline(config PipelineConfig, logger *zap.Logger) RecommendationPipeline {
	return &recommendationPipeline{
		config: config,
		pool:   workerpool.New(workerpool.Config{MaxConcurrent: config.Workers}, logger),
		base:   logger,
		logger: logger.Named("recommendation-pipeline"),
	}
}

var _ RecommendationPipeline = (*recommendationPipeline)(nil)

// itemResult is the per-item output of the parallel stage.
type itemResult struct {
	rec     *models.RawRecommendation
	outcome *models.ValidationOutcome
	scored  *models.ScoredRecommendation
}

func (p *recommendationPipeline) Run(req *RecommendationRequest) (*models.RecommendationSet, error) {
	if len(req.Schema.Columns) == 0 {
		return nil, apperrors.ErrSchemaEmpty
	}

	schema := &req.Schema
	index := matcher.BuildIndex(schema.ColumnNames(), p.base)
	validator := NewChartValidator(index, p.base)
	scorer := NewQualityScorer(schema, index, req.Corrections, p.config.Scoring, p.base)

	recs := make([]*models.RawRecommendation, len(req.Recommendations))
	for i := range req.Recommendations {
		rec := req.Recommendations[i]
		if rec.ID == "" {
			rec.ID = RecommendationID("model", strconv.Itoa(i), rec.ChartKind, rec.Title)
		}
		recs[i] = &rec
	}

	results := workerpool.Process(p.pool, recs, func(_ int, rec *models.RawRecommendation) itemResult {
		outcome := validator.Validate(rec)
		result := itemResult{rec: rec, outcome: outcome}
		if outcome.IsValid() {
			result.scored = scorer.Score(rec, outcome)
		}
		return result
	})

	set := &models.RecommendationSet{
		Items:   make([]*models.ScoredRecommendation, 0, len(results)),
		Dropped: []models.DroppedRecommendation{},
	}
	for i, result := range results {
		if result.scored != nil {
			set.Items = append(set.Items, result.scored)
			continue
		}
		set.Dropped = append(set.Dropped, models.DroppedRecommendation{
			Index:     i,
			ID:        result.rec.ID,
			Title:     result.rec.Title,
			ChartKind: result.rec.ChartKind,
			Issues:    result.outcome.Blocking,
		})
		p.logger.Info("Dropped recommendation with structural issues",
			zap.Int("index", i),
			zap.String("id", result.rec.ID),
			zap.String("chart_kind", result.rec.ChartKind),
			zap.String("title", result.rec.Title),
			zap.Strings("issues", issueCodes(result.outcome.Blocking)))
	}

	RankRecommendations(set.Items)

	rebalancer := NewSetRebalancer(p.config.Rebalance, validator, scorer, NewFallbackGenerator(schema, p.base), p.base)
	set.Items, set.Adjustments = rebalancer.Rebalance(set.Items)
	set.Counts = models.CountCategories(set.Items)

	p.logger.Info("Built recommendation set",
		zap.Int("received", len(req.Recommendations)),
		zap.Int("dropped", len(set.Dropped)),
		zap.Int("items", len(set.Items)),
		zap.Int("scorecards", set.Counts.Scorecards),
		zap.Int("visualizations", set.Counts.Visualizations),
		zap.Int("tables", set.Counts.Tables),
		zap.Int("adjustments", len(set.Adjustments)))

	return set, nil
}

func issueCodes(issues []models.Issue) []string {
	codes := make([]string, len(issues))
	for i, issue := range issues {
		codes[i] = string(issue.Code)
		if issue.Field != "" {
			codes[i] += ":" + issue.Field
		}
	}
	return codes
}
