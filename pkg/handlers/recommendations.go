package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-charts/pkg/llm"
	"github.com/ekaya-inc/ekaya-charts/pkg/logging"
	"github.com/ekaya-inc/ekaya-charts/pkg/matcher"
	"github.com/ekaya-inc/ekaya-charts/pkg/models"
	"github.com/ekaya-inc/ekaya-charts/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// ColumnRequest describes one dataset column. InferredType accepts loose
// names such as "integer" or "timestamp".
type ColumnRequest struct {
	Name           string   `json:"name"`
	InferredType   string   `json:"inferred_type"`
	Cardinality    int      `json:"cardinality"`
	NullPercentage float64  `json:"null_percentage"`
	Confidence     *float64 `json:"confidence,omitempty"`
}

// CorrectionRequest is a user reclassification of one column.
type CorrectionRequest struct {
	Name          string `json:"name"`
	CorrectedType string `json:"corrected_type"`
	Role          string `json:"role,omitempty"`
	SemanticType  string `json:"semantic_type,omitempty"`
}

// RecommendationsRequest for POST /api/recommendations.
// Recommendations and ModelOutput may both be set; decoded model output
// comes first.
type RecommendationsRequest struct {
	Columns         []ColumnRequest     `json:"columns"`
	Recommendations []json.RawMessage   `json:"recommendations,omitempty"`
	ModelOutput     string              `json:"model_output,omitempty"`
	UserCorrections []CorrectionRequest `json:"user_corrections,omitempty"`
}

// RecommendationsResponse is the recommendation set plus decode statistics.
type RecommendationsResponse struct {
	*models.RecommendationSet
	// Skipped counts inputs that were not recommendation objects.
	Skipped int `json:"skipped"`
}

// ResolveColumnsRequest for POST /api/columns/resolve
type ResolveColumnsRequest struct {
	Columns []string `json:"columns"`
	Names   []string `json:"names"`
}

// ColumnResolution is the resolution of one requested name.
type ColumnResolution struct {
	Name string `json:"name"`
	matcher.Resolution
}

// ResolveColumnsResponse for POST /api/columns/resolve
type ResolveColumnsResponse struct {
	Resolutions []ColumnResolution `json:"resolutions"`
}

// ============================================================================
// Handler
// ============================================================================

// RecommendationsHandler serves the recommendation pipeline over HTTP.
type RecommendationsHandler struct {
	pipeline     services.RecommendationPipeline
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewRecommendationsHandler creates a new recommendations handler.
// A maxBodyBytes of 0 leaves request bodies unbounded.
func NewRecommendationsHandler(
	pipeline services.RecommendationPipeline,
	maxBodyBytes int64,
	logger *zap.Logger,
) *RecommendationsHandler {
	return &RecommendationsHandler{
		pipeline:     pipeline,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.Named("recommendations-handler"),
	}
}

// RegisterRoutes registers the recommendation handler's routes on the given mux.
func (h *RecommendationsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/recommendations", h.Recommend)
	mux.HandleFunc("POST /api/columns/resolve", h.ResolveColumns)
}

// Recommend handles POST /api/recommendations
func (h *RecommendationsHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	recs, skipped := h.collectRecommendations(&req)

	set, err := h.pipeline.Run(&services.RecommendationRequest{
		Schema:          schemaFromRequest(req.Columns),
		Recommendations: recs,
		Corrections:     correctionsFromRequest(req.UserCorrections),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSchemaEmpty) {
			h.writeError(w, http.StatusUnprocessableEntity, "schema_empty", "Dataset schema has no columns")
			return
		}
		h.logger.Error("Failed to build recommendation set", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "recommendation_failed", err.Error())
		return
	}

	response := RecommendationsResponse{RecommendationSet: set, Skipped: skipped}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ResolveColumns handles POST /api/columns/resolve
func (h *RecommendationsHandler) ResolveColumns(w http.ResponseWriter, r *http.Request) {
	var req ResolveColumnsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if len(req.Columns) == 0 {
		h.writeError(w, http.StatusUnprocessableEntity, "schema_empty", "Dataset schema has no columns")
		return
	}

	index := matcher.BuildIndex(req.Columns, h.logger)
	response := ResolveColumnsResponse{Resolutions: make([]ColumnResolution, len(req.Names))}
	for i, name := range req.Names {
		response.Resolutions[i] = ColumnResolution{Name: name, Resolution: index.Resolve(name)}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// collectRecommendations decodes model output and explicit recommendation
// objects into one list. Undecodable model output contributes nothing.
func (h *RecommendationsHandler) collectRecommendations(req *RecommendationsRequest) ([]models.RawRecommendation, int) {
	var recs []models.RawRecommendation
	skipped := 0

	if req.ModelOutput != "" {
		result, err := llm.DecodeRecommendations(req.ModelOutput)
		if err != nil {
			h.logger.Warn("Model output contained no recommendations",
				zap.String("preview", logging.Preview(req.ModelOutput)),
				zap.Error(err))
		} else {
			recs = append(recs, result.Recommendations...)
			skipped += result.Skipped
		}
	}

	for i, raw := range req.Recommendations {
		rec, err := llm.DecodeRecommendation(raw)
		if err != nil {
			h.logger.Debug("Skipping undecodable recommendation",
				zap.Int("index", i),
				zap.Error(err))
			skipped++
			continue
		}
		recs = append(recs, rec)
	}

	if skipped > 0 {
		h.logger.Info("Skipped undecodable recommendations", zap.Int("skipped", skipped))
	}
	return recs, skipped
}

func (h *RecommendationsHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}

func (h *RecommendationsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func schemaFromRequest(columns []ColumnRequest) models.DatasetSchema {
	schema := models.DatasetSchema{Columns: make([]models.ColumnDescriptor, len(columns))}
	for i, col := range columns {
		schema.Columns[i] = models.ColumnDescriptor{
			Name:           col.Name,
			InferredType:   models.ParseInferredType(col.InferredType),
			Cardinality:    col.Cardinality,
			NullPercentage: col.NullPercentage,
			Confidence:     col.Confidence,
		}
	}
	return schema
}

func correctionsFromRequest(corrections []CorrectionRequest) []models.UserCorrection {
	out := make([]models.UserCorrection, len(corrections))
	for i, c := range corrections {
		out[i] = models.UserCorrection{
			Name:          c.Name,
			CorrectedType: models.ParseInferredType(c.CorrectedType),
			Role:          c.Role,
			SemanticType:  c.SemanticType,
			Confidence:    models.UserCorrectionConfidence,
		}
	}
	return out
}
