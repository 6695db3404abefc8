// internal/api/handler.go
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	stderrors "template-recommender/internal/common/errors"
	"template-recommender/internal/common/logger"
	"template-recommender/internal/models"
	"template-recommender/internal/recommendation"
)

// Handler exposes the recommendation service over a small JSON surface for
// the surrounding application.
type Handler struct {
	service *recommendation.Service
	logger  logger.Logger
	mux     *http.ServeMux
}

// NewHandler builds the HTTP routing for the recommendation endpoints.
func NewHandler(service *recommendation.Service, log logger.Logger) *Handler {
	h := &Handler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("/v1/recommendations", h.getRecommendations)
	h.mux.HandleFunc("/v1/templates/similar", h.getSimilar)
	h.mux.HandleFunc("/v1/templates/trending", h.getTrending)
	h.mux.HandleFunc("/v1/usage", h.recordUsage)
	h.mux.HandleFunc("/v1/ratings", h.recordRating)
	h.mux.HandleFunc("/v1/search-preferences", h.updateSearchPreferences)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	opts := models.RecommendationOptions{
		ExcludeUsed:    query.Get("excludeUsed") == "true",
		IncludeReasons: query.Get("includeReasons") == "true",
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		opts.Limit = limit
	}
	if raw := query.Get("minRating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "minRating must be a number")
			return
		}
		opts.MinRating = minRating
	}
	if raw := query.Get("categories"); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			opts.Categories = append(opts.Categories, models.TemplateCategory(strings.TrimSpace(value)))
		}
	}

	result, err := h.service.GetRecommendations(r.Context(), query.Get("userId"), opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	templates, err := h.service.GetSimilarTemplates(r.Context(), query.Get("templateId"), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

func (h *Handler) getTrending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	timeframe := models.Timeframe(query.Get("timeframe"))
	if timeframe == "" {
		timeframe = models.TimeframeWeek
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	templates, err := h.service.GetTrendingTemplates(r.Context(), timeframe, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

type usageRequest struct {
	UserID     string            `json:"userId"`
	TemplateID string            `json:"templateId"`
	Usage      models.UsageEvent `json:"usage"`
}

func (h *Handler) recordUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req usageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.RecordTemplateUsage(r.Context(), req.UserID, req.TemplateID, req.Usage); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

type ratingRequest struct {
	UserID     string  `json:"userId"`
	TemplateID string  `json:"templateId"`
	Rating     float64 `json:"rating"`
}

func (h *Handler) recordRating(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.RecordTemplateRating(r.Context(), req.UserID, req.TemplateID, req.Rating); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

type searchPreferencesRequest struct {
	UserID              string   `json:"userId"`
	SearchTerm          string   `json:"searchTerm"`
	SelectedTemplateIDs []string `json:"selectedTemplateIds"`
}

func (h *Handler) updateSearchPreferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req searchPreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateSearchPreferences(r.Context(), req.UserID, req.SearchTerm, req.SelectedTemplateIDs); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if stdErr, ok := err.(*stderrors.StandardError); ok {
		status := http.StatusInternalServerError
		switch stdErr.Code {
		case stderrors.ErrCodeInvalidArgument:
			status = http.StatusBadRequest
		case stderrors.ErrCodeTemplateNotFound:
			status = http.StatusNotFound
		}
		writeJSON(w, status, stdErr)
		return
	}

	h.logger.Error("unhandled service error", map[string]interface{}{"error": err.Error()})
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
