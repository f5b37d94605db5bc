// internal/api/handlers/insight_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/demand-insight/backend-go/internal/ingest"
	"github.com/demand-insight/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type InsightHandler struct {
	service *service.InsightService
}

func NewInsightHandler(service *service.InsightService) *InsightHandler {
	return &InsightHandler{service: service}
}

// Train ingests a JSON array of sales history records, fits models for
// every product and product/store pair found in it, and returns the
// per-product metric rows.
func (h *InsightHandler) Train(c *gin.Context) {
	var rows []map[string]any
	if err := c.ShouldBindJSON(&rows); err != nil {
		errorResponse(c, http.StatusBadRequest, "request body must be a JSON array of records")
		return
	}

	records, err := ingest.DecodeRecords(rows)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	summary, err := h.service.Train(c.Request.Context(), records)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary.Metrics)
}

type forecastRequest struct {
	Horizon  int    `json:"horizon"`
	Scenario string `json:"scenario"`
}

// Forecast reprojects all trained product models under a horizon and
// what-if scenario.
func (h *InsightHandler) Forecast(c *gin.Context) {
	var req forecastRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid forecast request body")
			return
		}
	}

	scenario, err := domain.ParseScenario(strings.TrimSpace(req.Scenario))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	metrics, err := h.service.Forecast(c.Request.Context(), req.Horizon, scenario)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// CalculateROP returns the reorder point analysis for one product/store pair.
func (h *InsightHandler) CalculateROP(c *gin.Context) {
	productID := strings.TrimSpace(c.Query("product_id"))
	storeID := strings.TrimSpace(c.Query("store_id"))
	if productID == "" || storeID == "" {
		errorResponse(c, http.StatusBadRequest, "product_id and store_id are required")
		return
	}

	leadTimeDays, ok := intQuery(c, "lead_time")
	if !ok {
		return
	}
	serviceLevel, ok := floatQuery(c, "service_level")
	if !ok {
		return
	}

	result, err := h.service.CalculateROP(c.Request.Context(), productID, storeID, leadTimeDays, serviceLevel)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AllRecommendations lists reorder recommendations for every trained pair,
// most urgent first.
func (h *InsightHandler) AllRecommendations(c *gin.Context) {
	leadTimeDays, ok := intQuery(c, "lead_time")
	if !ok {
		return
	}
	serviceLevel, ok := floatQuery(c, "service_level")
	if !ok {
		return
	}

	recs, err := h.service.AllRecommendations(c.Request.Context(), leadTimeDays, serviceLevel)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, recs)
}

// intQuery parses an optional positive integer query parameter. An absent
// parameter yields zero, which services replace with their default.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		errorResponse(c, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return v, true
}

func floatQuery(c *gin.Context, name string) (float64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || v >= 1 {
		errorResponse(c, http.StatusBadRequest, name+" must be a fraction between 0 and 1")
		return 0, false
	}
	return v, true
}

func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrNotTrained):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnknownSKU):
		errorResponse(c, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msg("handler: unexpected service error")
		errorResponse(c, http.StatusInternalServerError, "internal server error")
	}
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}
