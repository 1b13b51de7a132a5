package handlers

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-xi/internal/config"
	"github.com/pitchside/cricket-xi/internal/engine"
	"github.com/pitchside/cricket-xi/internal/matchdata"
	"github.com/pitchside/cricket-xi/internal/optimizer"
	"github.com/pitchside/cricket-xi/internal/types"
	"github.com/pitchside/cricket-xi/internal/websocket"
	"github.com/pitchside/cricket-xi/pkg/cache"
)

// RecommendationHandler handles squad recommendation endpoints
type RecommendationHandler struct {
	engine *engine.Engine
	cache  *cache.RecommendationCacheService
	wsHub  *websocket.Hub
	config *config.Config
	logger *logrus.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(
	eng *engine.Engine,
	cacheService *cache.RecommendationCacheService,
	wsHub *websocket.Hub,
	cfg *config.Config,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		engine: eng,
		cache:  cacheService,
		wsHub:  wsHub,
		config: cfg,
		logger: logger,
	}
}

// RecommendSquad handles squad recommendation requests. The body is a match
// record in the standard ball-by-ball JSON layout; for an upcoming match the
// innings section is simply absent.
func (h *RecommendationHandler) RecommendSquad(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "Failed to read request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	match, err := matchdata.Parse(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_REQUEST",
			Details: map[string]string{
				"validation_error": err.Error(),
			},
		})
		return
	}
	match.ID = fmt.Sprintf("request-%x", md5.Sum(body))

	cacheKey := fmt.Sprintf("%x", md5.Sum(body))
	if h.cache != nil {
		if cached, err := h.cache.GetRecommendation(c.Request.Context(), cacheKey); err == nil && cached != nil {
			h.logger.WithField("cache_key", cacheKey).Info("Returning cached recommendation")
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	progress := func(update types.ProgressUpdate) {
		if h.wsHub != nil {
			h.wsHub.BroadcastToRequest(update.RequestID, update)
		}
	}

	startTime := time.Now()
	rec, err := h.engine.Recommend(c.Request.Context(), match, progress)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetRecommendation(c.Request.Context(), cacheKey, rec, h.config.CacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache recommendation")
		}
		if err := h.cache.SetRequestIndex(c.Request.Context(), rec.ID, cacheKey, h.config.CacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to index recommendation request")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":     rec.ID,
		"teams":          rec.Teams,
		"execution_time": time.Since(startTime),
	}).Info("Recommendation completed successfully")

	c.JSON(http.StatusOK, rec)
}

// GetRationale derives the per-feature explanation for one recommended
// player on demand. The recommendation must still be in cache.
func (h *RecommendationHandler) GetRationale(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error: "Rationale lookups require the cache to be enabled",
			Code:  "CACHE_DISABLED",
		})
		return
	}

	requestID := c.Param("request_id")
	playerID := c.Param("player_id")

	cacheKey, err := h.cache.GetRequestIndex(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error: "Recommendation not found",
			Code:  "NOT_FOUND",
		})
		return
	}
	rec, err := h.cache.GetRecommendation(c.Request.Context(), cacheKey)
	if err != nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error: "Recommendation not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	contributions, err := h.engine.Explain(c.Request.Context(), rec, playerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id":    requestID,
		"player_id":     playerID,
		"predicted_fp":  rec.Predicted[playerID],
		"contributions": contributions,
	})
}

// GetCacheStatus returns cache statistics
func (h *RecommendationHandler) GetCacheStatus(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"healthy": false, "error": "cache not configured"})
		return
	}
	c.JSON(http.StatusOK, h.cache.GetStatus(c.Request.Context()))
}

// writeError maps pipeline errors onto HTTP statuses. Malformed input is a
// 400, an unsatisfiable pool is a 422 with the reason intact, and a score
// provider failure surfaces as a 502 without being reworded.
func (h *RecommendationHandler) writeError(c *gin.Context, err error) {
	var validationErr *optimizer.ValidationError
	var infeasibleErr *optimizer.Infeasible

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: validationErr.Error(),
			Code:  "INVALID_REQUEST",
			Details: map[string]string{
				"field":  validationErr.Field,
				"reason": validationErr.Reason,
			},
		})
	case errors.As(err, &infeasibleErr):
		c.JSON(http.StatusUnprocessableEntity, types.ErrorResponse{
			Error: infeasibleErr.Error(),
			Code:  "INFEASIBLE_SQUAD",
			Details: map[string]string{
				"reason": infeasibleErr.Reason,
			},
		})
	case errors.Is(err, c.Request.Context().Err()) && c.Request.Context().Err() != nil:
		h.logger.WithError(err).Warn("Recommendation cancelled by client")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error: "Request cancelled",
			Code:  "CANCELLED",
		})
	default:
		h.logger.WithError(err).Error("Score provider failed")
		c.JSON(http.StatusBadGateway, types.ErrorResponse{
			Error: "Prediction provider failed",
			Code:  "PROVIDER_ERROR",
			Details: map[string]string{
				"error": err.Error(),
			},
		})
	}
}
