package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sangamam/matrimony/internal/services/match/repository"
	"github.com/sangamam/matrimony/internal/services/match/service"
	"github.com/sangamam/matrimony/pkg/logger"
)

type MatchHandlers struct {
	service *service.MatchService
	logger  logger.Logger
}

func NewMatchHandlers(svc *service.MatchService, logger logger.Logger) *MatchHandlers {
	return &MatchHandlers{
		service: svc,
		logger:  logger,
	}
}

// authedUserID reads the user id the auth middleware stored on the context.
func authedUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"code":    "UNAUTHORIZED",
			"message": "authentication required",
		})
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"code":    "UNAUTHORIZED",
			"message": "authentication required",
		})
		return 0, false
	}
	return id, true
}

func (h *MatchHandlers) Recommendations(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	matches, total, err := h.service.Recommendations(c.Request.Context(), userID, offset, limit)
	if err != nil {
		if errors.Is(err, service.ErrNoSubject) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"code":    "NOT_FOUND",
				"message": "no profile found for this account",
			})
			return
		}
		h.logger.Error("recommendation query failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"code":    "PROCESSING_ERROR",
			"message": "could not compute recommendations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"total":   total,
		"offset":  offset,
		"limit":   limit,
		"matches": matches,
	})
}

func (h *MatchHandlers) ScoreAgainst(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	candidateID, err := strconv.ParseUint(c.Param("profileId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"code":    "BAD_REQUEST",
			"message": "profile id must be a positive integer",
		})
		return
	}

	score, err := h.service.ScoreAgainst(c.Request.Context(), userID, uint(candidateID))
	if err != nil {
		if errors.Is(err, service.ErrNoSubject) || errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"code":    "NOT_FOUND",
				"message": "profile not found in your candidate pool",
			})
			return
		}
		h.logger.Error("score query failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"code":    "PROCESSING_ERROR",
			"message": "could not compute score",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"profile_id":  candidateID,
		"match_score": score,
	})
}
