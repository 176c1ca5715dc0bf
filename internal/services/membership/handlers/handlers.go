package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sangamam/matrimony/internal/services/membership/service"
	"github.com/sangamam/matrimony/pkg/logger"
)

type MembershipHandlers struct {
	service *service.MembershipService
	logger  logger.Logger
}

func NewMembershipHandlers(svc *service.MembershipService, logger logger.Logger) *MembershipHandlers {
	return &MembershipHandlers{
		service: svc,
		logger:  logger,
	}
}

func (h *MembershipHandlers) Subscribe(c *gin.Context) {
	var in service.SubscribeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}

	m, err := h.service.Subscribe(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlan) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error", "code": "BAD_REQUEST", "message": "unknown membership plan",
			})
			return
		}
		h.logger.Error("subscribe failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error", "code": "PROCESSING_ERROR", "message": "request could not be processed",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "membership": m})
}

func (h *MembershipHandlers) GetActive(c *gin.Context) {
	profileID, err := strconv.ParseUint(c.Param("profileId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": "profile id must be a positive integer",
		})
		return
	}

	m, err := h.service.GetActive(c.Request.Context(), uint(profileID))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": "error", "code": "NOT_FOUND", "message": "no active membership",
			})
			return
		}
		h.logger.Error("membership lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error", "code": "PROCESSING_ERROR", "message": "request could not be processed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "membership": m})
}

func (h *MembershipHandlers) History(c *gin.Context) {
	profileID, err := strconv.ParseUint(c.Param("profileId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": "profile id must be a positive integer",
		})
		return
	}

	rows, err := h.service.History(c.Request.Context(), uint(profileID))
	if err != nil {
		h.logger.Error("membership history failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error", "code": "PROCESSING_ERROR", "message": "request could not be processed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "memberships": rows})
}
