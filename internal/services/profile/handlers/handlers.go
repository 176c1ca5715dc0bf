package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/services/profile/service"
	"github.com/sangamam/matrimony/pkg/logger"
)

type ProfileHandlers struct {
	service *service.ProfileService
	logger  logger.Logger
}

func NewProfileHandlers(svc *service.ProfileService, logger logger.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		service: svc,
		logger:  logger,
	}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"code":    "BAD_REQUEST",
			"message": name + " must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

func userID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func (h *ProfileHandlers) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error", "code": "NOT_FOUND", "message": "profile not found",
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": "invalid profile data",
		})
	default:
		h.logger.Error("profile request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error", "code": "PROCESSING_ERROR", "message": "request could not be processed",
		})
	}
}

func (h *ProfileHandlers) Create(c *gin.Context) {
	var in service.CreateProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}
	p, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "profile": p})
}

func (h *ProfileHandlers) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "profile": p})
}

func (h *ProfileHandlers) GetComplete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cp, err := h.service.GetComplete(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "profile": cp})
}

func (h *ProfileHandlers) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	profiles, total, err := h.service.List(c.Request.Context(), offset, limit)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"total":    total,
		"profiles": profiles,
	})
}

func (h *ProfileHandlers) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var p profile.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}
	p.ID = id
	if err := h.service.Update(c.Request.Context(), userID(c), &p); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *ProfileHandlers) Deactivate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), userID(c), id); err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProfileHandlers) SaveAstrology(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var d profile.AstrologyDetails
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}
	d.ProfileID = id
	if err := h.service.SaveAstrology(c.Request.Context(), userID(c), &d); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "astrology": d})
}

func (h *ProfileHandlers) SaveFamily(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var d profile.FamilyDetails
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}
	d.ProfileID = id
	if err := h.service.SaveFamily(c.Request.Context(), userID(c), &d); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "family": d})
}

func (h *ProfileHandlers) SaveProfessional(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var d profile.ProfessionalDetails
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}
	d.ProfileID = id
	if err := h.service.SaveProfessional(c.Request.Context(), userID(c), &d); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "professional": d})
}

func (h *ProfileHandlers) SavePreferences(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var d profile.PartnerPreferences
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}
	d.ProfileID = id
	if err := h.service.SavePreferences(c.Request.Context(), userID(c), &d); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "preferences": d})
}
