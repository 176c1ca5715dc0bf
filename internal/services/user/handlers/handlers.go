package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sangamam/matrimony/internal/services/user/service"
	"github.com/sangamam/matrimony/pkg/logger"
)

type UserHandlers struct {
	service *service.UserService
	logger  logger.Logger
}

func NewUserHandlers(svc *service.UserService, logger logger.Logger) *UserHandlers {
	return &UserHandlers{
		service: svc,
		logger:  logger,
	}
}

func (h *UserHandlers) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error", "code": "NOT_FOUND", "message": "account not found",
		})
	case errors.Is(err, service.ErrDuplicateMobile):
		c.JSON(http.StatusConflict, gin.H{
			"status": "error", "code": "DUPLICATE_MOBILE", "message": "mobile number already registered",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"status": "error", "code": "INVALID_CREDENTIALS", "message": "invalid mobile number or password",
		})
	case errors.Is(err, service.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "INVALID_OTP", "message": "invalid or expired verification code",
		})
	case errors.Is(err, service.ErrNotVerified):
		c.JSON(http.StatusForbidden, gin.H{
			"status": "error", "code": "NOT_VERIFIED", "message": "verify your account before logging in",
		})
	default:
		h.logger.Error("user request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error", "code": "PROCESSING_ERROR", "message": "request could not be processed",
		})
	}
}

func (h *UserHandlers) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}

	u, err := h.service.Register(c.Request.Context(), in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"user_id": u.ID,
		"message": "verification code sent",
	})
}

type verifyRequest struct {
	Mobile string `json:"mobile" binding:"required"`
	Code   string `json:"code" binding:"required,len=6"`
}

func (h *UserHandlers) VerifyOTP(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}

	if err := h.service.VerifyOTP(c.Request.Context(), req.Mobile, req.Code); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "account verified"})
}

type resendRequest struct {
	Mobile string `json:"mobile" binding:"required"`
}

func (h *UserHandlers) ResendOTP(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}

	if err := h.service.ResendOTP(c.Request.Context(), req.Mobile); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "verification code sent"})
}

type loginRequest struct {
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}

	tok, u, err := h.service.Login(c.Request.Context(), req.Mobile, req.Password)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"token":      tok,
		"user_id":    u.ID,
		"profile_id": u.ProfileID,
	})
}

func (h *UserHandlers) Me(c *gin.Context) {
	v, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status": "error", "code": "UNAUTHORIZED", "message": "authentication required",
		})
		return
	}
	id, _ := v.(uint)

	u, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": u})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (h *UserHandlers) ChangePassword(c *gin.Context) {
	v, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status": "error", "code": "UNAUTHORIZED", "message": "authentication required",
		})
		return
	}
	id, _ := v.(uint)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error", "code": "BAD_REQUEST", "message": err.Error(),
		})
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "password updated"})
}
