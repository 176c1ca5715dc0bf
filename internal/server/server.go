package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	matchhandlers "github.com/sangamam/matrimony/internal/services/match/handlers"
	mediahandlers "github.com/sangamam/matrimony/internal/services/media/handlers"
	membershiphandlers "github.com/sangamam/matrimony/internal/services/membership/handlers"
	profilehandlers "github.com/sangamam/matrimony/internal/services/profile/handlers"
	userhandlers "github.com/sangamam/matrimony/internal/services/user/handlers"
	"github.com/sangamam/matrimony/internal/services/user/token"
	"github.com/sangamam/matrimony/pkg/config"
	"github.com/sangamam/matrimony/pkg/database"
	"github.com/sangamam/matrimony/pkg/logger"
)

// Handlers bundles every service's HTTP surface for route registration.
type Handlers struct {
	User       *userhandlers.UserHandlers
	Profile    *profilehandlers.ProfileHandlers
	Media      *mediahandlers.MediaHandlers
	Match      *matchhandlers.MatchHandlers
	Membership *membershiphandlers.MembershipHandlers
}

type Server struct {
	http   *http.Server
	cfg    config.ServerConfig
	db     *database.DB
	logger logger.Logger
}

func New(cfg config.ServerConfig, db *database.DB, tokens *token.Manager, h Handlers, log logger.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(metricsMiddleware())

	s := &Server{
		cfg:    cfg,
		db:     db,
		logger: log,
	}

	router.GET("/health", s.health)
	router.GET("/ready", s.ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.User.Register)
		auth.POST("/verify-otp", h.User.VerifyOTP)
		auth.POST("/resend-otp", h.User.ResendOTP)
		auth.POST("/login", h.User.Login)
	}

	authed := api.Group("")
	authed.Use(authMiddleware(tokens))
	{
		authed.GET("/me", h.User.Me)
		authed.POST("/me/password", h.User.ChangePassword)

		profiles := authed.Group("/profiles")
		{
			profiles.POST("", h.Profile.Create)
			profiles.GET("", h.Profile.List)
			profiles.GET("/:id", h.Profile.Get)
			profiles.GET("/:id/complete", h.Profile.GetComplete)
			profiles.PUT("/:id", h.Profile.Update)
			profiles.DELETE("/:id", h.Profile.Deactivate)
			profiles.PUT("/:id/astrology", h.Profile.SaveAstrology)
			profiles.PUT("/:id/family", h.Profile.SaveFamily)
			profiles.PUT("/:id/professional", h.Profile.SaveProfessional)
			profiles.PUT("/:id/preferences", h.Profile.SavePreferences)
		}

		uploads := authed.Group("/profiles/:id")
		uploads.Use(newUploadRateLimiter(cfg.UploadRPS, cfg.UploadBurst).Handle())
		{
			uploads.POST("/photo", h.Media.UploadPhoto)
			uploads.POST("/certificate", h.Media.UploadCertificate)
			uploads.POST("/horoscope", h.Media.UploadHoroscope)
		}

		files := authed.Group("/files")
		{
			files.GET("", h.Media.ListFiles)
			files.GET("/statistics", h.Media.Statistics)
			files.GET("/:id", h.Media.GetFile)
			files.GET("/:id/content", h.Media.DownloadFile)
			files.GET("/:id/thumbnail", h.Media.DownloadThumbnail)
			files.POST("/:id/approve", h.Media.ApproveFile)
			files.POST("/:id/reject", h.Media.RejectFile)
			files.DELETE("/:id", h.Media.DeleteFile)
		}

		matches := authed.Group("/matches")
		{
			matches.GET("", h.Match.Recommendations)
			matches.GET("/:profileId/score", h.Match.ScoreAgainst)
		}

		memberships := authed.Group("/memberships")
		{
			memberships.POST("", h.Membership.Subscribe)
			memberships.GET("/:profileId", h.Membership.GetActive)
			memberships.GET("/:profileId/history", h.Membership.History)
		}
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) ready(c *gin.Context) {
	sqlDB, err := s.db.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
