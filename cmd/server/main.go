package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sangamam/matrimony/internal/domain/media"
	"github.com/sangamam/matrimony/internal/domain/membership"
	"github.com/sangamam/matrimony/internal/domain/profile"
	"github.com/sangamam/matrimony/internal/domain/user"
	"github.com/sangamam/matrimony/internal/server"
	matchhandlers "github.com/sangamam/matrimony/internal/services/match/handlers"
	matchrepo "github.com/sangamam/matrimony/internal/services/match/repository"
	matchservice "github.com/sangamam/matrimony/internal/services/match/service"
	"github.com/sangamam/matrimony/internal/services/media/convert"
	mediahandlers "github.com/sangamam/matrimony/internal/services/media/handlers"
	mediarepo "github.com/sangamam/matrimony/internal/services/media/repository"
	"github.com/sangamam/matrimony/internal/services/media/scanner"
	mediaservice "github.com/sangamam/matrimony/internal/services/media/service"
	"github.com/sangamam/matrimony/internal/services/media/storage"
	membershiphandlers "github.com/sangamam/matrimony/internal/services/membership/handlers"
	membershiprepo "github.com/sangamam/matrimony/internal/services/membership/repository"
	membershipservice "github.com/sangamam/matrimony/internal/services/membership/service"
	profilehandlers "github.com/sangamam/matrimony/internal/services/profile/handlers"
	profilerepo "github.com/sangamam/matrimony/internal/services/profile/repository"
	profileservice "github.com/sangamam/matrimony/internal/services/profile/service"
	userhandlers "github.com/sangamam/matrimony/internal/services/user/handlers"
	userrepo "github.com/sangamam/matrimony/internal/services/user/repository"
	userservice "github.com/sangamam/matrimony/internal/services/user/service"
	"github.com/sangamam/matrimony/internal/services/user/token"
	"github.com/sangamam/matrimony/pkg/cache"
	"github.com/sangamam/matrimony/pkg/config"
	"github.com/sangamam/matrimony/pkg/database"
	"github.com/sangamam/matrimony/pkg/logger"
)

func main() {
	cfg, err := config.Load("matrimony")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logger.ToLoggerConfig())

	db, err := database.New(cfg.Database.ToDatabaseConfig())
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	defer db.Close()

	if err := db.Migrate(
		&user.User{},
		&profile.Profile{},
		&profile.AstrologyDetails{},
		&profile.FamilyDetails{},
		&profile.ProfessionalDetails{},
		&profile.PartnerPreferences{},
		&media.StoredFile{},
		&membership.Membership{},
	); err != nil {
		log.Fatal("migration failed", "error", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	var matchCache cache.Cache
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, recommendations run uncached", "error", err)
		} else {
			matchCache = cache.NewRedisCache(redisClient, "match")
		}
		cancel()
	}

	tokens := token.NewManager(cfg.Auth)

	userRepo := userrepo.NewUserRepository(db)
	userSvc := userservice.NewUserService(userRepo, tokens,
		&userservice.LogOTPSender{Logger: log}, cfg.Auth, log)

	matchRepo := matchrepo.NewMatchRepository(db)
	matchSvc := matchservice.NewMatchService(matchRepo, matchCache, log)

	profileRepo := profilerepo.NewProfileRepository(db)
	profileSvc := profileservice.NewProfileService(profileRepo, matchSvc, log)

	mediaRepo := mediarepo.NewMediaRepository(db)
	mediaSvc := mediaservice.New(
		mediaRepo,
		storage.NewLocalStore(),
		scanner.NewExecScanner(cfg.Media.ScannerCommand, cfg.Media.ScannerTimeout, log),
		convert.New(cfg.Media.PhotoQuality, cfg.Media.ThumbnailSize),
		cfg.Media,
		log,
	)

	membershipRepo := membershiprepo.NewMembershipRepository(db)
	membershipSvc := membershipservice.NewMembershipService(membershipRepo, log)
	if err := membershipSvc.StartExpirySweep(cfg.Membership.ExpirySweepSchedule); err != nil {
		log.Fatal("could not schedule membership expiry sweep", "error", err)
	}
	defer membershipSvc.StopExpirySweep()

	srv := server.New(cfg.Server, db, tokens, server.Handlers{
		User:       userhandlers.NewUserHandlers(userSvc, log),
		Profile:    profilehandlers.NewProfileHandlers(profileSvc, log),
		Media:      mediahandlers.NewMediaHandlers(mediaSvc, log),
		Match:      matchhandlers.NewMatchHandlers(matchSvc, log),
		Membership: membershiphandlers.NewMembershipHandlers(membershipSvc, log),
	}, log)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	log.Info("server exited")
}
