package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/roomlock/roomlock-server/internal/config"
	"github.com/roomlock/roomlock-server/internal/database"
	"github.com/roomlock/roomlock-server/internal/handler"
	"github.com/roomlock/roomlock-server/internal/logger"
	"github.com/roomlock/roomlock-server/internal/middleware"
	"github.com/roomlock/roomlock-server/internal/queue"
	"github.com/roomlock/roomlock-server/internal/repository"
	"github.com/roomlock/roomlock-server/internal/router"
	"github.com/roomlock/roomlock-server/internal/service"
	"github.com/roomlock/roomlock-server/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		logger.Init("roomlock-api", "development", "info")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init("roomlock-api", cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := database.Apply(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("schema migration failed")
		}
		log.Info().Msg("schema up to date")
	}

	var events service.EventPublisher = queue.Nop{}
	var consumers sync.WaitGroup
	if cfg.Queue.Enabled {
		events = queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Name)
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			err := queue.StartActivityConsumer(ctx, queue.ConsumerConfig{
				URL:     cfg.Queue.URL,
				Queue:   cfg.Queue.Name,
				LogPath: cfg.Queue.ActivityLogPath,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("activity consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo(db)
	announcements := repository.NewAnnouncementRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	reservations := repository.NewReservationRepo(db)
	messages := repository.NewMessageRepo(db)
	reviews := repository.NewReviewRepo(db)
	images := storage.NewLocalImageStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxBytes)

	handlers := router.Handlers{
		Auth:          handler.NewAuthHandler(service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)),
		Announcements: handler.NewAnnouncementHandler(service.NewAnnouncementService(announcements)),
		Favorites:     handler.NewFavoriteHandler(service.NewFavoriteService(favorites, announcements)),
		Reservations:  handler.NewReservationHandler(service.NewReservationService(reservations, announcements, events)),
		Messages:      handler.NewMessageHandler(service.NewMessageService(messages, reservations, events)),
		Reviews:       handler.NewReviewHandler(service.NewReviewService(reviews, announcements, users, images, events)),
	}

	opts := router.Options{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   cfg.UploadDir,
		UploadURL:   uploadPath(cfg.UploadBaseURL),
	}
	if rdb := config.NewRedisClient(); rdb != nil { // nil when Redis is unreachable
		defer rdb.Close()
		rl := config.LoadRateLimitConfig()
		opts.RateLimit = middleware.NewTokenBucket(rl, rl.API, rdb)
		opts.AuthRateLimit = middleware.NewTokenBucket(rl, rl.Auth, rdb)
		opts.Cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}
	e := router.New(opts, handlers)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdown(e)
	consumers.Wait()
}

func shutdown(e *echo.Echo) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// uploadPath reduces an absolute upload URL to the path the static handler
// is mounted on.
func uploadPath(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Path == "" {
		return "/uploads"
	}
	return u.Path
}
