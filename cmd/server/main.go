package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/tcg-chat/internal/ai"
	"github.com/suPer8Hu/tcg-chat/internal/chat"
	"github.com/suPer8Hu/tcg-chat/internal/config"
	"github.com/suPer8Hu/tcg-chat/internal/db"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/tcg-chat/internal/logger"
	"github.com/suPer8Hu/tcg-chat/internal/models"
	"github.com/suPer8Hu/tcg-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/tcg-chat/internal/store/redisstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("init logger")
	}

	gdb, err := db.Open(cfg.DBDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(gdb, append([]any{&models.User{}, &models.UploadedFile{}}, chat.Models()...)...); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}

	var counter middleware.Counter
	if cfg.ChatRateLimit > 0 {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rds.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rds.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, rate limit fails open")
		}
		cancel()
		counter = rds
	}

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit publisher")
	}
	defer pub.Close()

	provider := ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	svc := chat.NewService(chat.NewRepo(gdb), provider, cfg.ChatSettings(), log)
	h := handlers.NewHandler(gdb, cfg, svc, pub, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h, counter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("model", cfg.GeminiModel).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
