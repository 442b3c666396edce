package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/tcg-chat/internal/ai"
	"github.com/suPer8Hu/tcg-chat/internal/chat"
	"github.com/suPer8Hu/tcg-chat/internal/config"
	"github.com/suPer8Hu/tcg-chat/internal/db"
	"github.com/suPer8Hu/tcg-chat/internal/logger"
	"github.com/suPer8Hu/tcg-chat/internal/metrics"
	"github.com/suPer8Hu/tcg-chat/internal/store/rabbitmq"
)

const slowJob = 2 * time.Second

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
	log = log.With().Str("component", "worker").Logger()

	gdb, err := db.Open(cfg.DBDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}

	provider := ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	svc := chat.NewService(chat.NewRepo(gdb), provider, cfg.ChatSettings(), log)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, cfg.WorkerConcurrency, log)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit consumer")
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")
	if err := consumer.Run(ctx, func(ctx context.Context, jobID string) error {
		return handleJob(ctx, svc, log, jobID)
	}); err != nil {
		log.Error().Err(err).Msg("consumer stopped")
	}
}

func handleJob(ctx context.Context, svc *chat.Service, log zerolog.Logger, jobID string) error {
	start := time.Now()
	_, err := svc.RunJob(ctx, jobID)
	cost := time.Since(start)

	if err != nil {
		metrics.JobsTotal.WithLabelValues(string(chat.JobFailed)).Inc()
		log.Warn().Err(err).Str("job_id", jobID).Dur("cost", cost).Msg("job_timing_failed")
		return err
	}

	metrics.JobsTotal.WithLabelValues(string(chat.JobSucceeded)).Inc()
	if cost > slowJob {
		log.Info().Str("job_id", jobID).Dur("cost", cost).Msg("job_timing")
	}
	return nil
}
