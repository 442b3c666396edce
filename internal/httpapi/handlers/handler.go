package handlers

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/suPer8Hu/tcg-chat/internal/chat"
	"github.com/suPer8Hu/tcg-chat/internal/config"
)

// JobPublisher enqueues async chat jobs, e.g. rabbitmq.Publisher.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	ChatSvc *chat.Service
	Jobs    JobPublisher
	Log     zerolog.Logger
}

func NewHandler(db *gorm.DB, cfg config.Config, svc *chat.Service, jobs JobPublisher, log zerolog.Logger) *Handler {
	return &Handler{DB: db, Cfg: cfg, ChatSvc: svc, Jobs: jobs, Log: log}
}
