package handler

import (
	"github.com/mailer8/mailer8/internal/config"
	"github.com/mailer8/mailer8/internal/database"
	"github.com/mailer8/mailer8/internal/logger"
	"github.com/mailer8/mailer8/internal/repository"
	"github.com/mailer8/mailer8/internal/service"
)

// Handler holds all HTTP handlers
type Handler struct {
	db           *database.Postgres
	rdb          *database.Redis
	log          *logger.Logger
	cfg          *config.Config
	dispatchSvc  *service.DispatchService
	gate         *service.ScheduleGate
	emailLogRepo *repository.EmailLogRepository
}

// New creates a new Handler instance
func New(db *database.Postgres, rdb *database.Redis, log *logger.Logger, cfg *config.Config, dispatchSvc *service.DispatchService, gate *service.ScheduleGate, emailLogRepo *repository.EmailLogRepository) *Handler {
	return &Handler{
		db:           db,
		rdb:          rdb,
		log:          log,
		cfg:          cfg,
		dispatchSvc:  dispatchSvc,
		gate:         gate,
		emailLogRepo: emailLogRepo,
	}
}
